/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scenebuilder/internal/domain"
)

const (
	// FileExt is the extension of project files.
	FileExt        = ".slsb.json"
	BackupsDirName = "backups"
)

// ReadPackage loads and validates the project file at path. Legacy files are upgraded
// to the current version in memory. Failures are returned as *domain.LoadError.
func ReadPackage(path string) (domain.Package, error) {
	if strings.TrimSpace(path) == "" {
		return domain.Package{}, &domain.LoadError{Path: path, Err: errors.New("path is required")}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Package{}, &domain.LoadError{Path: path, Err: err}
	}
	pkg, err := DecodePackage(b)
	if err != nil {
		return domain.Package{}, &domain.LoadError{Path: path, Err: err}
	}
	if pkg.Name == "" {
		pkg.Name = NameFromPath(path)
	}
	return pkg, nil
}

// DecodePackage parses a project document of any supported version.
func DecodePackage(data []byte) (domain.Package, error) {
	var head struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return domain.Package{}, fmt.Errorf("parse project: %w", err)
	}
	switch head.Version {
	case 0, 1:
		if err := validateAgainst(legacySchema, data); err != nil {
			return domain.Package{}, err
		}
		return upgradeLegacy(data)
	case domain.CurrentVersion:
		if err := validateAgainst(packageSchema, data); err != nil {
			return domain.Package{}, err
		}
	default:
		return domain.Package{}, fmt.Errorf("unsupported project version %d", head.Version)
	}
	var pkg domain.Package
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&pkg); err != nil {
		return domain.Package{}, fmt.Errorf("decode project: %w", err)
	}
	if pkg.Scenes == nil {
		pkg.Scenes = []domain.Scene{}
	}
	if err := pkg.Validate(); err != nil {
		return domain.Package{}, err
	}
	return pkg, nil
}

// EncodePackage renders pkg in the current human-readable file format.
func EncodePackage(pkg domain.Package) ([]byte, error) {
	pkg.Version = domain.CurrentVersion
	if pkg.Scenes == nil {
		pkg.Scenes = []domain.Scene{}
	}
	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}
	return append(data, '\n'), nil
}

// WritePackage writes pkg to path with transactional semantics and a timestamped backup
// of the previous file (if present) under <dir>/backups. A package that would not load
// again is refused. Failures are returned as *domain.SaveError and leave the previous
// file in place.
func WritePackage(path string, pkg domain.Package) error {
	if strings.TrimSpace(path) == "" {
		return &domain.SaveError{Path: path, Err: errors.New("path is required")}
	}
	if err := pkg.Validate(); err != nil {
		return &domain.SaveError{Path: path, Err: err}
	}
	data, err := EncodePackage(pkg)
	if err != nil {
		return &domain.SaveError{Path: path, Err: err}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.SaveError{Path: path, Err: fmt.Errorf("create project dir: %w", err)}
	}
	if _, statErr := os.Stat(path); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bpath := filepath.Join(dir, BackupsDirName, fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp))
		if cerr := copyFile(path, bpath); cerr != nil {
			return &domain.SaveError{Path: path, Err: fmt.Errorf("backup current file: %w", cerr)}
		}
	}
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		_ = os.Remove(temp)
		return &domain.SaveError{Path: path, Err: fmt.Errorf("write temp file: %w", werr)}
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return &domain.SaveError{Path: path, Err: fmt.Errorf("replace project file: %w", rerr)}
	}
	return nil
}

// AutosaveCrashSnapshot writes pkg next to the project file (or into the temp dir for
// untitled projects) without touching the project file itself.
func AutosaveCrashSnapshot(path string, pkg domain.Package) (string, error) {
	dir := os.TempDir()
	base := "untitled" + FileExt
	if path != "" {
		dir = filepath.Join(filepath.Dir(path), BackupsDirName)
		base = filepath.Base(path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	data, err := EncodePackage(pkg)
	if err != nil {
		return "", err
	}
	stamp := time.Now().Format("20060102-150405")
	out := filepath.Join(dir, fmt.Sprintf("%s.crash-%s.json", strings.TrimSuffix(base, FileExt), stamp))
	if err := writeFileSync(out, data); err != nil {
		return "", err
	}
	return out, nil
}

// NameFromPath derives a package name from a project file name: "dir/Foo.slsb.json" -> "Foo".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, FileExt)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
