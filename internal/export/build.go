/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export renders a scene package into its runtime build and a printable scene sheet.
// Neither export mutates the package or the editor's dirty state.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"scenebuilder/internal/domain"
	applog "scenebuilder/internal/log"
	"scenebuilder/internal/version"
)

// RuntimeExt is the extension of build artifacts loaded by the game-side runtime.
const RuntimeExt = ".slr.json"

// RuntimeFormat is bumped whenever the runtime layout changes.
const RuntimeFormat = 1

type runtimePackage struct {
	Format  int            `json:"format"`
	Name    string         `json:"name"`
	Author  string         `json:"author,omitempty"`
	Builder string         `json:"builder"`
	Scenes  []runtimeScene `json:"scenes"`
}

type runtimeScene struct {
	ID        domain.ID             `json:"id"`
	Name      string                `json:"name"`
	Private   bool                  `json:"private,omitempty"`
	Root      domain.ID             `json:"root"`
	Furniture domain.Furniture      `json:"furniture"`
	Positions []domain.PositionInfo `json:"positions"`
	Stages    []runtimeStage        `json:"stages"`
}

// runtimeStage omits the editor-only display name.
type runtimeStage struct {
	ID        domain.ID         `json:"id"`
	Positions []domain.Position `json:"positions"`
	Tags      []string          `json:"tags,omitempty"`
	Extra     domain.StageExtra `json:"extra"`
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._ -]+`)

// RuntimeFileName returns the artifact name for pkg, e.g. "My Pack.slr.json".
func RuntimeFileName(pkg domain.Package) string {
	name := strings.TrimSpace(unsafeFileChars.ReplaceAllString(pkg.Name, "_"))
	if name == "" {
		name = "untitled"
	}
	return name + RuntimeExt
}

// BuildRuntime validates pkg and writes its runtime artifact into outDir, returning the
// written path. Scenes without stages cannot be played and are left out. Failures are
// returned as *domain.ExportError.
func BuildRuntime(pkg domain.Package, outDir string) (string, error) {
	l := applog.WithOperation(applog.WithComponent("export"), "build").With(slog.String("dir", outDir))
	if strings.TrimSpace(outDir) == "" {
		return "", &domain.ExportError{Path: outDir, Err: errors.New("output directory is required")}
	}
	if strings.TrimSpace(pkg.Name) == "" {
		return "", &domain.ExportError{Path: outDir, Err: errors.New("package has no name; save it first")}
	}
	if err := pkg.Validate(); err != nil {
		return "", &domain.ExportError{Path: outDir, Err: err}
	}
	rp := runtimePackage{
		Format:  RuntimeFormat,
		Name:    pkg.Name,
		Author:  pkg.Author,
		Builder: version.String(),
		Scenes:  make([]runtimeScene, 0, len(pkg.Scenes)),
	}
	for _, sc := range pkg.Scenes {
		if len(sc.Stages) == 0 {
			l.Warn("skipping scene without stages", slog.String("scene", sc.ID.String()))
			continue
		}
		root := sc.Root
		if sc.StageIndex(root) < 0 {
			root = sc.Stages[0].ID
		}
		rs := runtimeScene{
			ID:        sc.ID,
			Name:      sc.Name,
			Private:   sc.Private,
			Root:      root,
			Furniture: sc.Furniture,
			Positions: sc.Positions,
			Stages:    make([]runtimeStage, len(sc.Stages)),
		}
		for i, st := range sc.Stages {
			rs.Stages[i] = runtimeStage{ID: st.ID, Positions: st.Positions, Tags: st.Tags, Extra: st.Extra}
		}
		rp.Scenes = append(rp.Scenes, rs)
	}
	data, err := json.Marshal(rp)
	if err != nil {
		return "", &domain.ExportError{Path: outDir, Err: fmt.Errorf("marshal runtime: %w", err)}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", &domain.ExportError{Path: outDir, Err: fmt.Errorf("ensure out dir: %w", err)}
	}
	out := filepath.Join(outDir, RuntimeFileName(pkg))
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", &domain.ExportError{Path: out, Err: fmt.Errorf("write runtime: %w", err)}
	}
	l.Info("runtime written", slog.String("path", out), slog.Int("scenes", len(rp.Scenes)))
	return out, nil
}
