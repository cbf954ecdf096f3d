/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scenebuilder/internal/domain"
	"scenebuilder/internal/storage"
)

type fakeSnapshotter struct {
	path string
	pkg  domain.Package
	err  error
}

func (f fakeSnapshotter) CrashSnapshot() (string, domain.Package, error) { return f.path, f.pkg, f.err }

func silenceStderr(t *testing.T) {
	t.Helper()
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	t.Cleanup(func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r)
	})
}

func interceptExit(t *testing.T) *int {
	t.Helper()
	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	t.Cleanup(func() { exitFn = oldExit })
	return &called
}

// TestRecover_WritesReportAndSnapshot ensures Recover handles a panic, writes a report and
// a crash snapshot next to the project, and exits with code 2.
func TestRecover_WritesReportAndSnapshot(t *testing.T) {
	silenceStderr(t)
	code := interceptExit(t)

	root := t.TempDir()
	pkg := domain.NewPackage()
	pkg.Name = "Crashy"
	snap := fakeSnapshotter{path: filepath.Join(root, "Crashy"+storage.FileExt), pkg: pkg}

	func() {
		defer Recover(snap)
		panic("boom")
	}()

	bdir := filepath.Join(root, storage.BackupsDirName)
	files, _ := os.ReadDir(bdir)
	var report, snapshot string
	for _, f := range files {
		switch {
		case strings.HasPrefix(f.Name(), "crash-") && strings.HasSuffix(f.Name(), ".log"):
			report = filepath.Join(bdir, f.Name())
		case strings.HasPrefix(f.Name(), "Crashy.crash-"):
			snapshot = filepath.Join(bdir, f.Name())
		}
	}
	if report == "" || snapshot == "" {
		t.Fatalf("expected report and snapshot under backups dir, got %v", files)
	}
	b, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.Contains(b, []byte("Panic: boom")) {
		t.Fatalf("report does not contain panic: %s", string(b))
	}
	if *code != ExitCode {
		t.Fatalf("expected exit code 2, got %d", *code)
	}
}

func TestHandle_SnapshotUnavailableStillExits(t *testing.T) {
	silenceStderr(t)
	code := interceptExit(t)
	Handle("busy", []byte("stack"), fakeSnapshotter{err: errors.New("busy")})
	if *code != ExitCode {
		t.Fatalf("expected exit code 2, got %d", *code)
	}
}

func TestRecover_NoPanicIsNoOp(t *testing.T) {
	code := interceptExit(t)
	func() {
		defer Recover(nil)
	}()
	if *code != 0 {
		t.Fatalf("exit called without panic")
	}
}
