/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scenebuilder/internal/domain"
)

func samplePackage() domain.Package {
	pkg := domain.NewPackage()
	pkg.Name = "Test Pack"
	pkg.Author = "tester"

	sc := domain.NewScene()
	sc.Name = "Hug"
	st := domain.NewStage(sc)
	st.Name = "Start"
	st.Tags = []string{"standing", "hugging"}
	st.Extra.FixedLen = 4.5
	sc.UpsertStage(st)
	pkg.UpsertScene(sc)

	empty := domain.NewScene()
	empty.Name = "Draft"
	pkg.UpsertScene(empty)
	return pkg
}

func TestBuildRuntimeWritesCompactArtifact(t *testing.T) {
	dir := t.TempDir()
	pkg := samplePackage()
	out, err := BuildRuntime(pkg, dir)
	if err != nil {
		t.Fatalf("BuildRuntime error: %v", err)
	}
	if filepath.Base(out) != "Test Pack"+RuntimeExt {
		t.Fatalf("unexpected artifact name %q", out)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	var rp runtimePackage
	if err := json.Unmarshal(b, &rp); err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	if rp.Format != RuntimeFormat || rp.Name != "Test Pack" {
		t.Fatalf("unexpected header: %+v", rp)
	}
	// The stage-less draft scene is left out.
	if len(rp.Scenes) != 1 || rp.Scenes[0].ID != pkg.Scenes[0].ID {
		t.Fatalf("unexpected scenes: %+v", rp.Scenes)
	}
	if rp.Scenes[0].Root != pkg.Scenes[0].Stages[0].ID {
		t.Fatalf("root = %s", rp.Scenes[0].Root)
	}
	if strings.Contains(string(b), `"Start"`) {
		t.Fatalf("editor-only stage name leaked into runtime: %s", b)
	}
}

func TestBuildRuntimeRejectsUntitledAndInvalid(t *testing.T) {
	dir := t.TempDir()
	pkg := samplePackage()
	pkg.Name = ""
	if _, err := BuildRuntime(pkg, dir); !errors.Is(err, domain.ErrExport) {
		t.Fatalf("untitled: expected ErrExport, got %v", err)
	}

	pkg = samplePackage()
	pkg.Scenes[0].Stages[0].Positions = nil
	_, err := BuildRuntime(pkg, dir)
	if !errors.Is(err, domain.ErrExport) || !errors.Is(err, domain.ErrPositionMismatch) {
		t.Fatalf("mismatch: expected ErrExport wrapping ErrPositionMismatch, got %v", err)
	}
}

func TestRuntimeFileNameSanitizes(t *testing.T) {
	pkg := domain.Package{Name: `a/b:c*d`}
	if got := RuntimeFileName(pkg); got != "a_b_c_d"+RuntimeExt {
		t.Fatalf("RuntimeFileName = %q", got)
	}
	if got := RuntimeFileName(domain.Package{}); got != "untitled"+RuntimeExt {
		t.Fatalf("RuntimeFileName(empty) = %q", got)
	}
}

func TestExportSheetPDF_CreatesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "sheets", "sheet.pdf")
	pkg := samplePackage()
	pkg.Scenes[1].Private = true
	if err := ExportSheetPDF(pkg, out, SheetOptions{}); err != nil {
		t.Fatalf("export: %v", err)
	}
	st, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Size() <= 0 {
		t.Fatalf("pdf file empty")
	}
	b, _ := os.ReadFile(out)
	if !strings.HasPrefix(string(b), "%PDF-") {
		t.Fatalf("output is not a PDF")
	}
}

func TestExportSheetPDF_RequiresPath(t *testing.T) {
	if err := ExportSheetPDF(samplePackage(), " ", SheetOptions{}); !errors.Is(err, domain.ErrExport) {
		t.Fatalf("expected ErrExport, got %v", err)
	}
}

func TestSexLabel(t *testing.T) {
	if got := sexLabel(domain.Sex{Male: true, Futa: true}); got != "male/futa" {
		t.Fatalf("sexLabel = %q", got)
	}
	if got := sexLabel(domain.Sex{}); got != "any" {
		t.Fatalf("sexLabel(empty) = %q", got)
	}
}
