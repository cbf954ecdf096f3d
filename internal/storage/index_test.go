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
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestRebuildIndexAndSearch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "Indexed"+FileExt)
	pkg := samplePackage()
	pkg.Scenes[0].Stages[0].Tags = []string{"standing", "loving"}
	if err := RebuildIndex(ctx, path, pkg); err != nil {
		t.Fatalf("RebuildIndex error: %v", err)
	}
	if _, err := os.Stat(IndexPath(path)); err != nil {
		t.Fatalf("index file missing: %v", err)
	}

	res, err := Search(ctx, path, "embr", 10)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(res) != 1 || res[0].Type != KindScene || res[0].SceneID != pkg.Scenes[0].ID {
		t.Fatalf("unexpected scene hits: %+v", res)
	}

	res, err = Search(ctx, path, "stand", 10)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(res) != 1 || res[0].StageID != pkg.Scenes[0].Stages[0].ID {
		t.Fatalf("unexpected tag hits: %+v", res)
	}

	// Rebuilding with different content drops stale documents.
	pkg.Scenes[0].Name = "Other"
	if err := RebuildIndex(ctx, path, pkg); err != nil {
		t.Fatalf("RebuildIndex error: %v", err)
	}
	res, err = Search(ctx, path, "embr", 10)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(res) != 0 {
		t.Fatalf("stale hits after rebuild: %+v", res)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	res, err := Search(context.Background(), filepath.Join(t.TempDir(), "x"+FileExt), "   ", 10)
	if err != nil || res != nil {
		t.Fatalf("empty query: res=%v err=%v", res, err)
	}
}

func TestOpenIndexResetsOutdatedSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "Old"+FileExt)
	if err := RebuildIndex(ctx, path, samplePackage()); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}
	ix, err := OpenIndex(ctx, path)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	if _, err := ix.db.ExecContext(ctx, "PRAGMA user_version = 1"); err != nil {
		t.Fatalf("downgrade: %v", err)
	}
	_ = ix.Close()

	ix, err = OpenIndex(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer ix.Close()
	res, err := ix.Search(ctx, "embr", 10)
	if err != nil || len(res) != 0 {
		t.Fatalf("outdated index should start empty: res=%v err=%v", res, err)
	}
}

func TestOpenIndexRequiresPath(t *testing.T) {
	if _, err := OpenIndex(context.Background(), " "); err == nil {
		t.Fatal("expected error for blank project path")
	}
}

func TestFTSQueryQuotesOperators(t *testing.T) {
	if got, want := ftsQuery(`a "b" OR`), `"a"* """b"""* "OR"*`; got != want {
		t.Fatalf("ftsQuery = %s, want %s", got, want)
	}
}
