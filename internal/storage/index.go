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
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"scenebuilder/internal/domain"
	applog "scenebuilder/internal/log"

	_ "modernc.org/sqlite"
)

const (
	// IndexDirName holds disposable per-project data next to the project file.
	IndexDirName = ".slsb"

	// indexSchema is stored in PRAGMA user_version. A mismatch drops the
	// entries table since everything in it can be rebuilt from the project.
	indexSchema = 2
)

// Kinds of indexed text.
const (
	KindScene   = "scene"
	KindStage   = "stage"
	KindTags    = "stage_tags"
	KindNavText = "nav_text"
)

// IndexPath returns the index database path for the project file at projectPath.
func IndexPath(projectPath string) string {
	return filepath.Join(filepath.Dir(projectPath), IndexDirName, NameFromPath(projectPath)+".sqlite")
}

// Index is the full-text search index of one project.
type Index struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenIndex opens or creates the index for projectPath.
func OpenIndex(ctx context.Context, projectPath string) (*Index, error) {
	if strings.TrimSpace(projectPath) == "" {
		return nil, errors.New("index: project path is required")
	}
	path := IndexPath(projectPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+filepath.ToSlash(path)+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("index: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	ix := &Index{db: db, log: applog.WithComponent("index").With(slog.String("project", filepath.Base(projectPath)))}
	if err := ix.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return ix, nil
}

// Close releases the database handle.
func (ix *Index) Close() error { return ix.db.Close() }

func (ix *Index) migrate(ctx context.Context) error {
	var have int
	if err := ix.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&have); err != nil {
		return fmt.Errorf("index: read schema: %w", err)
	}
	if have == indexSchema {
		return nil
	}
	ix.log.Debug("resetting index", slog.Int("from", have), slog.Int("to", indexSchema))
	stmts := []string{
		"DROP TABLE IF EXISTS entries",
		`CREATE VIRTUAL TABLE entries USING fts5(
			kind UNINDEXED,
			scene_id UNINDEXED,
			stage_id UNINDEXED,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		)`,
		fmt.Sprintf("PRAGMA user_version = %d", indexSchema),
	}
	for _, s := range stmts {
		if _, err := ix.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("index: migrate: %w", err)
		}
	}
	return nil
}

type entry struct {
	kind, scene, stage, body string
}

func entriesOf(pkg domain.Package) []entry {
	var out []entry
	add := func(kind string, scene, stage domain.ID, body string) {
		if body = strings.TrimSpace(body); body != "" {
			out = append(out, entry{kind, string(scene), string(stage), body})
		}
	}
	for _, sc := range pkg.Scenes {
		add(KindScene, sc.ID, "", sc.Name)
		for _, st := range sc.Stages {
			add(KindStage, sc.ID, st.ID, st.Name)
			add(KindTags, sc.ID, st.ID, strings.Join(st.Tags, " "))
			add(KindNavText, sc.ID, st.ID, st.Extra.NavText)
		}
	}
	return out
}

// Replace swaps the indexed content for that of pkg in one transaction.
func (ix *Index) Replace(ctx context.Context, pkg domain.Package) (err error) {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("index: clear: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, "INSERT INTO entries(kind, scene_id, stage_id, body) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	defer ins.Close()
	rows := entriesOf(pkg)
	for _, e := range rows {
		if _, err = ins.ExecContext(ctx, e.kind, e.scene, e.stage, e.body); err != nil {
			return fmt.Errorf("index: insert %s: %w", e.kind, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	ix.log.Debug("index rebuilt", slog.Int("entries", len(rows)))
	return nil
}

// SearchResult is one index hit.
type SearchResult struct {
	Type    string    `json:"type"`
	SceneID domain.ID `json:"scene"`
	StageID domain.ID `json:"stage,omitempty"`
	Text    string    `json:"text"`
}

// Search returns up to limit hits, best first. Every whitespace separated term
// must match as a prefix; FTS syntax in the query is treated as text.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := ix.db.QueryContext(ctx,
		"SELECT kind, scene_id, stage_id, body FROM entries WHERE entries MATCH ? ORDER BY bm25(entries) LIMIT ?",
		match, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var scene, stage string
		if err := rows.Scan(&r.Type, &scene, &stage, &r.Text); err != nil {
			return nil, fmt.Errorf("index: scan: %w", err)
		}
		r.SceneID, r.StageID = domain.ID(scene), domain.ID(stage)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RebuildIndex opens the index of projectPath and replaces its content with pkg.
func RebuildIndex(ctx context.Context, projectPath string, pkg domain.Package) error {
	ix, err := OpenIndex(ctx, projectPath)
	if err != nil {
		return err
	}
	defer ix.Close()
	return ix.Replace(ctx, pkg)
}

// Search queries the index of projectPath. An empty query returns no hits
// without touching the disk.
func Search(ctx context.Context, projectPath, query string, limit int) ([]SearchResult, error) {
	if ftsQuery(query) == "" {
		return nil, nil
	}
	ix, err := OpenIndex(ctx, projectPath)
	if err != nil {
		return nil, err
	}
	defer ix.Close()
	return ix.Search(ctx, query, limit)
}

// ftsQuery turns `foo bar` into `"foo"* "bar"*`.
func ftsQuery(q string) string {
	var b strings.Builder
	for _, t := range strings.Fields(q) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(`"` + strings.ReplaceAll(t, `"`, `""`) + `"*`)
	}
	return b.String()
}
