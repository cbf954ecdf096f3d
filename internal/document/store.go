/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package document owns the single in-memory scene package of the editor and serializes
// every access to it through one exclusive lock.
package document

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"scenebuilder/internal/domain"
	"scenebuilder/internal/export"
	applog "scenebuilder/internal/log"
	"scenebuilder/internal/storage"
)

// ErrPoisoned is the panic value raised when the store is used after a mutation panicked.
// The package content is unknown at that point and the process must not continue.
var ErrPoisoned = errors.New("document store poisoned by an aborted mutation")

// Codec reads and writes project files. The default is the storage package.
type Codec interface {
	Read(path string) (domain.Package, error)
	Write(path string, pkg domain.Package) error
}

type fileCodec struct{}

func (fileCodec) Read(path string) (domain.Package, error)    { return storage.ReadPackage(path) }
func (fileCodec) Write(path string, pkg domain.Package) error { return storage.WritePackage(path, pkg) }

// FileCodec is the Codec backed by project files on disk.
var FileCodec Codec = fileCodec{}

// Store holds the source-of-truth Package. All mutating operations take the lock for
// the whole operation and mark the dirty tracker after they commit.
type Store struct {
	mu       sync.Mutex
	pkg      domain.Package
	path     string
	poisoned atomic.Bool

	dirty *Dirty
	codec Codec
	log   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithCodec replaces the project file reader/writer.
func WithCodec(c Codec) Option { return func(s *Store) { s.codec = c } }

// WithDirty shares an existing dirty tracker with the store.
func WithDirty(d *Dirty) Option { return func(s *Store) { s.dirty = d } }

// New returns a store holding an empty package.
func New(opts ...Option) *Store {
	s := &Store{pkg: domain.NewPackage(), dirty: &Dirty{}, codec: FileCodec}
	for _, o := range opts {
		o(s)
	}
	s.log = applog.WithComponent("document")
	return s
}

// Dirty returns the tracker updated by the store.
func (s *Store) Dirty() *Dirty { return s.dirty }

// lock acquires the store lock; it panics with ErrPoisoned if a previous mutation aborted.
func (s *Store) lock() {
	s.mu.Lock()
	if s.poisoned.Load() {
		s.mu.Unlock()
		panic(ErrPoisoned)
	}
}

// mutate runs fn under the lock. If fn panics the store is poisoned before the lock is
// released and the panic continues.
func (s *Store) mutate(fn func(pkg *domain.Package) error) error {
	s.lock()
	done := false
	defer func() {
		if !done {
			s.poisoned.Store(true)
		}
		s.mu.Unlock()
	}()
	err := fn(&s.pkg)
	done = true
	return err
}

// Poisoned reports whether a mutation aborted mid-way.
func (s *Store) Poisoned() bool { return s.poisoned.Load() }

// Load replaces the package wholesale with the project at path. The file is read before
// the lock is taken. On failure the current package and the dirty flag are untouched.
func (s *Store) Load(path string) error {
	pkg, err := s.codec.Read(path)
	if err != nil {
		s.log.Error("load failed", slog.String("path", path), slog.Any("err", err))
		var le *domain.LoadError
		if !errors.As(err, &le) {
			err = &domain.LoadError{Path: path, Err: err}
		}
		return err
	}
	_ = s.mutate(func(p *domain.Package) error {
		*p = pkg
		s.path = path
		s.dirty.Clear()
		return nil
	})
	s.log.Info("project loaded", slog.String("path", path), slog.Int("scenes", len(pkg.Scenes)))
	return nil
}

// Reset replaces the package with an empty default package. A fresh project is not dirty.
func (s *Store) Reset() {
	_ = s.mutate(func(p *domain.Package) error {
		*p = domain.NewPackage()
		s.path = ""
		s.dirty.Clear()
		return nil
	})
	s.log.Info("project reset")
}

// Save writes the package to path, or to the current location when path is empty.
// An untitled package takes its name from the file name. The dirty flag is cleared on
// success only; failures are returned as *domain.SaveError.
func (s *Store) Save(path string) error {
	return s.mutate(func(p *domain.Package) error {
		target := path
		if strings.TrimSpace(target) == "" {
			target = s.path
		}
		if strings.TrimSpace(target) == "" {
			return &domain.SaveError{Path: target, Err: errors.New("no save location")}
		}
		out := p.Clone()
		if out.Name == "" {
			out.Name = storage.NameFromPath(target)
		}
		if err := s.codec.Write(target, out); err != nil {
			s.log.Error("save failed", slog.String("path", target), slog.Any("err", err))
			var se *domain.SaveError
			if !errors.As(err, &se) {
				err = &domain.SaveError{Path: target, Err: err}
			}
			return err
		}
		p.Name = out.Name
		p.Version = domain.CurrentVersion
		s.path = target
		s.dirty.Clear()
		s.log.Info("project saved", slog.String("path", target))
		return nil
	})
}

// UpsertScene inserts sc or replaces the scene sharing its id, keeping its position in
// the sequence. A scene whose stages are not co-indexed with its slots, or that repeats a
// stage id, is rejected and nothing changes.
func (s *Store) UpsertScene(sc domain.Scene) error {
	if sc.ID.IsZero() {
		return &domain.InvalidIDError{Kind: "scene", ID: sc.ID}
	}
	sc = sc.Clone()
	if err := sc.Validate(); err != nil {
		return err
	}
	return s.mutate(func(p *domain.Package) error {
		p.UpsertScene(sc)
		s.dirty.Mark()
		return nil
	})
}

// RemoveScene removes and returns the scene with id. An unknown id yields
// *domain.InvalidIDError and leaves the package and dirty flag unchanged.
func (s *Store) RemoveScene(id domain.ID) (domain.Scene, error) {
	var removed domain.Scene
	err := s.mutate(func(p *domain.Package) error {
		sc, ok := p.RemoveScene(id)
		if !ok {
			return &domain.InvalidIDError{Kind: "scene", ID: id}
		}
		removed = sc
		s.dirty.Mark()
		return nil
	})
	return removed, err
}

// ApplyStage merges an edited stage back into its scene: the stage is inserted or replaced
// by id and the payload's slot metadata becomes the scene's. The payload must keep every
// stage of the scene co-indexed with the slots, otherwise nothing changes.
func (s *Store) ApplyStage(payload domain.EditorPayload) error {
	return s.mutate(func(p *domain.Package) error {
		sc, ok := p.Scene(payload.Scene)
		if !ok {
			return &domain.InvalidIDError{Kind: "scene", ID: payload.Scene}
		}
		next := sc.Clone()
		if payload.Positions != nil {
			next.Positions = append([]domain.PositionInfo(nil), payload.Positions...)
		}
		next.UpsertStage(payload.Stage.Clone())
		if err := next.Validate(); err != nil {
			return err
		}
		*sc = next
		s.dirty.Mark()
		return nil
	})
}

// ImportOffsets merges the offset file at path into the package. The file is parsed
// before the lock is taken; a malformed file or a position count mismatch aborts the whole
// import without touching the package. It returns the number of stages updated.
func (s *Store) ImportOffsets(path string) (int, error) {
	table, err := storage.ReadOffsets(path)
	if err != nil {
		return 0, err
	}
	var applied int
	err = s.mutate(func(p *domain.Package) error {
		next, n, err := table.Apply(*p)
		if err != nil {
			return &domain.ImportError{Path: path, Err: err}
		}
		*p = next
		applied = n
		if n > 0 {
			s.dirty.Mark()
		}
		return nil
	})
	return applied, err
}

// Export writes the runtime build of the package into outDir. It does not change the
// dirty flag.
func (s *Store) Export(outDir string) (string, error) {
	return export.BuildRuntime(s.Snapshot(), outDir)
}

// ExportSheet writes the printable scene sheet to outPath. It does not change the dirty flag.
func (s *Store) ExportSheet(outPath string) error {
	return export.ExportSheetPDF(s.Snapshot(), outPath, export.SheetOptions{})
}

// Snapshot returns a deep copy of the package.
func (s *Store) Snapshot() domain.Package {
	s.lock()
	defer s.mu.Unlock()
	return s.pkg.Clone()
}

// Scenes returns a deep copy of the scene list.
func (s *Store) Scenes() []domain.Scene {
	return s.Snapshot().Scenes
}

// Scene returns a copy of the scene with id.
func (s *Store) Scene(id domain.ID) (domain.Scene, error) {
	s.lock()
	defer s.mu.Unlock()
	sc, ok := s.pkg.Scene(id)
	if !ok {
		return domain.Scene{}, &domain.InvalidIDError{Kind: "scene", ID: id}
	}
	return sc.Clone(), nil
}

// Name returns the package display name; empty means untitled.
func (s *Store) Name() string {
	s.lock()
	defer s.mu.Unlock()
	return s.pkg.Name
}

// Path returns the file the package was loaded from or last saved to.
func (s *Store) Path() string {
	s.lock()
	defer s.mu.Unlock()
	return s.path
}

// CrashSnapshot returns the package and its path for a crash dump. It ignores the poisoned
// state and gives up instead of waiting if the lock is held.
func (s *Store) CrashSnapshot() (string, domain.Package, error) {
	if !s.mu.TryLock() {
		return "", domain.Package{}, fmt.Errorf("document store busy")
	}
	defer s.mu.Unlock()
	return s.path, s.pkg.Clone(), nil
}
