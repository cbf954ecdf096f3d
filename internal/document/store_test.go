/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package document

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenebuilder/internal/domain"
	"scenebuilder/internal/storage"
)

// memCodec keeps written packages in memory and can be told to fail or panic.
type memCodec struct {
	mu      sync.Mutex
	files   map[string]domain.Package
	failErr error
	panicOn bool
}

func newMemCodec() *memCodec { return &memCodec{files: map[string]domain.Package{}} }

func (c *memCodec) Read(path string) (domain.Package, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pkg, ok := c.files[path]
	if !ok {
		return domain.Package{}, &domain.LoadError{Path: path, Err: os.ErrNotExist}
	}
	return pkg.Clone(), nil
}

func (c *memCodec) Write(path string, pkg domain.Package) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.panicOn {
		panic("disk exploded")
	}
	if c.failErr != nil {
		return c.failErr
	}
	c.files[path] = pkg.Clone()
	return nil
}

func sceneWithStage(name string) domain.Scene {
	sc := domain.NewScene()
	sc.Name = name
	sc.UpsertStage(domain.NewStage(sc))
	return sc
}

func TestUpsertSceneIsIdempotent(t *testing.T) {
	s := New(WithCodec(newMemCodec()))
	sc := sceneWithStage("A")

	require.NoError(t, s.UpsertScene(sc))
	require.NoError(t, s.UpsertScene(sc))

	scenes := s.Scenes()
	require.Len(t, scenes, 1)
	assert.Equal(t, sc, scenes[0])
	assert.True(t, s.Dirty().IsSet())
}

func TestUpsertSceneReplacesInPlace(t *testing.T) {
	s := New(WithCodec(newMemCodec()))
	a, b, c := sceneWithStage("A"), sceneWithStage("B"), sceneWithStage("C")
	for _, sc := range []domain.Scene{a, b, c} {
		require.NoError(t, s.UpsertScene(sc))
	}
	b.Name = "B2"
	require.NoError(t, s.UpsertScene(b))

	scenes := s.Scenes()
	require.Len(t, scenes, 3)
	assert.Equal(t, []string{"A", "B2", "C"}, []string{scenes[0].Name, scenes[1].Name, scenes[2].Name})
}

func TestUpsertSceneRejectsEmptyID(t *testing.T) {
	s := New()
	err := s.UpsertScene(domain.Scene{Name: "x"})
	require.ErrorIs(t, err, domain.ErrInvalidID)
	assert.False(t, s.Dirty().IsSet())
}

func TestRemoveUnknownSceneLeavesStateUnchanged(t *testing.T) {
	s := New(WithCodec(newMemCodec()))
	sc := sceneWithStage("A")
	require.NoError(t, s.UpsertScene(sc))
	s.Dirty().Clear()
	before := s.Snapshot()

	_, err := s.RemoveScene("nope")
	var ide *domain.InvalidIDError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, "Invalid scene ID: nope", err.Error())
	assert.Equal(t, before, s.Snapshot())
	assert.False(t, s.Dirty().IsSet())
}

func TestDocumentLifecycleScenario(t *testing.T) {
	codec := newMemCodec()
	s := New(WithCodec(codec))
	assert.False(t, s.Dirty().IsSet())

	a := domain.NewScene()
	assert.False(t, s.Dirty().IsSet(), "creating a blank scene does not touch the package")

	require.NoError(t, s.UpsertScene(a))
	assert.Len(t, s.Scenes(), 1)
	assert.True(t, s.Dirty().IsSet())

	require.NoError(t, s.Save("/p/Pack.slsb.json"))
	assert.False(t, s.Dirty().IsSet())
	assert.Equal(t, "Pack", s.Name(), "untitled package takes the file name")

	got, err := s.RemoveScene(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Empty(t, s.Scenes())
	assert.True(t, s.Dirty().IsSet())

	_, err = s.RemoveScene(a.ID)
	require.ErrorIs(t, err, domain.ErrInvalidID)
	assert.Empty(t, s.Scenes())
}

func TestFailedSaveKeepsDirty(t *testing.T) {
	codec := newMemCodec()
	codec.failErr = errors.New("read-only filesystem")
	s := New(WithCodec(codec))
	require.NoError(t, s.UpsertScene(sceneWithStage("A")))

	err := s.Save("/p/x.slsb.json")
	var se *domain.SaveError
	require.ErrorAs(t, err, &se)
	require.ErrorIs(t, err, domain.ErrSave)
	assert.True(t, s.Dirty().IsSet())
	assert.Empty(t, s.Path())
	assert.Empty(t, s.Name())
}

func TestSaveWithoutLocationFails(t *testing.T) {
	s := New(WithCodec(newMemCodec()))
	require.ErrorIs(t, s.Save(""), domain.ErrSave)
}

func TestSaveReusesCurrentPath(t *testing.T) {
	codec := newMemCodec()
	s := New(WithCodec(codec))
	require.NoError(t, s.Save("/p/one.slsb.json"))
	require.NoError(t, s.UpsertScene(sceneWithStage("A")))
	require.NoError(t, s.Save(""))
	assert.Len(t, codec.files["/p/one.slsb.json"].Scenes, 1)
}

func TestLoadFailureLeavesPackageAndDirty(t *testing.T) {
	s := New(WithCodec(newMemCodec()))
	require.NoError(t, s.UpsertScene(sceneWithStage("A")))
	before := s.Snapshot()

	err := s.Load("/missing.slsb.json")
	require.ErrorIs(t, err, domain.ErrLoad)
	assert.Equal(t, before, s.Snapshot())
	assert.True(t, s.Dirty().IsSet())
}

func TestLoadReplacesAndClearsDirty(t *testing.T) {
	codec := newMemCodec()
	other := domain.NewPackage()
	other.Name = "Other"
	other.Scenes = []domain.Scene{sceneWithStage("X"), sceneWithStage("Y")}
	codec.files["/o.slsb.json"] = other

	s := New(WithCodec(codec))
	require.NoError(t, s.UpsertScene(sceneWithStage("A")))
	require.NoError(t, s.Load("/o.slsb.json"))

	assert.Equal(t, "Other", s.Name())
	assert.Equal(t, "/o.slsb.json", s.Path())
	assert.Len(t, s.Scenes(), 2)
	assert.False(t, s.Dirty().IsSet())
}

func TestResetClearsEverything(t *testing.T) {
	s := New(WithCodec(newMemCodec()))
	require.NoError(t, s.UpsertScene(sceneWithStage("A")))
	require.NoError(t, s.Save("/p/a.slsb.json"))
	require.NoError(t, s.UpsertScene(sceneWithStage("B")))

	s.Reset()
	assert.Empty(t, s.Scenes())
	assert.Empty(t, s.Name())
	assert.Empty(t, s.Path())
	assert.False(t, s.Dirty().IsSet())
}

func TestApplyStageReplacesOrAppends(t *testing.T) {
	s := New(WithCodec(newMemCodec()))
	sc := sceneWithStage("A")
	first := sc.Stages[0]
	second := domain.NewStage(sc)
	sc.UpsertStage(second)
	require.NoError(t, s.UpsertScene(sc))

	edited := first.Clone()
	edited.Name = "edited"
	require.NoError(t, s.ApplyStage(domain.EditorPayload{Scene: sc.ID, Stage: edited, Positions: sc.Positions}))

	got, err := s.Scene(sc.ID)
	require.NoError(t, err)
	require.Len(t, got.Stages, 2)
	assert.Equal(t, "edited", got.Stages[0].Name, "replace keeps sequence position")
	assert.Equal(t, second.ID, got.Stages[1].ID)

	fresh := domain.NewStage(sc)
	require.NoError(t, s.ApplyStage(domain.EditorPayload{Scene: sc.ID, Stage: fresh, Positions: sc.Positions}))
	got, _ = s.Scene(sc.ID)
	require.Len(t, got.Stages, 3)
	assert.Equal(t, fresh.ID, got.Stages[2].ID)
}

func TestApplyStageRejectsMismatchAndUnknownScene(t *testing.T) {
	s := New(WithCodec(newMemCodec()))
	sc := sceneWithStage("A")
	require.NoError(t, s.UpsertScene(sc))
	s.Dirty().Clear()

	st := domain.NewStage(sc)
	positions := append(sc.Positions, domain.NewPositionInfo())
	st.Positions = append(st.Positions, domain.NewPosition())
	err := s.ApplyStage(domain.EditorPayload{Scene: sc.ID, Stage: st, Positions: positions})
	require.ErrorIs(t, err, domain.ErrPositionMismatch)

	got, _ := s.Scene(sc.ID)
	assert.Equal(t, sc, got)
	assert.False(t, s.Dirty().IsSet())

	err = s.ApplyStage(domain.EditorPayload{Scene: "gone", Stage: st})
	require.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestUpsertSceneRejectsBrokenScenes(t *testing.T) {
	s := New(WithCodec(newMemCodec()))
	valid := sceneWithStage("A")
	require.NoError(t, s.UpsertScene(valid))
	s.Dirty().Clear()

	extra := valid.Clone()
	extra.Stages[0].Positions = append(extra.Stages[0].Positions, domain.NewPosition())
	require.ErrorIs(t, s.UpsertScene(extra), domain.ErrPositionMismatch)

	missing := sceneWithStage("B")
	missing.Positions = append(missing.Positions, domain.NewPositionInfo())
	require.ErrorIs(t, s.UpsertScene(missing), domain.ErrPositionMismatch)

	dup := valid.Clone()
	dup.Stages = append(dup.Stages, dup.Stages[0].Clone())
	require.Error(t, s.UpsertScene(dup))

	assert.Equal(t, []domain.Scene{valid}, s.Scenes())
	assert.False(t, s.Dirty().IsSet())
	for _, got := range s.Scenes() {
		for _, st := range got.Stages {
			assert.Len(t, st.Positions, len(got.Positions))
		}
	}
}

func TestSaveThenLoadThroughProjectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Roundtrip"+storage.FileExt)
	s := New(WithCodec(FileCodec))
	sc := sceneWithStage("A")
	pp := domain.NewPositionPayload()
	sc.AddPosition(pp)
	require.NoError(t, s.UpsertScene(sc))
	require.NoError(t, s.Save(path))
	assert.False(t, s.Dirty().IsSet())

	loaded := New(WithCodec(FileCodec))
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, "Roundtrip", loaded.Name())
	scenes := loaded.Scenes()
	require.Len(t, scenes, 1)
	assert.Equal(t, sc.ID, scenes[0].ID)
	require.Len(t, scenes[0].Stages, 1)
	assert.Equal(t, sc.Stages[0].ID, scenes[0].Stages[0].ID)
	assert.Len(t, scenes[0].Positions, 2)
	assert.Len(t, scenes[0].Stages[0].Positions, 2)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(WithCodec(newMemCodec()))
	require.NoError(t, s.UpsertScene(sceneWithStage("A")))
	snap := s.Snapshot()
	snap.Scenes[0].Name = "mutated"
	snap.Scenes[0].Stages[0].Positions[0].Event = append(snap.Scenes[0].Stages[0].Positions[0].Event, "x")
	assert.Equal(t, "A", s.Scenes()[0].Name)
	assert.Empty(t, s.Scenes()[0].Stages[0].Positions[0].Event)
}

func TestImportOffsetsAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	s := New(WithCodec(newMemCodec()))
	sc := sceneWithStage("A")
	require.NoError(t, s.UpsertScene(sc))
	s.Dirty().Clear()

	good := filepath.Join(dir, "good.yaml")
	doc := string(sc.ID) + ":\n  " + string(sc.Stages[0].ID) + ":\n    - {x: 3, y: 0, z: 1, r: 45}\n"
	require.NoError(t, os.WriteFile(good, []byte(doc), 0o644))
	n, err := s.ImportOffsets(good)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.Offset{X: 3, Z: 1, R: 45}, s.Scenes()[0].Stages[0].Positions[0].Offset)
	assert.True(t, s.Dirty().IsSet())

	s.Dirty().Clear()
	before := s.Snapshot()
	bad := filepath.Join(dir, "bad.yaml")
	mismatch := string(sc.ID) + ":\n  " + string(sc.Stages[0].ID) + ":\n    - {x: 1}\n    - {x: 2}\n"
	require.NoError(t, os.WriteFile(bad, []byte(mismatch), 0o644))
	_, err = s.ImportOffsets(bad)
	require.ErrorIs(t, err, domain.ErrImport)
	assert.Equal(t, before, s.Snapshot())
	assert.False(t, s.Dirty().IsSet())

	_, err = s.ImportOffsets(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, domain.ErrImport)
}

func TestExportDoesNotTouchDirty(t *testing.T) {
	dir := t.TempDir()
	s := New(WithCodec(newMemCodec()))
	require.NoError(t, s.UpsertScene(sceneWithStage("A")))
	require.NoError(t, s.Save(filepath.Join(dir, "Pack"+storage.FileExt)))

	out, err := s.Export(filepath.Join(dir, "build"))
	require.NoError(t, err)
	assert.FileExists(t, out)
	assert.False(t, s.Dirty().IsSet())

	require.NoError(t, s.UpsertScene(sceneWithStage("B")))
	require.NoError(t, s.ExportSheet(filepath.Join(dir, "sheet.pdf")))
	assert.True(t, s.Dirty().IsSet())
}

func TestPanickingMutationPoisonsStore(t *testing.T) {
	codec := newMemCodec()
	s := New(WithCodec(codec))
	require.NoError(t, s.UpsertScene(sceneWithStage("A")))
	codec.panicOn = true

	require.Panics(t, func() { _ = s.Save("/p/a.slsb.json") })
	assert.True(t, s.Poisoned())
	require.PanicsWithValue(t, ErrPoisoned, func() { s.Snapshot() })
	require.PanicsWithValue(t, ErrPoisoned, func() { _ = s.UpsertScene(sceneWithStage("B")) })

	_, pkg, err := s.CrashSnapshot()
	require.NoError(t, err)
	assert.Len(t, pkg.Scenes, 1)
}

func TestConcurrentUpsertsSerialize(t *testing.T) {
	s := New(WithCodec(newMemCodec()))
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.UpsertScene(sceneWithStage("x"))
		}()
	}
	wg.Wait()
	assert.Len(t, s.Scenes(), 32)
}
