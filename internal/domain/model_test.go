/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewStageMatchesScenePositions(t *testing.T) {
	sc := NewScene()
	sc.Positions = append(sc.Positions, NewPositionInfo())
	st := NewStage(sc)
	if len(st.Positions) != len(sc.Positions) {
		t.Fatalf("stage positions = %d, scene positions = %d", len(st.Positions), len(sc.Positions))
	}
	if st.ID.IsZero() || st.ID == sc.ID {
		t.Fatalf("stage id not assigned independently: %q", st.ID)
	}
}

func TestNewPositionPayloadIsPaired(t *testing.T) {
	p := NewPositionPayload()
	if p.Info.Scale != 1.0 || p.Info.Race == "" {
		t.Fatalf("unexpected default info: %+v", p.Info)
	}
	if p.Position.Event == nil || !p.Position.Strip.Default {
		t.Fatalf("unexpected default position: %+v", p.Position)
	}
}

func TestUpsertScenePreservesOrder(t *testing.T) {
	pkg := NewPackage()
	a, b, c := NewScene(), NewScene(), NewScene()
	for _, s := range []Scene{a, b, c} {
		if pkg.UpsertScene(s) {
			t.Fatalf("fresh scene %s reported as replaced", s.ID)
		}
	}
	b.Name = "renamed"
	if !pkg.UpsertScene(b) {
		t.Fatalf("expected replace for %s", b.ID)
	}
	if len(pkg.Scenes) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(pkg.Scenes))
	}
	if pkg.Scenes[1].ID != b.ID || pkg.Scenes[1].Name != "renamed" {
		t.Fatalf("replace did not keep position: %+v", pkg.Scenes[1])
	}
}

func TestRemoveSceneUnknown(t *testing.T) {
	pkg := NewPackage()
	pkg.UpsertScene(NewScene())
	if _, ok := pkg.RemoveScene("missing"); ok {
		t.Fatalf("removing an unknown id must report false")
	}
	if len(pkg.Scenes) != 1 {
		t.Fatalf("package changed: %d scenes", len(pkg.Scenes))
	}
}

func TestUpsertStageSetsRootOnce(t *testing.T) {
	sc := NewScene()
	first := NewStage(sc)
	second := NewStage(sc)
	sc.UpsertStage(first)
	sc.UpsertStage(second)
	if sc.Root != first.ID {
		t.Fatalf("root = %s, want %s", sc.Root, first.ID)
	}
	first.Name = "edited"
	if !sc.UpsertStage(first) {
		t.Fatalf("expected replace")
	}
	if sc.Stages[0].Name != "edited" || len(sc.Stages) != 2 {
		t.Fatalf("unexpected stages: %+v", sc.Stages)
	}
}

func TestDuplicateStageGetsFreshID(t *testing.T) {
	sc := NewScene()
	st := NewStage(sc)
	st.Name = "Intro"
	st.Tags = []string{"a"}
	cp := DuplicateStage(st)
	if cp.ID == st.ID {
		t.Fatalf("duplicate kept the source id")
	}
	cp.Tags[0] = "b"
	if st.Tags[0] != "a" {
		t.Fatalf("duplicate aliases the source tags")
	}
	if cp.Name != "Intro" {
		t.Fatalf("name not copied: %q", cp.Name)
	}
}

func TestCloneIsDeep(t *testing.T) {
	pkg := NewPackage()
	sc := NewScene()
	sc.UpsertStage(NewStage(sc))
	pkg.UpsertScene(sc)
	cp := pkg.Clone()
	cp.Scenes[0].Stages[0].Positions[0].Event = append(cp.Scenes[0].Stages[0].Positions[0].Event, "x")
	cp.Scenes[0].Positions[0].Race = "Elf"
	if len(pkg.Scenes[0].Stages[0].Positions[0].Event) != 0 {
		t.Fatalf("clone shares event slice")
	}
	if pkg.Scenes[0].Positions[0].Race != "Human" {
		t.Fatalf("clone shares positions slice")
	}
}

func TestValidateDetectsMismatch(t *testing.T) {
	pkg := NewPackage()
	sc := NewScene()
	st := NewStage(sc)
	st.Positions = append(st.Positions, NewPosition())
	sc.Stages = append(sc.Stages, st)
	pkg.UpsertScene(sc)
	err := pkg.Validate()
	if !errors.Is(err, ErrPositionMismatch) {
		t.Fatalf("expected ErrPositionMismatch, got %v", err)
	}
}

func TestValidateDetectsDuplicateScene(t *testing.T) {
	pkg := NewPackage()
	sc := NewScene()
	pkg.Scenes = append(pkg.Scenes, sc, sc)
	if err := pkg.Validate(); err == nil {
		t.Fatalf("expected duplicate scene id error")
	}
}

func TestErrorsUnwrapToSentinels(t *testing.T) {
	cause := errors.New("disk full")
	cases := []struct {
		err  error
		want error
	}{
		{&InvalidIDError{Kind: "scene", ID: "x"}, ErrInvalidID},
		{&LoadError{Path: "a", Err: cause}, ErrLoad},
		{&SaveError{Path: "a", Err: cause}, ErrSave},
		{&ImportError{Path: "a", Err: cause}, ErrImport},
	}
	for _, c := range cases {
		if !errors.Is(c.err, c.want) {
			t.Fatalf("%v does not unwrap to %v", c.err, c.want)
		}
	}
	if !errors.Is(&SaveError{Err: cause}, cause) {
		t.Fatalf("SaveError does not unwrap to its cause")
	}
}

func TestSceneJSONFieldNames(t *testing.T) {
	sc := NewScene()
	sc.UpsertStage(NewStage(sc))
	b, err := json.Marshal(sc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"id", "name", "positions", "stages", "furniture", "root"} {
		if _, ok := raw[k]; !ok {
			t.Fatalf("missing json field %q in %s", k, b)
		}
	}
}

func TestAddRemovePositionKeepsStagesAligned(t *testing.T) {
	sc := NewScene()
	sc.UpsertStage(NewStage(sc))
	sc.UpsertStage(NewStage(sc))
	sc.AddPosition(NewPositionPayload())
	if err := sc.Validate(); err != nil {
		t.Fatalf("after add: %v", err)
	}
	n := len(sc.Positions)
	if !sc.RemovePosition(0) {
		t.Fatalf("expected removal")
	}
	if len(sc.Positions) != n-1 {
		t.Fatalf("positions = %d, want %d", len(sc.Positions), n-1)
	}
	if err := sc.Validate(); err != nil {
		t.Fatalf("after remove: %v", err)
	}
	if sc.RemovePosition(99) || sc.RemovePosition(-1) {
		t.Fatalf("out of range removal must report false")
	}
}
