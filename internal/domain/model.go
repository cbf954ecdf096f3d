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
	"fmt"
	"slices"
)

// NewPackage returns the empty default package used at startup and by "new project".
func NewPackage() Package {
	return Package{Version: CurrentVersion, Scenes: []Scene{}}
}

// NewPositionInfo returns the default slot metadata.
func NewPositionInfo() PositionInfo {
	return PositionInfo{Sex: Sex{Male: true}, Race: "Human", Scale: 1.0}
}

// NewPosition returns a default per-stage slot record.
func NewPosition() Position {
	return Position{Event: []string{}, Strip: StripData{Default: true}}
}

// NewPositionPayload returns a fresh Position and PositionInfo, not attached to any scene.
func NewPositionPayload() PositionPayload {
	return PositionPayload{Position: NewPosition(), Info: NewPositionInfo()}
}

// NewScene returns a blank scene with one actor slot and no stages.
func NewScene() Scene {
	return Scene{
		ID:        NewID(),
		Positions: []PositionInfo{NewPositionInfo()},
		Stages:    []Stage{},
	}
}

// NewStage derives a fresh stage from sc: one default Position per scene slot.
func NewStage(sc Scene) Stage {
	pos := make([]Position, len(sc.Positions))
	for i := range pos {
		pos[i] = NewPosition()
	}
	return Stage{ID: NewID(), Positions: pos}
}

// DuplicateStage copies st under a fresh id so the copy can be edited and saved
// next to its source.
func DuplicateStage(st Stage) Stage {
	c := st.Clone()
	c.ID = NewID()
	return c
}

// Clone returns a deep copy of p.
func (p Package) Clone() Package {
	c := p
	c.Scenes = make([]Scene, len(p.Scenes))
	for i, s := range p.Scenes {
		c.Scenes[i] = s.Clone()
	}
	return c
}

// Clone returns a deep copy of s.
func (s Scene) Clone() Scene {
	c := s
	c.Furniture.Types = slices.Clone(s.Furniture.Types)
	c.Positions = slices.Clone(s.Positions)
	if c.Positions == nil {
		c.Positions = []PositionInfo{}
	}
	c.Stages = make([]Stage, len(s.Stages))
	for i, st := range s.Stages {
		c.Stages[i] = st.Clone()
	}
	return c
}

// Clone returns a deep copy of st.
func (st Stage) Clone() Stage {
	c := st
	c.Tags = slices.Clone(st.Tags)
	c.Positions = make([]Position, len(st.Positions))
	for i, p := range st.Positions {
		c.Positions[i] = p.Clone()
	}
	return c
}

// Clone returns a deep copy of p.
func (p Position) Clone() Position {
	c := p
	c.Event = slices.Clone(p.Event)
	if c.Event == nil {
		c.Event = []string{}
	}
	return c
}

// SceneIndex returns the index of the scene with id or -1.
func (p *Package) SceneIndex(id ID) int {
	return slices.IndexFunc(p.Scenes, func(s Scene) bool { return s.ID == id })
}

// Scene returns a pointer into p for the scene with id.
func (p *Package) Scene(id ID) (*Scene, bool) {
	i := p.SceneIndex(id)
	if i < 0 {
		return nil, false
	}
	return &p.Scenes[i], true
}

// UpsertScene replaces the scene sharing sc.ID in place, or appends it.
// It reports whether an existing scene was replaced.
func (p *Package) UpsertScene(sc Scene) bool {
	if i := p.SceneIndex(sc.ID); i >= 0 {
		p.Scenes[i] = sc
		return true
	}
	p.Scenes = append(p.Scenes, sc)
	return false
}

// RemoveScene removes and returns the scene with id.
func (p *Package) RemoveScene(id ID) (Scene, bool) {
	i := p.SceneIndex(id)
	if i < 0 {
		return Scene{}, false
	}
	sc := p.Scenes[i]
	p.Scenes = slices.Delete(p.Scenes, i, i+1)
	return sc, true
}

// StageIndex returns the index of the stage with id or -1.
func (s *Scene) StageIndex(id ID) int {
	return slices.IndexFunc(s.Stages, func(st Stage) bool { return st.ID == id })
}

// UpsertStage replaces the stage sharing st.ID in place, or appends it.
// The first stage of a scene becomes its root.
func (s *Scene) UpsertStage(st Stage) bool {
	if i := s.StageIndex(st.ID); i >= 0 {
		s.Stages[i] = st
		return true
	}
	s.Stages = append(s.Stages, st)
	if s.Root.IsZero() {
		s.Root = st.ID
	}
	return false
}

// AddPosition appends a slot: the info to the scene and the position to every stage.
func (s *Scene) AddPosition(pp PositionPayload) {
	s.Positions = append(s.Positions, pp.Info)
	for i := range s.Stages {
		s.Stages[i].Positions = append(s.Stages[i].Positions, pp.Position.Clone())
	}
}

// RemovePosition drops slot i from the scene and from every stage.
func (s *Scene) RemovePosition(i int) bool {
	if i < 0 || i >= len(s.Positions) {
		return false
	}
	s.Positions = slices.Delete(s.Positions, i, i+1)
	for j := range s.Stages {
		if i < len(s.Stages[j].Positions) {
			s.Stages[j].Positions = slices.Delete(s.Stages[j].Positions, i, i+1)
		}
	}
	return true
}

// Validate checks the scene invariants: unique stage ids and every stage carrying exactly
// one Position per scene slot.
func (s *Scene) Validate() error {
	seen := make(map[ID]struct{}, len(s.Stages))
	for _, st := range s.Stages {
		if st.ID.IsZero() {
			return fmt.Errorf("scene %s: stage with empty id", s.ID)
		}
		if _, dup := seen[st.ID]; dup {
			return fmt.Errorf("scene %s: duplicate stage id %s", s.ID, st.ID)
		}
		seen[st.ID] = struct{}{}
		if len(st.Positions) != len(s.Positions) {
			return fmt.Errorf("scene %s stage %s: %w: %d positions, scene has %d",
				s.ID, st.ID, ErrPositionMismatch, len(st.Positions), len(s.Positions))
		}
	}
	return nil
}

// Validate checks package-wide invariants.
func (p *Package) Validate() error {
	seen := make(map[ID]struct{}, len(p.Scenes))
	for i := range p.Scenes {
		sc := &p.Scenes[i]
		if sc.ID.IsZero() {
			return fmt.Errorf("scene at index %d has empty id", i)
		}
		if _, dup := seen[sc.ID]; dup {
			return fmt.Errorf("duplicate scene id %s", sc.ID)
		}
		seen[sc.ID] = struct{}{}
		if err := sc.Validate(); err != nil {
			return err
		}
	}
	return nil
}
