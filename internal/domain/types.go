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

// This file defines the document model of a scene package: a Package holds an ordered list
// of Scenes; each Scene owns the PositionInfo of its actor slots and an ordered list of
// Stages; each Stage carries one Position per slot, co-indexed with the Scene's infos.

import "github.com/google/uuid"

// CurrentVersion is the project file version written by this build.
const CurrentVersion = 2

// ID is an opaque identifier for scenes and stages. Scene and stage ids are independent
// namespaces; an ID never changes after its entity is created.
type ID string

// NewID returns a fresh random identifier.
func NewID() ID { return ID(uuid.NewString()) }

func (id ID) String() string { return string(id) }

// IsZero reports whether the id was never assigned.
func (id ID) IsZero() bool { return id == "" }

// Package is the project root. An empty Name means the package was never saved.
type Package struct {
	Version int     `json:"version"`
	Name    string  `json:"name"`
	Author  string  `json:"author,omitempty"`
	Scenes  []Scene `json:"scenes"`
}

// Scene is a named unit of content with its actor slots and stages.
type Scene struct {
	ID        ID             `json:"id"`
	Name      string         `json:"name"`
	Private   bool           `json:"private,omitempty"`
	Root      ID             `json:"root,omitempty"` // first stage played
	Furniture Furniture      `json:"furniture"`
	Positions []PositionInfo `json:"positions"`
	Stages    []Stage        `json:"stages"`
}

// Furniture describes where a scene may be placed.
type Furniture struct {
	Types    []string `json:"types,omitempty"`
	AllowBed bool     `json:"allow_bed,omitempty"`
	Offset   Offset   `json:"offset"`
}

// Stage is one editable step of a scene. Positions is co-indexed with Scene.Positions.
type Stage struct {
	ID        ID         `json:"id"`
	Name      string     `json:"name"`
	Positions []Position `json:"positions"`
	Tags      []string   `json:"tags,omitempty"`
	Extra     StageExtra `json:"extra"`
}

type StageExtra struct {
	FixedLen float64 `json:"fixed_len,omitempty"` // seconds; 0 = play until advanced
	NavText  string  `json:"nav_text,omitempty"`
}

// Position is the per-stage record of one actor slot.
type Position struct {
	Event   []string  `json:"event"`
	Climax  bool      `json:"climax,omitempty"`
	AnimObj string    `json:"anim_obj,omitempty"`
	Offset  Offset    `json:"offset"`
	Strip   StripData `json:"strip_data"`
}

// PositionInfo is the scene-level editor metadata of one actor slot.
type PositionInfo struct {
	Sex   Sex               `json:"sex"`
	Race  string            `json:"race"`
	Scale float64           `json:"scale"`
	Extra PositionInfoExtra `json:"extra"`
}

type Sex struct {
	Male   bool `json:"male"`
	Female bool `json:"female"`
	Futa   bool `json:"futa"`
}

type PositionInfoExtra struct {
	Submissive  bool `json:"submissive,omitempty"`
	Optional    bool `json:"optional,omitempty"`
	Vampire     bool `json:"vampire,omitempty"`
	Dead        bool `json:"dead,omitempty"`
	Unconscious bool `json:"unconscious,omitempty"`
}

type StripData struct {
	Default    bool `json:"default"`
	Everything bool `json:"everything,omitempty"`
	Nothing    bool `json:"nothing,omitempty"`
	Helmet     bool `json:"helmet,omitempty"`
	Gloves     bool `json:"gloves,omitempty"`
	Boots      bool `json:"boots,omitempty"`
}

// Offset is a translation (x, y, z) plus rotation r in degrees.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	R float64 `json:"r"`
}

// EditorPayload is the unit handed to a stage editor window and returned on save.
// It is always a private copy, never aliased into the live Package.
type EditorPayload struct {
	Scene     ID             `json:"scene"`
	Stage     Stage          `json:"stage"`
	Positions []PositionInfo `json:"positions"`
}

// PositionPayload pairs a fresh Position with its PositionInfo.
type PositionPayload struct {
	Position Position     `json:"position"`
	Info     PositionInfo `json:"info"`
}
