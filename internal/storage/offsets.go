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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
	"scenebuilder/internal/domain"
)

// OffsetTable holds per-position offsets keyed by scene id, then stage id. Each stage
// entry lists one offset per position, in position order.
//
// Offset.yaml layout:
//
//	<scene id>:
//	  <stage id>:
//	    - {x: 0, y: 0, z: 0, r: 0}
//	    - {x: 12.5, y: 0, z: 0, r: 180}
type OffsetTable map[domain.ID]map[domain.ID][]domain.Offset

type offsetYAML struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
	R float64 `yaml:"r"`
}

// ReadOffsets parses the offset file at path. Failures are returned as *domain.ImportError.
func ReadOffsets(path string) (OffsetTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ImportError{Path: path, Err: err}
	}
	t, err := ParseOffsets(b)
	if err != nil {
		return nil, &domain.ImportError{Path: path, Err: err}
	}
	return t, nil
}

// ParseOffsets decodes an offset document. Unknown keys inside an offset entry are
// rejected so typos do not silently import zeros.
func ParseOffsets(data []byte) (OffsetTable, error) {
	var raw map[string]map[string][]offsetYAML
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return OffsetTable{}, nil
		}
		return nil, fmt.Errorf("parse offsets: %w", err)
	}
	out := make(OffsetTable, len(raw))
	for sceneID, stages := range raw {
		if sceneID == "" {
			return nil, errors.New("parse offsets: empty scene id")
		}
		m := make(map[domain.ID][]domain.Offset, len(stages))
		for stageID, list := range stages {
			if stageID == "" {
				return nil, fmt.Errorf("parse offsets: scene %s: empty stage id", sceneID)
			}
			offs := make([]domain.Offset, len(list))
			for i, o := range list {
				offs[i] = domain.Offset{X: o.X, Y: o.Y, Z: o.Z, R: o.R}
			}
			m[domain.ID(stageID)] = offs
		}
		out[domain.ID(sceneID)] = m
	}
	return out, nil
}

// Apply returns a copy of pkg with the offsets merged in, together with the number of
// stages updated. Entries for scenes or stages absent from pkg are skipped. A stage entry
// whose length differs from the stage's position count rejects the whole table; pkg is
// never modified.
func (t OffsetTable) Apply(pkg domain.Package) (domain.Package, int, error) {
	out := pkg.Clone()
	applied := 0
	for si := range out.Scenes {
		sc := &out.Scenes[si]
		stages, ok := t[sc.ID]
		if !ok {
			continue
		}
		for ti := range sc.Stages {
			st := &sc.Stages[ti]
			offs, ok := stages[st.ID]
			if !ok {
				continue
			}
			if len(offs) != len(st.Positions) {
				return pkg, 0, fmt.Errorf("scene %s stage %s: %w: %d offsets for %d positions",
					sc.ID, st.ID, domain.ErrPositionMismatch, len(offs), len(st.Positions))
			}
			for pi := range st.Positions {
				st.Positions[pi].Offset = offs[pi]
			}
			applied++
		}
	}
	return out, applied, nil
}
