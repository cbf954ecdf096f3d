/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"encoding/json"
	"time"

	"scenebuilder/internal/domain"
	"scenebuilder/internal/undo"
)

// draftHistory is the undo/redo history of scene drafts, one stack per scene id.
type draftHistory struct {
	h *undo.History
}

func newDraftHistory() *draftHistory {
	return &draftHistory{h: undo.New(undo.Config{
		MaxBytes:    8 * 1024 * 1024,
		MaxPerKey:   50,
		MinInterval: 400 * time.Millisecond,
	})}
}

// record captures sc before a change.
func (d *draftHistory) record(sc domain.Scene) {
	if b, err := json.Marshal(sc); err == nil {
		d.h.Push(sc.ID.String(), b)
	}
}

func (d *draftHistory) undo(cur domain.Scene) (domain.Scene, bool) {
	return d.step(cur, d.h.Undo)
}

func (d *draftHistory) redo(cur domain.Scene) (domain.Scene, bool) {
	return d.step(cur, d.h.Redo)
}

func (d *draftHistory) step(cur domain.Scene, fn func(string, []byte) ([]byte, bool)) (domain.Scene, bool) {
	b, err := json.Marshal(cur)
	if err != nil {
		return cur, false
	}
	prev, ok := fn(cur.ID.String(), b)
	if !ok {
		return cur, false
	}
	var sc domain.Scene
	if err := json.Unmarshal(prev, &sc); err != nil {
		return cur, false
	}
	return sc, true
}

func (d *draftHistory) forget(id domain.ID) { d.h.Clear(id.String()) }
