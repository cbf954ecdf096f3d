/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo keeps bounded in-memory undo/redo stacks of opaque state blobs, one pair
// of stacks per key (a scene id in the editor).
package undo

import (
	"sync"
	"time"
)

// Snapshot is a captured state blob. Size is estimated as len(Blob).
type Snapshot struct {
	Key  string
	Blob []byte
	TS   time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxPerKey limits the undo depth per key (0 means unlimited).
	MaxPerKey int
	// MinInterval coalesces snapshots pushed within the interval for the same key,
	// keeping the older one, so a burst of keystrokes undoes as one step.
	MinInterval time.Duration
}

// History provides undo/redo stacks per key. It is safe for concurrent use.
type History struct {
	cfg Config
	now func() time.Time

	mu         sync.Mutex
	undo       map[string][]Snapshot
	redo       map[string][]Snapshot
	totalBytes int
}

func New(cfg Config) *History {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &History{cfg: cfg, now: time.Now, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// Push records the state of key before a change. Any redo entries for key are dropped.
func (h *History) Push(key string, before []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropRedoLocked(key)
	ts := h.now()
	stack := h.undo[key]
	if n := len(stack); n > 0 && ts.Sub(stack[n-1].TS) < h.cfg.MinInterval {
		stack[n-1].TS = ts
		return
	}
	h.undo[key] = append(stack, Snapshot{Key: key, Blob: before, TS: ts})
	h.totalBytes += len(before)
	h.enforceCapsLocked(key)
}

// Undo returns the previous state of key and remembers current for Redo.
func (h *History) Undo(key string, current []byte) ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	stack := h.undo[key]
	if len(stack) == 0 {
		return nil, false
	}
	s := stack[len(stack)-1]
	h.undo[key] = stack[:len(stack)-1]
	h.totalBytes -= len(s.Blob)
	h.redo[key] = append(h.redo[key], Snapshot{Key: key, Blob: current, TS: h.now()})
	h.totalBytes += len(current)
	return s.Blob, true
}

// Redo reverses the last Undo of key and remembers current for Undo.
func (h *History) Redo(key string, current []byte) ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.redo[key]
	if len(r) == 0 {
		return nil, false
	}
	s := r[len(r)-1]
	h.redo[key] = r[:len(r)-1]
	h.totalBytes -= len(s.Blob)
	// backdated so the next Push is never coalesced into it
	h.undo[key] = append(h.undo[key], Snapshot{Key: key, Blob: current, TS: h.now().Add(-h.cfg.MinInterval)})
	h.totalBytes += len(current)
	h.enforceCapsLocked(key)
	return s.Blob, true
}

// CanUndo reports whether key has an undo entry.
func (h *History) CanUndo(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo[key]) > 0
}

// CanRedo reports whether key has a redo entry.
func (h *History) CanRedo(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo[key]) > 0
}

// Clear drops both stacks of key.
func (h *History) Clear(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.undo[key] {
		h.totalBytes -= len(s.Blob)
	}
	h.dropRedoLocked(key)
	delete(h.undo, key)
	if h.totalBytes < 0 {
		h.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (h *History) Stats() (totalBytes int, keys int, undoEntries int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	keys = len(h.undo)
	for _, v := range h.undo {
		undoEntries += len(v)
	}
	return h.totalBytes, keys, undoEntries
}

func (h *History) dropRedoLocked(key string) {
	for _, s := range h.redo[key] {
		h.totalBytes -= len(s.Blob)
	}
	delete(h.redo, key)
}

func (h *History) enforceCapsLocked(key string) {
	if h.cfg.MaxPerKey > 0 {
		stack := h.undo[key]
		if len(stack) > h.cfg.MaxPerKey {
			toDrop := len(stack) - h.cfg.MaxPerKey
			for i := 0; i < toDrop; i++ {
				h.totalBytes -= len(stack[i].Blob)
			}
			h.undo[key] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune the oldest undo entry across all keys.
	for h.cfg.MaxBytes > 0 && h.totalBytes > h.cfg.MaxBytes {
		oldestKey := ""
		found := false
		var oldestTS time.Time
		for k, stack := range h.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldestKey, oldestTS, found = k, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := h.undo[oldestKey]
		h.totalBytes -= len(stack[0].Blob)
		h.undo[oldestKey] = stack[1:]
		if len(h.undo[oldestKey]) == 0 {
			delete(h.undo, oldestKey)
		}
	}
}
