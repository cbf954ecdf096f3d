/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package racekeys exposes the static catalog of race keys a position can be assigned.
package racekeys

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed races.toml
var catalogTOML string

// Race is one catalog entry.
type Race struct {
	Key      string `toml:"key"`
	Category string `toml:"category"`
}

type catalogFile struct {
	Version int    `toml:"version"`
	Races   []Race `toml:"race"`
}

var load = sync.OnceValues(func() ([]Race, error) { return parse(catalogTOML) })

func parse(doc string) ([]Race, error) {
	var raw catalogFile
	meta, err := toml.Decode(doc, &raw)
	if err != nil {
		return nil, fmt.Errorf("load race catalog: %w", err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("load race catalog: unknown keys %v", undec)
	}
	seen := make(map[string]struct{}, len(raw.Races))
	out := make([]Race, 0, len(raw.Races))
	for i, r := range raw.Races {
		r.Key = strings.TrimSpace(r.Key)
		if r.Key == "" {
			return nil, fmt.Errorf("load race catalog: entry %d has no key", i)
		}
		if _, dup := seen[r.Key]; dup {
			return nil, fmt.Errorf("load race catalog: duplicate key %q", r.Key)
		}
		seen[r.Key] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

// All returns the catalog in menu order. The embedded catalog is validated by tests,
// so a decode failure here is a build defect.
func All() []Race {
	races, err := load()
	if err != nil {
		panic(err)
	}
	return append([]Race(nil), races...)
}

// Keys returns the selectable race keys in menu order.
func Keys() []string {
	races := All()
	keys := make([]string, len(races))
	for i, r := range races {
		keys[i] = r.Key
	}
	return keys
}

// Known reports whether key is part of the catalog.
func Known(key string) bool {
	for _, r := range All() {
		if r.Key == key {
			return true
		}
	}
	return false
}
