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
	"fmt"
	"strconv"
	"strings"

	"scenebuilder/internal/domain"
	"scenebuilder/internal/storage"
)

const untitled = "Untitled"

// SceneLabel renders a scene list row.
func SceneLabel(sc domain.Scene) string {
	name := sc.Name
	if name == "" {
		name = untitled
	}
	switch n := len(sc.Stages); n {
	case 1:
		return name + " (1 stage)"
	default:
		return fmt.Sprintf("%s (%d stages)", name, n)
	}
}

// StageLabel renders a stage list row; the root stage is marked.
func StageLabel(sc domain.Scene, st domain.Stage) string {
	name := st.Name
	if name == "" {
		name = untitled
	}
	if sc.Root == st.ID {
		return "★ " + name
	}
	return name
}

// PositionLabel renders the caption of slot i.
func PositionLabel(i int, info domain.PositionInfo) string {
	var sex []string
	if info.Sex.Male {
		sex = append(sex, "M")
	}
	if info.Sex.Female {
		sex = append(sex, "F")
	}
	if info.Sex.Futa {
		sex = append(sex, "Fu")
	}
	s := strings.Join(sex, "/")
	if s == "" {
		s = "-"
	}
	return fmt.Sprintf("Position %d: %s %s", i+1, info.Race, s)
}

// SearchLabel renders one search hit.
func SearchLabel(r storage.SearchResult) string {
	switch r.Type {
	case storage.KindScene:
		return "Scene: " + r.Text
	case storage.KindStage:
		return "Stage: " + r.Text
	case storage.KindTags:
		return "Tags: " + r.Text
	case storage.KindNavText:
		return "Navigation: " + r.Text
	default:
		return r.Text
	}
}

// SplitTags parses a comma separated tag list, dropping blanks and duplicates.
func SplitTags(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return out
}

// ParseNumber reads a float field, keeping def for blank or malformed input.
func ParseNumber(s string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return v
}

// FormatNumber is the inverse of ParseNumber for display.
func FormatNumber(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// EnsureProjectExt appends the project file extension when the picker did not.
func EnsureProjectExt(path string) string {
	if path == "" || strings.HasSuffix(strings.ToLower(path), storage.FileExt) {
		return path
	}
	return strings.TrimSuffix(path, ".json") + storage.FileExt
}
