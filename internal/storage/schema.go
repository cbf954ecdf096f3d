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
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"
	"scenebuilder/internal/domain"
)

//go:embed schema/package.v2.schema.json
var packageSchemaJSON []byte

//go:embed schema/package.v1.schema.json
var legacySchemaJSON []byte

var (
	packageSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
		return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(packageSchemaJSON))
	})
	legacySchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
		return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(legacySchemaJSON))
	})
)

// ErrSchema is returned (wrapped) when a project document does not match its schema.
var ErrSchema = errors.New("project does not match schema")

func validateAgainst(load func() (*gojsonschema.Schema, error), data []byte) error {
	schema, err := load()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate project: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
}

// legacyPackage is the version 1 layout: scenes keyed by id, pack_* field names.
type legacyPackage struct {
	Version    int                        `json:"version"`
	PackName   string                     `json:"pack_name"`
	PackAuthor string                     `json:"pack_author"`
	Scenes     map[domain.ID]domain.Scene `json:"scenes"`
}

// upgradeLegacy converts a version 1 document. Scene order was not recorded in version 1,
// so scenes are ordered by name, then id.
func upgradeLegacy(data []byte) (domain.Package, error) {
	var lp legacyPackage
	if err := json.Unmarshal(data, &lp); err != nil {
		return domain.Package{}, fmt.Errorf("decode legacy project: %w", err)
	}
	pkg := domain.NewPackage()
	pkg.Name = lp.PackName
	pkg.Author = lp.PackAuthor
	for id, sc := range lp.Scenes {
		if sc.ID.IsZero() {
			sc.ID = id
		}
		if sc.Stages == nil {
			sc.Stages = []domain.Stage{}
		}
		if sc.Root.IsZero() && len(sc.Stages) > 0 {
			sc.Root = sc.Stages[0].ID
		}
		pkg.Scenes = append(pkg.Scenes, sc)
	}
	sort.SliceStable(pkg.Scenes, func(i, j int) bool {
		a, b := pkg.Scenes[i], pkg.Scenes[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	if err := pkg.Validate(); err != nil {
		return domain.Package{}, err
	}
	return pkg, nil
}
