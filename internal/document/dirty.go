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

import "sync/atomic"

// Dirty tracks whether the package has changes that were not written by a successful save.
// It is independent of the store lock and never blocks.
type Dirty struct {
	v atomic.Bool
}

// Mark records an unsaved change.
func (d *Dirty) Mark() { d.v.Store(true) }

// Clear is called after a successful save, load or reset.
func (d *Dirty) Clear() { d.v.Store(false) }

// IsSet reports whether unsaved changes exist.
func (d *Dirty) IsSet() bool { return d.v.Load() }
