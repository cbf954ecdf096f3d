/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements project file persistence for scene packages.
// It reads and writes the canonical JSON project file (*.slsb.json) with schema validation,
// transactional writes and timestamped backups, upgrades legacy files, parses offset
// imports (Offset.yaml), and maintains a disposable per-project SQLite search index at
// <project dir>/.slsb/<project>.sqlite.
package storage
