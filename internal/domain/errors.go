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
	"errors"
	"fmt"
)

// Sentinel errors; use errors.Is to classify failures returned by the store and commands.
var (
	ErrInvalidID           = errors.New("invalid id")
	ErrLoad                = errors.New("load failed")
	ErrSave                = errors.New("save failed")
	ErrImport              = errors.New("import failed")
	ErrExport              = errors.New("export failed")
	ErrUnrecognizedCommand = errors.New("unrecognized command")
	ErrPositionMismatch    = errors.New("position count mismatch")
	// ErrCancelled marks a user cancellation (closed file picker, answered "no").
	// It is never reported as a failure.
	ErrCancelled = errors.New("cancelled by user")
)

// InvalidIDError names the identifier that was not found.
type InvalidIDError struct {
	Kind string // "scene" or "stage"
	ID   ID
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("Invalid %s ID: %s", e.Kind, e.ID)
}

func (e *InvalidIDError) Unwrap() error { return ErrInvalidID }

// LoadError wraps the cause of a failed project load.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Path, e.Err) }

func (e *LoadError) Unwrap() []error { return []error{ErrLoad, e.Err} }

// SaveError wraps the cause of a failed project save.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string { return fmt.Sprintf("save %s: %v", e.Path, e.Err) }

func (e *SaveError) Unwrap() []error { return []error{ErrSave, e.Err} }

// ImportError wraps the cause of a rejected offset import.
type ImportError struct {
	Path string
	Err  error
}

func (e *ImportError) Error() string { return fmt.Sprintf("import offsets %s: %v", e.Path, e.Err) }

func (e *ImportError) Unwrap() []error { return []error{ErrImport, e.Err} }

// ExportError wraps the cause of a failed build or sheet export.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string { return fmt.Sprintf("export %s: %v", e.Path, e.Err) }

func (e *ExportError) Unwrap() []error { return []error{ErrExport, e.Err} }
