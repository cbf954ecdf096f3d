/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package confirm guards operations that would discard unsaved changes behind a yes/no
// prompt. The dirty flag is read without holding the document lock, and the prompt is shown
// without it; the guarded operation takes the lock itself once confirmed. A change made
// while the prompt is open is therefore discarded as well if the user confirms.
package confirm

import (
	"log/slog"

	applog "scenebuilder/internal/log"
)

// Outcome is the user's answer.
type Outcome int

const (
	Declined Outcome = iota
	Confirmed
)

func (o Outcome) String() string {
	if o == Confirmed {
		return "confirmed"
	}
	return "declined"
}

// Prompt is the content of a confirmation dialog.
type Prompt struct {
	Title   string
	Message string
}

// Prompter shows yes/no dialogs. Both variants return the same Outcome: ConfirmBlocking
// waits for the answer, ConfirmAsync returns at once and calls done with the answer.
// A dismissed dialog counts as Declined.
type Prompter interface {
	ConfirmBlocking(p Prompt) Outcome
	ConfirmAsync(p Prompt, done func(Outcome))
}

// DirtyReader reports unsaved changes.
type DirtyReader interface {
	IsSet() bool
}

// Gate runs destructive operations, asking first when there are unsaved changes.
type Gate struct {
	dirty    DirtyReader
	prompter Prompter
	log      *slog.Logger
}

// NewGate returns a gate consulting dirty and asking through prompter.
func NewGate(dirty DirtyReader, prompter Prompter) *Gate {
	return &Gate{dirty: dirty, prompter: prompter, log: applog.WithComponent("confirm")}
}

// Blocking runs op unless the user declines, and returns once the decision is made and op
// has run. Used where the caller must allow or veto synchronously, such as window close.
func (g *Gate) Blocking(p Prompt, op func()) Outcome {
	if !g.dirty.IsSet() {
		op()
		return Confirmed
	}
	out := g.prompter.ConfirmBlocking(p)
	g.finish(p, out, op)
	return out
}

// Async runs op unless the user declines, without waiting for the answer. done, if not nil,
// is called with the outcome after op has run (or was skipped).
func (g *Gate) Async(p Prompt, op func(), done func(Outcome)) {
	if !g.dirty.IsSet() {
		op()
		if done != nil {
			done(Confirmed)
		}
		return
	}
	g.prompter.ConfirmAsync(p, func(out Outcome) {
		g.finish(p, out, op)
		if done != nil {
			done(out)
		}
	})
}

func (g *Gate) finish(p Prompt, out Outcome, op func()) {
	if out != Confirmed {
		g.log.Info("user cancelled", slog.String("prompt", p.Title))
		return
	}
	op()
}
