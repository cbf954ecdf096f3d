/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package confirm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenebuilder/internal/document"
)

// scriptedPrompter answers every prompt with answer. Async prompts are parked until
// release is called, so tests can interleave work while a dialog is open.
type scriptedPrompter struct {
	answer  Outcome
	asked   []Prompt
	blocked []func(Outcome)
}

func (s *scriptedPrompter) ConfirmBlocking(p Prompt) Outcome {
	s.asked = append(s.asked, p)
	return s.answer
}

func (s *scriptedPrompter) ConfirmAsync(p Prompt, done func(Outcome)) {
	s.asked = append(s.asked, p)
	s.blocked = append(s.blocked, done)
}

func (s *scriptedPrompter) release() {
	for _, done := range s.blocked {
		done(s.answer)
	}
	s.blocked = nil
}

func TestCleanStateRunsWithoutPrompt(t *testing.T) {
	var dirty document.Dirty
	pr := &scriptedPrompter{answer: Declined}
	g := NewGate(&dirty, pr)

	ran := 0
	assert.Equal(t, Confirmed, g.Blocking(Prompt{Title: "Close"}, func() { ran++ }))
	var got Outcome = -1
	g.Async(Prompt{Title: "New Project"}, func() { ran++ }, func(o Outcome) { got = o })
	assert.Equal(t, 2, ran)
	assert.Equal(t, Confirmed, got)
	assert.Empty(t, pr.asked)
}

func TestBlockingDeclineIsNoOp(t *testing.T) {
	var dirty document.Dirty
	dirty.Mark()
	pr := &scriptedPrompter{answer: Declined}
	g := NewGate(&dirty, pr)

	ran := false
	out := g.Blocking(Prompt{Title: "Close"}, func() { ran = true })
	assert.Equal(t, Declined, out)
	assert.False(t, ran)
	assert.True(t, dirty.IsSet(), "the gate never changes the dirty flag")
	require.Len(t, pr.asked, 1)
	assert.Equal(t, "Close", pr.asked[0].Title)
}

func TestBlockingConfirmRuns(t *testing.T) {
	var dirty document.Dirty
	dirty.Mark()
	g := NewGate(&dirty, &scriptedPrompter{answer: Confirmed})
	ran := false
	assert.Equal(t, Confirmed, g.Blocking(Prompt{}, func() { ran = true }))
	assert.True(t, ran)
}

func TestAsyncWaitsForAnswer(t *testing.T) {
	var dirty document.Dirty
	dirty.Mark()
	pr := &scriptedPrompter{answer: Confirmed}
	g := NewGate(&dirty, pr)

	ran := false
	var got Outcome = -1
	g.Async(Prompt{Title: "Open Project"}, func() { ran = true }, func(o Outcome) { got = o })
	assert.False(t, ran, "op must not run before the user answers")

	pr.release()
	assert.True(t, ran)
	assert.Equal(t, Confirmed, got)
}

func TestAsyncDecline(t *testing.T) {
	var dirty document.Dirty
	dirty.Mark()
	pr := &scriptedPrompter{answer: Declined}
	g := NewGate(&dirty, pr)
	ran := false
	g.Async(Prompt{}, func() { ran = true }, nil)
	pr.release()
	assert.False(t, ran)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "confirmed", Confirmed.String())
	assert.Equal(t, "declined", Declined.String())
}
