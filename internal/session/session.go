/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package session manages stage editor windows and the one-shot handshake that hands each
// window its payload once the window's UI is ready.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"scenebuilder/internal/bus"
	"scenebuilder/internal/domain"
	applog "scenebuilder/internal/log"
)

const (
	// MainWindow is the label of the primary window.
	MainWindow = "main_window"

	editorLabelPrefix = "stage_editor_"
)

// WindowSpec describes a window to create.
type WindowSpec struct {
	Label     string
	Title     string
	Width     float32
	Height    float32
	MinWidth  float32
	MinHeight float32
}

// WindowHost creates and destroys native windows.
type WindowHost interface {
	OpenWindow(spec WindowSpec) error
	FocusWindow(label string) error
	CloseWindow(label string) error
}

// ErrUnknownWindow is returned for labels without a live editor session.
var ErrUnknownWindow = errors.New("unknown editor window")

// EditorLabel returns the window label of the editor for stage id.
func EditorLabel(id domain.ID) string { return editorLabelPrefix + string(id) }

// EditorTitle returns the stage editor window title.
func EditorTitle(st domain.Stage) string {
	name := st.Name
	if name == "" {
		name = "Untitled"
	}
	return fmt.Sprintf("Stage Editor [%s]", name)
}

// editor is one live stage editor window. pending holds the payload until the window
// reports ready; it is closed at creation, so the first receive yields the payload and
// every later receive reports nothing.
type editor struct {
	label   string
	scene   domain.ID
	stage   domain.ID
	pending chan domain.EditorPayload
}

// Orchestrator tracks live editor windows. It never touches the document store.
type Orchestrator struct {
	host WindowHost
	bus  *bus.Bus
	log  *slog.Logger

	mu      sync.Mutex
	editors map[string]*editor
}

// NewOrchestrator returns an orchestrator creating windows through host and notifying
// windows through b.
func NewOrchestrator(host WindowHost, b *bus.Bus) *Orchestrator {
	return &Orchestrator{
		host:    host,
		bus:     b,
		log:     applog.WithComponent("session"),
		editors: make(map[string]*editor),
	}
}

// Open creates the editor window for payload.Stage, or focuses it when one is already
// live for that stage id. It reports whether a new window was created. The payload is
// copied; later changes by the caller do not reach the window.
func (o *Orchestrator) Open(payload domain.EditorPayload) (string, bool, error) {
	if payload.Stage.ID.IsZero() {
		return "", false, &domain.InvalidIDError{Kind: "stage", ID: payload.Stage.ID}
	}
	label := EditorLabel(payload.Stage.ID)
	l := o.log.With(slog.String("window", label), slog.String("scene", payload.Scene.String()))

	o.mu.Lock()
	if _, live := o.editors[label]; live {
		o.mu.Unlock()
		l.Info("stage editor already open; focusing")
		return label, false, o.host.FocusWindow(label)
	}
	ed := &editor{
		label:   label,
		scene:   payload.Scene,
		stage:   payload.Stage.ID,
		pending: make(chan domain.EditorPayload, 1),
	}
	ed.pending <- clonePayload(payload)
	close(ed.pending)
	o.editors[label] = ed
	o.mu.Unlock()

	l.Info("opening stage editor", slog.String("stage", payload.Stage.ID.String()))
	err := o.host.OpenWindow(WindowSpec{
		Label:     label,
		Title:     EditorTitle(payload.Stage),
		Width:     1152,
		Height:    864,
		MinWidth:  800,
		MinHeight: 600,
	})
	if err != nil {
		o.forget(label)
		l.Error("failed to create stage editor window", slog.Any("err", err))
		return "", false, fmt.Errorf("open stage editor %s: %w", label, err)
	}
	return label, true, nil
}

// Ready is called by an editor window once its UI can receive data. The first call
// returns the payload and also sends it to the window as EditorPayloadDelivered; any
// further call returns false.
func (o *Orchestrator) Ready(label string) (domain.EditorPayload, bool) {
	o.mu.Lock()
	ed := o.editors[label]
	o.mu.Unlock()
	if ed == nil {
		o.log.Warn("ready signal from unknown window", slog.String("window", label))
		return domain.EditorPayload{}, false
	}
	p, ok := <-ed.pending
	if !ok {
		o.log.Debug("duplicate ready signal ignored", slog.String("window", label))
		return domain.EditorPayload{}, false
	}
	if o.bus != nil {
		_ = o.bus.EmitTo(label, bus.EditorPayloadDelivered, p)
	}
	return p, true
}

// SaveAndClose sends the edited payload to the main window as StageSaved and closes the
// editor window. Applying the payload is the main window's job.
func (o *Orchestrator) SaveAndClose(label string, payload domain.EditorPayload) error {
	if !o.IsOpen(label) {
		return fmt.Errorf("%w: %s", ErrUnknownWindow, label)
	}
	o.log.Info("saving stage", slog.String("window", label), slog.String("stage", payload.Stage.ID.String()))
	if o.bus != nil {
		if err := o.bus.EmitTo(MainWindow, bus.StageSaved, clonePayload(payload)); err != nil {
			return fmt.Errorf("deliver saved stage: %w", err)
		}
	}
	return o.Close(label)
}

// Close destroys the editor window and discards its session. Unsaved edits are dropped.
func (o *Orchestrator) Close(label string) error {
	if !o.forget(label) {
		return fmt.Errorf("%w: %s", ErrUnknownWindow, label)
	}
	return o.host.CloseWindow(label)
}

// Closed records that the host closed the window on its own (user pressed the close
// button). It does not call back into the host.
func (o *Orchestrator) Closed(label string) {
	if o.forget(label) {
		o.log.Info("stage editor closed without saving", slog.String("window", label))
	}
}

func (o *Orchestrator) forget(label string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.editors[label]; !ok {
		return false
	}
	delete(o.editors, label)
	return true
}

// IsOpen reports whether an editor session exists for label.
func (o *Orchestrator) IsOpen(label string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.editors[label]
	return ok
}

// Labels returns the labels of all live editor windows, sorted.
func (o *Orchestrator) Labels() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.editors))
	for l := range o.editors {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func clonePayload(p domain.EditorPayload) domain.EditorPayload {
	return domain.EditorPayload{
		Scene:     p.Scene,
		Stage:     p.Stage.Clone(),
		Positions: append([]domain.PositionInfo(nil), p.Positions...),
	}
}
