/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package bus delivers backend notifications to editor windows. Delivery is asynchronous
// and one-directional; each window receives its messages in emission order.
package bus

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	applog "scenebuilder/internal/log"
)

// Event names a notification kind.
type Event int

const (
	// DocumentChanged carries the full current scene list ([]domain.Scene).
	DocumentChanged Event = iota + 1
	// EditorPayloadDelivered carries the one-shot domain.EditorPayload of a stage editor.
	EditorPayloadDelivered
	// StageSaved carries the edited domain.EditorPayload, addressed to the main window.
	StageSaved
	// DarkmodeToggled carries the new darkmode value (bool).
	DarkmodeToggled
)

func (e Event) String() string {
	switch e {
	case DocumentChanged:
		return "on_project_update"
	case EditorPayloadDelivered:
		return "on_data_received"
	case StageSaved:
		return "on_stage_saved"
	case DarkmodeToggled:
		return "toggle_darkmode"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Message is one delivered notification.
type Message struct {
	Event   Event
	Target  string // window label, empty for a broadcast
	Payload any
}

// ErrNoSubscriber is returned by EmitTo when no window with the label is subscribed.
var ErrNoSubscriber = errors.New("no subscriber for window")

// Bus fans messages out to per-window mailboxes.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]*mailbox
	log  *slog.Logger
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[string]*mailbox), log: applog.WithComponent("bus")}
}

// Subscribe registers the window label and returns its message channel together with a
// cancel function. Re-subscribing a label replaces the previous mailbox, whose channel is
// closed. The channel is closed by cancel.
func (b *Bus) Subscribe(label string) (<-chan Message, func()) {
	m := newMailbox()
	b.mu.Lock()
	old := b.subs[label]
	b.subs[label] = m
	b.mu.Unlock()
	if old != nil {
		old.close()
	}
	go m.run()
	cancel := func() {
		b.mu.Lock()
		if b.subs[label] == m {
			delete(b.subs, label)
		}
		b.mu.Unlock()
		m.close()
	}
	return m.out, cancel
}

// EmitTo queues a message for one window. It never blocks.
func (b *Bus) EmitTo(label string, ev Event, payload any) error {
	b.mu.RLock()
	m := b.subs[label]
	b.mu.RUnlock()
	if m == nil {
		b.log.Warn("dropping event for unknown window", slog.String("event", ev.String()), slog.String("window", label))
		return fmt.Errorf("%w: %s", ErrNoSubscriber, label)
	}
	m.push(Message{Event: ev, Target: label, Payload: payload})
	return nil
}

// Emit queues a message for every subscribed window.
func (b *Bus) Emit(ev Event, payload any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, m := range b.subs {
		m.push(Message{Event: ev, Payload: payload})
	}
}

// Labels returns the subscribed window labels, sorted.
func (b *Bus) Labels() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.subs))
	for l := range b.subs {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// mailbox is an unbounded FIFO in front of the subscriber channel, so emitters never
// wait on a slow window.
type mailbox struct {
	mu     sync.Mutex
	queue  []Message
	notify chan struct{}
	out    chan Message
	done   chan struct{}
	once   sync.Once
}

func newMailbox() *mailbox {
	return &mailbox{
		notify: make(chan struct{}, 1),
		out:    make(chan Message),
		done:   make(chan struct{}),
	}
}

func (m *mailbox) push(msg Message) {
	m.mu.Lock()
	m.queue = append(m.queue, msg)
	m.mu.Unlock()
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *mailbox) close() { m.once.Do(func() { close(m.done) }) }

func (m *mailbox) run() {
	defer close(m.out)
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			select {
			case <-m.notify:
				continue
			case <-m.done:
				return
			}
		}
		msg := m.queue[0]
		m.queue[0] = Message{}
		m.queue = m.queue[1:]
		m.mu.Unlock()
		select {
		case m.out <- msg:
		case <-m.done:
			return
		}
	}
}
