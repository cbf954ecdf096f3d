/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry sends anonymous usage events and crash reports when the
// user has opted in. Events are batched on a background goroutine and never
// carry file paths or scene content.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	applog "scenebuilder/internal/log"
	"scenebuilder/internal/version"
)

// Environment variables read by FromEnv.
const (
	EnvOptIn     = "SLSB_TELEMETRY_OPT_IN"
	EnvURL       = "SLSB_TELEMETRY_URL"
	EnvCrashURL  = "SLSB_CRASH_UPLOAD_URL"
	EnvTimeoutMS = "SLSB_TELEMETRY_TIMEOUT_MS"
	EnvDebug     = "SLSB_TELEMETRY_DEBUG"
)

// Event names sent by the editor.
const (
	EventProjectSaved     = "project_saved"
	EventProjectExported  = "project_exported"
	EventStageEditorOpen  = "stage_editor_opened"
	EventOffsetsImported  = "offsets_imported"
	EventUnrecognizedMenu = "unrecognized_command"
)

const (
	defaultTimeout = 1500 * time.Millisecond
	defaultBatch   = 16
	queueSize      = 64
	maxPropLen     = 64
)

// Config controls the client. Nothing is sent unless OptIn is set and the
// matching URL is non-empty.
type Config struct {
	OptIn    bool
	URL      string
	CrashURL string
	Timeout  time.Duration
	Batch    int
	Debug    bool
}

// FromEnv reads the configuration from SLSB_TELEMETRY_* variables.
func FromEnv() Config {
	cfg := Config{
		OptIn:    parseBool(os.Getenv(EnvOptIn)),
		URL:      strings.TrimSpace(os.Getenv(EnvURL)),
		CrashURL: strings.TrimSpace(os.Getenv(EnvCrashURL)),
		Debug:    os.Getenv(EnvDebug) != "",
	}
	if ms, err := strconv.Atoi(strings.TrimSpace(os.Getenv(EnvTimeoutMS))); err == nil && ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

// WithOptIn takes the opt-in decision from the user configuration unless
// SLSB_TELEMETRY_OPT_IN is set explicitly.
func (cfg Config) WithOptIn(optIn bool) Config {
	if strings.TrimSpace(os.Getenv(EnvOptIn)) == "" {
		cfg.OptIn = optIn
	}
	return cfg
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Record is one usage event.
type Record struct {
	Name  string         `json:"name"`
	At    time.Time      `json:"at"`
	Props map[string]any `json:"props,omitempty"`
}

// Batch is the body POSTed to the events URL.
type Batch struct {
	App     string   `json:"app"`
	Version string   `json:"version"`
	OS      string   `json:"os"`
	Arch    string   `json:"arch"`
	Events  []Record `json:"events"`
}

// Client queues events and posts them in batches. A nil *Client is a valid
// disabled client.
type Client struct {
	cfg  Config
	log  *slog.Logger
	http *http.Client
	now  func() time.Time

	in      chan Record
	flush   chan chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// New starts a client. Call Close to stop it.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Batch <= 0 {
		cfg.Batch = defaultBatch
	}
	c := &Client{
		cfg:     cfg,
		log:     applog.WithComponent("telemetry"),
		http:    &http.Client{Timeout: cfg.Timeout},
		now:     time.Now,
		in:      make(chan Record, queueSize),
		flush:   make(chan chan struct{}),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go c.run()
	return c
}

// Enabled reports whether usage events are sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.URL != "" }

// Event queues a usage event. Property values that could identify the user,
// such as paths or long strings, are dropped. A full queue drops the event.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	r := Record{Name: name, At: c.now().UTC(), Props: sanitize(props)}
	select {
	case c.in <- r:
	default:
		c.debug("event queue full", slog.String("event", name))
	}
}

// Flush sends everything queued so far and waits for the request to finish.
func (c *Client) Flush(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	ack := make(chan struct{})
	select {
	case c.flush <- ack:
	case <-c.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close sends pending events and stops the background goroutine.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.done) })
	<-c.stopped
}

// UploadCrash posts a crash report synchronously. It is a no-op without opt-in
// or a crash URL.
func (c *Client) UploadCrash(report []byte) error {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return nil
	}
	return c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", report)
}

func (c *Client) run() {
	defer close(c.stopped)
	var pending []Record
	for {
		select {
		case r := <-c.in:
			pending = append(pending, r)
			if len(pending) >= c.cfg.Batch {
				pending = c.send(pending)
			}
		case ack := <-c.flush:
			pending = c.send(c.drain(pending))
			close(ack)
		case <-c.done:
			c.send(c.drain(pending))
			return
		}
	}
}

func (c *Client) drain(pending []Record) []Record {
	for {
		select {
		case r := <-c.in:
			pending = append(pending, r)
		default:
			return pending
		}
	}
}

// send posts the batch and returns the emptied slice for reuse.
func (c *Client) send(events []Record) []Record {
	if len(events) == 0 {
		return events
	}
	body, err := json.Marshal(Batch{
		App:     applog.AppName,
		Version: version.String(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
		Events:  events,
	})
	if err == nil {
		err = c.post(c.cfg.URL, "application/json", body)
	}
	if err != nil {
		c.debug("telemetry batch dropped", slog.Int("events", len(events)), slog.Any("err", err))
	}
	return events[:0]
}

func (c *Client) post(url, contentType string, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telemetry: %s returned %s", url, resp.Status)
	}
	return nil
}

func (c *Client) debug(msg string, attrs ...any) {
	if c.cfg.Debug {
		c.log.Debug(msg, attrs...)
	}
}

func sanitize(props map[string]any) map[string]any {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		switch x := v.(type) {
		case bool, int, int64, float64:
			out[k] = x
		case string:
			if len(x) <= maxPropLen && !strings.ContainsAny(x, `/\`) {
				out[k] = x
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
