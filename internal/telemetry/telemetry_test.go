/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type collector struct {
	mu      sync.Mutex
	batches []Batch
	bodies  []string
	types   []string
	got     chan struct{}
}

func newCollector(t *testing.T) (*collector, *httptest.Server) {
	t.Helper()
	c := &collector{got: make(chan struct{}, 16)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.types = append(c.types, r.Header.Get("Content-Type"))
		if r.URL.Path == "/events" {
			var batch Batch
			_ = json.Unmarshal(b, &batch)
			c.batches = append(c.batches, batch)
		} else {
			c.bodies = append(c.bodies, string(b))
		}
		c.mu.Unlock()
		c.got <- struct{}{}
	}))
	t.Cleanup(srv.Close)
	return c, srv
}

func (c *collector) snapshot() ([]Batch, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Batch(nil), c.batches...), append([]string(nil), c.bodies...)
}

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestFlushPostsOneBatch(t *testing.T) {
	col, srv := newCollector(t)
	c := New(Config{OptIn: true, URL: srv.URL + "/events"})
	defer c.Close()

	c.Event(EventProjectSaved, map[string]any{"scenes": 4, "path": "C:\\mods\\pack.slsb.json"})
	c.Event(EventStageEditorOpen, nil)
	if err := c.Flush(ctxT(t)); err != nil {
		t.Fatalf("flush: %v", err)
	}

	batches, _ := col.snapshot()
	if len(batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(batches))
	}
	b := batches[0]
	if b.App == "" || b.OS == "" || b.Version == "" {
		t.Errorf("envelope incomplete: %+v", b)
	}
	if len(b.Events) != 2 || b.Events[0].Name != EventProjectSaved || b.Events[1].Name != EventStageEditorOpen {
		t.Fatalf("events = %+v", b.Events)
	}
	if _, ok := b.Events[0].Props["path"]; ok {
		t.Errorf("path property must be dropped: %v", b.Events[0].Props)
	}
	if b.Events[0].Props["scenes"] != float64(4) {
		t.Errorf("scenes = %v", b.Events[0].Props["scenes"])
	}
}

func TestFullBatchIsSentWithoutFlush(t *testing.T) {
	col, srv := newCollector(t)
	c := New(Config{OptIn: true, URL: srv.URL + "/events", Batch: 2})
	defer c.Close()

	c.Event(EventOffsetsImported, nil)
	c.Event(EventOffsetsImported, nil)
	select {
	case <-col.got:
	case <-time.After(5 * time.Second):
		t.Fatal("batch not sent")
	}
	if batches, _ := col.snapshot(); len(batches[0].Events) != 2 {
		t.Fatalf("events = %+v", batches[0].Events)
	}
}

func TestCloseSendsPending(t *testing.T) {
	col, srv := newCollector(t)
	c := New(Config{OptIn: true, URL: srv.URL + "/events"})
	c.Event(EventProjectExported, map[string]any{"format": "pdf"})
	c.Close()
	c.Close()

	batches, _ := col.snapshot()
	if len(batches) != 1 || batches[0].Events[0].Props["format"] != "pdf" {
		t.Fatalf("batches = %+v", batches)
	}
	if err := c.Flush(ctxT(t)); err != nil {
		t.Fatalf("flush after close: %v", err)
	}
}

func TestDisabledClientIsSilent(t *testing.T) {
	col, srv := newCollector(t)
	c := New(Config{URL: srv.URL + "/events", CrashURL: srv.URL + "/crash"})
	c.Event(EventProjectSaved, nil)
	if err := c.Flush(ctxT(t)); err != nil {
		t.Fatal(err)
	}
	if err := c.UploadCrash([]byte("boom")); err != nil {
		t.Fatal(err)
	}
	c.Close()
	if batches, bodies := col.snapshot(); len(batches)+len(bodies) != 0 {
		t.Fatalf("disabled client sent %v %v", batches, bodies)
	}

	var nilClient *Client
	nilClient.Event(EventProjectSaved, nil)
	nilClient.Close()
	if nilClient.Enabled() {
		t.Fatal("nil client enabled")
	}
}

func TestUploadCrash(t *testing.T) {
	col, srv := newCollector(t)
	c := New(Config{OptIn: true, CrashURL: srv.URL + "/crash"})
	defer c.Close()

	if err := c.UploadCrash([]byte("Panic: boom")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	_, bodies := col.snapshot()
	if len(bodies) != 1 || bodies[0] != "Panic: boom" {
		t.Fatalf("bodies = %q", bodies)
	}
	col.mu.Lock()
	ct := col.types[0]
	col.mu.Unlock()
	if ct != "text/plain; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
}

func TestUploadCrashReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c := New(Config{OptIn: true, CrashURL: srv.URL})
	defer c.Close()
	if err := c.UploadCrash([]byte("x")); err == nil {
		t.Fatal("expected error for 503")
	}
}
