/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package app

import (
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	applog "scenebuilder/internal/log"
)

// Pool runs command handlers as independent tasks on a bounded number of goroutines.
// Handlers touching the package still serialize on the document store lock.
type Pool struct {
	g       errgroup.Group
	onPanic func(v any, stack []byte)
	log     *slog.Logger
}

// NewPool returns a pool running at most limit tasks at once. onPanic receives panics
// raised by a task; when nil the panic is re-raised.
func NewPool(limit int, onPanic func(v any, stack []byte)) *Pool {
	if limit < 1 {
		limit = 1
	}
	p := &Pool{onPanic: onPanic, log: applog.WithComponent("pool")}
	p.g.SetLimit(limit)
	return p
}

// Go queues fn. It blocks only while all workers are busy. Errors are logged; they do
// not stop other tasks.
func (p *Pool) Go(name string, fn func() error) {
	p.g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				if p.onPanic == nil {
					panic(r)
				}
				p.onPanic(r, debug.Stack())
			}
		}()
		if err := fn(); err != nil {
			p.log.Error("task failed", slog.String("task", name), slog.Any("err", err))
		}
		return nil
	})
}

// Wait blocks until all queued tasks have finished.
func (p *Pool) Wait() { _ = p.g.Wait() }
