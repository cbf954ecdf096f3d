/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/do/v2"

	"scenebuilder/internal/app"
	"scenebuilder/internal/config"
	"scenebuilder/internal/crash"
	"scenebuilder/internal/document"
	applog "scenebuilder/internal/log"
	"scenebuilder/internal/telemetry"
)

// appFactory builds the application context once the UI shell provides its window
// capabilities.
type appFactory func(app.Deps) *app.App

// newInjector registers the process-wide services, each built once on first use.
func newInjector() *do.RootScope {
	injector := do.New()

	do.Provide(injector, func(_ do.Injector) (config.AppConfig, error) {
		cfg, err := config.Load()
		if err != nil {
			slog.Warn("config load failed; using defaults", slog.Any("err", err))
		}
		return cfg, nil
	})
	do.Provide(injector, func(i do.Injector) (*slog.Logger, error) {
		cfg := do.MustInvoke[config.AppConfig](i)
		applog.Init(applog.Options{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			AddSource: cfg.Logging.Source,
			File:      cfg.Logging.File,
		})
		return applog.WithComponent("cli"), nil
	})
	do.Provide(injector, func(i do.Injector) (*telemetry.Client, error) {
		cfg := do.MustInvoke[config.AppConfig](i)
		tel := telemetry.New(telemetry.FromEnv().WithOptIn(cfg.General.TelemetryOptIn))
		crash.SetUploader(tel)
		return tel, nil
	})
	do.Provide(injector, func(_ do.Injector) (*document.Store, error) {
		return document.New(), nil
	})
	do.Provide(injector, func(i do.Injector) (appFactory, error) {
		cfg := do.MustInvoke[config.AppConfig](i)
		store := do.MustInvoke[*document.Store](i)
		tel := do.MustInvoke[*telemetry.Client](i)
		return func(d app.Deps) *app.App {
			d.Store = store
			d.Telemetry = tel
			d.OnPanic = func(v any, stack []byte) { crash.Handle(v, stack, store) }
			return app.New(cfg, d)
		}, nil
	})
	return injector
}

// shutdown flushes pending telemetry.
func shutdown(injector *do.RootScope) {
	defer func() { _ = applog.Close() }()
	tel, err := do.Invoke[*telemetry.Client](injector)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = tel.Flush(ctx)
	tel.Close()
}
