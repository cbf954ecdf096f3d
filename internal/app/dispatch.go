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
	"context"
	"fmt"
	"log/slog"

	"scenebuilder/internal/bus"
	"scenebuilder/internal/confirm"
	"scenebuilder/internal/domain"
	applog "scenebuilder/internal/log"
	"scenebuilder/internal/session"
	"scenebuilder/internal/storage"
	"scenebuilder/internal/telemetry"
)

// DispatchID runs the menu item with the given id on the worker pool. Menu items of the
// desktop shell enter here. Unknown ids are logged as errors and reported as
// domain.ErrUnrecognizedCommand.
func (a *App) DispatchID(id string) error {
	cmd, err := ParseCommand(id)
	if err != nil {
		a.log.Error("unrecognized menu command", slog.String("id", id))
		a.event(telemetry.EventUnrecognizedMenu, nil)
		return err
	}
	a.Submit(cmd)
	return nil
}

// Submit queues cmd on the worker pool.
func (a *App) Submit(cmd Command) {
	a.pool.Go(cmd.String(), func() error { return a.Dispatch(cmd) })
}

// Dispatch runs cmd on the calling goroutine.
func (a *App) Dispatch(cmd Command) error {
	ctx := applog.ContextWithWindow(context.Background(), session.MainWindow)
	a.log.DebugContext(ctx, "menu command", slog.String("cmd", cmd.String()))
	switch cmd {
	case CmdNewProject:
		a.NewProject(nil)
		return nil
	case CmdOpenProject:
		a.OpenProject(nil)
		return nil
	case CmdImportOffsets:
		_, err := a.ImportOffsets()
		return err
	case CmdSave:
		return a.Save()
	case CmdSaveAs:
		return a.SaveAs()
	case CmdExport:
		_, err := a.Export()
		return err
	case CmdExportSheet:
		return a.ExportSheet()
	case CmdToggleDarkmode:
		a.ToggleDarkmode()
		return nil
	case CmdOpenDocs:
		return a.openLink(a.cfg.Links.Wiki)
	case CmdDiscord:
		return a.openLink(a.cfg.Links.Discord)
	case CmdPatreon:
		return a.openLink(a.cfg.Links.Patreon)
	case CmdKoFi:
		return a.openLink(a.cfg.Links.KoFi)
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnrecognizedCommand, cmd)
	}
}

// NewProject replaces the package with an empty one, asking first when there are unsaved
// changes. done, if not nil, receives the outcome.
func (a *App) NewProject(done func(confirm.Outcome)) {
	a.gate.Async(confirm.Prompt{Title: "New Project", Message: unsavedReloadMsg}, func() {
		a.store.Reset()
		a.refreshTitle()
		a.broadcastDocument()
	}, done)
}

// OpenProject asks for a project file and loads it, asking first when there are unsaved
// changes. done, if not nil, receives the outcome of the prompt.
func (a *App) OpenProject(done func(confirm.Outcome)) {
	a.gate.Async(confirm.Prompt{Title: "Open Project", Message: unsavedReloadMsg}, func() {
		path, err := a.dialogs.OpenProject()
		if err != nil {
			_ = a.report("Open Project", err)
			return
		}
		if err := a.store.Load(path); err != nil {
			_ = a.report("Open Project", err)
			return
		}
		a.refreshTitle()
		a.broadcastDocument()
	}, done)
}

// Save writes the package to its current file, or asks for one when it has none.
func (a *App) Save() error {
	if a.store.Path() == "" {
		return a.SaveAs()
	}
	return a.saveTo("")
}

// SaveAs asks for a file and writes the package to it.
func (a *App) SaveAs() error {
	suggested := a.store.Name()
	if suggested == "" {
		suggested = "Untitled"
	}
	path, err := a.dialogs.SaveProject(suggested + storage.FileExt)
	if err != nil {
		return a.report("Save Project", err)
	}
	return a.saveTo(path)
}

func (a *App) saveTo(path string) error {
	if err := a.store.Save(path); err != nil {
		a.refreshTitle()
		return a.report("Save Project", err)
	}
	a.refreshTitle()
	a.event(telemetry.EventProjectSaved, map[string]any{"scenes": len(a.store.Scenes())})
	a.rebuildIndex()
	return nil
}

// rebuildIndex refreshes the search index of the saved project. Failures are logged only.
func (a *App) rebuildIndex() {
	if !a.cfg.Index.Enabled {
		return
	}
	path := a.store.Path()
	if err := storage.RebuildIndex(context.Background(), path, a.store.Snapshot()); err != nil {
		a.log.Warn("index rebuild failed", slog.String("path", path), slog.Any("err", err))
	}
}

// ImportOffsets asks for an offset file and merges it into the package. It returns the
// number of stages updated.
func (a *App) ImportOffsets() (int, error) {
	path, err := a.dialogs.OpenOffsets()
	if err != nil {
		return 0, a.report("Import Offsets", err)
	}
	n, err := a.store.ImportOffsets(path)
	if err != nil {
		return 0, a.report("Import Offsets", err)
	}
	a.event(telemetry.EventOffsetsImported, map[string]any{"stages": n})
	a.refreshTitle()
	a.broadcastDocument()
	if a.notifier != nil {
		a.notifier.Notify("Import Offsets", fmt.Sprintf("Updated %d stages.", n))
	}
	return n, nil
}

// Export asks for a directory and writes the runtime build of the package into it.
func (a *App) Export() (string, error) {
	dir, err := a.dialogs.BuildDir()
	if err != nil {
		return "", a.report("Export", err)
	}
	out, err := a.store.Export(dir)
	if err != nil {
		return "", a.report("Export", err)
	}
	a.event(telemetry.EventProjectExported, map[string]any{"format": "runtime"})
	if a.notifier != nil {
		a.notifier.Notify("Export", "Build written to "+out)
	}
	return out, nil
}

// ExportSheet asks for a file and writes the PDF scene sheet to it.
func (a *App) ExportSheet() error {
	suggested := a.store.Name()
	if suggested == "" {
		suggested = "Untitled"
	}
	path, err := a.dialogs.SaveSheet(suggested + ".pdf")
	if err != nil {
		return a.report("Export Sheet", err)
	}
	if err := a.store.ExportSheet(path); err != nil {
		return a.report("Export Sheet", err)
	}
	a.event(telemetry.EventProjectExported, map[string]any{"format": "pdf"})
	return nil
}

// ToggleDarkmode flips the darkmode preference and tells every window.
func (a *App) ToggleDarkmode() bool {
	for {
		old := a.darkmode.Load()
		if a.darkmode.CompareAndSwap(old, !old) {
			a.bus.Emit(bus.DarkmodeToggled, !old)
			return !old
		}
	}
}

func (a *App) openLink(url string) error {
	if url == "" || a.opener == nil {
		return nil
	}
	if err := a.opener.OpenURL(url); err != nil {
		a.log.Warn("open link failed", slog.String("url", url), slog.Any("err", err))
		return err
	}
	return nil
}
