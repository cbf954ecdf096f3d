/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package app is the application context of the editor: it owns the document store, the
// dirty and darkmode flags, the editor windows and the notification bus, and implements
// every command the windows and the menu can issue.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"scenebuilder/internal/bus"
	"scenebuilder/internal/config"
	"scenebuilder/internal/confirm"
	"scenebuilder/internal/document"
	"scenebuilder/internal/domain"
	applog "scenebuilder/internal/log"
	"scenebuilder/internal/racekeys"
	"scenebuilder/internal/session"
	"scenebuilder/internal/storage"
	"scenebuilder/internal/telemetry"
)

// DefaultTitle is the main window title of an untitled project.
const DefaultTitle = "SexLab Scene Builder"

// WindowHost is the native window layer.
type WindowHost interface {
	session.WindowHost
	SetTitle(label, title string)
	// Quit terminates the application.
	Quit()
}

// FileDialogs picks files. Each method returns domain.ErrCancelled when the user closes
// the picker.
type FileDialogs interface {
	OpenProject() (string, error)
	SaveProject(suggestedName string) (string, error)
	OpenOffsets() (string, error)
	BuildDir() (string, error)
	SaveSheet(suggestedName string) (string, error)
}

// URLOpener opens external links in the system browser.
type URLOpener interface {
	OpenURL(url string) error
}

// Notifier shows a non-blocking message to the user.
type Notifier interface {
	Notify(title, message string)
}

// Telemetry receives anonymous usage events.
type Telemetry interface {
	Event(name string, props map[string]any)
}

// Deps are the collaborators of an App.
type Deps struct {
	Host      WindowHost
	Dialogs   FileDialogs
	Prompter  confirm.Prompter
	Opener    URLOpener
	Notifier  Notifier
	Telemetry Telemetry
	// Store is the document store to use; a new one is created when nil.
	Store *document.Store
	// Codec overrides the project file reader/writer of a newly created store.
	Codec document.Codec
	// OnPanic handles panics raised by queued commands.
	OnPanic func(v any, stack []byte)
}

// App is created once at startup and passed to every command handler.
type App struct {
	cfg      config.AppConfig
	store    *document.Store
	dirty    *document.Dirty
	darkmode atomic.Bool
	bus      *bus.Bus
	sessions *session.Orchestrator
	gate     *confirm.Gate
	pool     *Pool

	host      WindowHost
	dialogs   FileDialogs
	opener    URLOpener
	notifier  Notifier
	telemetry Telemetry
	log       *slog.Logger
}

// New builds the application context.
func New(cfg config.AppConfig, d Deps) *App {
	store := d.Store
	if store == nil {
		var opts []document.Option
		if d.Codec != nil {
			opts = append(opts, document.WithCodec(d.Codec))
		}
		store = document.New(opts...)
	}
	dirty := store.Dirty()
	b := bus.New()
	a := &App{
		cfg:       cfg,
		store:     store,
		dirty:     dirty,
		bus:       b,
		sessions:  session.NewOrchestrator(d.Host, b),
		gate:      confirm.NewGate(dirty, d.Prompter),
		pool:      NewPool(cfg.General.Workers, d.OnPanic),
		host:      d.Host,
		dialogs:   d.Dialogs,
		opener:    d.Opener,
		notifier:  d.Notifier,
		telemetry: d.Telemetry,
		log:       applog.WithComponent("app"),
	}
	a.darkmode.Store(cfg.General.Darkmode)
	return a
}

// Store returns the document store.
func (a *App) Store() *document.Store { return a.store }

// Bus returns the notification bus windows subscribe to.
func (a *App) Bus() *bus.Bus { return a.bus }

// Sessions returns the editor window orchestrator.
func (a *App) Sessions() *session.Orchestrator { return a.sessions }

// Config returns the configuration the app was built with.
func (a *App) Config() config.AppConfig { return a.cfg }

// IsDirty reports unsaved changes.
func (a *App) IsDirty() bool { return a.dirty.IsSet() }

// Wait blocks until all queued commands have finished.
func (a *App) Wait() { a.pool.Wait() }

// MainTitle renders the main window title for a package name and dirty state.
func MainTitle(name string, dirty bool) string {
	t := DefaultTitle
	if name != "" {
		t = fmt.Sprintf("%s - %s", DefaultTitle, name)
	}
	if dirty {
		t += "*"
	}
	return t
}

func (a *App) refreshTitle() {
	if a.host == nil {
		return
	}
	a.host.SetTitle(session.MainWindow, MainTitle(a.store.Name(), a.dirty.IsSet()))
}

// broadcastDocument sends the full scene list to the main window.
func (a *App) broadcastDocument() {
	a.emitDocument(session.MainWindow)
}

func (a *App) emitDocument(label string) {
	if err := a.bus.EmitTo(label, bus.DocumentChanged, a.store.Scenes()); err != nil {
		a.log.Debug("document not delivered", slog.String("window", label), slog.Any("err", err))
	}
}

func (a *App) event(name string, props map[string]any) {
	if a.telemetry != nil {
		a.telemetry.Event(name, props)
	}
}

// report logs a failed command and tells the user. Cancellations are not failures.
func (a *App) report(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrCancelled) {
		a.log.Info("user cancelled", slog.String("op", op))
		return nil
	}
	a.log.Error(op+" failed", slog.Any("err", err))
	if a.notifier != nil {
		a.notifier.Notify(op, err.Error())
	}
	return err
}

// ---- commands issued by windows ----

// RequestDocumentRefresh sends the current scene list to the window with label.
func (a *App) RequestDocumentRefresh(label string) {
	a.emitDocument(label)
}

// LookupKeys returns the selectable race keys.
func (a *App) LookupKeys() []string { return racekeys.Keys() }

// CreateBlankScene returns a default scene. It is not added to the package.
func (a *App) CreateBlankScene() domain.Scene { return domain.NewScene() }

// MakePosition returns a fresh Position with its PositionInfo, not attached to any scene.
func (a *App) MakePosition() domain.PositionPayload { return domain.NewPositionPayload() }

// SaveScene inserts or replaces sc in the package.
func (a *App) SaveScene(sc domain.Scene) error {
	if err := a.store.UpsertScene(sc); err != nil {
		return a.report("Save Scene", err)
	}
	a.refreshTitle()
	a.broadcastDocument()
	return nil
}

// DeleteScene removes and returns the scene with id. An unknown id is an error and
// changes nothing.
func (a *App) DeleteScene(id domain.ID) (domain.Scene, error) {
	sc, err := a.store.RemoveScene(id)
	if err != nil {
		return domain.Scene{}, a.report("Delete Scene", err)
	}
	a.refreshTitle()
	a.broadcastDocument()
	return sc, nil
}

// MarkDirty records unsaved edits the UI holds locally.
func (a *App) MarkDirty() {
	a.dirty.Mark()
	a.refreshTitle()
}

// Darkmode reports the current darkmode preference.
func (a *App) Darkmode() bool { return a.darkmode.Load() }

// OpenStageEditor opens an editor for stage, or for a fresh stage derived from scene when
// stage is nil. An editor already open for the stage is focused instead.
func (a *App) OpenStageEditor(scene domain.Scene, stage *domain.Stage) (string, error) {
	st := domain.NewStage(scene)
	if stage != nil {
		st = stage.Clone()
	}
	return a.openEditor(scene, st)
}

// OpenStageEditorFrom opens an editor seeded with a duplicate of src under a fresh id.
func (a *App) OpenStageEditorFrom(scene domain.Scene, src domain.Stage) (string, error) {
	return a.openEditor(scene, domain.DuplicateStage(src))
}

func (a *App) openEditor(scene domain.Scene, st domain.Stage) (string, error) {
	payload := domain.EditorPayload{
		Scene:     scene.ID,
		Stage:     st,
		Positions: append([]domain.PositionInfo(nil), scene.Positions...),
	}
	label, created, err := a.sessions.Open(payload)
	if err != nil {
		return "", a.report("Open Stage Editor", err)
	}
	if created {
		a.event(telemetry.EventStageEditorOpen, nil)
	}
	return label, nil
}

// EditorReady is the handshake of a stage editor window: the first call returns the
// payload, later calls return false.
func (a *App) EditorReady(label string) (domain.EditorPayload, bool) {
	return a.sessions.Ready(label)
}

// StageSaveAndClose sends the edited stage to the main window and closes the editor.
func (a *App) StageSaveAndClose(label string, scene domain.ID, positions []domain.PositionInfo, stage domain.Stage) error {
	err := a.sessions.SaveAndClose(label, domain.EditorPayload{Scene: scene, Stage: stage, Positions: positions})
	return a.report("Save Stage", err)
}

// EditorClosed records that the user closed an editor window without saving.
func (a *App) EditorClosed(label string) { a.sessions.Closed(label) }

// ApplyStage merges a StageSaved payload into the package. Called by the main window.
func (a *App) ApplyStage(payload domain.EditorPayload) error {
	if err := a.store.ApplyStage(payload); err != nil {
		return a.report("Save Stage", err)
	}
	a.refreshTitle()
	a.broadcastDocument()
	return nil
}

// SearchScenes runs a full-text query over the saved project's scene index.
func (a *App) SearchScenes(ctx context.Context, query string) ([]storage.SearchResult, error) {
	path := a.store.Path()
	if path == "" || !a.cfg.Index.Enabled {
		return nil, nil
	}
	res, err := storage.Search(ctx, path, query, 50)
	if err != nil {
		a.log.Warn("search failed", slog.Any("err", err))
		return nil, err
	}
	return res, nil
}

// ---- main window lifecycle ----

const (
	unsavedReloadMsg = "There are unsaved changes. Loading a new project will cause these changes to be lost.\nContinue?"
	unsavedCloseMsg  = "There are unsaved changes. Are you sure you want to close?"
)

// CloseRequested handles a close request for the main window. It asks synchronously when
// there are unsaved changes; on yes (or when clean) the application quits and true is
// returned, on no the close is vetoed.
func (a *App) CloseRequested() bool {
	out := a.gate.Blocking(confirm.Prompt{Title: "Close", Message: unsavedCloseMsg}, func() {
		a.log.Info("closing application")
		if a.host != nil {
			a.host.Quit()
		}
	})
	return out == confirm.Confirmed
}

// OpenAtStartup loads path into the fresh application without asking.
func (a *App) OpenAtStartup(path string) error {
	if err := a.store.Load(path); err != nil {
		return a.report("Open Project", err)
	}
	a.refreshTitle()
	a.broadcastDocument()
	return nil
}
