//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	nativedlg "github.com/sqweek/dialog"

	"scenebuilder/internal/app"
	"scenebuilder/internal/bus"
	"scenebuilder/internal/confirm"
	"scenebuilder/internal/domain"
	applog "scenebuilder/internal/log"
	"scenebuilder/internal/session"
	"scenebuilder/internal/storage"
)

// shell is the native side of the application: it owns every fyne window and implements
// the host, dialog, prompt, link and notification capabilities of the app context.
type shell struct {
	fa   fyne.App
	main fyne.Window
	a    *app.App
	l    *slog.Logger

	mu      sync.Mutex
	editors map[string]*editorWindow

	history *draftHistory

	// UI thread only.
	status     *widget.Label
	sceneList  *widget.List
	scenes     []domain.Scene
	draft      *sceneDraft
	searchHits []storage.SearchResult
	searchList *widget.List
	darkItem   *fyne.MenuItem
	menu       *fyne.MainMenu
}

// Run starts the Fyne-based desktop UI. newApp builds the application context from the
// window capabilities the shell provides; project, when set, is opened at startup.
func Run(newApp func(app.Deps) *app.App, project string) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	fa := fyneapp.NewWithID("scenebuilder")
	s := &shell{fa: fa, l: l, editors: make(map[string]*editorWindow), history: newDraftHistory()}
	s.main = fa.NewWindow(app.DefaultTitle)
	s.main.SetMaster()

	s.a = newApp(app.Deps{Host: s, Dialogs: s, Prompter: s, Opener: s, Notifier: s})

	prefs := fa.Preferences()
	winW := prefs.IntWithFallback("window.width", 1280)
	winH := prefs.IntWithFallback("window.height", 720)
	s.main.Resize(fyne.NewSize(float32(max(winW, 960)), float32(max(winH, 540))))
	s.main.SetContent(s.buildMain())
	s.buildMenu()
	s.applyTheme(s.a.Darkmode())

	s.main.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { s.a.Submit(app.CmdSave) })
	s.main.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { s.draft.undo() })
	s.main.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift},
		func(fyne.Shortcut) { s.draft.redo() })
	s.main.SetCloseIntercept(func() {
		sz := s.main.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		s.a.CloseRequested()
	})

	ch, cancel := s.a.Bus().Subscribe(session.MainWindow)
	defer cancel()
	go s.pumpMain(ch)

	if project != "" {
		go func() {
			if err := s.a.OpenAtStartup(project); err != nil {
				l.Error("auto-open project failed", slog.Any("err", err))
			}
		}()
	} else {
		s.a.RequestDocumentRefresh(session.MainWindow)
	}

	s.main.ShowAndRun()
	s.a.Wait()
	l.Info("UI stopped")
	return nil
}

// pumpMain applies notifications addressed to the main window.
func (s *shell) pumpMain(ch <-chan bus.Message) {
	for msg := range ch {
		switch msg.Event {
		case bus.DocumentChanged:
			scenes, _ := msg.Payload.([]domain.Scene)
			fyne.Do(func() { s.setScenes(scenes) })
		case bus.StageSaved:
			p, ok := msg.Payload.(domain.EditorPayload)
			if !ok {
				continue
			}
			fyne.Do(func() { s.stageSaved(p) })
		case bus.DarkmodeToggled:
			on, _ := msg.Payload.(bool)
			fyne.Do(func() { s.applyTheme(on) })
		}
	}
}

// stageSaved merges an edited stage into the draft when its scene was never saved, and
// into the document otherwise.
func (s *shell) stageSaved(p domain.EditorPayload) {
	if s.draft != nil && s.draft.scene.ID == p.Scene && !s.isStored(p.Scene) {
		s.draft.scene.Positions = append([]domain.PositionInfo(nil), p.Positions...)
		s.draft.scene.UpsertStage(p.Stage)
		s.draft.refresh()
		s.a.MarkDirty()
		return
	}
	go func() { _ = s.a.ApplyStage(p) }()
}

func (s *shell) isStored(id domain.ID) bool {
	for _, sc := range s.scenes {
		if sc.ID == id {
			return true
		}
	}
	return false
}

// ---- main window ----

func (s *shell) buildMain() fyne.CanvasObject {
	s.status = widget.NewLabel("Ready")

	s.sceneList = widget.NewList(
		func() int { return len(s.scenes) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if int(i) < len(s.scenes) {
				o.(*widget.Label).SetText(SceneLabel(s.scenes[i]))
			}
		},
	)
	s.draft = newSceneDraft(s)
	s.sceneList.OnSelected = func(i widget.ListItemID) {
		if int(i) < len(s.scenes) {
			s.draft.load(s.scenes[i])
		}
	}

	newScene := widget.NewButton("New Scene", func() {
		s.sceneList.UnselectAll()
		s.draft.load(s.a.CreateBlankScene())
		s.a.MarkDirty()
	})
	delScene := widget.NewButton("Delete Scene", func() {
		if s.draft.scene.ID.IsZero() {
			return
		}
		id := s.draft.scene.ID
		dialog.ShowConfirm("Delete Scene", "Delete scene \""+s.draft.scene.Name+"\"?", func(ok bool) {
			if !ok {
				return
			}
			s.sceneList.UnselectAll()
			s.draft.clear()
			s.history.forget(id)
			if s.isStored(id) {
				go func() { _, _ = s.a.DeleteScene(id) }()
			}
		}, s.main)
	})

	searchEntry := widget.NewEntry()
	searchEntry.SetPlaceHolder("Search scenes and stages")
	s.searchList = widget.NewList(
		func() int { return len(s.searchHits) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if int(i) < len(s.searchHits) {
				o.(*widget.Label).SetText(SearchLabel(s.searchHits[i]))
			}
		},
	)
	s.searchList.OnSelected = func(i widget.ListItemID) {
		if int(i) >= len(s.searchHits) {
			return
		}
		for j, sc := range s.scenes {
			if sc.ID == s.searchHits[i].SceneID {
				s.sceneList.Select(j)
				break
			}
		}
	}
	searchEntry.OnSubmitted = func(text string) {
		s.status.SetText("Searching…")
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			res, err := s.a.SearchScenes(ctx, text)
			fyne.Do(func() {
				if err != nil {
					s.status.SetText("Search failed.")
					return
				}
				s.searchHits = res
				s.searchList.UnselectAll()
				s.searchList.Refresh()
				s.status.SetText("")
			})
		}()
	}

	left := container.NewBorder(
		container.NewVBox(widget.NewLabel("Scenes"), widget.NewSeparator()),
		container.NewVBox(container.NewGridWithColumns(2, newScene, delScene), widget.NewSeparator(),
			searchEntry, container.NewGridWrap(fyne.NewSize(260, 140), s.searchList)),
		nil, nil, s.sceneList,
	)
	split := container.NewHSplit(left, s.draft.view())
	split.Offset = 0.28

	minSize := canvas.NewRectangle(color.Transparent)
	minSize.SetMinSize(fyne.NewSize(960, 540))
	return container.NewStack(minSize, container.NewBorder(nil, s.status, nil, nil, split))
}

func (s *shell) setScenes(scenes []domain.Scene) {
	s.scenes = scenes
	s.sceneList.Refresh()
	if s.draft.scene.ID.IsZero() {
		return
	}
	for _, sc := range scenes {
		if sc.ID == s.draft.scene.ID {
			s.draft.load(sc)
			return
		}
	}
}

func (s *shell) buildMenu() {
	item := func(c app.Command) *fyne.MenuItem {
		return fyne.NewMenuItem(c.Label(), func() { _ = s.a.DispatchID(c.String()) })
	}
	s.darkItem = item(app.CmdToggleDarkmode)
	s.darkItem.Checked = s.a.Darkmode()
	file := fyne.NewMenu("File",
		item(app.CmdNewProject), item(app.CmdOpenProject), fyne.NewMenuItemSeparator(),
		item(app.CmdSave), item(app.CmdSaveAs), fyne.NewMenuItemSeparator(),
		item(app.CmdImportOffsets), item(app.CmdExport), item(app.CmdExportSheet),
	)
	view := fyne.NewMenu("View", s.darkItem)
	help := fyne.NewMenu("Help", item(app.CmdOpenDocs), fyne.NewMenuItemSeparator(),
		item(app.CmdDiscord), item(app.CmdPatreon), item(app.CmdKoFi))
	s.menu = fyne.NewMainMenu(file, view, help)
	s.main.SetMainMenu(s.menu)
}

// fixedVariant pins the default theme to one variant regardless of the OS setting.
type fixedVariant struct {
	fyne.Theme
	v fyne.ThemeVariant
}

func (t fixedVariant) Color(n fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return t.Theme.Color(n, t.v)
}

func (s *shell) applyTheme(dark bool) {
	v := theme.VariantLight
	if dark {
		v = theme.VariantDark
	}
	s.fa.Settings().SetTheme(fixedVariant{Theme: theme.DefaultTheme(), v: v})
	if s.darkItem != nil {
		s.darkItem.Checked = dark
		s.menu.Refresh()
	}
}

// ---- scene editor pane ----

// sceneDraft is the scene being edited in the main window. Changes stay local until
// "Save Scene".
type sceneDraft struct {
	s     *shell
	scene domain.Scene

	name      *widget.Entry
	private   *widget.Check
	bed       *widget.Check
	furniture *widget.Entry
	slots     *fyne.Container
	stages    *widget.List
	stageSel  int
	loading   bool
}

func newSceneDraft(s *shell) *sceneDraft {
	d := &sceneDraft{s: s, stageSel: -1}
	d.name = widget.NewEntry()
	d.name.OnChanged = func(v string) { d.edit(func() { d.scene.Name = v }) }
	d.private = widget.NewCheck("Private", func(v bool) { d.edit(func() { d.scene.Private = v }) })
	d.bed = widget.NewCheck("Allow bed", func(v bool) { d.edit(func() { d.scene.Furniture.AllowBed = v }) })
	d.furniture = widget.NewEntry()
	d.furniture.SetPlaceHolder("Furniture types, comma separated")
	d.furniture.OnChanged = func(v string) { d.edit(func() { d.scene.Furniture.Types = SplitTags(v) }) }
	d.slots = container.NewVBox()
	d.stages = widget.NewList(
		func() int { return len(d.scene.Stages) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if int(i) < len(d.scene.Stages) {
				o.(*widget.Label).SetText(StageLabel(d.scene, d.scene.Stages[i]))
			}
		},
	)
	d.stages.OnSelected = func(i widget.ListItemID) { d.stageSel = int(i) }
	d.stages.OnUnselected = func(widget.ListItemID) { d.stageSel = -1 }
	return d
}

// edit applies a user change to the draft and marks the document dirty.
func (d *sceneDraft) edit(fn func()) {
	if d.loading || d.scene.ID.IsZero() {
		return
	}
	d.s.history.record(d.scene)
	fn()
	d.s.a.MarkDirty()
}

func (d *sceneDraft) undo() {
	if d.scene.ID.IsZero() {
		return
	}
	if sc, ok := d.s.history.undo(d.scene); ok {
		d.load(sc)
		d.s.a.MarkDirty()
	}
}

func (d *sceneDraft) redo() {
	if d.scene.ID.IsZero() {
		return
	}
	if sc, ok := d.s.history.redo(d.scene); ok {
		d.load(sc)
		d.s.a.MarkDirty()
	}
}

func (d *sceneDraft) selectedStage() (domain.Stage, bool) {
	if d.stageSel < 0 || d.stageSel >= len(d.scene.Stages) {
		return domain.Stage{}, false
	}
	return d.scene.Stages[d.stageSel], true
}

func (d *sceneDraft) view() fyne.CanvasObject {
	addSlot := widget.NewButton("Add Position", func() {
		d.edit(func() { d.scene.AddPosition(d.s.a.MakePosition()) })
		d.refresh()
	})
	addStage := widget.NewButton("New Stage", func() {
		if d.scene.ID.IsZero() {
			return
		}
		_, _ = d.s.a.OpenStageEditor(d.scene, nil)
	})
	editStage := widget.NewButton("Edit Stage", func() {
		if st, ok := d.selectedStage(); ok {
			_, _ = d.s.a.OpenStageEditor(d.scene, &st)
		}
	})
	copyStage := widget.NewButton("Duplicate Stage", func() {
		if st, ok := d.selectedStage(); ok {
			_, _ = d.s.a.OpenStageEditorFrom(d.scene, st)
		}
	})
	rootStage := widget.NewButton("Set Start Stage", func() {
		if st, ok := d.selectedStage(); ok {
			d.edit(func() { d.scene.Root = st.ID })
			d.stages.Refresh()
		}
	})
	delStage := widget.NewButton("Delete Stage", func() {
		st, ok := d.selectedStage()
		if !ok {
			return
		}
		d.edit(func() {
			i := d.scene.StageIndex(st.ID)
			d.scene.Stages = append(d.scene.Stages[:i:i], d.scene.Stages[i+1:]...)
			if d.scene.Root == st.ID {
				d.scene.Root = ""
				if len(d.scene.Stages) > 0 {
					d.scene.Root = d.scene.Stages[0].ID
				}
			}
		})
		d.stages.UnselectAll()
		d.stages.Refresh()
	})
	save := widget.NewButton("Save Scene", func() {
		if d.scene.ID.IsZero() {
			return
		}
		sc := d.scene.Clone()
		go func() { _ = d.s.a.SaveScene(sc) }()
	})
	save.Importance = widget.HighImportance

	form := widget.NewForm(
		widget.NewFormItem("Name", d.name),
		widget.NewFormItem("Furniture", d.furniture),
		widget.NewFormItem("", container.NewHBox(d.private, d.bed)),
	)
	slots := container.NewBorder(
		container.NewVBox(widget.NewLabel("Positions"), widget.NewSeparator()),
		addSlot, nil, nil, container.NewVScroll(d.slots),
	)
	stages := container.NewBorder(
		container.NewVBox(widget.NewLabel("Stages"), widget.NewSeparator()),
		container.NewGridWithColumns(3, addStage, editStage, copyStage, rootStage, delStage),
		nil, nil, d.stages,
	)
	return container.NewBorder(form, save, nil, nil, container.NewGridWithColumns(2, slots, stages))
}

func (d *sceneDraft) load(sc domain.Scene) {
	d.loading = true
	defer func() { d.loading = false }()
	d.scene = sc.Clone()
	d.name.SetText(sc.Name)
	d.private.SetChecked(sc.Private)
	d.bed.SetChecked(sc.Furniture.AllowBed)
	d.furniture.SetText(strings.Join(sc.Furniture.Types, ", "))
	d.stages.UnselectAll()
	d.refresh()
}

func (d *sceneDraft) clear() { d.load(domain.Scene{}) }

// refresh rebuilds the slot rows and the stage list from the draft.
func (d *sceneDraft) refresh() {
	d.slots.RemoveAll()
	keys := d.s.a.LookupKeys()
	for i := range d.scene.Positions {
		i := i
		info := &d.scene.Positions[i]
		caption := widget.NewLabel(PositionLabel(i, *info))
		race := widget.NewSelect(keys, nil)
		race.SetSelected(info.Race)
		race.OnChanged = func(v string) {
			d.edit(func() { info.Race = v })
			caption.SetText(PositionLabel(i, *info))
		}
		sex := func(label string, field *bool) *widget.Check {
			c := widget.NewCheck(label, nil)
			c.SetChecked(*field)
			c.OnChanged = func(v bool) {
				d.edit(func() { *field = v })
				caption.SetText(PositionLabel(i, *info))
			}
			return c
		}
		scale := widget.NewEntry()
		scale.SetText(FormatNumber(info.Scale))
		scale.OnChanged = func(v string) { d.edit(func() { info.Scale = ParseNumber(v, info.Scale) }) }
		remove := widget.NewButton("Remove", func() {
			d.edit(func() { d.scene.RemovePosition(i) })
			d.refresh()
		})
		d.slots.Add(container.NewVBox(
			caption,
			container.NewGridWithColumns(2, race, scale),
			container.NewHBox(sex("Male", &info.Sex.Male), sex("Female", &info.Sex.Female), sex("Futa", &info.Sex.Futa), remove),
			widget.NewSeparator(),
		))
	}
	d.slots.Refresh()
	d.stages.Refresh()
}

// ---- stage editor windows ----

type editorWindow struct {
	label  string
	w      fyne.Window
	cancel func()
}

// OpenWindow creates a stage editor window. Its payload arrives through the bus once the
// window reports ready.
func (s *shell) OpenWindow(spec session.WindowSpec) error {
	ch, cancel := s.a.Bus().Subscribe(spec.Label)
	ew := &editorWindow{label: spec.Label, cancel: cancel}
	s.mu.Lock()
	s.editors[spec.Label] = ew
	s.mu.Unlock()

	fyne.Do(func() {
		w := s.fa.NewWindow(spec.Title)
		ew.w = w
		w.Resize(fyne.NewSize(spec.Width, spec.Height))
		ed := newStageForm(s, spec.Label, w, fyne.NewSize(spec.MinWidth, spec.MinHeight))
		w.SetContent(ed.view())
		w.SetCloseIntercept(func() {
			s.forgetEditor(spec.Label)
			s.a.EditorClosed(spec.Label)
			w.Close()
		})
		w.Show()
		go ed.pump(ch)
		go s.a.EditorReady(spec.Label)
	})
	return nil
}

func (s *shell) FocusWindow(label string) error {
	s.mu.Lock()
	ew := s.editors[label]
	s.mu.Unlock()
	if ew == nil {
		return session.ErrUnknownWindow
	}
	fyne.Do(func() {
		if ew.w != nil {
			ew.w.RequestFocus()
		}
	})
	return nil
}

func (s *shell) CloseWindow(label string) error {
	ew := s.forgetEditor(label)
	if ew == nil {
		return session.ErrUnknownWindow
	}
	fyne.Do(func() {
		if ew.w != nil {
			ew.w.Close()
		}
	})
	return nil
}

func (s *shell) forgetEditor(label string) *editorWindow {
	s.mu.Lock()
	ew := s.editors[label]
	delete(s.editors, label)
	s.mu.Unlock()
	if ew != nil {
		ew.cancel()
	}
	return ew
}

func (s *shell) SetTitle(label, title string) {
	fyne.Do(func() {
		if label == session.MainWindow {
			s.main.SetTitle(title)
			return
		}
		s.mu.Lock()
		ew := s.editors[label]
		s.mu.Unlock()
		if ew != nil && ew.w != nil {
			ew.w.SetTitle(title)
		}
	})
}

func (s *shell) Quit() { fyne.Do(s.fa.Quit) }

// stageForm edits one stage inside its own window.
type stageForm struct {
	s       *shell
	label   string
	w       fyne.Window
	minSize fyne.Size

	payload domain.EditorPayload
	name    *widget.Entry
	tags    *widget.Entry
	navText *widget.Entry
	length  *widget.Entry
	rows    *fyne.Container
	save    *widget.Button
}

func newStageForm(s *shell, label string, w fyne.Window, minSize fyne.Size) *stageForm {
	f := &stageForm{s: s, label: label, w: w, minSize: minSize}
	f.name = widget.NewEntry()
	f.tags = widget.NewEntry()
	f.tags.SetPlaceHolder("Tags, comma separated")
	f.navText = widget.NewEntry()
	f.length = widget.NewEntry()
	f.length.SetPlaceHolder("0 = until advanced")
	f.rows = container.NewVBox(widget.NewLabel("Loading…"))
	f.save = widget.NewButton("Save & Close", f.submit)
	f.save.Importance = widget.HighImportance
	f.save.Disable()
	return f
}

func (f *stageForm) view() fyne.CanvasObject {
	form := widget.NewForm(
		widget.NewFormItem("Name", f.name),
		widget.NewFormItem("Tags", f.tags),
		widget.NewFormItem("Navigation", f.navText),
		widget.NewFormItem("Fixed length (s)", f.length),
	)
	cancel := widget.NewButton("Cancel", func() {
		f.s.forgetEditor(f.label)
		f.s.a.EditorClosed(f.label)
		f.w.Close()
	})
	spacer := canvas.NewRectangle(color.Transparent)
	spacer.SetMinSize(f.minSize)
	body := container.NewBorder(form, container.NewHBox(f.save, cancel), nil, nil, container.NewVScroll(f.rows))
	return container.NewStack(spacer, body)
}

// pump receives the payload handshake and later notifications for this window.
func (f *stageForm) pump(ch <-chan bus.Message) {
	for msg := range ch {
		switch msg.Event {
		case bus.EditorPayloadDelivered:
			p, ok := msg.Payload.(domain.EditorPayload)
			if !ok {
				continue
			}
			fyne.Do(func() { f.populate(p) })
		}
	}
}

func (f *stageForm) populate(p domain.EditorPayload) {
	f.payload = p
	st := p.Stage
	f.name.SetText(st.Name)
	f.tags.SetText(strings.Join(st.Tags, ", "))
	f.navText.SetText(st.Extra.NavText)
	f.length.SetText(FormatNumber(st.Extra.FixedLen))
	f.rows.RemoveAll()
	for i := range f.payload.Stage.Positions {
		f.rows.Add(f.positionRow(i))
	}
	f.rows.Refresh()
	f.save.Enable()
}

func (f *stageForm) positionRow(i int) fyne.CanvasObject {
	pos := &f.payload.Stage.Positions[i]
	caption := fmt.Sprintf("Position %d", i+1)
	if i < len(f.payload.Positions) {
		caption = PositionLabel(i, f.payload.Positions[i])
	}
	num := func(v *float64) *widget.Entry {
		e := widget.NewEntry()
		e.SetText(FormatNumber(*v))
		e.OnChanged = func(s string) { *v = ParseNumber(s, *v) }
		return e
	}
	events := widget.NewEntry()
	events.SetPlaceHolder("Animation events, comma separated")
	events.SetText(strings.Join(pos.Event, ", "))
	events.OnChanged = func(s string) { pos.Event = SplitTags(s) }
	climax := widget.NewCheck("Climax", func(v bool) { pos.Climax = v })
	climax.SetChecked(pos.Climax)
	strip := widget.NewCheck("Default strip", func(v bool) { pos.Strip.Default = v })
	strip.SetChecked(pos.Strip.Default)
	return container.NewVBox(
		widget.NewLabel(caption),
		events,
		container.NewGridWithColumns(4, num(&pos.Offset.X), num(&pos.Offset.Y), num(&pos.Offset.Z), num(&pos.Offset.R)),
		container.NewHBox(climax, strip),
		widget.NewSeparator(),
	)
}

func (f *stageForm) submit() {
	st := f.payload.Stage.Clone()
	st.Name = strings.TrimSpace(f.name.Text)
	st.Tags = SplitTags(f.tags.Text)
	st.Extra.NavText = f.navText.Text
	st.Extra.FixedLen = ParseNumber(f.length.Text, st.Extra.FixedLen)
	scene, positions := f.payload.Scene, f.payload.Positions
	go func() { _ = f.s.a.StageSaveAndClose(f.label, scene, positions, st) }()
}

// ---- prompts, pickers, links, notifications ----

func (s *shell) ConfirmBlocking(p confirm.Prompt) confirm.Outcome {
	if nativedlg.Message("%s", p.Message).Title(p.Title).YesNo() {
		return confirm.Confirmed
	}
	return confirm.Declined
}

func (s *shell) ConfirmAsync(p confirm.Prompt, done func(confirm.Outcome)) {
	fyne.Do(func() {
		dialog.ShowConfirm(p.Title, p.Message, func(ok bool) {
			out := confirm.Declined
			if ok {
				out = confirm.Confirmed
			}
			go done(out)
		}, s.main)
	})
}

func (s *shell) startDir() string {
	if p := s.a.Store().Path(); p != "" {
		return filepath.Dir(p)
	}
	return ""
}

func picked(path string, err error) (string, error) {
	if errors.Is(err, nativedlg.ErrCancelled) {
		return "", domain.ErrCancelled
	}
	return path, err
}

func (s *shell) OpenProject() (string, error) {
	return picked(nativedlg.File().Title("Open Project").Filter("Scene Builder project", "json").
		SetStartDir(s.startDir()).Load())
}

func (s *shell) SaveProject(suggested string) (string, error) {
	p, err := picked(nativedlg.File().Title("Save Project").Filter("Scene Builder project", "json").
		SetStartDir(s.startDir()).SetStartFile(suggested).Save())
	return EnsureProjectExt(p), err
}

func (s *shell) OpenOffsets() (string, error) {
	return picked(nativedlg.File().Title("Import Offset.yaml").Filter("Offset data", "yaml", "yml").Load())
}

func (s *shell) BuildDir() (string, error) {
	return picked(nativedlg.Directory().Title("Export to").SetStartDir(s.startDir()).Browse())
}

func (s *shell) SaveSheet(suggested string) (string, error) {
	return picked(nativedlg.File().Title("Export Scene Sheet").Filter("PDF", "pdf").
		SetStartDir(s.startDir()).SetStartFile(suggested).Save())
}

func (s *shell) OpenURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	return s.fa.OpenURL(u)
}

func (s *shell) Notify(title, message string) {
	fyne.Do(func() { s.status.SetText(title + ": " + message) })
	s.fa.SendNotification(fyne.NewNotification(title, message))
}
