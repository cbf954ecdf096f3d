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
	"fmt"

	"scenebuilder/internal/domain"
)

// Command is a menu action.
type Command int

const (
	CmdNewProject Command = iota + 1
	CmdOpenProject
	CmdImportOffsets
	CmdSave
	CmdSaveAs
	CmdExport
	CmdExportSheet
	CmdToggleDarkmode
	CmdOpenDocs
	CmdDiscord
	CmdPatreon
	CmdKoFi
)

// Commands lists every menu command in menu order.
var Commands = []Command{
	CmdNewProject, CmdOpenProject, CmdImportOffsets, CmdSave, CmdSaveAs, CmdExport,
	CmdExportSheet, CmdToggleDarkmode, CmdOpenDocs, CmdDiscord, CmdPatreon, CmdKoFi,
}

var commandIDs = map[Command]string{
	CmdNewProject:     "new_prjct",
	CmdOpenProject:    "open_prjct",
	CmdImportOffsets:  "import_offset",
	CmdSave:           "save",
	CmdSaveAs:         "save_as",
	CmdExport:         "build",
	CmdExportSheet:    "export_sheet",
	CmdToggleDarkmode: "darkmode",
	CmdOpenDocs:       "open_docs",
	CmdDiscord:        "discord",
	CmdPatreon:        "patreon",
	CmdKoFi:           "kofi",
}

var commandLabels = map[Command]string{
	CmdNewProject:     "New Project",
	CmdOpenProject:    "Open Project",
	CmdImportOffsets:  "Import Offset.yaml",
	CmdSave:           "Save",
	CmdSaveAs:         "Save As...",
	CmdExport:         "Export",
	CmdExportSheet:    "Export Scene Sheet...",
	CmdToggleDarkmode: "Dark Mode",
	CmdOpenDocs:       "Open Wiki",
	CmdDiscord:        "Discord",
	CmdPatreon:        "Patreon",
	CmdKoFi:           "Ko-Fi",
}

// String returns the stable menu item id.
func (c Command) String() string {
	if id, ok := commandIDs[c]; ok {
		return id
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// Label returns the menu item caption.
func (c Command) Label() string { return commandLabels[c] }

// ParseCommand maps a menu item id to its Command. Unknown ids yield
// domain.ErrUnrecognizedCommand.
func ParseCommand(id string) (Command, error) {
	for c, s := range commandIDs {
		if s == id {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", domain.ErrUnrecognizedCommand, id)
}
