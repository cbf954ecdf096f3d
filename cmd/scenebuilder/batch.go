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
	"log/slog"

	"scenebuilder/internal/export"
	applog "scenebuilder/internal/log"
	"scenebuilder/internal/storage"
)

// convertProject reads the project at in, upgrading legacy files, and writes it to out in
// the current format. It returns the number of scenes written.
func convertProject(in, out string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("cli"), "convert")
	pkg, err := storage.ReadPackage(in)
	if err != nil {
		return 0, err
	}
	if pkg.Name == "" {
		pkg.Name = storage.NameFromPath(out)
	}
	if err := storage.WritePackage(out, pkg); err != nil {
		return 0, err
	}
	l.Info("project converted", slog.String("in", in), slog.String("out", out), slog.Int("scenes", len(pkg.Scenes)))
	return len(pkg.Scenes), nil
}

// buildProject writes the runtime build of the project at in into outDir and, when sheet
// is set, the PDF scene sheet. It returns the runtime file path.
func buildProject(in, outDir, sheet string) (string, error) {
	l := applog.WithOperation(applog.WithComponent("cli"), "build")
	pkg, err := storage.ReadPackage(in)
	if err != nil {
		return "", err
	}
	if pkg.Name == "" {
		pkg.Name = storage.NameFromPath(in)
	}
	out, err := export.BuildRuntime(pkg, outDir)
	if err != nil {
		return "", err
	}
	if sheet != "" {
		if err := export.ExportSheetPDF(pkg, sheet, export.SheetOptions{}); err != nil {
			return "", err
		}
	}
	l.Info("project built", slog.String("in", in), slog.String("out", out))
	return out, nil
}
