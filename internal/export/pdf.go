/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"scenebuilder/internal/domain"
	applog "scenebuilder/internal/log"
)

// SheetOptions controls the scene sheet layout. Units are points (pt).
// Built-in Helvetica keeps text vector without embedding fonts.
type SheetOptions struct {
	PageWidth  float64 // default A4 portrait
	PageHeight float64
	Margin     float64
	// IncludePrivate lists scenes flagged private; they are skipped by default.
	IncludePrivate bool
}

func (o SheetOptions) withDefaults() SheetOptions {
	if o.PageWidth <= 0 || o.PageHeight <= 0 {
		o.PageWidth, o.PageHeight = 595, 842
	}
	if o.Margin <= 0 {
		o.Margin = 36
	}
	return o
}

const (
	titleSize = 18.0
	sceneSize = 13.0
	bodySize  = 9.0
	lineGap   = 1.35
)

// ExportSheetPDF writes a printable overview of pkg to outPath: one block per scene
// with its actor slots, followed by one row per stage. Failures are returned as
// *domain.ExportError.
func ExportSheetPDF(pkg domain.Package, outPath string, opt SheetOptions) error {
	l := applog.WithOperation(applog.WithComponent("export"), "sheet").With(slog.String("path", outPath))
	if strings.TrimSpace(outPath) == "" {
		return &domain.ExportError{Path: outPath, Err: errors.New("output path is required")}
	}
	opt = opt.withDefaults()

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: opt.PageWidth, Ht: opt.PageHeight},
	})
	title := pkg.Name
	if title == "" {
		title = "Untitled"
	}
	pdf.SetTitle(title+" - Scene Sheet", true)
	if pkg.Author != "" {
		pdf.SetAuthor(pkg.Author, true)
	}
	pdf.SetCreator("SexLab Scene Builder", false)
	pdf.SetMargins(opt.Margin, opt.Margin, opt.Margin)
	pdf.SetAutoPageBreak(true, opt.Margin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.CellFormat(0, titleSize*lineGap, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", bodySize)
	pdf.CellFormat(0, bodySize*lineGap, tr(fmt.Sprintf("%d scene(s)", countScenes(pkg, opt))), "", 1, "L", false, 0, "")

	width := opt.PageWidth - 2*opt.Margin
	for _, sc := range pkg.Scenes {
		if sc.Private && !opt.IncludePrivate {
			continue
		}
		pdf.Ln(bodySize)
		name := sc.Name
		if name == "" {
			name = "Unnamed Scene"
		}
		pdf.SetFont("Helvetica", "B", sceneSize)
		pdf.CellFormat(0, sceneSize*lineGap, tr(name), "B", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", bodySize)
		for i, info := range sc.Positions {
			line := fmt.Sprintf("Position %d: %s, %s, scale %.2f", i+1, sexLabel(info.Sex), info.Race, info.Scale)
			pdf.CellFormat(0, bodySize*lineGap, tr(line), "", 1, "L", false, 0, "")
		}

		if len(sc.Stages) == 0 {
			pdf.CellFormat(0, bodySize*lineGap, "No stages", "", 1, "L", false, 0, "")
			continue
		}
		colName, colLen := width*0.35, width*0.15
		colTags := width - colName - colLen
		pdf.SetFont("Helvetica", "B", bodySize)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(colName, bodySize*lineGap, "Stage", "1", 0, "L", true, 0, "")
		pdf.CellFormat(colLen, bodySize*lineGap, "Length", "1", 0, "L", true, 0, "")
		pdf.CellFormat(colTags, bodySize*lineGap, "Tags", "1", 1, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", bodySize)
		for _, st := range sc.Stages {
			stName := st.Name
			if stName == "" {
				stName = "Untitled"
			}
			if st.ID == sc.Root {
				stName += " (root)"
			}
			length := "-"
			if st.Extra.FixedLen > 0 {
				length = fmt.Sprintf("%.1fs", st.Extra.FixedLen)
			}
			pdf.CellFormat(colName, bodySize*lineGap, tr(stName), "1", 0, "L", false, 0, "")
			pdf.CellFormat(colLen, bodySize*lineGap, length, "1", 0, "L", false, 0, "")
			pdf.CellFormat(colTags, bodySize*lineGap, tr(strings.Join(st.Tags, ", ")), "1", 1, "L", false, 0, "")
		}
	}

	if err := pdf.Error(); err != nil {
		return &domain.ExportError{Path: outPath, Err: fmt.Errorf("render pdf: %w", err)}
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return &domain.ExportError{Path: outPath, Err: fmt.Errorf("ensure out dir: %w", err)}
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return &domain.ExportError{Path: outPath, Err: fmt.Errorf("write pdf: %w", err)}
	}
	l.Info("scene sheet written", slog.Int("scenes", len(pkg.Scenes)))
	return nil
}

func countScenes(pkg domain.Package, opt SheetOptions) int {
	n := 0
	for _, sc := range pkg.Scenes {
		if !sc.Private || opt.IncludePrivate {
			n++
		}
	}
	return n
}

func sexLabel(s domain.Sex) string {
	var parts []string
	if s.Male {
		parts = append(parts, "male")
	}
	if s.Female {
		parts = append(parts, "female")
	}
	if s.Futa {
		parts = append(parts, "futa")
	}
	if len(parts) == 0 {
		return "any"
	}
	return strings.Join(parts, "/")
}
