/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"scriptgen/internal/domain"
)

// PDFOptions controls the printable almanac.
// Units are millimetres; text uses the built-in Helvetica so no fonts need embedding.
type PDFOptions struct {
	PageSize   string // gofpdf size name, "A4" when empty
	NightPages bool   // append the night sheets
}

// teamColors mirrors the almanac stylesheet.
var teamColors = map[domain.Team][3]int{
	domain.Townsfolk: {31, 101, 255},
	domain.Outsider:  {31, 101, 255},
	domain.Minion:    {140, 14, 18},
	domain.Demon:     {140, 14, 18},
	domain.Traveller: {107, 42, 137},
	domain.Fabled:    {184, 138, 0},
	domain.Special:   {0, 0, 0},
}

// ExportAlmanacPDF writes a printable almanac of s to w: a cover page with the intro, one
// page per character and optionally the night sheets.
func ExportAlmanacPDF(w io.Writer, s *domain.Script, first, other Sheet, opt PDFOptions) error {
	size := opt.PageSize
	if size == "" {
		size = "A4"
	}
	pdf := gofpdf.New("P", "mm", size, "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(s.Name), false)
	pdf.SetAuthor(tr(s.Author), false)
	pdf.SetCreator("scriptgen", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	// Cover
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 24)
	pdf.MultiCell(0, 12, tr(s.Name), "", "C", false)
	pdf.SetFont("Helvetica", "I", 12)
	pdf.MultiCell(0, 8, tr("by "+s.Author), "", "C", false)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range s.Almanac.Intro {
		pdf.MultiCell(0, 6, tr(line), "", "L", false)
		pdf.Ln(2)
	}
	if len(s.BootleggerRules) > 0 {
		pdfHeading(pdf, tr, "Bootlegger rules")
		for _, rule := range s.BootleggerRules {
			pdf.MultiCell(0, 6, tr("- "+rule), "", "L", false)
		}
	}

	for _, c := range s.Characters {
		pdf.AddPage()
		col := teamColors[c.Team]
		pdf.SetTextColor(col[0], col[1], col[2])
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5, strings.ToUpper(c.Team.Key()), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "B", 18)
		pdf.MultiCell(0, 10, tr(c.Name), "", "L", false)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(0, 6, tr(c.Ability), "", "L", false)
		pdf.Ln(2)
		x, y := pdf.GetXY()
		pdf.Line(x, y, x+170, y)
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "I", 11)
		if c.Flavour != "" {
			pdf.MultiCell(0, 6, tr("\""+c.Flavour+"\""), "", "L", false)
			pdf.Ln(2)
		}
		pdf.SetFont("Helvetica", "", 11)
		if c.OverviewShort != "" {
			pdf.MultiCell(0, 6, tr(c.OverviewShort), "", "L", false)
		}
		for _, line := range c.OverviewLong {
			pdf.MultiCell(0, 6, tr("- "+line), "", "L", false)
		}
		pdfSection(pdf, tr, "Examples", c.Examples)
		pdfSection(pdf, tr, "How to run", c.HowToRun)
		pdfSection(pdf, tr, "Advice", c.Advice)
		reasons := make([]string, 0, len(c.Jinxes))
		for _, j := range c.Jinxes {
			reasons = append(reasons, j.Reason)
		}
		pdfSection(pdf, tr, "Jinxes", reasons)
		pdfSection(pdf, tr, "Attribution", c.Attribution)
	}

	if opt.NightPages {
		for _, sheet := range []Sheet{first, other} {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "B", 16)
			pdf.MultiCell(0, 10, tr(sheet.Title), "", "L", false)
			for _, e := range sheet.Entries {
				pdf.SetFont("Helvetica", "B", 10)
				pdf.CellFormat(45, 6, tr(e.Name), "", 0, "L", false, 0, "")
				pdf.SetFont("Helvetica", "", 10)
				pdf.MultiCell(0, 6, tr(e.Reminder), "", "L", false)
			}
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf %s: %w", s.ID, err)
	}
	return nil
}

func pdfHeading(pdf *gofpdf.Fpdf, tr func(string) string, title string) {
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.MultiCell(0, 7, tr(strings.ToUpper(title)), "", "L", false)
	pdf.SetFont("Helvetica", "", 11)
}

func pdfSection(pdf *gofpdf.Fpdf, tr func(string) string, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	pdfHeading(pdf, tr, title)
	for _, line := range lines {
		pdf.MultiCell(0, 6, tr(line), "", "L", false)
	}
}
