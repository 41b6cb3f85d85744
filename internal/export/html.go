/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"scriptgen/internal/domain"
)

//go:embed almanac.css
var almanacCSS string

var funcs = template.FuncMap{
	"teamKey": func(t domain.Team) string { return t.Key() },
	"first": func(s []string) string {
		if len(s) == 0 {
			return ""
		}
		return s[0]
	},
	"imageURL": imageURL,
}

// pngDataPrefix marks images inlined by the local PNG probe.
const pngDataPrefix = "data:image/png;base64,"

// imageURL trusts only inlined PNG data URLs. Every other location is returned as a plain
// string so html/template filters it like any other URL.
func imageURL(s string) any {
	if strings.HasPrefix(s, pngDataPrefix) {
		return template.URL(s)
	}
	return s
}

var almanacTmpl = template.Must(template.New("almanac").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="en"><head><meta charset="UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Script.Name}}</title><style>{{.CSS}}</style></head><body>
<div class="page"><h1>{{.Script.Name}}</h1><p class="author">by {{.Script.Author}}</p>
{{range .Script.Almanac.Intro}}<p class="intro">{{.}}</p>{{end}}
{{if .Script.BootleggerRules}}<h3>BOOTLEGGER RULES</h3><ul>{{range .Script.BootleggerRules}}<li>{{.}}</li>{{end}}</ul>{{end}}
</div><div class="page-separator"></div>
{{range .Script.Characters}}<div class="page {{teamKey .Team}}">
<p class="team">{{teamKey .Team}}</p>
{{with first .Image}}<img class="char-image" src="{{imageURL .}}" />{{end}}
<h2 class="name">{{.Name}}</h2>
<p class="ability">{{.Ability}}</p>
<hr />
{{if .Flavour}}<p class="flavour">"{{.Flavour}}"</p>{{end}}
{{if .OverviewShort}}<p class="overview-short">{{.OverviewShort}}</p>{{end}}
{{if .OverviewLong}}<ul>{{range .OverviewLong}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .Examples}}<h3>EXAMPLES</h3>{{range .Examples}}<p>{{.}}</p>{{end}}{{end}}
{{if .HowToRun}}<h3>HOW TO RUN</h3>{{range .HowToRun}}<p>{{.}}</p>{{end}}{{end}}
{{if .Advice}}<h3>ADVICE</h3>{{range .Advice}}<p>{{.}}</p>{{end}}{{end}}
{{if .Jinxes}}<h3>JINXES</h3>{{range .Jinxes}}<p class="jinx">{{.Reason}}</p>{{end}}{{end}}
{{if .Attribution}}<h3>ATTRIBUTION</h3>{{range .Attribution}}<p>{{.}}</p>{{end}}{{end}}
</div><div class="page-separator"></div>
{{end}}{{template "sheet" .First}}{{template "sheet" .Other}}
</body></html>
{{define "sheet"}}<div class="page night-sheet"><h2>{{.Title}}</h2><table class="night">
{{range .Entries}}<tr><td>{{.Name}}</td><td>{{.Reminder}}</td></tr>
{{end}}</table></div><div class="page-separator"></div>{{end}}`))

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en"><head><meta charset="UTF-8"><title>Scripts</title></head><body>
<h1>Scripts</h1><ul>
{{range .}}<li><a href="{{.File}}.html">{{.Name}}</a> (<a href="{{.File}}.official.json">json</a>)</li>
{{end}}</ul></body></html>
`))

// SheetEntry is one line of a night-order sheet.
type SheetEntry struct {
	Name     string
	Reminder string
}

// Sheet is a titled night-order sheet.
type Sheet struct {
	Title   string
	Entries []SheetEntry
}

// IndexEntry links one built script from index.html.
type IndexEntry struct {
	File string
	Name string
}

// WriteAlmanacHTML renders the almanac of s: an intro page, one page per character and the
// two night sheets.
func WriteAlmanacHTML(w io.Writer, s *domain.Script, first, other Sheet) error {
	data := struct {
		Script *domain.Script
		CSS    template.CSS
		First  Sheet
		Other  Sheet
	}{s, template.CSS(almanacCSS), first, other}
	if err := almanacTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render almanac %s: %w", s.ID, err)
	}
	return nil
}

// WriteIndexHTML renders the list of built scripts.
func WriteIndexHTML(w io.Writer, entries []IndexEntry) error {
	if err := indexTmpl.Execute(w, entries); err != nil {
		return fmt.Errorf("render index: %w", err)
	}
	return nil
}
