/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"scriptgen/internal/domain"
)

// MetaID is the id of the leading metadata element.
const MetaID = "_meta"

//go:embed script.schema.json
var scriptSchema []byte

type metaJSON struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Author     string   `json:"author"`
	Bootlegger []string `json:"bootlegger,omitempty"`
}

// characterJSON is the interchange record. Provenance flags and almanac prose are
// presentation-only and have no field here.
type characterJSON struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Team               domain.Team     `json:"team"`
	Ability            string          `json:"ability"`
	Reminders          []string        `json:"reminders,omitempty"`
	RemindersGlobal    []string        `json:"remindersGlobal,omitempty"`
	FirstNightReminder string          `json:"firstNightReminder,omitempty"`
	OtherNightReminder string          `json:"otherNightReminder,omitempty"`
	FirstNight         float64         `json:"firstNight,omitempty"`
	OtherNight         float64         `json:"otherNight,omitempty"`
	Setup              bool            `json:"setup,omitempty"`
	Image              []string        `json:"image,omitempty"`
	Special            []domain.Signal `json:"special,omitempty"`
	Jinxes             []domain.Jinx   `json:"jinxes,omitempty"`
}

func toJSON(c domain.Character) characterJSON {
	return characterJSON{
		ID:                 c.ID,
		Name:               c.Name,
		Team:               c.Team,
		Ability:            c.Ability,
		Reminders:          c.Reminders,
		RemindersGlobal:    c.RemindersGlobal,
		FirstNightReminder: c.FirstNightReminder,
		OtherNightReminder: c.OtherNightReminder,
		FirstNight:         c.FirstNight,
		OtherNight:         c.OtherNight,
		Setup:              c.Setup,
		Image:              c.Image,
		Special:            c.Special,
		Jinxes:             c.Jinxes,
	}
}

// ScriptElements returns the interchange sequence: the meta element, then per character
// either its bare id (official and unpatched) or its full record.
func ScriptElements(s *domain.Script) []any {
	out := make([]any, 0, len(s.Characters)+1)
	out = append(out, metaJSON{ID: MetaID, Name: s.Name, Author: s.Author, Bootlegger: s.BootleggerRules})
	for _, c := range s.Characters {
		if c.Official && !c.Patched {
			out = append(out, c.ID)
			continue
		}
		out = append(out, toJSON(c))
	}
	return out
}

// ScriptJSON renders s as indented interchange JSON.
func ScriptJSON(s *domain.Script) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ScriptElements(s)); err != nil {
		return nil, fmt.Errorf("encode script %s: %w", s.ID, err)
	}
	return buf.Bytes(), nil
}

// ValidateScriptJSON checks data against the embedded interchange schema.
func ValidateScriptJSON(data []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(scriptSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate script json: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("script json does not match schema: %s", strings.Join(msgs, "; "))
}
