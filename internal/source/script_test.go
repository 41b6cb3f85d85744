/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package source

import (
	stderrors "errors"
	"reflect"
	"strings"
	"testing"

	"scriptgen/internal/domain"
	apperrors "scriptgen/internal/errors"
)

func testTable() domain.Table {
	return domain.Table{
		"washerwoman": {ID: "washerwoman", Name: "Washerwoman", Team: domain.Townsfolk, Reminders: []string{"Townsfolk", "Wrong"}},
		"imp":         {ID: "imp", Name: "Imp", Team: domain.Demon},
		"spy":         {ID: "spy", Name: "Spy", Team: domain.Minion},
	}
}

func TestParseScript(t *testing.T) {
	text := strings.Join([]string{
		"Trouble Brewing",
		"The Pandemonium Institute",
		"bootlegger The Storyteller may lie.",
		"",
		"imp",
		"washerwoman",
		"intro",
		"Welcome.",
		"Enjoy.",
		"",
		"bootlegger Second rule.",
		"keeporder",
		"spy",
		"imp",
	}, "\n")
	s, err := ParseScript(Unit{ID: "tb", Text: text}, testTable())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.ID != "tb" || s.Name != "Trouble Brewing" || s.Author != "The Pandemonium Institute" {
		t.Fatalf("header = %+v", s)
	}
	if !reflect.DeepEqual(s.IDs(), []string{"imp", "washerwoman", "spy"}) {
		t.Fatalf("ids = %v", s.IDs())
	}
	if !reflect.DeepEqual(s.BootleggerRules, []string{"The Storyteller may lie.", "Second rule."}) {
		t.Fatalf("rules = %v", s.BootleggerRules)
	}
	if !reflect.DeepEqual(s.Almanac.Intro, []string{"Welcome.", "Enjoy."}) {
		t.Fatalf("intro = %v", s.Almanac.Intro)
	}
	if !s.KeepOrder {
		t.Fatalf("keeporder not set")
	}
}

func TestParseScriptClonesCharacters(t *testing.T) {
	table := testTable()
	s, err := ParseScript(Unit{ID: "tb", Text: "N\nA\nwasherwoman"}, table)
	if err != nil {
		t.Fatal(err)
	}
	s.Characters[0].Reminders[0] = "changed"
	s.Characters[0].ID = "renamed"
	if table["washerwoman"].Reminders[0] != "Townsfolk" {
		t.Fatalf("script mutation leaked into table")
	}
}

func TestParseScriptUnknownCharacter(t *testing.T) {
	_, err := ParseScript(Unit{ID: "tb", Text: "N\nA\nimp\nvortox"}, testTable())
	if !stderrors.Is(err, apperrors.ErrUnknownCharacter) {
		t.Fatalf("error = %v, want UNKNOWN_CHARACTER", err)
	}
	for _, want := range []string{"vortox", "tb:4"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}

func TestParseScriptMissingHeader(t *testing.T) {
	for _, text := range []string{"", "Only a name"} {
		if _, err := ParseScript(Unit{ID: "tb", Text: text}, testTable()); !stderrors.Is(err, apperrors.ErrParse) {
			t.Fatalf("text %q: error = %v, want PARSE_ERROR", text, err)
		}
	}
}

func TestParseScriptBareBootlegger(t *testing.T) {
	if _, err := ParseScript(Unit{ID: "tb", Text: "N\nA\nbootlegger"}, testTable()); !stderrors.Is(err, apperrors.ErrParse) {
		t.Fatalf("error = %v, want PARSE_ERROR", err)
	}
}
