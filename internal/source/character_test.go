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
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"scriptgen/internal/domain"
	apperrors "scriptgen/internal/errors"
)

func parseChar(t *testing.T, id, text string, known domain.Table) domain.Character {
	t.Helper()
	c, err := ParseCharacter(Unit{ID: id, Text: text}, known, CharacterOptions{})
	if err != nil {
		t.Fatalf("parse %s: %v", id, err)
	}
	return c
}

func TestParseCharacterImp(t *testing.T) {
	c := parseChar(t, "imp", "Imp\nDemon\nEach night*, choose a player: they die...\nreminder 1 Dead\nfirstnight 1", nil)
	if c.ID != "imp" || c.Name != "Imp" || c.Team != domain.Demon {
		t.Fatalf("unexpected header: %+v", c)
	}
	if !reflect.DeepEqual(c.Reminders, []string{"Dead"}) {
		t.Fatalf("reminders = %v", c.Reminders)
	}
	if c.FirstNightReminder != "1" {
		t.Fatalf("first night reminder = %q", c.FirstNightReminder)
	}
	if c.Official || c.Patched || c.Special != nil {
		t.Fatalf("unexpected provenance/special: %+v", c)
	}
}

func TestParseCharacterWakesAfter(t *testing.T) {
	known := domain.Table{"washerwoman": {ID: "washerwoman", FirstNight: 5, OtherNight: 0}}
	c := parseChar(t, "gossip", "Gossip\nTownsfolk\nEach day...\nwakes first after washerwoman", known)
	if math.Abs(c.FirstNight-5.1) > 1e-9 {
		t.Fatalf("first night = %v, want 5.1", c.FirstNight)
	}
	if c.OtherNight != 0 {
		t.Fatalf("other night = %v, want 0", c.OtherNight)
	}
}

func TestParseCharacterWakesEveryBefore(t *testing.T) {
	known := domain.Table{"poisoner": {ID: "poisoner", FirstNight: 17, OtherNight: 8}}
	c := parseChar(t, "x", "X\nMinion\nA\nwakes every before poisoner", known)
	if math.Abs(c.FirstNight-16.9) > 1e-9 || math.Abs(c.OtherNight-7.9) > 1e-9 {
		t.Fatalf("nights = %v/%v, want 16.9/7.9", c.FirstNight, c.OtherNight)
	}
}

func TestParseCharacterAllKeys(t *testing.T) {
	text := strings.Join([]string{
		"Alchemist",
		"Townsfolk",
		"You have a Minion ability.",
		"setup",
		"reminder 2 Is the Alchemist",
		"globalreminder 3 Poisoned",
		"everynight Wake the Alchemist.",
		"requires spy",
		"requires spy",
		"jinx spy The Spy is not affected.",
		"card You are drunk",
		"hidden",
		"bagdisabled",
		"image a.png b.png",
		"",
		"flavor",
		"It is all in the mixing.",
		"And the stirring.",
		"",
		"overview The Alchemist has a Minion ability.",
		"Long line one.",
		"Long line two.",
		"",
		"examples",
		"Example one.",
		"",
		"howtorun",
		"Run it.",
		"",
		"advice",
		"Be careful.",
		"",
		"attribution",
		"Art by someone.",
	}, "\n")
	c := parseChar(t, "alchemist", text, nil)
	if !c.Setup {
		t.Fatalf("setup flag not set")
	}
	if !reflect.DeepEqual(c.Reminders, []string{"Is the Alchemist", "Is the Alchemist"}) {
		t.Fatalf("reminders = %v", c.Reminders)
	}
	if len(c.RemindersGlobal) != 3 {
		t.Fatalf("global reminders = %v", c.RemindersGlobal)
	}
	if c.FirstNightReminder != "Wake the Alchemist." || c.OtherNightReminder != "Wake the Alchemist." {
		t.Fatalf("night reminders = %q/%q", c.FirstNightReminder, c.OtherNightReminder)
	}
	if !reflect.DeepEqual(c.RequiredCharacters, []string{"spy", "spy"}) {
		t.Fatalf("required = %v", c.RequiredCharacters)
	}
	if !reflect.DeepEqual(c.Jinxes, []domain.Jinx{{ID: "spy", Reason: "The Spy is not affected."}}) {
		t.Fatalf("jinxes = %v", c.Jinxes)
	}
	wantSpecial := []domain.Signal{
		{Type: "selection", Name: "bag-disabled"},
		{Type: "reveal", Name: "hidden"},
		{Type: "signal", Name: "card", Value: "You are drunk"},
	}
	if !reflect.DeepEqual(c.Special, wantSpecial) {
		t.Fatalf("special = %v", c.Special)
	}
	if !reflect.DeepEqual(c.Image, []string{"a.png", "b.png"}) {
		t.Fatalf("image = %v", c.Image)
	}
	if c.Flavour != "It is all in the mixing.\nAnd the stirring." {
		t.Fatalf("flavour = %q", c.Flavour)
	}
	if c.OverviewShort != "The Alchemist has a Minion ability." {
		t.Fatalf("overview short = %q", c.OverviewShort)
	}
	if !reflect.DeepEqual(c.OverviewLong, []string{"Long line one.", "Long line two."}) {
		t.Fatalf("overview long = %v", c.OverviewLong)
	}
	if len(c.Examples) != 1 || len(c.HowToRun) != 1 || len(c.Advice) != 1 || len(c.Attribution) != 1 {
		t.Fatalf("blocks not parsed: %+v", c)
	}
}

func TestParseCharacterIsStable(t *testing.T) {
	text := "Imp\nDemon\nEach night*, choose a player: they die.\nreminder 1 Dead\njinx x reason here\nflavour\nA\nB"
	a := parseChar(t, "imp", text, nil)
	b := parseChar(t, "imp", text, nil)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("repeated parse differs:\n%+v\n%+v", a, b)
	}
}

func TestParseCharacterImageProbe(t *testing.T) {
	probe := func(u Unit) (string, bool) { return "probe:" + u.ID, true }
	c, err := ParseCharacter(Unit{ID: "imp", Text: "Imp\nDemon\nA"}, nil, CharacterOptions{ImageProbe: probe})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c.Image, []string{"probe:imp"}) {
		t.Fatalf("image = %v", c.Image)
	}
	c, err = ParseCharacter(Unit{ID: "imp", Text: "Imp\nDemon\nA\nimage own"}, nil, CharacterOptions{ImageProbe: probe})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c.Image, []string{"own"}) {
		t.Fatalf("explicit image should win, got %v", c.Image)
	}
}

func TestParseCharacterErrors(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		known domain.Table
		want  *apperrors.Error
		line  int
	}{
		{"missing team", "Imp", nil, apperrors.ErrParse, 1},
		{"missing ability", "Imp\nDemon", nil, apperrors.ErrParse, 2},
		{"bad team", "Imp\nDemons\nA", nil, apperrors.ErrInvalidTeam, 2},
		{"lowercase team", "Imp\ndemon\nA", nil, apperrors.ErrInvalidTeam, 2},
		{"bad key", "Imp\nDemon\nA\ncolour red", nil, apperrors.ErrInvalidKey, 4},
		{"bare unknown", "Imp\nDemon\nA\n\nsparkly", nil, apperrors.ErrInvalidKey, 5},
		{"jinx without reason", "Imp\nDemon\nA\njinx spy", nil, apperrors.ErrInvalidJinx, 4},
		{"jinx with blank reason", "Imp\nDemon\nA\njinx spy ", nil, apperrors.ErrInvalidJinx, 4},
		{"jinx with whitespace reason", "Imp\nDemon\nA\njinx spy \t ", nil, apperrors.ErrInvalidJinx, 4},
		{"unknown wakes target", "Imp\nDemon\nA\nwakes first after nobody", nil, apperrors.ErrUnknownReference, 4},
		{"bad relation", "Imp\nDemon\nA\nwakes first during x", domain.Table{"x": {}}, apperrors.ErrParse, 4},
		{"bad night", "Imp\nDemon\nA\nwakes second after x", domain.Table{"x": {}}, apperrors.ErrParse, 4},
		{"short wakes", "Imp\nDemon\nA\nwakes first after", nil, apperrors.ErrParse, 4},
		{"bad count", "Imp\nDemon\nA\nreminder two Dead", nil, apperrors.ErrParse, 4},
		{"negative count", "Imp\nDemon\nA\nreminder -1 Dead", nil, apperrors.ErrParse, 4},
		{"reminder without text", "Imp\nDemon\nA\nreminder 1", nil, apperrors.ErrParse, 4},
		{"reminder count too large", "Imp\nDemon\nA\nreminder 1000000000 Dead", nil, apperrors.ErrParse, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCharacter(Unit{ID: "imp", Text: tt.text}, tt.known, CharacterOptions{})
			if err == nil {
				t.Fatalf("expected error, got %+v", c)
			}
			if !stderrors.Is(err, tt.want) {
				t.Fatalf("error = %v, want code %s", err, tt.want.Code)
			}
			var e *apperrors.Error
			if !stderrors.As(err, &e) || e.Line != tt.line || e.Source != "imp" {
				t.Fatalf("error position = %+v, want imp:%d", e, tt.line)
			}
			if c.ID != "" {
				t.Fatalf("partial record returned: %+v", c)
			}
		})
	}
}

func TestParseCharacterTrailingWhitespace(t *testing.T) {
	c := parseChar(t, "imp", "Imp\nDemon\nA\nsetup \nflavour\t\nOne line.\n\ngrimoire \njinx spy Reason. \n", nil)
	if !c.Setup || c.Flavour != "One line." {
		t.Fatalf("keywords with trailing whitespace not recognized: %+v", c)
	}
	if len(c.Special) != 1 || c.Special[0].Name != "grimoire" {
		t.Fatalf("special = %v", c.Special)
	}
	if !reflect.DeepEqual(c.Jinxes, []domain.Jinx{{ID: "spy", Reason: "Reason."}}) {
		t.Fatalf("jinxes = %v", c.Jinxes)
	}
}

func TestParseCharacterReminderCountLimit(t *testing.T) {
	c := parseChar(t, "imp", fmt.Sprintf("Imp\nDemon\nA\nreminder %d Dead", MaxReminderCount), nil)
	if len(c.Reminders) != MaxReminderCount {
		t.Fatalf("reminders = %d, want %d", len(c.Reminders), MaxReminderCount)
	}
}

func TestParseCharacterCRLF(t *testing.T) {
	c := parseChar(t, "imp", "Imp\r\nDemon\r\nAbility\r\nreminder 1 Dead\r\n", nil)
	if c.Team != domain.Demon || c.Ability != "Ability" || !reflect.DeepEqual(c.Reminders, []string{"Dead"}) {
		t.Fatalf("unexpected parse: %+v", c)
	}
}
