/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the records shared by the parsers, the resolver, the patch engine and the
// exporters. Tables hold characters by value; scripts own deep clones so that patching one
// script never leaks into another or into the shared table.

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Team is the ordered character category. The declaration order is the primary sort key.
type Team int

const (
	Townsfolk Team = iota
	Outsider
	Minion
	Demon
	Traveller
	Fabled
	Special
)

var teamNames = [...]string{"Townsfolk", "Outsider", "Minion", "Demon", "Traveller", "Fabled", "Special"}

// Teams lists every team in canonical order.
func Teams() []Team {
	return []Team{Townsfolk, Outsider, Minion, Demon, Traveller, Fabled, Special}
}

// ParseTeam matches one of the seven canonical team names exactly.
func ParseTeam(name string) (Team, bool) {
	for i, n := range teamNames {
		if n == name {
			return Team(i), true
		}
	}
	return Special, false
}

// String returns the canonical capitalized name.
func (t Team) String() string {
	if t < Townsfolk || t > Special {
		return fmt.Sprintf("Team(%d)", int(t))
	}
	return teamNames[t]
}

// Key is the lowercase interchange name, e.g. "townsfolk".
func (t Team) Key() string { return strings.ToLower(t.String()) }

func (t Team) MarshalJSON() ([]byte, error) { return json.Marshal(t.Key()) }

func (t *Team) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "traveler" {
		s = "traveller"
	}
	for i, n := range teamNames {
		if strings.ToLower(n) == s {
			*t = Team(i)
			return nil
		}
	}
	return fmt.Errorf("unknown team %q", s)
}

// Jinx is a directed interaction rule held by one character and pointing at another id.
type Jinx struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Signal is one behavioural signal variant, e.g. {selection, bag-disabled} or {signal, card, "..."}.
type Signal struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// Character is a named game role.
type Character struct {
	ID      string
	Name    string
	Team    Team
	Ability string

	// Duplicates are meaningful: each entry is one physical token.
	Reminders       []string
	RemindersGlobal []string

	FirstNightReminder string
	OtherNightReminder string
	// Integer part is the rank in the canonical night order; ±0.1 means just before/after another wake.
	FirstNight float64
	OtherNight float64

	Setup    bool
	Official bool
	Patched  bool

	Flavour       string
	OverviewShort string
	OverviewLong  []string
	Examples      []string
	HowToRun      []string
	Advice        []string
	Attribution   []string

	Image   []string
	Special []Signal // nil unless a flag or card is set

	Jinxes             []Jinx
	RequiredCharacters []string
}

// Clone returns a deep copy.
func (c Character) Clone() Character {
	cp := c
	cp.Reminders = cloneStrings(c.Reminders)
	cp.RemindersGlobal = cloneStrings(c.RemindersGlobal)
	cp.OverviewLong = cloneStrings(c.OverviewLong)
	cp.Examples = cloneStrings(c.Examples)
	cp.HowToRun = cloneStrings(c.HowToRun)
	cp.Advice = cloneStrings(c.Advice)
	cp.Attribution = cloneStrings(c.Attribution)
	cp.Image = cloneStrings(c.Image)
	cp.RequiredCharacters = cloneStrings(c.RequiredCharacters)
	if c.Special != nil {
		cp.Special = append([]Signal(nil), c.Special...)
	}
	if c.Jinxes != nil {
		cp.Jinxes = append([]Jinx(nil), c.Jinxes...)
	}
	return cp
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// Almanac holds the free text printed before the character pages.
type Almanac struct {
	Intro []string
}

// Script is an ordered presentation of characters for one game.
type Script struct {
	ID              string // source identifier, usually the file name
	Name            string
	Author          string
	Characters      []Character
	BootleggerRules []string
	KeepOrder       bool
	Almanac         Almanac
}

// Has reports whether a character with id is part of the script.
func (s *Script) Has(id string) bool {
	for i := range s.Characters {
		if s.Characters[i].ID == id {
			return true
		}
	}
	return false
}

// IDs returns the character ids in script order.
func (s *Script) IDs() []string {
	out := make([]string, len(s.Characters))
	for i := range s.Characters {
		out[i] = s.Characters[i].ID
	}
	return out
}

// Patch is a bootlegger modification keyed by character id.
type Patch struct {
	Replace string   // replacement ability; empty means none
	Add     []string // self-only jinx reasons
	Jinxes  []Jinx   // attached only if the other id is in the script
}

// HasReplace reports whether the patch overrides the ability text.
func (p Patch) HasReplace() bool { return p.Replace != "" }

// Table is the shared, read-only character table keyed by id.
type Table map[string]Character

// Get returns a clone of the character with id.
func (t Table) Get(id string) (Character, bool) {
	c, ok := t[id]
	if !ok {
		return Character{}, false
	}
	return c.Clone(), true
}

// ImageTable maps a character id to image locations.
type ImageTable map[string][]string

// PatchTable maps a character id to its patch.
type PatchTable map[string]Patch
