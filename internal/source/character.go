/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package source

import (
	"strconv"
	"strings"

	"scriptgen/internal/domain"
	apperrors "scriptgen/internal/errors"
)

// specialFlags lists the bare behaviour keywords in the order their signals are emitted.
var specialFlags = []struct {
	keyword string
	signal  domain.Signal
}{
	{"bagdisabled", domain.Signal{Type: "selection", Name: "bag-disabled"}},
	{"bagduplicate", domain.Signal{Type: "selection", Name: "bag-duplicate"}},
	{"distributeroles", domain.Signal{Type: "signal", Name: "distribute-roles"}},
	{"grimoire", domain.Signal{Type: "signal", Name: "grimoire"}},
	{"pointing", domain.Signal{Type: "ability", Name: "pointing"}},
	{"ghostvotes", domain.Signal{Type: "vote", Name: "ghost-votes"}},
	{"hidden", domain.Signal{Type: "reveal", Name: "hidden"}},
	{"replacecharacter", domain.Signal{Type: "reveal", Name: "replace-character"}},
}

// MaxReminderCount bounds the count of one reminder line.
const MaxReminderCount = 32

// CharacterOptions configures ParseCharacter.
type CharacterOptions struct {
	// ImageProbe returns an image location for units without an explicit image key.
	ImageProbe func(Unit) (string, bool)
}

// ParseCharacter parses one character unit. Every "wakes" reference must already be in known;
// callers load characters in dependency order or retry units that fail with UNKNOWN_REFERENCE.
// On error no partial character is returned.
func ParseCharacter(u Unit, known domain.Table, opts CharacterOptions) (domain.Character, error) {
	r := newLineReader(u)
	c := domain.Character{ID: u.ID}

	name, err := r.header("name")
	if err != nil {
		return domain.Character{}, err
	}
	if strings.TrimSpace(name) == "" {
		return domain.Character{}, r.errf(apperrors.CodeParse, "name", "empty name")
	}
	c.Name = name

	teamName, err := r.header("team")
	if err != nil {
		return domain.Character{}, err
	}
	team, ok := domain.ParseTeam(teamName)
	if !ok {
		return domain.Character{}, r.errf(apperrors.CodeInvalidTeam, "team", "unknown team").WithValue(teamName)
	}
	c.Team = team

	if c.Ability, err = r.header("ability"); err != nil {
		return domain.Character{}, err
	}

	flags := map[string]bool{}
	var cards []string
	imageSet := false

	for r.next() {
		line := strings.TrimRight(r.line, " \t")
		if line == "" {
			continue
		}
		switch line {
		case "setup":
			c.Setup = true
			continue
		case "attribution":
			c.Attribution = append(c.Attribution, r.block()...)
			continue
		case "flavour", "flavor":
			c.Flavour = joinLines(c.Flavour, r.block())
			continue
		case "examples":
			c.Examples = append(c.Examples, r.block()...)
			continue
		case "howtorun":
			c.HowToRun = append(c.HowToRun, r.block()...)
			continue
		case "advice":
			c.Advice = append(c.Advice, r.block()...)
			continue
		case "overview":
			c.OverviewLong = append(c.OverviewLong, r.block()...)
			continue
		}
		if isSpecialFlag(line) {
			flags[line] = true
			continue
		}

		key, value, ok := splitKey(line)
		if !ok {
			return domain.Character{}, r.errf(apperrors.CodeInvalidKey, line, "unknown keyword").WithValue(line)
		}
		switch key {
		case "reminder", "globalreminder":
			tokens, err := reminderTokens(r, key, value)
			if err != nil {
				return domain.Character{}, err
			}
			if key == "reminder" {
				c.Reminders = append(c.Reminders, tokens...)
			} else {
				c.RemindersGlobal = append(c.RemindersGlobal, tokens...)
			}
		case "firstnight":
			c.FirstNightReminder = value
		case "othernight":
			c.OtherNightReminder = value
		case "everynight":
			c.FirstNightReminder = value
			c.OtherNightReminder = value
		case "wakes":
			if err := applyWakes(r, &c, value, known); err != nil {
				return domain.Character{}, err
			}
		case "overview":
			c.OverviewShort = value
			c.OverviewLong = append(c.OverviewLong, r.block()...)
		case "requires":
			c.RequiredCharacters = append(c.RequiredCharacters, value)
		case "card":
			cards = append(cards, value)
		case "jinx":
			j, err := r.jinx(value)
			if err != nil {
				return domain.Character{}, err
			}
			c.Jinxes = append(c.Jinxes, j)
		case "image":
			c.Image = strings.Fields(value)
			imageSet = true
		default:
			return domain.Character{}, r.errf(apperrors.CodeInvalidKey, key, "unknown key").WithValue(key)
		}
	}
	if err := r.err(); err != nil {
		return domain.Character{}, err
	}

	c.Special = buildSpecial(flags, cards)
	if !imageSet && opts.ImageProbe != nil {
		if loc, ok := opts.ImageProbe(u); ok {
			c.Image = []string{loc}
		}
	}
	return c, nil
}

func isSpecialFlag(line string) bool {
	for _, f := range specialFlags {
		if f.keyword == line {
			return true
		}
	}
	return false
}

// buildSpecial returns nil when no flag or card was given.
func buildSpecial(flags map[string]bool, cards []string) []domain.Signal {
	var out []domain.Signal
	for _, f := range specialFlags {
		if flags[f.keyword] {
			out = append(out, f.signal)
		}
	}
	for _, card := range cards {
		out = append(out, domain.Signal{Type: "signal", Name: "card", Value: card})
	}
	return out
}

func reminderTokens(r *lineReader, key, value string) ([]string, error) {
	countStr, text, ok := strings.Cut(value, " ")
	if !ok || text == "" {
		return nil, r.errf(apperrors.CodeParse, key, "expected `%s <count> <text>`", key).WithValue(value)
	}
	count, err := strconv.Atoi(countStr)
	if err != nil || count < 0 || count > MaxReminderCount {
		return nil, r.errf(apperrors.CodeParse, key, "invalid count, want 0..%d", MaxReminderCount).WithValue(countStr)
	}
	out := make([]string, count)
	for i := range out {
		out[i] = text
	}
	return out, nil
}

// applyWakes places c immediately before (-0.1) or after (+0.1) another character's wake.
func applyWakes(r *lineReader, c *domain.Character, value string, known domain.Table) error {
	parts := strings.Fields(value)
	if len(parts) != 3 {
		return r.errf(apperrors.CodeParse, "wakes", "expected `wakes <first|other|every> <before|after> <id>`").WithValue(value)
	}
	night, relation, otherID := parts[0], parts[1], parts[2]

	var offset float64
	switch relation {
	case "before":
		offset = -0.1
	case "after":
		offset = 0.1
	default:
		return r.errf(apperrors.CodeParse, "wakes", "invalid relation").WithValue(relation)
	}
	if night != "first" && night != "other" && night != "every" {
		return r.errf(apperrors.CodeParse, "wakes", "invalid night").WithValue(night)
	}

	other, ok := known[otherID]
	if !ok {
		return r.errf(apperrors.CodeUnknownReference, "wakes", "no character %s", otherID).WithValue(otherID)
	}
	switch night {
	case "first":
		c.FirstNight = other.FirstNight + offset
	case "other":
		c.OtherNight = other.OtherNight + offset
	case "every":
		c.FirstNight = other.FirstNight + offset
		c.OtherNight = other.OtherNight + offset
	}
	return nil
}

func joinLines(prev string, lines []string) string {
	if len(lines) == 0 {
		return prev
	}
	s := strings.Join(lines, "\n")
	if prev == "" {
		return s
	}
	return prev + "\n" + s
}
