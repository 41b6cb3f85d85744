/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package order implements the canonical character ordering used for script layout and the
// night-order sheets.
package order

import (
	"sort"
	"strings"
	"unicode/utf8"

	"scriptgen/internal/domain"
)

// Phrases is the ordered catalogue of canonical ability openings. A phrase is listed before
// the shorter phrases it extends, except that a phrase may directly follow the one it extends
// (e.g. "Each night", "Each night*"); PhraseRank then prefers the later one.
var Phrases = []string{
	"You start knowing",
	"At night",
	"Each dusk*",
	"Each night",
	"Each night*",
	"Each day",
	"Once per day",
	"During the day",
	"Once per game, at night",
	"Once per game, at night*",
	"Once per game, during the day",
	"Once per game",
	"On your 1st night",
	"On your 1st day",
	"You think",
	"You are",
	"You have",
	"You do not know",
	"You might",
	"You",
	"When you die",
	"When you learn that you died",
	"When",
	"If you die",
	"If you died",
	"If you are \"mad\"",
	"If you",
	"If the Demon dies",
	"If the Demon kills",
	"If the Demon",
	"If both",
	"If there are 5 or more players alive",
	"If",
	"All players",
	"All",
	"The 1st time",
	"The",
	"Good",
	"Evil",
	"Players",
	"Minions",
}

// PhraseRank returns the catalogue index of the most specific phrase ability opens with,
// or len(Phrases) when none matches. Entry i matches when ability starts with it and not
// with entry i+1 extending it.
func PhraseRank(ability string) int {
	for i, p := range Phrases {
		if !strings.HasPrefix(ability, p) {
			continue
		}
		if i+1 < len(Phrases) {
			next := Phrases[i+1]
			if len(next) > len(p) && strings.HasPrefix(next, p) && strings.HasPrefix(ability, next) {
				continue
			}
		}
		return i
	}
	return len(Phrases)
}

// Less orders by team, ability phrase, ability length, name length and finally name.
func Less(a, b domain.Character) bool {
	if a.Team != b.Team {
		return a.Team < b.Team
	}
	if ra, rb := PhraseRank(a.Ability), PhraseRank(b.Ability); ra != rb {
		return ra < rb
	}
	if la, lb := utf8.RuneCountInString(a.Ability), utf8.RuneCountInString(b.Ability); la != lb {
		return la < lb
	}
	if la, lb := utf8.RuneCountInString(a.Name), utf8.RuneCountInString(b.Name); la != lb {
		return la < lb
	}
	return a.Name < b.Name
}

// Sort orders chars in place. Characters equal under Less keep their relative order.
func Sort(chars []domain.Character) {
	sort.SliceStable(chars, func(i, j int) bool { return Less(chars[i], chars[j]) })
}

// Night selects one of the two wake sheets.
type Night int

const (
	FirstNight Night = iota
	OtherNight
)

func (n Night) String() string {
	if n == FirstNight {
		return "first"
	}
	return "other"
}

// Value returns the order key of c for night n.
func (n Night) Value(c domain.Character) float64 {
	if n == FirstNight {
		return c.FirstNight
	}
	return c.OtherNight
}

// Reminder returns the wake reminder of c for night n.
func (n Night) Reminder(c domain.Character) string {
	if n == FirstNight {
		return c.FirstNightReminder
	}
	return c.OtherNightReminder
}

// NightOrder returns the characters and special markers that wake on night n, ascending by
// their order key, ties broken by name. The inputs are not modified.
func NightOrder(chars, specials []domain.Character, n Night) []domain.Character {
	var out []domain.Character
	for _, group := range [][]domain.Character{chars, specials} {
		for _, c := range group {
			if n.Value(c) != 0 {
				out = append(out, c)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		vi, vj := n.Value(out[i]), n.Value(out[j])
		if vi != vj {
			return vi < vj
		}
		return out[i].Name < out[j].Name
	})
	return out
}
