/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package catalog

import "scriptgen/internal/domain"

// NightOrderList is the canonical wake order of official ids, as found in night-order.json.
type NightOrderList struct {
	FirstNight []string `json:"firstNight"`
	OtherNight []string `json:"otherNight"`
}

// Specials holds the built-in night markers that appear on the wake sheets but in no script.
type Specials struct {
	Dusk   domain.Character
	Minion domain.Character
	Demon  domain.Character
	Dawn   domain.Character
}

// SpecialCharacters synthesizes the night markers. Their order key is the 1-based position
// of their id in the night-order lists, 0 when absent.
func SpecialCharacters(order NightOrderList) Specials {
	return Specials{
		Dusk:   specialCharacter("DUSK", "Dusk", order),
		Minion: specialCharacter("MINION", "Minion Info", order),
		Demon:  specialCharacter("DEMON", "Demon Info", order),
		Dawn:   specialCharacter("DAWN", "Dawn", order),
	}
}

// FirstNight returns the markers shown on the first-night sheet.
func (s Specials) FirstNight() []domain.Character {
	return []domain.Character{s.Dusk, s.Minion, s.Demon, s.Dawn}
}

// OtherNight returns the markers shown on the other-nights sheet.
func (s Specials) OtherNight() []domain.Character {
	return []domain.Character{s.Dusk, s.Dawn}
}

func specialCharacter(id, name string, order NightOrderList) domain.Character {
	return domain.Character{
		ID:         id,
		Name:       name,
		Team:       domain.Special,
		Official:   true,
		FirstNight: position(order.FirstNight, id),
		OtherNight: position(order.OtherNight, id),
	}
}

func position(ids []string, id string) float64 {
	for i, other := range ids {
		if other == id {
			return float64(i + 1)
		}
	}
	return 0
}
