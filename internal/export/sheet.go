/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"scriptgen/internal/domain"
	"scriptgen/internal/order"
)

// NightSheet builds the wake sheet of night n from the script characters and the special
// markers. Entries without a reminder still appear, since their position matters.
func NightSheet(s *domain.Script, specials []domain.Character, n order.Night) Sheet {
	title := "First Night"
	if n == order.OtherNight {
		title = "Other Nights"
	}
	chars := order.NightOrder(s.Characters, specials, n)
	sheet := Sheet{Title: title, Entries: make([]SheetEntry, 0, len(chars))}
	for _, c := range chars {
		sheet.Entries = append(sheet.Entries, SheetEntry{Name: c.Name, Reminder: n.Reminder(c)})
	}
	return sheet
}
