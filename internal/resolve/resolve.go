/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package resolve closes a script over its characters' required characters.
package resolve

import (
	"scriptgen/internal/domain"
	apperrors "scriptgen/internal/errors"
)

// Required appends a clone of every required character missing from s, repeating full
// passes until one adds nothing. It returns the number of characters added.
//
// The character set only grows and the table is finite, so the loop terminates.
// Added characters are appended in discovery order; sorting is left to the caller.
func Required(s *domain.Script, table domain.Table) (int, error) {
	present := make(map[string]bool, len(s.Characters))
	for _, c := range s.Characters {
		present[c.ID] = true
	}
	added := 0
	for {
		changed := false
		// Characters appended during this pass are scanned in the same pass.
		for i := 0; i < len(s.Characters); i++ {
			for _, id := range s.Characters[i].RequiredCharacters {
				if present[id] {
					continue
				}
				req, ok := table.Get(id)
				if !ok {
					return added, apperrors.New(apperrors.CodeMissingRequirement, s.ID, 0, "requires",
						"%s requires %s, which is not a known character", s.Characters[i].ID, id).WithValue(id)
				}
				s.Characters = append(s.Characters, req)
				present[id] = true
				added++
				changed = true
			}
		}
		if !changed {
			return added, nil
		}
	}
}
