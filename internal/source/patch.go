/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package source

import (
	"strings"

	"scriptgen/internal/domain"
	apperrors "scriptgen/internal/errors"
)

// ParsePatch parses a bootlegger patch unit:
//
//	add <reason>
//	replace <ability>
//	jinx <other_id> <reason>
//
// A later replace line overrides an earlier one.
func ParsePatch(u Unit) (domain.Patch, error) {
	r := newLineReader(u)
	var p domain.Patch
	for r.next() {
		line := strings.TrimRight(r.line, " \t")
		if line == "" {
			continue
		}
		key, value, ok := splitKey(line)
		if !ok {
			switch key {
			case "add", "replace", "jinx":
				return domain.Patch{}, r.errf(apperrors.CodeParse, key, "missing value")
			}
			return domain.Patch{}, r.errf(apperrors.CodeInvalidKey, key, "unknown key").WithValue(key)
		}
		switch key {
		case "add":
			p.Add = append(p.Add, value)
		case "replace":
			p.Replace = value
		case "jinx":
			j, err := r.jinx(value)
			if err != nil {
				return domain.Patch{}, err
			}
			p.Jinxes = append(p.Jinxes, j)
		default:
			return domain.Patch{}, r.errf(apperrors.CodeInvalidKey, key, "unknown key").WithValue(key)
		}
	}
	if err := r.err(); err != nil {
		return domain.Patch{}, err
	}
	return p, nil
}
