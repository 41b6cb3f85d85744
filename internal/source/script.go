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

// ParseScript parses one script unit. Characters are cloned from table in file order, so the
// returned script owns its records. A character listed twice is kept once.
func ParseScript(u Unit, table domain.Table) (domain.Script, error) {
	r := newLineReader(u)
	s := domain.Script{ID: u.ID}

	var err error
	if s.Name, err = r.header("name"); err != nil {
		return domain.Script{}, err
	}
	if s.Author, err = r.header("author"); err != nil {
		return domain.Script{}, err
	}

	seen := map[string]bool{}
	for r.next() {
		line := strings.TrimSpace(r.line)
		switch line {
		case "":
			continue
		case "intro":
			s.Almanac.Intro = append(s.Almanac.Intro, r.block()...)
			continue
		case "keeporder":
			s.KeepOrder = true
			continue
		case "bootlegger":
			return domain.Script{}, r.errf(apperrors.CodeParse, "bootlegger", "missing rule")
		}
		if key, rule, ok := splitKey(line); ok && key == "bootlegger" {
			s.BootleggerRules = append(s.BootleggerRules, strings.TrimSpace(rule))
			continue
		}

		c, ok := table.Get(line)
		if !ok {
			return domain.Script{}, r.errf(apperrors.CodeUnknownCharacter, "", "no character %s in script %s", line, u.ID).WithValue(line)
		}
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		s.Characters = append(s.Characters, c)
	}
	if err := r.err(); err != nil {
		return domain.Script{}, err
	}
	return s, nil
}
