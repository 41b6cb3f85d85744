/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package patch applies bootlegger patches to one script and propagates the resulting
// identity renames through the jinx graph.
package patch

import (
	"strings"

	"scriptgen/internal/domain"
)

const (
	// Prefix marks a character whose identity differs from the official one.
	Prefix = "patched_"
	// ModifiedAbilityReason is attached as a self-jinx when the ability is replaced.
	ModifiedAbilityReason = "This character has a modified ability."
)

// Result reports the original ids renamed by Apply, in rename order.
type Result struct {
	Renamed []string
}

// Apply mutates s.Characters in place. It is a no-op when no character in s has a patch.
//
// Phase 1 renames every character whose patch has an effect in this script and attaches the
// patch jinxes. Phase 2 repeats full passes until none changes anything: a character holding
// a jinx towards a renamed id is renamed itself, and every such jinx is retargeted. Each
// character moves from unpatched to patched at most once, so cycles in the jinx graph terminate.
func Apply(s *domain.Script, patches domain.PatchTable, images domain.ImageTable) Result {
	var res Result
	if !anyPatched(s, patches) {
		return res
	}

	present := make(map[string]bool, len(s.Characters))
	for _, c := range s.Characters {
		present[c.ID] = true
	}
	// Original id -> renamed id.
	renamed := map[string]string{}

	for i := range s.Characters {
		c := &s.Characters[i]
		if c.Patched {
			continue
		}
		p, ok := patches[c.ID]
		if !ok || !hasEffect(p, present) {
			continue
		}
		orig := c.ID
		rename(c, renamed)
		res.Renamed = append(res.Renamed, orig)

		for _, j := range p.Jinxes {
			if present[j.ID] {
				c.Jinxes = append(c.Jinxes, j)
			}
		}
		for _, reason := range p.Add {
			c.Jinxes = append(c.Jinxes, domain.Jinx{ID: c.ID, Reason: reason})
		}
		if p.HasReplace() {
			c.Ability = p.Replace
			c.Jinxes = append(c.Jinxes, domain.Jinx{ID: c.ID, Reason: ModifiedAbilityReason})
		}
	}

	for changed := true; changed; {
		changed = false
		for i := range s.Characters {
			c := &s.Characters[i]
			entangled := false
			for k := range c.Jinxes {
				if _, ok := renamed[c.Jinxes[k].ID]; ok {
					entangled = true
					break
				}
			}
			if !entangled {
				continue
			}
			if !c.Patched {
				orig := c.ID
				if imgs, ok := images[orig]; ok {
					c.Image = append([]string(nil), imgs...)
				}
				rename(c, renamed)
				res.Renamed = append(res.Renamed, orig)
				changed = true
			}
			for k := range c.Jinxes {
				if to, ok := renamed[c.Jinxes[k].ID]; ok {
					c.Jinxes[k].ID = to
					changed = true
				}
			}
		}
	}
	return res
}

func anyPatched(s *domain.Script, patches domain.PatchTable) bool {
	for _, c := range s.Characters {
		if _, ok := patches[c.ID]; ok {
			return true
		}
	}
	return false
}

// hasEffect reports whether p changes anything for a script containing the present ids.
func hasEffect(p domain.Patch, present map[string]bool) bool {
	if p.HasReplace() || len(p.Add) > 0 {
		return true
	}
	for _, j := range p.Jinxes {
		if present[j.ID] {
			return true
		}
	}
	return false
}

func rename(c *domain.Character, renamed map[string]string) {
	if c.Patched || strings.HasPrefix(c.ID, Prefix) {
		c.Patched = true
		return
	}
	to := Prefix + c.ID
	renamed[c.ID] = to
	c.ID = to
	c.Patched = true
}
