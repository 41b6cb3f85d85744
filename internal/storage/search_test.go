/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"testing"

	"scriptgen/internal/domain"
)

func seedIndex(t *testing.T) string {
	t.Helper()
	out := t.TempDir()
	db, err := InitOrOpenIndex(out)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	build, err := BeginBuild(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	tb := &domain.Script{Name: "Trouble Brewing", Author: "TPI", Characters: []domain.Character{
		{ID: "chef", Name: "Chef", Team: domain.Townsfolk, Ability: "You start knowing how many pairs of evil players there are."},
		{ID: "imp", Name: "Imp", Team: domain.Demon, Ability: "Each night*, choose a player: they die."},
	}}
	custom := &domain.Script{Name: "Custom", Author: "Me", Characters: []domain.Character{
		{ID: "patched_chef", Name: "Chef", Team: domain.Townsfolk, Ability: "Each night, learn how many evil players neighbour you.", Patched: true},
		{ID: "alchemist", Name: "Alchemist", Team: domain.Townsfolk, Ability: "You have a Minion ability."},
	}}
	if err := RecordScript(ctx, db, build, "tb", tb); err != nil {
		t.Fatal(err)
	}
	if err := RecordScript(ctx, db, build, "custom", custom); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestSearchAbilities(t *testing.T) {
	out := seedIndex(t)
	res, err := Search(context.Background(), out, SearchQuery{Text: "evil"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 hits, got %+v", res)
	}
	if res[0].File != "custom" || !res[0].Patched || res[1].File != "tb" {
		t.Fatalf("unexpected hits: %+v", res)
	}
	if res[1].ScriptName != "Trouble Brewing" || res[1].Snippet == "" {
		t.Fatalf("missing script name or snippet: %+v", res[1])
	}
}

func TestSearchTeamFilter(t *testing.T) {
	out := seedIndex(t)
	res, err := Search(context.Background(), out, SearchQuery{Text: "night", Team: "Demon"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 1 || res[0].ID != "imp" {
		t.Fatalf("hits = %+v", res)
	}
}

func TestSearchRequiresText(t *testing.T) {
	if _, err := Search(context.Background(), t.TempDir(), SearchQuery{}); err == nil {
		t.Fatalf("expected error for empty query")
	}
}

func TestWhereUsedMatchesPatchedIDs(t *testing.T) {
	out := seedIndex(t)
	for _, id := range []string{"chef", "patched_chef"} {
		res, err := WhereUsed(context.Background(), out, id)
		if err != nil {
			t.Fatalf("WhereUsed(%s): %v", id, err)
		}
		if len(res) != 2 || res[0].File != "custom" || res[1].File != "tb" {
			t.Fatalf("WhereUsed(%s) = %+v", id, res)
		}
	}
	res, err := WhereUsed(context.Background(), out, "alchemist")
	if err != nil || len(res) != 1 {
		t.Fatalf("WhereUsed(alchemist) = %+v, %v", res, err)
	}
}
