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
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"scriptgen/internal/patch"
)

// SearchQuery describes a search over indexed characters.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT) and matches
// names and abilities. Team restricts to one lowercase team key. Limit defaults to 100.
type SearchQuery struct {
	Text   string
	Team   string
	Limit  int
	Offset int
}

// SearchResult is one indexed character occurrence.
// Snippet highlights the matched ability text with [ ] markers.
type SearchResult struct {
	File       string
	ScriptName string
	Position   int
	ID         string
	Name       string
	Team       string
	Patched    bool
	Snippet    string
}

// Search runs q over the build index of outDir.
func Search(ctx context.Context, outDir string, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, errors.New("search text is required")
	}
	db, err := InitOrOpenIndex(outDir)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	var sb strings.Builder
	args := []any{q.Text}
	sb.WriteString("SELECT c.file, s.name, c.position, c.id, c.name, c.team, c.patched, snippet(fts_abilities, 1, '[', ']', '…', 10)\n")
	sb.WriteString("FROM fts_abilities JOIN script_characters c ON fts_abilities.rowid = c.row_id\n")
	sb.WriteString("JOIN scripts s ON s.file = c.file\n")
	sb.WriteString("WHERE fts_abilities MATCH ?\n")
	if t := strings.ToLower(strings.TrimSpace(q.Team)); t != "" {
		sb.WriteString(" AND c.team = ?\n")
		args = append(args, t)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	sb.WriteString("ORDER BY c.file, c.position\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	return scanResults(rows, true)
}

// WhereUsed lists every indexed script containing characterID, patched or not.
func WhereUsed(ctx context.Context, outDir, characterID string) ([]SearchResult, error) {
	if strings.TrimSpace(characterID) == "" {
		return nil, errors.New("character id is required")
	}
	db, err := InitOrOpenIndex(outDir)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	id := strings.TrimPrefix(characterID, patch.Prefix)
	rows, err := db.QueryContext(ctx, `SELECT c.file, s.name, c.position, c.id, c.name, c.team, c.patched, ''
		FROM script_characters c JOIN scripts s ON s.file = c.file
		WHERE c.id IN (?, ?)
		ORDER BY c.file, c.position`, id, patch.Prefix+id)
	if err != nil {
		return nil, fmt.Errorf("where-used query: %w", err)
	}
	defer rows.Close()
	return scanResults(rows, false)
}

func scanResults(rows *sql.Rows, withSnippet bool) ([]SearchResult, error) {
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var sn sql.NullString
		if err := rows.Scan(&r.File, &r.ScriptName, &r.Position, &r.ID, &r.Name, &r.Team, &r.Patched, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if withSnippet && sn.Valid {
			r.Snippet = sn.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
