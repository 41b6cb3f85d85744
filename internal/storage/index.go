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
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"scriptgen/internal/domain"
	applog "scriptgen/internal/log"
	"scriptgen/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName holds the build index below the output dir.
	IndexDirName  = ".scriptgen"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// IndexPath returns the full path to the build index of outDir.
func IndexPath(outDir string) string {
	return filepath.Join(outDir, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures that the build index exists at .scriptgen/index.sqlite, opens the
// database, enables WAL mode and brings the schema up to date.
// Callers close the returned *sql.DB.
func InitOrOpenIndex(outDir string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("out", outDir),
	)
	if strings.TrimSpace(outDir) == "" {
		return nil, errors.New("output dir is required")
	}
	if err := os.MkdirAll(filepath.Join(outDir, IndexDirName), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create %s dir: %w", IndexDirName, err)
	}

	path := IndexPath(outDir)
	// Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Keep the stored schema so migrations can run.
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureIndexSchema creates the build tables and the FTS index if they do not exist.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS builds (
			id         TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			app        TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS scripts (
			file     TEXT PRIMARY KEY,
			build_id TEXT NOT NULL REFERENCES builds(id),
			name     TEXT NOT NULL,
			author   TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS script_characters (
			row_id   INTEGER PRIMARY KEY,
			file     TEXT    NOT NULL REFERENCES scripts(file) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			id       TEXT    NOT NULL,
			name     TEXT    NOT NULL,
			team     TEXT    NOT NULL,
			ability  TEXT,
			patched  INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_script_characters_file ON script_characters(file, position);`,
		`CREATE INDEX IF NOT EXISTS idx_script_characters_id ON script_characters(id);`,

		// External-content FTS5 index over character names and abilities.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_abilities USING fts5(
			name,
			ability,
			content='script_characters',
			content_rowid='row_id',
			tokenize = 'unicode61'
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS script_characters_ai AFTER INSERT ON script_characters BEGIN
			INSERT INTO fts_abilities(rowid, name, ability) VALUES (new.row_id, new.name, new.ability);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS script_characters_ad AFTER DELETE ON script_characters BEGIN
			INSERT INTO fts_abilities(fts_abilities, rowid, name, ability) VALUES ('delete', old.row_id, old.name, old.ability);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Do not downgrade
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// Where-used lookups go by character id; fresh databases get it from ensureIndexSchema.
			stmts = []string{`CREATE INDEX IF NOT EXISTS idx_script_characters_id ON script_characters(id);`}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// BeginBuild registers a new build and returns its id.
func BeginBuild(ctx context.Context, db *sql.DB) (string, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx, `INSERT INTO builds (id, started_at, app) VALUES (?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), version.String())
	if err != nil {
		return "", fmt.Errorf("insert build: %w", err)
	}
	return id, nil
}

// RecordScript replaces the indexed content of the script written to file.
func RecordScript(ctx context.Context, db *sql.DB, buildID, file string, s *domain.Script) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Explicit delete so the FTS trigger sees every removed row.
	if _, err := tx.ExecContext(ctx, `DELETE FROM script_characters WHERE file=?`, file); err != nil {
		return fmt.Errorf("clear characters: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO scripts (file, build_id, name, author) VALUES (?, ?, ?, ?)
		ON CONFLICT(file) DO UPDATE SET build_id=excluded.build_id, name=excluded.name, author=excluded.author`,
		file, buildID, s.Name, s.Author); err != nil {
		return fmt.Errorf("upsert script: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO script_characters (file, position, id, name, team, ability, patched) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, c := range s.Characters {
		if _, err := stmt.ExecContext(ctx, file, i, c.ID, c.Name, c.Team.Key(), c.Ability, c.Patched); err != nil {
			return fmt.Errorf("insert character %s: %w", c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}
