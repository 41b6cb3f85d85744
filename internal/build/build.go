/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package build wires the loaders, the core passes and the writers into one run.
package build

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"scriptgen/internal/catalog"
	"scriptgen/internal/config"
	"scriptgen/internal/domain"
	"scriptgen/internal/export"
	applog "scriptgen/internal/log"
	"scriptgen/internal/order"
	"scriptgen/internal/patch"
	"scriptgen/internal/resolve"
	"scriptgen/internal/source"
	"scriptgen/internal/storage"
)

// Inputs are the read-only tables shared by every script of a run.
type Inputs struct {
	Characters domain.Table
	Images     domain.ImageTable
	Patches    domain.PatchTable
	Specials   catalog.Specials
}

// LoadInputs reads the official tables, the local characters and the patches named by cfg.
func LoadInputs(cfg config.AppConfig) (*Inputs, error) {
	l := applog.WithOperation(applog.WithComponent("build"), "load_inputs")
	images, err := catalog.LoadImages(cfg.Paths.Images, cfg.Paths.ImageBaseURL)
	if err != nil {
		return nil, err
	}
	official, err := catalog.LoadOfficial(cfg.Paths.Official, images)
	if err != nil {
		return nil, err
	}
	nightOrder, err := catalog.LoadNightOrder(cfg.Paths.NightOrder)
	if err != nil {
		return nil, err
	}
	chars, err := catalog.LoadCharacterDir(cfg.Paths.Characters, official)
	if err != nil {
		return nil, err
	}
	patches, err := catalog.LoadPatches(cfg.Paths.Bootlegger)
	if err != nil {
		return nil, err
	}
	l.Info("inputs loaded",
		slog.Int("official", len(official)),
		slog.Int("characters", len(chars)),
		slog.Int("images", len(images)),
		slog.Int("patches", len(patches)))
	return &Inputs{
		Characters: chars,
		Images:     images,
		Patches:    patches,
		Specials:   catalog.SpecialCharacters(nightOrder),
	}, nil
}

// Process turns one script unit into a finished script: parse, resolve requirements, sort
// unless the script keeps its order, then apply patches. Any error aborts the script.
func Process(ctx context.Context, u source.Unit, in *Inputs) (*domain.Script, error) {
	l := applog.WithOperation(applog.WithComponent("build"), "process")
	s, err := source.ParseScript(u, in.Characters)
	if err != nil {
		return nil, err
	}
	added, err := resolve.Required(&s, in.Characters)
	if err != nil {
		return nil, err
	}
	if !s.KeepOrder {
		order.Sort(s.Characters)
	}
	res := patch.Apply(&s, in.Patches, in.Images)
	l.DebugContext(ctx, "script processed",
		slog.Int("characters", len(s.Characters)),
		slog.Int("required_added", added),
		slog.Bool("sorted", !s.KeepOrder),
		slog.Any("patched", res.Renamed))
	return &s, nil
}

// Options selects the outputs of Run.
type Options struct {
	OutDir   string
	PDF      bool
	Validate bool
	Index    bool
	Backups  bool
}

// OptionsFrom maps the output section of cfg.
func OptionsFrom(cfg config.AppConfig, outDir string) Options {
	return Options{
		OutDir:   outDir,
		PDF:      cfg.Output.PDF,
		Validate: cfg.Output.Validate,
		Index:    cfg.Output.Index,
		Backups:  cfg.Output.Backups,
	}
}

// Report summarizes a run.
type Report struct {
	BuildID string
	Scripts []export.IndexEntry
}

// Run builds every script path in order and writes <file>.official.json, <file>.html,
// optionally <file>.pdf, and finally index.html. The first failing script aborts the run.
func Run(ctx context.Context, in *Inputs, paths []string, opt Options) (Report, error) {
	l := applog.WithOperation(applog.WithComponent("build"), "run").With(slog.String("out", opt.OutDir))
	var rep Report
	if err := os.MkdirAll(opt.OutDir, 0o755); err != nil {
		return rep, fmt.Errorf("create out dir: %w", err)
	}
	backupDir := ""
	if opt.Backups {
		backupDir = filepath.Join(opt.OutDir, storage.BackupsDirName)
	}

	var db *sql.DB
	if opt.Index {
		var err error
		if db, err = storage.InitOrOpenIndex(opt.OutDir); err != nil {
			return rep, err
		}
		defer db.Close()
		if rep.BuildID, err = storage.BeginBuild(ctx, db); err != nil {
			return rep, err
		}
		ctx = applog.WithBuild(ctx, rep.BuildID)
	}

	for _, path := range paths {
		file := filepath.Base(path)
		sctx := applog.WithScript(ctx, file)
		data, err := os.ReadFile(path)
		if err != nil {
			return rep, fmt.Errorf("read script %s: %w", path, err)
		}
		s, err := Process(sctx, source.Unit{ID: file, Path: path, Text: string(data)}, in)
		if err != nil {
			l.ErrorContext(sctx, "script failed", slog.Any("err", err))
			return rep, err
		}
		if err := writeScript(s, in, file, opt, backupDir); err != nil {
			l.ErrorContext(sctx, "write failed", slog.Any("err", err))
			return rep, err
		}
		if db != nil {
			if err := storage.RecordScript(ctx, db, rep.BuildID, file, s); err != nil {
				return rep, err
			}
		}
		rep.Scripts = append(rep.Scripts, export.IndexEntry{File: file, Name: s.Name})
		l.InfoContext(sctx, "script built", slog.String("name", s.Name), slog.Int("characters", len(s.Characters)))
	}

	var buf bytes.Buffer
	if err := export.WriteIndexHTML(&buf, rep.Scripts); err != nil {
		return rep, err
	}
	if err := storage.WriteFileAtomic(filepath.Join(opt.OutDir, "index.html"), buf.Bytes(), backupDir); err != nil {
		return rep, err
	}
	return rep, nil
}

func writeScript(s *domain.Script, in *Inputs, file string, opt Options, backupDir string) error {
	js, err := export.ScriptJSON(s)
	if err != nil {
		return err
	}
	if opt.Validate {
		if err := export.ValidateScriptJSON(js); err != nil {
			return fmt.Errorf("script %s: %w", file, err)
		}
	}
	if err := storage.WriteFileAtomic(filepath.Join(opt.OutDir, file+".official.json"), js, backupDir); err != nil {
		return err
	}

	first := export.NightSheet(s, in.Specials.FirstNight(), order.FirstNight)
	other := export.NightSheet(s, in.Specials.OtherNight(), order.OtherNight)
	var html bytes.Buffer
	if err := export.WriteAlmanacHTML(&html, s, first, other); err != nil {
		return err
	}
	if err := storage.WriteFileAtomic(filepath.Join(opt.OutDir, file+".html"), html.Bytes(), backupDir); err != nil {
		return err
	}

	if opt.PDF {
		var pdf bytes.Buffer
		if err := export.ExportAlmanacPDF(&pdf, s, first, other, export.PDFOptions{NightPages: true}); err != nil {
			return err
		}
		if err := storage.WriteFileAtomic(filepath.Join(opt.OutDir, file+".pdf"), pdf.Bytes(), backupDir); err != nil {
			return err
		}
	}
	return nil
}
