/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package catalog loads the tables the core consumes: official characters, official images,
// the night order, locally authored characters and bootlegger patches.
package catalog

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"scriptgen/internal/domain"
	apperrors "scriptgen/internal/errors"
	applog "scriptgen/internal/log"
	"scriptgen/internal/source"
)

// CharacterExt is the file extension of character units.
const CharacterExt = ".char"

// LoadImages reads the official image list: one line per id, `id image...`. Each image name
// becomes baseURL + name + ".webp".
func LoadImages(path, baseURL string) (domain.ImageTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image list: %w", err)
	}
	images := domain.ImageTable{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		locs := make([]string, 0, len(fields)-1)
		for _, name := range fields[1:] {
			locs = append(locs, baseURL+name+".webp")
		}
		images[fields[0]] = locs
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan image list: %w", err)
	}
	return images, nil
}

// officialRecord is the JSON shape of one entry of the official character list.
type officialRecord struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Team               *domain.Team  `json:"team"`
	Ability            string        `json:"ability"`
	Reminders          []string      `json:"reminders"`
	RemindersGlobal    []string      `json:"remindersGlobal"`
	FirstNightReminder string        `json:"firstNightReminder"`
	OtherNightReminder string        `json:"otherNightReminder"`
	FirstNight         float64       `json:"firstNight"`
	OtherNight         float64       `json:"otherNight"`
	Setup              bool          `json:"setup"`
	Flavor             string        `json:"flavor"`
	Jinxes             []domain.Jinx `json:"jinxes"`
}

// LoadOfficial reads the official character list. Every record is marked official and takes
// its image from images.
func LoadOfficial(path string, images domain.ImageTable) (domain.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read character list: %w", err)
	}
	var recs []officialRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse character list: %w", err)
	}
	table := make(domain.Table, len(recs))
	for _, r := range recs {
		if r.ID == "" {
			return nil, fmt.Errorf("parse character list: record %q without id", r.Name)
		}
		team := domain.Special
		if r.Team != nil {
			team = *r.Team
		}
		c := domain.Character{
			ID:                 r.ID,
			Name:               r.Name,
			Team:               team,
			Ability:            r.Ability,
			Reminders:          r.Reminders,
			RemindersGlobal:    r.RemindersGlobal,
			FirstNightReminder: r.FirstNightReminder,
			OtherNightReminder: r.OtherNightReminder,
			FirstNight:         r.FirstNight,
			OtherNight:         r.OtherNight,
			Setup:              r.Setup,
			Official:           true,
			Flavour:            r.Flavor,
			Jinxes:             r.Jinxes,
		}
		if imgs, ok := images[r.ID]; ok {
			c.Image = append([]string(nil), imgs...)
		}
		table[r.ID] = c
	}
	return table, nil
}

// LoadNightOrder reads night-order.json.
func LoadNightOrder(path string) (NightOrderList, error) {
	var order NightOrderList
	data, err := os.ReadFile(path)
	if err != nil {
		return order, fmt.Errorf("read night order: %w", err)
	}
	if err := json.Unmarshal(data, &order); err != nil {
		return order, fmt.Errorf("parse night order: %w", err)
	}
	return order, nil
}

// LoadCharacterDir parses every *.char file below dir and returns base extended with them.
// base itself is not modified. Local characters may replace official ones, but two local
// units with the same id are an error.
//
// Units are parsed in passes: a unit whose `wakes` target is not loaded yet is retried in the
// next pass. Loading stops when a pass resolves nothing; the remaining units then report their
// first error. A missing dir yields base unchanged.
func LoadCharacterDir(dir string, base domain.Table) (domain.Table, error) {
	l := applog.WithOperation(applog.WithComponent("catalog"), "load_characters").With(slog.String("dir", dir))
	table := make(domain.Table, len(base))
	for id, c := range base {
		table[id] = c
	}

	units, err := characterUnits(dir)
	if err != nil {
		return nil, err
	}
	opts := source.CharacterOptions{ImageProbe: probePNG}
	local := map[string]string{}
	pending := units
	for pass := 1; len(pending) > 0; pass++ {
		var retry []source.Unit
		var firstErr error
		for _, u := range pending {
			c, err := source.ParseCharacter(u, table, opts)
			if err != nil {
				if !stderrors.Is(err, apperrors.ErrUnknownReference) {
					return nil, fmt.Errorf("load %s: %w", u.Path, err)
				}
				if firstErr == nil {
					firstErr = fmt.Errorf("load %s: %w", u.Path, err)
				}
				retry = append(retry, u)
				continue
			}
			if prev, dup := local[c.ID]; dup {
				return nil, apperrors.New(apperrors.CodeDuplicateID, u.ID, 0, "", "also defined in %s", prev).WithValue(u.Path)
			}
			local[c.ID] = u.Path
			table[c.ID] = c
		}
		if len(retry) == len(pending) {
			l.Error("unresolved characters", slog.Int("count", len(retry)), slog.Any("err", firstErr))
			return nil, firstErr
		}
		l.Debug("pass done", slog.Int("pass", pass), slog.Int("loaded", len(pending)-len(retry)), slog.Int("retry", len(retry)))
		pending = retry
	}
	l.Info("characters loaded", slog.Int("local", len(local)), slog.Int("total", len(table)))
	return table, nil
}

func characterUnits(dir string) ([]source.Unit, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && stderrors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == CharacterExt {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)
	units := make([]source.Unit, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		units = append(units, source.Unit{ID: strings.ToLower(stem(p)), Path: p, Text: string(data)})
	}
	return units, nil
}

// probePNG looks for <id>.png next to the unit and inlines it as a data URL.
func probePNG(u source.Unit) (string, bool) {
	if u.Path == "" {
		return "", false
	}
	data, err := os.ReadFile(filepath.Join(filepath.Dir(u.Path), u.ID+".png"))
	if err != nil {
		return "", false
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), true
}

// LoadPatches reads every file in dir as a patch keyed by its file stem. A missing dir yields
// an empty table.
func LoadPatches(dir string) (domain.PatchTable, error) {
	patches := domain.PatchTable{}
	ents, err := os.ReadDir(dir)
	if stderrors.Is(err, fs.ErrNotExist) {
		return patches, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read patch dir: %w", err)
	}
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read patch %s: %w", path, err)
		}
		id := stem(path)
		p, err := source.ParsePatch(source.Unit{ID: id, Path: path, Text: string(data)})
		if err != nil {
			return nil, fmt.Errorf("load patch %s: %w", path, err)
		}
		patches[id] = p
	}
	return patches, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
