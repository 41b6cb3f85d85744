/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package build

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scriptgen/internal/config"
	apperrors "scriptgen/internal/errors"
	"scriptgen/internal/source"
	"scriptgen/internal/storage"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

// fixture lays out a minimal data directory and returns a config pointing at it.
func fixture(t *testing.T) config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "characters.json"), `[
		{"id":"chef","name":"Chef","team":"townsfolk","ability":"You start knowing how many pairs of evil players there are.","firstNight":36,"firstNightReminder":"Show pairs."},
		{"id":"empath","name":"Empath","team":"townsfolk","ability":"Each night, you learn how many of your 2 alive neighbours are evil.","firstNight":37,"otherNight":53},
		{"id":"imp","name":"Imp","team":"demon","ability":"Each night*, choose a player: they die.","otherNight":24,"otherNightReminder":"Kill."},
		{"id":"spy","name":"Spy","team":"minion","ability":"Each night, you see the Grimoire.","firstNight":49,"otherNight":68,"jinxes":[{"id":"chef","reason":"Old reason."}]}
	]`)
	writeFile(t, filepath.Join(dir, "official-images"), "chef chef\nimp imp\nspy spy\n")
	writeFile(t, filepath.Join(dir, "night-order.json"), `{"firstNight":["DUSK","MINION","DEMON","chef","DAWN"],"otherNight":["DUSK","imp","DAWN"]}`)
	writeFile(t, filepath.Join(dir, "chars", "cook.char"), "Cook\nTownsfolk\nYou start knowing something.\nrequires chef\nwakes first after chef\nfirstnight Wake the Cook.\n")
	writeFile(t, filepath.Join(dir, "patches", "chef"), "replace You start knowing how many evil players there are.\n")

	cfg := config.Defaults()
	cfg.Paths = config.PathsConfig{
		Characters:   filepath.Join(dir, "chars"),
		Bootlegger:   filepath.Join(dir, "patches"),
		Official:     filepath.Join(dir, "characters.json"),
		Images:       filepath.Join(dir, "official-images"),
		NightOrder:   filepath.Join(dir, "night-order.json"),
		ImageBaseURL: "https://cdn.test/",
	}
	return cfg
}

func TestLoadInputs(t *testing.T) {
	in, err := LoadInputs(fixture(t))
	if err != nil {
		t.Fatalf("LoadInputs: %v", err)
	}
	if len(in.Characters) != 5 {
		t.Fatalf("characters = %d, want 5", len(in.Characters))
	}
	if c := in.Characters["cook"]; c.Official || math.Abs(c.FirstNight-36.1) > 1e-9 {
		t.Fatalf("cook = %+v", c)
	}
	if _, ok := in.Patches["chef"]; !ok {
		t.Fatalf("chef patch not loaded")
	}
	if in.Specials.Dawn.FirstNight != 5 {
		t.Fatalf("dawn first night = %v", in.Specials.Dawn.FirstNight)
	}
}

func TestLoadInputsMissingOfficial(t *testing.T) {
	cfg := fixture(t)
	cfg.Paths.Official = filepath.Join(t.TempDir(), "nope.json")
	if _, err := LoadInputs(cfg); err == nil {
		t.Fatalf("expected error for missing character list")
	}
}

func TestProcess(t *testing.T) {
	in, err := LoadInputs(fixture(t))
	if err != nil {
		t.Fatal(err)
	}
	s, err := Process(context.Background(), source.Unit{ID: "mini", Text: "Mini\nMe\n\nimp\ncook\nspy\n"}, in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	got := strings.Join(s.IDs(), ",")
	if got != "cook,patched_chef,patched_spy,imp" {
		t.Fatalf("ids = %s", got)
	}
	for _, c := range s.Characters {
		if c.ID == "patched_spy" && c.Jinxes[0].ID != "patched_chef" {
			t.Fatalf("spy jinx not renamed: %+v", c.Jinxes)
		}
	}
	if in.Characters["chef"].Patched {
		t.Fatalf("shared table mutated")
	}
}

func TestProcessKeepOrder(t *testing.T) {
	in, err := LoadInputs(fixture(t))
	if err != nil {
		t.Fatal(err)
	}
	s, err := Process(context.Background(), source.Unit{ID: "k", Text: "K\nMe\nkeeporder\nimp\nempath\n"}, in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := strings.Join(s.IDs(), ","); got != "imp,empath" {
		t.Fatalf("ids = %s", got)
	}
}

func TestProcessUnknownCharacter(t *testing.T) {
	in, err := LoadInputs(fixture(t))
	if err != nil {
		t.Fatal(err)
	}
	_, err = Process(context.Background(), source.Unit{ID: "bad", Text: "Bad\nMe\nimp\nlunatic\n"}, in)
	if !stderrors.Is(err, apperrors.ErrUnknownCharacter) {
		t.Fatalf("error = %v", err)
	}
}

func TestRun(t *testing.T) {
	cfg := fixture(t)
	in, err := LoadInputs(cfg)
	if err != nil {
		t.Fatal(err)
	}
	scripts := t.TempDir()
	writeFile(t, filepath.Join(scripts, "mini"), "Mini\nMe\nbootlegger The Chef is altered.\nimp\ncook\n")
	writeFile(t, filepath.Join(scripts, "second"), "Second\nYou\nempath\n")

	out := filepath.Join(t.TempDir(), "out")
	opt := OptionsFrom(cfg, out)
	opt.PDF = true
	rep, err := Run(context.Background(), in, []string{filepath.Join(scripts, "mini"), filepath.Join(scripts, "second")}, opt)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.BuildID == "" || len(rep.Scripts) != 2 {
		t.Fatalf("report = %+v", rep)
	}
	for _, name := range []string{"mini.official.json", "mini.html", "mini.pdf", "second.official.json", "index.html"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(out, "mini.official.json"))
	if err != nil {
		t.Fatal(err)
	}
	var elems []any
	if err := json.Unmarshal(data, &elems); err != nil {
		t.Fatalf("output not JSON: %v", err)
	}
	meta, _ := elems[0].(map[string]any)
	if meta["id"] != "_meta" || meta["name"] != "Mini" {
		t.Fatalf("meta = %v", elems[0])
	}
	ids := []string{}
	for _, e := range elems[1:] {
		switch v := e.(type) {
		case string: // official, unpatched
			ids = append(ids, v)
		case map[string]any:
			ids = append(ids, v["id"].(string))
		}
	}
	if strings.Join(ids, ",") != "cook,patched_chef,imp" {
		t.Fatalf("ids = %v", ids)
	}

	index, _ := os.ReadFile(filepath.Join(out, "index.html"))
	if !strings.Contains(string(index), "mini.html") || !strings.Contains(string(index), "Second") {
		t.Fatalf("index missing entries: %s", index)
	}

	res, err := storage.WhereUsed(context.Background(), out, "chef")
	if err != nil {
		t.Fatalf("WhereUsed: %v", err)
	}
	if len(res) != 1 || res[0].File != "mini" || !res[0].Patched {
		t.Fatalf("where used = %+v", res)
	}
}

func TestRunAbortsOnFailingScript(t *testing.T) {
	cfg := fixture(t)
	in, err := LoadInputs(cfg)
	if err != nil {
		t.Fatal(err)
	}
	scripts := t.TempDir()
	writeFile(t, filepath.Join(scripts, "bad"), "Bad\nMe\nnobody\n")
	writeFile(t, filepath.Join(scripts, "good"), "Good\nMe\nimp\n")

	out := t.TempDir()
	opt := OptionsFrom(cfg, out)
	opt.Index = false
	_, err = Run(context.Background(), in, []string{filepath.Join(scripts, "bad"), filepath.Join(scripts, "good")}, opt)
	if !stderrors.Is(err, apperrors.ErrUnknownCharacter) {
		t.Fatalf("error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "good.official.json")); !os.IsNotExist(err) {
		t.Fatalf("later script should not be built")
	}
	if _, err := os.Stat(filepath.Join(out, "index.html")); !os.IsNotExist(err) {
		t.Fatalf("index should not be written")
	}
}

func TestRunBackups(t *testing.T) {
	cfg := fixture(t)
	in, err := LoadInputs(cfg)
	if err != nil {
		t.Fatal(err)
	}
	script := filepath.Join(t.TempDir(), "mini")
	writeFile(t, script, "Mini\nMe\nimp\n")
	out := t.TempDir()
	opt := Options{OutDir: out, Backups: true}
	for i := 0; i < 2; i++ {
		if _, err := Run(context.Background(), in, []string{script}, opt); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	b, err := storage.Backups(filepath.Join(out, storage.BackupsDirName), "mini.official.json")
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 1 {
		t.Fatalf("backups = %v", b)
	}
}
