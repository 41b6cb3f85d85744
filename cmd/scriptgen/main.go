/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"scriptgen/internal/build"
	"scriptgen/internal/config"
	"scriptgen/internal/crash"
	"scriptgen/internal/domain"
	applog "scriptgen/internal/log"
	"scriptgen/internal/storage"
	"scriptgen/internal/version"
)

func usage() {
	fmt.Println("scriptgen builds Blood on the Clocktower scripts and almanacs")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  scriptgen version|-v|--version            Show version")
	fmt.Println("  scriptgen build <out> <script>...         Build every script into <out>")
	fmt.Println("  scriptgen search <out> <text> [team]      Search abilities of built scripts")
	fmt.Println("  scriptgen where-used <out> <id>           List built scripts containing character <id>")
	fmt.Println("  scriptgen config                          Print the effective configuration")
}

func main() {
	cfg, cfgErr := config.Load("")
	applog.Init(cfg.Logging, os.Stderr)
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Error("config failed", slog.Any("err", cfgErr))
		fmt.Println("Error:", cfgErr)
		os.Exit(1)
	}

	var out string
	defer func() { crash.Recover(out) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	ctx := context.Background()
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println(version.String())
	case "build":
		if len(args) < 4 {
			fmt.Println("build requires <out> and at least one <script>")
			usage()
			os.Exit(2)
		}
		out, _ = filepath.Abs(args[2])
		in, err := build.LoadInputs(cfg)
		if err != nil {
			fail(l, "load failed", err)
		}
		rep, err := build.Run(ctx, in, args[3:], build.OptionsFrom(cfg, out))
		if err != nil {
			fail(l, "build failed", err)
		}
		fmt.Printf("Built %d script(s) into %s\n", len(rep.Scripts), out)
		if rep.BuildID != "" {
			fmt.Println("Build:", rep.BuildID)
		}
	case "search":
		if len(args) < 4 {
			fmt.Println("search requires <out> and <text>")
			usage()
			os.Exit(2)
		}
		out = args[2]
		q := storage.SearchQuery{Text: args[3]}
		if len(args) > 4 {
			key, ok := teamKey(args[4])
			if !ok {
				fail(l, "bad team", fmt.Errorf("unknown team %q", args[4]))
			}
			q.Team = key
		}
		res, err := storage.Search(ctx, out, q)
		if err != nil {
			fail(l, "search failed", err)
		}
		for _, r := range res {
			fmt.Printf("%s #%d %s (%s): %s\n", r.File, r.Position, r.Name, r.Team, r.Snippet)
		}
	case "where-used":
		if len(args) < 4 {
			fmt.Println("where-used requires <out> and <id>")
			usage()
			os.Exit(2)
		}
		out = args[2]
		res, err := storage.WhereUsed(ctx, out, args[3])
		if err != nil {
			fail(l, "where-used failed", err)
		}
		for _, r := range res {
			mark := ""
			if r.Patched {
				mark = " (patched)"
			}
			fmt.Printf("%s\t%s\t%s%s\n", r.File, r.ScriptName, r.ID, mark)
		}
	case "config":
		data, err := config.Marshal(cfg)
		if err != nil {
			fail(l, "config failed", err)
		}
		fmt.Printf("# %s\n%s", config.ConfigPath(), data)
	default:
		usage()
		os.Exit(2)
	}
}

// teamKey accepts a team name in any case, "traveler" included.
func teamKey(name string) (string, bool) {
	if strings.EqualFold(name, "traveler") {
		return domain.Traveller.Key(), true
	}
	for _, t := range domain.Teams() {
		if strings.EqualFold(t.String(), name) {
			return t.Key(), true
		}
	}
	return "", false
}

func fail(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}
