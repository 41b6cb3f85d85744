/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config loads the scriptgen configuration: defaults, then an optional YAML file,
// then environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the working directory when SG_CONFIG is unset.
const DefaultFileName = "scriptgen.yaml"

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "SG_CONFIG"

type PathsConfig struct {
	Characters   string `yaml:"characters" env:"SG_CHARACTERS_DIR"`
	Bootlegger   string `yaml:"bootlegger" env:"SG_BOOTLEGGER_DIR"`
	Official     string `yaml:"official" env:"SG_OFFICIAL"`
	Images       string `yaml:"images" env:"SG_IMAGES"`
	NightOrder   string `yaml:"night_order" env:"SG_NIGHT_ORDER"`
	ImageBaseURL string `yaml:"image_base_url" env:"SG_IMAGE_BASE_URL"`
}

type OutputConfig struct {
	PDF      bool `yaml:"pdf" env:"SG_OUTPUT_PDF"`
	Validate bool `yaml:"validate" env:"SG_OUTPUT_VALIDATE"`
	Index    bool `yaml:"index" env:"SG_OUTPUT_INDEX"`
	Backups  bool `yaml:"backups" env:"SG_OUTPUT_BACKUPS"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"SG_LOG_LEVEL"`
	Format string `yaml:"format" env:"SG_LOG_FORMAT"`
	Source bool   `yaml:"source" env:"SG_LOG_SOURCE"`
	File   string `yaml:"file" env:"SG_LOG_FILE"`
}

// AppConfig is the effective configuration of one run.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Paths         PathsConfig   `yaml:"paths"`
	Output        OutputConfig  `yaml:"output"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults. Paths are relative to the working directory.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Paths: PathsConfig{
			Characters:   "script-gen/characters",
			Bootlegger:   "script-gen/bootlegger",
			Official:     "characters.json",
			Images:       "official-images",
			NightOrder:   "night-order.json",
			ImageBaseURL: "https://botc.app/assets/",
		},
		Output:  OutputConfig{PDF: false, Validate: true, Index: true, Backups: false},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// ConfigPath returns the config file to read.
func ConfigPath() string {
	if v := strings.TrimSpace(os.Getenv(EnvConfigPath)); v != "" {
		return v
	}
	return DefaultFileName
}

// Load applies the YAML file at path (ConfigPath() when empty) over the defaults and then
// the environment overrides. A missing file is not an error.
func Load(path string) (AppConfig, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		path = ConfigPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		// Fields absent from the file keep their defaults.
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	normalize(&cfg)
	return cfg, nil
}

// Marshal renders cfg as YAML, e.g. for `scriptgen config`.
func Marshal(cfg AppConfig) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func normalize(cfg *AppConfig) {
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	cfg.Logging.File = strings.TrimSpace(cfg.Logging.File)
	if cfg.Paths.ImageBaseURL != "" && !strings.HasSuffix(cfg.Paths.ImageBaseURL, "/") {
		cfg.Paths.ImageBaseURL += "/"
	}
}
