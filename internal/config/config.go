/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads the per-user settings file. Values come from the
// built-in defaults, then config.yaml, then SLSB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the settings file inside the config directory.
const FileName = "config.yaml"

// ErrMalformed marks a settings file that could not be decoded.
var ErrMalformed = errors.New("config: malformed settings file")

type GeneralConfig struct {
	Darkmode       bool `yaml:"darkmode"`
	TelemetryOptIn bool `yaml:"telemetry_opt_in"`
	// Workers bounds the number of concurrently running window commands.
	Workers int `yaml:"workers"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	// File is the rotated JSON log; "auto" places it in the user cache dir.
	File string `yaml:"file"`
}

// LinksConfig lists the documentation and community pages reachable from the Help menu.
type LinksConfig struct {
	Wiki    string `yaml:"wiki"`
	Discord string `yaml:"discord"`
	Patreon string `yaml:"patreon"`
	KoFi    string `yaml:"kofi"`
}

type IndexConfig struct {
	Enabled bool `yaml:"enabled"`
}

// AppConfig mirrors config.yaml. Keys missing from the file keep their defaults.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Logging       LoggingConfig `yaml:"logging"`
	Links         LinksConfig   `yaml:"links"`
	Index         IndexConfig   `yaml:"index"`
}

// Defaults returns the built-in settings.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Workers: defaultWorkers()},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
		Links: LinksConfig{
			Wiki:    "https://github.com/Scrabx3/SexLab/wiki/Scene-Builder",
			Discord: "https://discord.gg/JPSHb4ebqj",
			Patreon: "https://www.patreon.com/ScrabJoseline",
			KoFi:    "https://ko-fi.com/scrab",
		},
		Index: IndexConfig{Enabled: true},
	}
}

func defaultWorkers() int {
	return min(max(runtime.NumCPU(), 2), 8)
}

// Environment variables.
const (
	EnvConfigDir      = "SLSB_CONFIG_DIR"
	EnvDarkmode       = "SLSB_DARKMODE"
	EnvTelemetryOptIn = "SLSB_TELEMETRY_OPT_IN"
	EnvWorkers        = "SLSB_WORKERS"
	EnvIndexEnabled   = "SLSB_INDEX"
	EnvLogLevel       = "SLSB_LOG_LEVEL"
	EnvLogFormat      = "SLSB_LOG_FORMAT"
	EnvLogSource      = "SLSB_LOG_SOURCE"
	EnvLogFile        = "SLSB_LOG_FILE"
)

// ConfigPath returns the settings file path. SLSB_CONFIG_DIR replaces the
// platform config directory when set.
func ConfigPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Join(dir, FileName), nil
	}
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return "", errors.New("config: cannot resolve config directory")
	}
	return filepath.Join(base, "scenebuilder", FileName), nil
}

// Load returns the effective settings. A missing file is not an error. A
// malformed file is skipped and reported as ErrMalformed alongside the
// defaults with environment overrides applied.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err == nil {
		err = decodeFile(path, &cfg)
	}
	if err != nil {
		cfg = Defaults()
	}
	cfg.normalize()
	applyEnv(&cfg)
	return cfg, err
}

func decodeFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	return nil
}

// normalize repairs values a hand-edited file may leave unusable.
func (c *AppConfig) normalize() {
	def := Defaults()
	if c.ConfigVersion <= 0 {
		c.ConfigVersion = def.ConfigVersion
	}
	if c.General.Workers <= 0 {
		c.General.Workers = def.General.Workers
	}
	c.Logging.Level = lowerOr(c.Logging.Level, def.Logging.Level)
	c.Logging.Format = lowerOr(c.Logging.Format, def.Logging.Format)
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	for _, l := range []struct {
		dst *string
		def string
	}{
		{&c.Links.Wiki, def.Links.Wiki},
		{&c.Links.Discord, def.Links.Discord},
		{&c.Links.Patreon, def.Links.Patreon},
		{&c.Links.KoFi, def.Links.KoFi},
	} {
		if v := strings.TrimSpace(*l.dst); v != "" {
			*l.dst = v
		} else {
			*l.dst = l.def
		}
	}
}

func lowerOr(v, def string) string {
	if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
		return v
	}
	return def
}

// Save writes cfg to the settings file.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// binding ties a dotted settings key to the variable that overrides it.
type binding struct {
	key, env string
	set      func(*AppConfig, string)
}

var bindings = []binding{
	{"general.darkmode", EnvDarkmode, func(c *AppConfig, v string) { c.General.Darkmode = parseBool(v) }},
	{"general.telemetry_opt_in", EnvTelemetryOptIn, func(c *AppConfig, v string) { c.General.TelemetryOptIn = parseBool(v) }},
	{"general.workers", EnvWorkers, func(c *AppConfig, v string) {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.General.Workers = n
		}
	}},
	{"index.enabled", EnvIndexEnabled, func(c *AppConfig, v string) { c.Index.Enabled = parseBool(v) }},
	{"logging.level", EnvLogLevel, func(c *AppConfig, v string) { c.Logging.Level = strings.ToLower(v) }},
	{"logging.format", EnvLogFormat, func(c *AppConfig, v string) { c.Logging.Format = strings.ToLower(v) }},
	{"logging.source", EnvLogSource, func(c *AppConfig, v string) { c.Logging.Source = parseBool(v) }},
	{"logging.file", EnvLogFile, func(c *AppConfig, v string) { c.Logging.File = v }},
}

func applyEnv(cfg *AppConfig) {
	for _, b := range bindings {
		if v := strings.TrimSpace(os.Getenv(b.env)); v != "" {
			b.set(cfg, v)
		}
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// EnvOverrideFor reports the variable currently overriding key, if any.
func EnvOverrideFor(key string) (string, bool) {
	for _, b := range bindings {
		if b.key == key && strings.TrimSpace(os.Getenv(b.env)) != "" {
			return b.env, true
		}
	}
	return "", false
}
