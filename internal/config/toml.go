// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Play  PlayConfig  `toml:"play"`
	Remap RemapConfig `toml:"remap"`
	Paths PathsConfig `toml:"paths"`
}

// PlayConfig maps playback settings. Durations are in seconds.
type PlayConfig struct {
	Delay            *float64 `toml:"delay"`
	Settle           *float64 `toml:"settle"`
	Trigger          *string  `toml:"trigger"`
	Countdown        *float64 `toml:"countdown"`
	RestoreClipboard *bool    `toml:"restore-clipboard"`
	PasteModifier    *string  `toml:"paste-modifier"`
	Smooth           *bool    `toml:"smooth"`
}

// RemapConfig maps remap settings.
type RemapConfig struct {
	TUI *bool `toml:"tui"`
}

// PathsConfig maps storage locations.
type PathsConfig struct {
	Recordings *string `toml:"recordings"`
	Database   *string `toml:"database"`
	Locations  *string `toml:"locations"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
