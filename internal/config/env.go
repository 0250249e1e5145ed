package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds overrides read from the environment.
type EnvConfig struct {
	ConfigPath    string `env:"SIMONSAYS_CONFIG"`
	RecordingsDir string `env:"SIMONSAYS_RECORDINGS_DIR"`
	DBPath        string `env:"SIMONSAYS_DB"`
	Trigger       string `env:"SIMONSAYS_TRIGGER"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv reads EnvConfig.
func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := ParseEnv(&cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// Paths are the resolved storage locations.
type Paths struct {
	Config     string
	Recordings string
	Database   string
	Locations  string
}

// ResolveConfigPath resolves the config file: environment, then the XDG default.
func (e EnvConfig) ResolveConfigPath() string {
	if e.ConfigPath != "" {
		return ExpandHome(e.ConfigPath)
	}
	return DefaultConfigPath()
}

// ResolvePaths merges environment and file values over defaults. The environment wins.
func ResolvePaths(e EnvConfig, file PathsConfig) Paths {
	p := Paths{
		Config:     e.ResolveConfigPath(),
		Recordings: DefaultRecordingsDir(),
		Database:   DefaultDBPath(),
		Locations:  "locations.json",
	}
	if file.Recordings != nil && *file.Recordings != "" {
		p.Recordings = ExpandHome(*file.Recordings)
	}
	if file.Database != nil && *file.Database != "" {
		p.Database = ExpandHome(*file.Database)
	}
	if file.Locations != nil && *file.Locations != "" {
		p.Locations = ExpandHome(*file.Locations)
	}
	if e.RecordingsDir != "" {
		p.Recordings = ExpandHome(e.RecordingsDir)
	}
	if e.DBPath != "" {
		p.Database = ExpandHome(e.DBPath)
	}
	return p
}
