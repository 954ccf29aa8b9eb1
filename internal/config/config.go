// Package config loads the optional YAML configuration file. Values
// from the file fill in any setting the command line left at its
// default.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File mirrors the command line options.
type File struct {
	Input struct {
		Path string `yaml:"path"`
		// Year is the fallback year for syslog timestamps; zero
		// means the current wall-clock year. Files spanning a
		// December to January boundary need to be split per year.
		Year     int    `yaml:"year"`
		Follow   bool   `yaml:"follow"`
		SpoolDir string `yaml:"spool_dir"`
	} `yaml:"input"`

	Output struct {
		CSVPath      string `yaml:"csv_path"`
		SQLitePath   string `yaml:"sqlite_path"`
		AuditLogPath string `yaml:"audit_log_path"`
	} `yaml:"output"`

	Serve struct {
		Metrics bool `yaml:"metrics"`
		Healthz bool `yaml:"healthz"`
	} `yaml:"serve"`
}

// Load reads and decodes the YAML file at path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg File

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}
