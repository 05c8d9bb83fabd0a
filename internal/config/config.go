// Package config loads the issuearc configuration from a TOML file.
// Command-line flags override file values; every option except the
// repository list has a sensible default.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Defaults for every configurable path.
const (
	DefaultRawRoot      = "export/raw"
	DefaultOutRoot      = "export"
	DefaultProfileDir   = "export/browser_profile"
	DefaultFetchWorkers = 4
)

// Config holds the export pipeline configuration.
type Config struct {
	// Repos lists repositories to export, in OWNER/REPO form. Required.
	Repos []string `toml:"repos"`

	// RawRoot is the directory holding raw capture files.
	RawRoot string `toml:"raw_root"`

	// OutRoot is the directory receiving rendered documents and assets.
	OutRoot string `toml:"out_root"`

	// ProfileDir is the persistent browser profile used by the
	// session-gated attachment path.
	ProfileDir string `toml:"profile_dir"`

	// FetchWorkers bounds concurrency on the direct-fetch path.
	FetchWorkers int `toml:"fetch_workers"`
}

// Default returns a Config with all defaults applied and no repositories.
func Default() Config {
	return Config{
		RawRoot:      DefaultRawRoot,
		OutRoot:      DefaultOutRoot,
		ProfileDir:   DefaultProfileDir,
		FetchWorkers: DefaultFetchWorkers,
	}
}

// DefaultPath returns the default config file location
// (~/.issuearc/config.toml).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".issuearc", "config.toml"), nil
}

// Load reads a TOML config file and applies defaults for unset fields.
// A missing file yields the defaults; it is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RawRoot == "" {
		c.RawRoot = DefaultRawRoot
	}
	if c.OutRoot == "" {
		c.OutRoot = DefaultOutRoot
	}
	if c.ProfileDir == "" {
		c.ProfileDir = DefaultProfileDir
	}
	if c.FetchWorkers <= 0 {
		c.FetchWorkers = DefaultFetchWorkers
	}
}

// RepoDir returns the export directory for a repository slug.
func (c *Config) RepoDir(slug string) string {
	return filepath.Join(c.OutRoot, slug)
}

// RawDir returns the raw capture directory for a repository slug.
func (c *Config) RawDir(slug string) string {
	return filepath.Join(c.RawRoot, slug)
}

// JournalPath returns the missing-attachments journal path for a
// repository slug.
func (c *Config) JournalPath(slug string) string {
	return filepath.Join(c.OutRoot, "missing_attachments_"+slug+".jsonl")
}
