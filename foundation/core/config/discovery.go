// File: discovery.go
// Title: Configuration File Discovery Implementation
// Description: Locates the configuration file across a list of directories
//              and base names, honouring an explicit DESCENT_CONFIG path.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-18
//
// Change History:
// - 2025-01-25 v0.1.0: Initial implementation of file discovery
// - 2026-10-18 v0.2.0: Discovery falls back to defaults when nothing is required

package config

import (
	"os"
	"path/filepath"

	dserror "github.com/msto63/descent/foundation/core/error"
)

// PathEnv names the variable holding an explicit configuration path
const PathEnv = "DESCENT_CONFIG"

// DiscoveryOptions defines options for automatic configuration file discovery
type DiscoveryOptions struct {
	Paths      []string // Directories to search for config files
	Filenames  []string // Base filenames to look for (without extension)
	Extensions []string // File extensions to try (.toml, .yaml, .yml)
	Required   bool     // Whether finding a config file is required
}

// DefaultDiscoveryOptions returns the default search locations
func DefaultDiscoveryOptions() DiscoveryOptions {
	paths := []string{".", "./configs"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "descent"))
	}
	return DiscoveryOptions{
		Paths:      paths,
		Filenames:  []string{"descent"},
		Extensions: []string{".toml", ".yaml", ".yml"},
	}
}

// ListPossibleConfigFiles returns every candidate path in search order
func ListPossibleConfigFiles(options DiscoveryOptions) []string {
	var files []string
	for _, path := range options.Paths {
		for _, filename := range options.Filenames {
			for _, ext := range options.Extensions {
				files = append(files, filepath.Join(path, filename+ext))
			}
		}
	}
	return files
}

// FindConfigFile returns the first existing candidate
func FindConfigFile(options DiscoveryOptions) (string, error) {
	candidates := ListPossibleConfigFiles(options)
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", dserror.New("no configuration file found").
		WithCode(dserror.CodeMissingConfig).
		WithOperation("config.FindConfigFile").
		WithDetail("searched", candidates)
}

// Discover loads the first configuration file found. Without a file it
// returns the defaults (with environment overrides) unless one is required.
func Discover(options DiscoveryOptions) (*Config, error) {
	path, err := FindConfigFile(options)
	if err == nil {
		return Load(path)
	}
	if options.Required {
		return nil, err
	}

	cfg := Default()
	if err := cfg.ApplyEnv(EnvPrefix); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve loads path if given, else the file named by DESCENT_CONFIG, else
// whatever the default discovery finds
func Resolve(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if env := os.Getenv(PathEnv); env != "" {
		return Load(env)
	}
	return Discover(DefaultDiscoveryOptions())
}
