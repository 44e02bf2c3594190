// File: config.go
// Title: Typed Configuration Loading
// Description: Defines the descent configuration and loads it from TOML or
//              YAML files. The format follows the file extension unless set
//              explicitly. Missing values fall back to defaults and DESCENT_*
//              environment variables override file values.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-18
//
// Change History:
// - 2025-01-25 v0.1.0: Initial implementation with TOML/YAML support
// - 2026-10-18 v0.2.0: Replaced the dynamic key store with the typed front-end configuration

package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	dserror "github.com/msto63/descent/foundation/core/error"
)

// Format represents the configuration file format
type Format int

const (
	// FormatTOML represents TOML format (default)
	FormatTOML Format = iota

	// FormatYAML represents YAML format
	FormatYAML

	// FormatAuto auto-detects format from file extension
	FormatAuto
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	case FormatAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// Config holds the complete application configuration
type Config struct {
	Parser ParserConfig `toml:"parser" yaml:"parser"`
	Log    LogConfig    `toml:"log" yaml:"log"`
	Server ServerConfig `toml:"server" yaml:"server"`
	Store  StoreConfig  `toml:"store" yaml:"store"`

	path   string
	format Format
}

// ParserConfig holds the front-end limits and the result cache settings.
// A CacheSize of zero disables the cache.
type ParserConfig struct {
	MaxDepth       int      `toml:"max_depth" yaml:"max_depth"`
	MaxInputLength int      `toml:"max_input_length" yaml:"max_input_length"`
	CacheSize      int      `toml:"cache_size" yaml:"cache_size"`
	CacheTTL       Duration `toml:"cache_ttl" yaml:"cache_ttl"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// ServerConfig holds the HTTP/WebSocket and gRPC listener settings.
// An empty GRPCAddr disables the gRPC listener.
type ServerConfig struct {
	HTTPAddr        string   `toml:"http_addr" yaml:"http_addr"`
	GRPCAddr        string   `toml:"grpc_addr" yaml:"grpc_addr"`
	ReadTimeout     Duration `toml:"read_timeout" yaml:"read_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// StoreConfig holds parse history settings
type StoreConfig struct {
	Enabled      bool   `toml:"enabled" yaml:"enabled"`
	Path         string `toml:"path" yaml:"path"`
	HistoryLimit int    `toml:"history_limit" yaml:"history_limit"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration scalar
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// MarshalYAML formats the duration as a string
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Default returns the configuration used when no file is present
func Default() *Config {
	cfg := &Config{format: FormatAuto}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a file, detecting the format from its extension
func Load(path string) (*Config, error) {
	return LoadWithFormat(path, FormatAuto)
}

// LoadWithFormat loads configuration from a file in the given format
func LoadWithFormat(path string, format Format) (*Config, error) {
	path = os.ExpandEnv(path)
	if strings.TrimSpace(path) == "" {
		return nil, dserror.New("config file path cannot be empty").
			WithCode(dserror.CodeMissingConfig).
			WithOperation("config.Load")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		code := dserror.CodeConfigError
		if os.IsNotExist(err) {
			code = dserror.CodeMissingConfig
		}
		return nil, dserror.Wrap(err, "failed to read config file").
			WithCode(code).
			WithOperation("config.Load").
			WithDetail("path", path)
	}

	if format == FormatAuto {
		format = detectFormat(path)
	}

	cfg, err := LoadFromString(string(content), format)
	if err != nil {
		return nil, dserror.Wrap(err, "failed to load config file").
			WithOperation("config.Load").
			WithDetail("path", path)
	}
	cfg.path = path
	return cfg, nil
}

// LoadFromString parses configuration content, applies defaults and
// environment overrides and validates the result
func LoadFromString(content string, format Format) (*Config, error) {
	cfg := &Config{format: format}
	if err := decode([]byte(content), format, cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.ApplyEnv(EnvPrefix); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// detectFormat detects configuration format from file extension
func detectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

func decode(content []byte, format Format, cfg *Config) error {
	var err error
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(content))
		dec.KnownFields(true)
		if err = dec.Decode(cfg); errors.Is(err, io.EOF) {
			err = nil
		}
	case FormatTOML, FormatAuto:
		var meta toml.MetaData
		meta, err = toml.Decode(string(content), cfg)
		if err == nil {
			if undecoded := meta.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, len(undecoded))
				for i, k := range undecoded {
					keys[i] = k.String()
				}
				return dserror.Newf("unknown config keys: %s", strings.Join(keys, ", ")).
					WithCode(dserror.CodeInvalidConfig).
					WithOperation("config.decode")
			}
		}
	default:
		return dserror.Newf("unsupported config format: %s", format).
			WithCode(dserror.CodeInvalidConfig).
			WithOperation("config.decode")
	}

	if err != nil {
		return dserror.Wrap(err, "failed to parse "+format.String()+" config").
			WithCode(dserror.CodeInvalidConfig).
			WithOperation("config.decode")
	}
	return nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Parser
	if c.Parser.MaxDepth == 0 {
		c.Parser.MaxDepth = 256
	}
	if c.Parser.MaxInputLength == 0 {
		c.Parser.MaxInputLength = 1 << 20
	}
	if c.Parser.CacheTTL.Duration == 0 {
		c.Parser.CacheTTL.Duration = 10 * time.Minute
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}

	// Server
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "127.0.0.1:8080"
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 15 * time.Second
	}
	if c.Server.ShutdownTimeout.Duration == 0 {
		c.Server.ShutdownTimeout.Duration = 10 * time.Second
	}

	// Store
	if c.Store.Path == "" {
		c.Store.Path = "./data/history.db"
	}
	if c.Store.HistoryLimit == 0 {
		c.Store.HistoryLimit = 100
	}
}

// FilePath returns the file the configuration was loaded from, if any
func (c *Config) FilePath() string {
	return c.path
}

// Format returns the format the configuration was parsed from
func (c *Config) Format() Format {
	return c.format
}
