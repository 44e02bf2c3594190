// File: validation.go
// Title: Configuration Validation and Environment Overrides
// Description: Validates the typed configuration and applies environment
//              variable overrides. Keys map onto variables by upper-casing
//              and replacing dots: parser.max_depth -> DESCENT_PARSER_MAX_DEPTH.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-18
//
// Change History:
// - 2025-01-25 v0.1.0: Initial validation rules and struct binding
// - 2026-10-18 v0.2.0: Typed validation and explicit override table

package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	dserror "github.com/msto63/descent/foundation/core/error"
	dslog "github.com/msto63/descent/foundation/core/log"
)

// EnvPrefix is the prefix of all override variables
const EnvPrefix = "DESCENT"

// ValidationResult contains the results of configuration validation
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Check validates the configuration and reports every problem found
func (c *Config) Check() *ValidationResult {
	result := &ValidationResult{
		Valid:  true,
		Errors: make([]string, 0),
	}
	fail := func(format string, args ...interface{}) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}

	if c.Parser.MaxDepth < 1 || c.Parser.MaxDepth > 100000 {
		fail("parser.max_depth must be between 1 and 100000, got %d", c.Parser.MaxDepth)
	}
	if c.Parser.MaxInputLength < 1 {
		fail("parser.max_input_length must be positive, got %d", c.Parser.MaxInputLength)
	}
	if c.Parser.CacheSize < 0 {
		fail("parser.cache_size must not be negative, got %d", c.Parser.CacheSize)
	}
	if c.Parser.CacheTTL.Duration <= 0 {
		fail("parser.cache_ttl must be positive, got %s", c.Parser.CacheTTL.Duration)
	}
	if _, err := dslog.ParseLevel(c.Log.Level); err != nil {
		fail("log.level: %v", err)
	}
	if _, err := dslog.ParseFormat(c.Log.Format); err != nil {
		fail("log.format: %v", err)
	}
	if strings.TrimSpace(c.Server.HTTPAddr) == "" {
		fail("server.http_addr must not be empty")
	}
	if c.Server.ReadTimeout.Duration <= 0 {
		fail("server.read_timeout must be positive, got %s", c.Server.ReadTimeout.Duration)
	}
	if c.Server.ShutdownTimeout.Duration <= 0 {
		fail("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout.Duration)
	}
	if c.Store.Enabled && strings.TrimSpace(c.Store.Path) == "" {
		fail("store.path must be set when the store is enabled")
	}
	if c.Store.HistoryLimit < 1 {
		fail("store.history_limit must be positive, got %d", c.Store.HistoryLimit)
	}

	return result
}

// Validate returns a structured error listing every problem, or nil
func (c *Config) Validate() error {
	result := c.Check()
	if result.Valid {
		return nil
	}
	return dserror.Newf("invalid configuration: %s", strings.Join(result.Errors, "; ")).
		WithCode(dserror.CodeInvalidConfig).
		WithOperation("config.Validate").
		WithDetail("errors", result.Errors)
}

// overrides maps configuration keys to setters
func (c *Config) overrides() map[string]func(string) error {
	return map[string]func(string) error{
		"parser.max_depth":        intSetter(&c.Parser.MaxDepth),
		"parser.max_input_length": intSetter(&c.Parser.MaxInputLength),
		"parser.cache_size":       intSetter(&c.Parser.CacheSize),
		"parser.cache_ttl":        durationSetter(&c.Parser.CacheTTL.Duration),
		"log.level":               stringSetter(&c.Log.Level),
		"log.format":              stringSetter(&c.Log.Format),
		"server.http_addr":        stringSetter(&c.Server.HTTPAddr),
		"server.grpc_addr":        stringSetter(&c.Server.GRPCAddr),
		"server.read_timeout":     durationSetter(&c.Server.ReadTimeout.Duration),
		"server.shutdown_timeout": durationSetter(&c.Server.ShutdownTimeout.Duration),
		"store.enabled":           boolSetter(&c.Store.Enabled),
		"store.path":              stringSetter(&c.Store.Path),
		"store.history_limit":     intSetter(&c.Store.HistoryLimit),
	}
}

// ApplyEnv overrides values from environment variables named
// <prefix>_<SECTION>_<KEY>. Unset variables leave the value untouched.
func (c *Config) ApplyEnv(prefix string) error {
	setters := c.overrides()
	keys := make([]string, 0, len(setters))
	for key := range setters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		envKey := formatEnvKey(prefix, key)
		value, ok := os.LookupEnv(envKey)
		if !ok {
			continue
		}
		if err := setters[key](value); err != nil {
			return dserror.Wrap(err, "invalid environment override").
				WithCode(dserror.CodeInvalidConfig).
				WithOperation("config.ApplyEnv").
				WithDetail("variable", envKey)
		}
	}
	return nil
}

// EnvKeys lists the override variable names in key order
func EnvKeys(prefix string) []string {
	keys := make([]string, 0)
	for key := range Default().overrides() {
		keys = append(keys, formatEnvKey(prefix, key))
	}
	sort.Strings(keys)
	return keys
}

// formatEnvKey converts a config key to environment variable format
func formatEnvKey(prefix, key string) string {
	envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if prefix != "" {
		envKey = strings.ToUpper(prefix) + "_" + envKey
	}
	return envKey
}

func stringSetter(target *string) func(string) error {
	return func(value string) error {
		*target = value
		return nil
	}
}

func intSetter(target *int) func(string) error {
	return func(value string) error {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		*target = n
		return nil
	}
}

func boolSetter(target *bool) func(string) error {
	return func(value string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		*target = b
		return nil
	}
}

func durationSetter(target *time.Duration) func(string) error {
	return func(value string) error {
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		*target = d
		return nil
	}
}
