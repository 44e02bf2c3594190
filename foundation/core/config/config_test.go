// File: config_test.go
// Title: Configuration Unit Tests
// Description: Tests for loading TOML and YAML files, defaults, environment
//              overrides, validation and file discovery.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-18
//
// Change History:
// - 2025-01-25 v0.1.0: Initial test suite
// - 2026-10-18 v0.2.0: Tests for the typed configuration

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	dserror "github.com/msto63/descent/foundation/core/error"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"seconds", "30s", 30 * time.Second, false},
		{"minutes", "5m", 5 * time.Minute, false},
		{"complex", "1h30m", 90 * time.Minute, false},
		{"milliseconds", "100ms", 100 * time.Millisecond, false},
		{"invalid", "invalid", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))

			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalText() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && d.Duration != tt.expected {
				t.Errorf("UnmarshalText() = %v, want %v", d.Duration, tt.expected)
			}
		})
	}
}

func TestDuration_YAML(t *testing.T) {
	var holder struct {
		Timeout Duration `yaml:"timeout"`
	}
	if err := yaml.Unmarshal([]byte("timeout: 250ms\n"), &holder); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if holder.Timeout.Duration != 250*time.Millisecond {
		t.Errorf("Expected 250ms, got %v", holder.Timeout.Duration)
	}

	out, err := yaml.Marshal(holder)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(out), "250ms") {
		t.Errorf("Expected 250ms in output, got %q", out)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "descent.toml", `
[parser]
max_depth = 64

[log]
level = "debug"
format = "json"

[server]
http_addr = ":8081"
grpc_addr = ":9091"
read_timeout = "5s"

[store]
enabled = true
path = "/tmp/history.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Parser.MaxDepth != 64 {
		t.Errorf("Expected max_depth 64, got %d", cfg.Parser.MaxDepth)
	}
	if cfg.Parser.MaxInputLength != 1<<20 {
		t.Errorf("Expected default max_input_length, got %d", cfg.Parser.MaxInputLength)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Unexpected log config %+v", cfg.Log)
	}
	if cfg.Server.GRPCAddr != ":9091" || cfg.Server.ReadTimeout.Duration != 5*time.Second {
		t.Errorf("Unexpected server config %+v", cfg.Server)
	}
	if cfg.Server.ShutdownTimeout.Duration != 10*time.Second {
		t.Errorf("Expected default shutdown timeout, got %v", cfg.Server.ShutdownTimeout.Duration)
	}
	if !cfg.Store.Enabled || cfg.Store.Path != "/tmp/history.db" || cfg.Store.HistoryLimit != 100 {
		t.Errorf("Unexpected store config %+v", cfg.Store)
	}
	if cfg.FilePath() != path || cfg.Format() != FormatTOML {
		t.Errorf("Expected %s as toml, got %s as %s", path, cfg.FilePath(), cfg.Format())
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "descent.yml", `
parser:
  max_input_length: 512
log:
  level: warn
server:
  shutdown_timeout: 3s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Format() != FormatYAML {
		t.Errorf("Expected yaml format, got %s", cfg.Format())
	}
	if cfg.Parser.MaxInputLength != 512 || cfg.Parser.MaxDepth != 256 {
		t.Errorf("Unexpected parser config %+v", cfg.Parser)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "console" {
		t.Errorf("Unexpected log config %+v", cfg.Log)
	}
	if cfg.Server.ShutdownTimeout.Duration != 3*time.Second {
		t.Errorf("Expected 3s, got %v", cfg.Server.ShutdownTimeout.Duration)
	}
}

func TestLoad_ExampleFiles(t *testing.T) {
	for _, name := range []string{"descent.toml", "descent.yaml"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(filepath.Join("..", "..", "..", "configs", name))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.Parser.MaxDepth != 256 {
				t.Errorf("Expected max_depth 256, got %d", cfg.Parser.MaxDepth)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
		code dserror.Code
	}{
		{"Empty path", "", dserror.CodeMissingConfig},
		{"Missing file", filepath.Join(dir, "missing.toml"), dserror.CodeMissingConfig},
		{"Unknown TOML key", writeFile(t, dir, "unknown.toml", "[parser]\ndepth = 3\n"), dserror.CodeInvalidConfig},
		{"Unknown YAML key", writeFile(t, dir, "unknown.yaml", "parser:\n  depth: 3\n"), dserror.CodeInvalidConfig},
		{"Malformed TOML", writeFile(t, dir, "bad.toml", "[parser\n"), dserror.CodeInvalidConfig},
		{"Bad duration", writeFile(t, dir, "duration.toml", "[server]\nread_timeout = \"soon\"\n"), dserror.CodeInvalidConfig},
		{"Invalid value", writeFile(t, dir, "invalid.toml", "[log]\nlevel = \"loud\"\n"), dserror.CodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !dserror.HasCode(err, tt.code) {
				t.Errorf("Expected code %s, got %s (%v)", tt.code, dserror.GetCode(err), err)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected defaults to validate, got %v", err)
	}
	if cfg.Store.Enabled {
		t.Error("Expected store to be disabled by default")
	}
	if cfg.Server.GRPCAddr != "" {
		t.Errorf("Expected gRPC to be disabled by default, got %q", cfg.Server.GRPCAddr)
	}

	empty, err := LoadFromString("", FormatYAML)
	if err != nil {
		t.Fatalf("Expected empty YAML to load, got %v", err)
	}
	if empty.Parser != cfg.Parser || empty.Log != cfg.Log {
		t.Errorf("Expected empty YAML to yield defaults, got %+v", empty)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DESCENT_PARSER_MAX_DEPTH", "32")
	t.Setenv("DESCENT_LOG_LEVEL", "trace")
	t.Setenv("DESCENT_SERVER_READ_TIMEOUT", "2s")
	t.Setenv("DESCENT_STORE_ENABLED", "true")

	cfg, err := LoadFromString("[parser]\nmax_depth = 100\n", FormatTOML)
	if err != nil {
		t.Fatalf("LoadFromString failed: %v", err)
	}
	if cfg.Parser.MaxDepth != 32 {
		t.Errorf("Expected override 32, got %d", cfg.Parser.MaxDepth)
	}
	if cfg.Log.Level != "trace" {
		t.Errorf("Expected trace, got %s", cfg.Log.Level)
	}
	if cfg.Server.ReadTimeout.Duration != 2*time.Second {
		t.Errorf("Expected 2s, got %v", cfg.Server.ReadTimeout.Duration)
	}
	if !cfg.Store.Enabled {
		t.Error("Expected store to be enabled")
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	t.Setenv("DESCENT_STORE_HISTORY_LIMIT", "many")

	err := Default().ApplyEnv(EnvPrefix)
	if !dserror.HasCode(err, dserror.CodeInvalidConfig) {
		t.Fatalf("Expected invalid config error, got %v", err)
	}
	var structured *dserror.Error
	if e, ok := err.(*dserror.Error); ok {
		structured = e
	}
	if structured == nil || structured.Details()["variable"] != "DESCENT_STORE_HISTORY_LIMIT" {
		t.Errorf("Expected variable detail, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	cfg := Default()
	cfg.Parser.MaxDepth = 0
	cfg.Log.Format = "xml"
	cfg.Server.HTTPAddr = " "
	cfg.Store.Enabled = true
	cfg.Store.Path = ""

	result := cfg.Check()
	if result.Valid {
		t.Fatal("Expected invalid configuration")
	}
	if len(result.Errors) != 4 {
		t.Errorf("Expected 4 problems, got %d: %v", len(result.Errors), result.Errors)
	}
	if err := cfg.Validate(); !dserror.HasCode(err, dserror.CodeInvalidConfig) {
		t.Errorf("Expected invalid config error, got %v", err)
	}
}

func TestEnvKeys(t *testing.T) {
	keys := EnvKeys(EnvPrefix)
	if len(keys) != 13 {
		t.Errorf("Expected 13 override variables, got %d", len(keys))
	}
	found := false
	for _, key := range keys {
		if key == "DESCENT_PARSER_MAX_DEPTH" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected DESCENT_PARSER_MAX_DEPTH in %v", keys)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	options := DiscoveryOptions{
		Paths:      []string{filepath.Join(dir, "missing"), dir},
		Filenames:  []string{"descent"},
		Extensions: []string{".toml", ".yaml"},
	}

	if got := len(ListPossibleConfigFiles(options)); got != 4 {
		t.Errorf("Expected 4 candidates, got %d", got)
	}

	cfg, err := Discover(options)
	if err != nil {
		t.Fatalf("Expected defaults without a file, got %v", err)
	}
	if cfg.FilePath() != "" {
		t.Errorf("Expected no file path, got %s", cfg.FilePath())
	}

	options.Required = true
	if _, err := Discover(options); !dserror.HasCode(err, dserror.CodeMissingConfig) {
		t.Errorf("Expected missing config error, got %v", err)
	}

	path := writeFile(t, dir, "descent.yaml", "parser:\n  max_depth: 12\n")
	cfg, err = Discover(options)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if cfg.FilePath() != path || cfg.Parser.MaxDepth != 12 {
		t.Errorf("Expected %s with max_depth 12, got %s with %d", path, cfg.FilePath(), cfg.Parser.MaxDepth)
	}
}

func TestResolve(t *testing.T) {
	path := writeFile(t, t.TempDir(), "custom.toml", "[store]\nhistory_limit = 7\n")
	t.Setenv(PathEnv, path)

	cfg, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cfg.Store.HistoryLimit != 7 {
		t.Errorf("Expected history_limit 7, got %d", cfg.Store.HistoryLimit)
	}
}
