// File: doc.go
// Title: Configuration Management Package Documentation
// Description: Package config loads the descent configuration from TOML or
//              YAML files with defaults, environment overrides and validation.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-18
//
// Change History:
// - 2025-01-25 v0.1.0: Initial implementation with TOML/YAML support
// - 2026-10-18 v0.2.0: Typed configuration for the descent front end

/*
Package config provides configuration management for descent.

The configuration has four sections:

	[parser]  max_depth, max_input_length, cache_size, cache_ttl
	[log]     level, format
	[server]  http_addr, grpc_addr, read_timeout, shutdown_timeout
	[store]   enabled, path, history_limit

Files are TOML (github.com/BurntSushi/toml) or YAML (gopkg.in/yaml.v3); the
format is detected from the extension. Unknown keys are rejected.

# Loading

	cfg, err := config.Load("configs/descent.toml")

Resolve picks the file to load: an explicit path, then $DESCENT_CONFIG, then
the first of descent.{toml,yaml,yml} in ".", "./configs" and
"~/.config/descent". Without any file the defaults are used.

# Environment Overrides

Every key can be overridden by a variable named after it:

	DESCENT_PARSER_MAX_DEPTH=64
	DESCENT_LOG_LEVEL=debug
	DESCENT_SERVER_GRPC_ADDR=:9090
	DESCENT_STORE_ENABLED=true

Overrides apply after defaults and before validation.

# Validation

Check reports every problem found; Validate turns them into a single
structured error with code INVALID_CONFIG.
*/
package config
