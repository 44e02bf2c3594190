// File: level.go
// Title: Log Level Definitions
// Description: Defines log levels for filtering and controlling log output.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-18
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with standard log levels
// - 2026-10-18 v0.2.0: Dropped audit level, colours moved to the console formatter

package log

import (
	"strings"
)

// Level represents the importance level of a log message
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn // rejected input or degraded operation
	LevelError
	LevelFatal
)

// levelNames holds the long name, the badge and the accepted aliases
var levelNames = [...]struct {
	long, short string
	aliases     []string
}{
	LevelTrace: {"trace", "TRC", []string{"trace", "trc"}},
	LevelDebug: {"debug", "DBG", []string{"debug", "dbg"}},
	LevelInfo:  {"info", "INF", []string{"info", "inf", "information"}},
	LevelWarn:  {"warn", "WRN", []string{"warn", "wrn", "warning"}},
	LevelError: {"error", "ERR", []string{"error", "err"}},
	LevelFatal: {"fatal", "FTL", []string{"fatal", "ftl"}},
}

func (l Level) valid() bool {
	return l >= LevelTrace && l <= LevelFatal
}

// String returns the lower-case level name
func (l Level) String() string {
	if !l.valid() {
		return "unknown"
	}
	return levelNames[l].long
}

// ShortString returns the three-letter badge
func (l Level) ShortString() string {
	if !l.valid() {
		return "???"
	}
	return levelNames[l].short
}

// ShouldLog returns true if this level should be logged given the minimum level
func (l Level) ShouldLog(minLevel Level) bool {
	return l >= minLevel
}

// ParseLevel parses a level name or alias, ignoring case
func ParseLevel(level string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(level))
	for l, names := range levelNames {
		for _, alias := range names.aliases {
			if alias == name {
				return Level(l), nil
			}
		}
	}
	return LevelInfo, &ParseError{Input: level, Type: "level"}
}

// ParseError reports an unknown level or format name
type ParseError struct {
	Input string
	Type  string
}

func (e *ParseError) Error() string {
	return "invalid " + e.Type + ": " + e.Input
}

// DefaultLevel returns the default log level
func DefaultLevel() Level {
	return LevelInfo
}
