// ============================================================================
// descent - Recursive-Descent Front End
// ============================================================================
//
// Package:     version
// Description: Build and component version information
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Build information, overridden with -ldflags "-X ...=value"
var (
	Version   = "0.1.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Component versions
const (
	// Language is the version of the accepted grammar
	Language = "1.0.0"

	// Wire is the version of the HTTP, WebSocket and gRPC documents
	Wire = "1.0.0"
)

// Info describes a build
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	Language  string `json:"language"`
	Wire      string `json:"wire"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build information
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		Language:  Language,
		Wire:      Wire,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "language", "parser", "tokenizer":
		return Language
	case "wire", "http", "grpc", "websocket":
		return Wire
	default:
		return Version
	}
}

// String returns a one-line description
func (i Info) String() string {
	return fmt.Sprintf("descent %s (commit %s, built %s, language %s, %s, %s)",
		i.Version, i.Commit, i.BuildDate, i.Language, i.GoVersion, i.Platform)
}
