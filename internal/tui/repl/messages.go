// ============================================================================
// descent - Recursive-Descent Front End
// ============================================================================
//
// Package:     repl
// Description: Message types for async operations in the REPL
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package repl

import (
	"github.com/msto63/descent/internal/frontend"
	"github.com/msto63/descent/internal/store"
)

// Entry is one item in the transcript
type Entry struct {
	Input  string // source or command as typed
	Output string // rendered result
	Failed bool
}

// Message types for tea.Cmd async operations

// analyzedMsg is sent when a source line has been tokenized and parsed
type analyzedMsg struct {
	result *frontend.Result
}

// historyLoadedMsg is sent when recorded runs are loaded from the store
type historyLoadedMsg struct {
	records []*store.Record
	err     error
}

// statsLoadedMsg is sent when history statistics are loaded
type statsLoadedMsg struct {
	stats *store.Statistics
	err   error
}
