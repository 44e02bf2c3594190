// File: doc.go
// Title: Logging Package Documentation
// Description: Structured logging for the descent front end.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-18
//
// Change History:
// - 2025-01-24 v0.1.0: Initial documentation
// - 2026-10-18 v0.2.0: Rewritten for the descent front end

/*
Package log provides leveled, structured logging.

Loggers are immutable values configured with With* methods:

	logger := dslog.NewWithConfig(dslog.Config{
		Level:  dslog.LevelDebug,
		Format: dslog.FormatConsole,
		Name:   "descent",
	}).WithField("component", "lang-parser")

	logger.Debug("parse completed", dslog.Fields{"tokens": 12})

Three formats are available: JSON (one object per line), text, and console
(text with a coloured level badge). LogError picks the level from the severity
of a structured error, so rejected programs are logged at info level while
storage failures surface as errors.
*/
package log
