// File: doc.go
// Title: Error Package Documentation
// Description: Structured errors for the descent front end.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-18
//
// Change History:
// - 2025-01-24 v0.1.0: Initial documentation
// - 2026-10-18 v0.2.0: Rewritten for the descent front end

/*
Package error provides the structured error type used by every layer above the
language core.

An Error carries a Code (LEXICAL_ERROR, SYNTAX_ERROR, CONFIG_ERROR, ...), a
Severity derived from the code unless set explicitly, the operation that
failed and a free-form detail map:

	err := dserror.Wrap(cause, "parse failed").
		WithCode(dserror.CodeSyntax).
		WithOperation("parser.Parse").
		WithDetail("position", 12)

Wrap keeps the cause reachable through errors.Unwrap and errors.As, so callers
can recover the typed errors of the parser package. HTTPStatus maps a code onto
the status used by the HTTP API.
*/
package error
