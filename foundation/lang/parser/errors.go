// File: errors.go
// Title: Front-End Error Types
// Description: Typed errors raised by the tokenizer and the grammar rules.
//              Each carries the offending offset and exposes the structured
//              error code used by the logging and API layers.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v0.1.0: Initial implementation

package parser

import (
	"errors"
	"fmt"
	"strings"

	dserror "github.com/msto63/descent/foundation/core/error"
)

// LexError reports a position where no token could be formed
type LexError struct {
	Position int
	Char     rune
	Reason   string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexical error at offset %d: %s %q", e.Position, e.Reason, e.Char)
}

// Code returns the structured error code
func (e *LexError) Code() dserror.Code { return dserror.CodeLexical }

// ParseError reports a token that no grammar alternative accepts
type ParseError struct {
	Expected []Tag
	Actual   Token
	Message  string
}

func (e *ParseError) Error() string {
	expected := make([]string, len(e.Expected))
	for i, tag := range e.Expected {
		expected[i] = fmt.Sprintf("%q", string(tag))
	}
	return fmt.Sprintf("syntax error at offset %d: %s: expected %s, got %s",
		e.Actual.Position, e.Message, strings.Join(expected, " or "), describe(e.Actual))
}

// Code returns the structured error code
func (e *ParseError) Code() dserror.Code { return dserror.CodeSyntax }

// NestingError reports input nested deeper than the configured limit
type NestingError struct {
	Limit int
	Token Token
}

func (e *NestingError) Error() string {
	return fmt.Sprintf("nesting deeper than %d levels at offset %d", e.Limit, e.Token.Position)
}

// Code returns the structured error code
func (e *NestingError) Code() dserror.Code { return dserror.CodeNestingTooDeep }

// ErrorPosition returns the source offset carried by a front-end error
// anywhere in err's chain.
func ErrorPosition(err error) (int, bool) {
	var lexErr *LexError
	if errors.As(err, &lexErr) {
		return lexErr.Position, true
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Actual.Position, true
	}
	var nestErr *NestingError
	if errors.As(err, &nestErr) {
		return nestErr.Token.Position, true
	}
	return 0, false
}

func describe(t Token) string {
	switch t.Tag {
	case TagEnd:
		return "end of input"
	case TagNumber, TagIdentifier:
		return fmt.Sprintf("%s %q", t.Tag, t.Lexeme())
	case "":
		return "no token"
	default:
		return fmt.Sprintf("%q", string(t.Tag))
	}
}

func unexpected(t Token, message string, expected ...Tag) *ParseError {
	return &ParseError{Expected: expected, Actual: t, Message: message}
}
