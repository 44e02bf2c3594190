// File: error_test.go
// Title: Error Module Tests
// Description: Tests for error creation, wrapping, codes, severity, and JSON
//              serialisation.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-18
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with comprehensive test coverage
// - 2026-10-18 v0.2.0: Front-end codes

package error

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	msg := "test error message"
	err := New(msg)

	if err.Error() != msg {
		t.Errorf("Error() = %q, want %q", err.Error(), msg)
	}
	if err.Code() != CodeUnknown {
		t.Errorf("Code() = %v, want %v", err.Code(), CodeUnknown)
	}
	if err.Severity() != SeverityMedium {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityMedium)
	}
	if err.Timestamp().IsZero() {
		t.Error("Timestamp() should not be zero")
	}
	if len(err.StackTrace()) == 0 {
		t.Error("StackTrace() should not be empty")
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
		wantNil bool
		wantMsg string
	}{
		{name: "wrap nil error", err: nil, message: "ctx", wantNil: true},
		{name: "wrap standard error", err: errors.New("boom"), message: "ctx", wantMsg: "ctx: boom"},
		{name: "wrap structured error", err: New("inner"), message: "outer", wantMsg: "outer: inner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.err, tt.message)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Wrap() = %v, want nil", got)
				}
				return
			}
			if got.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got.Error(), tt.wantMsg)
			}
			if !errors.Is(got, tt.err) {
				t.Error("wrapped error should match cause with errors.Is")
			}
		})
	}
}

func TestWrapInheritsCodeAndDetails(t *testing.T) {
	inner := New("unexpected token").WithCode(CodeSyntax).WithDetail("position", 4)
	outer := Wrap(inner, "parse failed")

	if outer.Code() != CodeSyntax {
		t.Errorf("Code() = %v, want %v", outer.Code(), CodeSyntax)
	}
	if outer.Severity() != SeverityLow {
		t.Errorf("Severity() = %v, want %v", outer.Severity(), SeverityLow)
	}
	if outer.Details()["position"] != 4 {
		t.Errorf("Details()[position] = %v, want 4", outer.Details()["position"])
	}
}

func TestWithCodeSetsSeverity(t *testing.T) {
	tests := []struct {
		code Code
		want Severity
	}{
		{CodeLexical, SeverityLow},
		{CodeSyntax, SeverityLow},
		{CodeDatabaseError, SeverityHigh},
		{CodeInternal, SeverityCritical},
		{CodeUnknown, SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			err := New("x").WithCode(tt.code)
			if err.Severity() != tt.want {
				t.Errorf("Severity() = %v, want %v", err.Severity(), tt.want)
			}
		})
	}

	explicit := New("x").WithSeverity(SeverityCritical).WithCode(CodeSyntax)
	if explicit.Severity() != SeverityCritical {
		t.Error("explicit severity should not be overridden by WithCode")
	}
}

func TestCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeSyntax, 400},
		{CodeLexical, 400},
		{CodeNestingTooDeep, 400},
		{CodeInputTooLarge, 413},
		{CodeNotFound, 404},
		{CodeDatabaseError, 503},
		{CodeInternal, 500},
	}

	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestCodeCategory(t *testing.T) {
	if CodeSyntax.Category() != "language" {
		t.Errorf("Category() = %q, want language", CodeSyntax.Category())
	}
	if CodeInvalidConfig.Category() != "configuration" {
		t.Errorf("Category() = %q, want configuration", CodeInvalidConfig.Category())
	}
	if !CodeNestingTooDeep.IsValid() {
		t.Error("CodeNestingTooDeep should be valid")
	}
	if Code("BOGUS").IsValid() {
		t.Error("unknown code should not be valid")
	}
}

func TestHasCodeAndGetCode(t *testing.T) {
	base := New("bad char").WithCode(CodeLexical)
	wrapped := Wrap(base, "tokenize")

	if !HasCode(wrapped, CodeLexical) {
		t.Error("HasCode() should find code in chain")
	}
	if HasCode(wrapped, CodeSyntax) {
		t.Error("HasCode() should not find absent code")
	}
	if GetCode(errors.New("plain")) != CodeUnknown {
		t.Error("GetCode() of plain error should be CodeUnknown")
	}
	if GetCode(wrapped) != CodeLexical {
		t.Errorf("GetCode() = %v, want %v", GetCode(wrapped), CodeLexical)
	}
}

func TestRootCause(t *testing.T) {
	root := errors.New("root")
	err := Wrap(Wrap(root, "middle"), "outer")
	if err.RootCause() != root {
		t.Errorf("RootCause() = %v, want %v", err.RootCause(), root)
	}
}

func TestMarshalJSON(t *testing.T) {
	err := New("unexpected token").
		WithCode(CodeSyntax).
		WithOperation("parser.Parse").
		WithDetail("position", 3)

	data, marshalErr := json.Marshal(err)
	if marshalErr != nil {
		t.Fatalf("MarshalJSON() error = %v", marshalErr)
	}

	var decoded map[string]interface{}
	if jsonErr := json.Unmarshal(data, &decoded); jsonErr != nil {
		t.Fatalf("invalid JSON: %v", jsonErr)
	}
	if decoded["code"] != "SYNTAX_ERROR" {
		t.Errorf("code = %v, want SYNTAX_ERROR", decoded["code"])
	}
	if decoded["operation"] != "parser.Parse" {
		t.Errorf("operation = %v", decoded["operation"])
	}
	if !strings.Contains(string(data), `"position":3`) {
		t.Errorf("details missing from %s", data)
	}
}
