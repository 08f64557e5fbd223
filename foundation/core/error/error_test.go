// File: error_test.go
// Title: Error Module Tests
// Description: Tests for error creation, wrapping, codes, severity and
//              caller provenance.
// Version: v0.3.0
// Created: 2025-01-24
// Modified: 2026-10-19

package error

import (
	"errors"
	"fmt"
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
	if len(err.stackTrace) == 0 {
		t.Error("stack trace should not be empty")
	}
}

func TestNew_CallerIsRaiser(t *testing.T) {
	err := New("boom")
	file, line := err.Caller()
	if !strings.HasSuffix(file, "error_test.go") {
		t.Errorf("Caller() file = %q, want error_test.go", file)
	}
	if line == 0 {
		t.Error("Caller() line should not be zero")
	}
}

func raiseViaHelper() *Error {
	return NewSkip(1, "from helper")
}

func TestNewSkip_SkipsHelperFrame(t *testing.T) {
	err := raiseViaHelper()
	if fn := err.stackTrace[0].Function; !strings.HasSuffix(fn, "TestNewSkip_SkipsHelperFrame") {
		t.Errorf("first frame = %q, want the test function", fn)
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		message  string
		wantNil  bool
		wantMsg  string
		wantCode Code
	}{
		{name: "wrap nil error", err: nil, message: "wrapper", wantNil: true},
		{
			name:     "wrap standard error",
			err:      errors.New("original error"),
			message:  "wrapper",
			wantMsg:  "wrapper: original error",
			wantCode: CodeUnknown,
		},
		{
			name:     "wrap structured error keeps code",
			err:      New("store failed").WithCode(CodeDatabaseError),
			message:  "wrapper",
			wantMsg:  "wrapper: store failed",
			wantCode: CodeDatabaseError,
		},
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
				t.Errorf("Wrap().Error() = %q, want %q", got.Error(), tt.wantMsg)
			}
			if got.Code() != tt.wantCode {
				t.Errorf("Wrap().Code() = %v, want %v", got.Code(), tt.wantCode)
			}
			if !errors.Is(got, tt.err) {
				t.Error("errors.Is() should find the wrapped error")
			}
		})
	}
}

func TestWithCode_DerivesSeverity(t *testing.T) {
	tests := []struct {
		code Code
		want Severity
	}{
		{CodeSyntaxUser, SeverityLow},
		{CodeBESInternal, SeverityHigh},
		{CodeInternalFatal, SeverityCritical},
		{CodeHandler, SeverityHigh},
		{CodeUnknown, SeverityMedium},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New("x").WithCode(tt.code)
			if err.Severity() != tt.want {
				t.Errorf("Severity() = %v, want %v", err.Severity(), tt.want)
			}
		})
	}
}

func TestGetCode_WalksChain(t *testing.T) {
	inner := New("no such store").WithCode(CodeSyntaxUser)
	outer := fmt.Errorf("dispatch: %w", inner)

	if !HasCode(outer, CodeSyntaxUser) {
		t.Error("HasCode() should see the code through fmt.Errorf wrapping")
	}
	if GetCode(errors.New("plain")) != CodeUnknown {
		t.Error("GetCode() of a plain error should be CodeUnknown")
	}
	if e, _ := As(outer); e.Severity() != SeverityLow {
		t.Errorf("Severity() = %v, want low", e.Severity())
	}
}
