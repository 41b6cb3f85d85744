/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package errors defines the machine-readable error codes produced while parsing and
// resolving character, script and patch sources.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Malformed or missing field at a known line.
	CodeParse Code = "PARSE_ERROR"

	// Unrecognized tokens
	CodeInvalidKey  Code = "INVALID_KEY"
	CodeInvalidTeam Code = "INVALID_TEAM"
	CodeInvalidJinx Code = "INVALID_JINX"

	// Dangling ids
	CodeUnknownReference   Code = "UNKNOWN_REFERENCE"
	CodeUnknownCharacter   Code = "UNKNOWN_CHARACTER"
	CodeMissingRequirement Code = "MISSING_REQUIREMENT"

	// Table invariants
	CodeDuplicateID Code = "DUPLICATE_ID"
)

// Sentinels for errors.Is. Only the Code is compared.
var (
	ErrParse              = &Error{Code: CodeParse}
	ErrInvalidKey         = &Error{Code: CodeInvalidKey}
	ErrInvalidTeam        = &Error{Code: CodeInvalidTeam}
	ErrInvalidJinx        = &Error{Code: CodeInvalidJinx}
	ErrUnknownReference   = &Error{Code: CodeUnknownReference}
	ErrUnknownCharacter   = &Error{Code: CodeUnknownCharacter}
	ErrMissingRequirement = &Error{Code: CodeMissingRequirement}
	ErrDuplicateID        = &Error{Code: CodeDuplicateID}
)

// Error carries the source unit and position of a failure.
// Line is 1-based; 0 means the error is not tied to a line.
type Error struct {
	Code    Code
	Source  string
	Line    int
	Field   string
	Value   string
	Message string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Source != "" {
		b.WriteString(" in ")
		b.WriteString(e.Source)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
	}
	if e.Field != "" {
		b.WriteString(" [")
		b.WriteString(e.Field)
		b.WriteString("]")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " (%q)", e.Value)
	}
	return b.String()
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New builds an Error with a formatted message.
func New(code Code, source string, line int, field, format string, args ...any) *Error {
	return &Error{Code: code, Source: source, Line: line, Field: field, Message: fmt.Sprintf(format, args...)}
}

// WithValue returns a copy of e carrying the offending value.
func (e *Error) WithValue(v string) *Error {
	cp := *e
	cp.Value = v
	return &cp
}

// CodeOf returns the Code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
