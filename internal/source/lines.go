/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package source parses the line-oriented character, script and patch source units.
//
// Every unit starts with a fixed header (one value per line) followed by keyword lines.
// A keyword line is either a bare keyword, a block keyword that consumes the following
// lines up to a blank line, or a "key value" pair split at the first space.
package source

import (
	"bufio"
	"strings"

	"scriptgen/internal/domain"
	apperrors "scriptgen/internal/errors"
)

// Unit is one source file. ID is the lowercased file stem for characters and patches and
// the file name for scripts; it is used as the error source.
type Unit struct {
	ID   string
	Path string
	Text string
}

// lineReader walks a unit line by line and tracks the 1-based line number.
type lineReader struct {
	sc     *bufio.Scanner
	unit   string
	lineNo int
	line   string
}

func newLineReader(u Unit) *lineReader {
	sc := bufio.NewScanner(strings.NewReader(u.Text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &lineReader{sc: sc, unit: u.ID}
}

func (r *lineReader) next() bool {
	if !r.sc.Scan() {
		return false
	}
	r.lineNo++
	r.line = strings.TrimRight(r.sc.Text(), "\r")
	return true
}

// header reads one mandatory header line.
func (r *lineReader) header(field string) (string, error) {
	if !r.next() {
		return "", r.errf(apperrors.CodeParse, field, "missing %s", field)
	}
	return r.line, nil
}

// block consumes lines until a blank line or end of input.
func (r *lineReader) block() []string {
	var out []string
	for r.next() {
		if strings.TrimSpace(r.line) == "" {
			break
		}
		out = append(out, r.line)
	}
	return out
}

func (r *lineReader) errf(code apperrors.Code, field, format string, args ...any) *apperrors.Error {
	return apperrors.New(code, r.unit, r.lineNo, field, format, args...)
}

func (r *lineReader) err() error {
	if err := r.sc.Err(); err != nil {
		return r.errf(apperrors.CodeParse, "", "read: %v", err)
	}
	return nil
}

// jinx parses `<id> <reason>`. Both parts must be present.
func (r *lineReader) jinx(value string) (domain.Jinx, error) {
	other, reason, _ := strings.Cut(value, " ")
	reason = strings.TrimSpace(reason)
	if other == "" || reason == "" {
		return domain.Jinx{}, r.errf(apperrors.CodeInvalidJinx, "jinx", "jinx needs an id and a reason").WithValue(value)
	}
	return domain.Jinx{ID: other, Reason: reason}, nil
}

// splitKey splits a keyword line at the first space. ok is false for bare keywords.
func splitKey(line string) (key, value string, ok bool) {
	return strings.Cut(line, " ")
}
