/*
SPDX-License-Identifier: Apache-2.0

Copyright 2025 The Tidynest Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package grouping

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownKey   = errors.New("unknown key column")
	ErrDuplicateKey = errors.New("key column listed twice")
)

// GroupingError is returned when the requested key columns cannot be used
// to group a table.
type GroupingError struct {
	Column    string   // offending key column
	Available []string // columns of the input table
	Err       error
}

func (e *GroupingError) Error() string {
	return fmt.Sprintf("group by %q: %v (available: %s)", e.Column, e.Err, strings.Join(e.Available, ", "))
}

func (e *GroupingError) Unwrap() error {
	return e.Err
}

// SchemaMismatchError is returned by Unnest when nested tables disagree on
// their columns.
type SchemaMismatchError struct {
	Column    string   // list-column being unnested
	Row       int      // parent row of the first disagreeing table (-1 if not row specific)
	Missing   []string // expected columns absent from that table
	Extra     []string // columns not present in the first table
	Conflicts []string // columns present in both with different kinds
}

func (e *SchemaMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing [%s]", strings.Join(e.Missing, ", ")))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, fmt.Sprintf("extra [%s]", strings.Join(e.Extra, ", ")))
	}
	if len(e.Conflicts) > 0 {
		parts = append(parts, fmt.Sprintf("kind conflict [%s]", strings.Join(e.Conflicts, ", ")))
	}
	where := ""
	if e.Row >= 0 {
		where = fmt.Sprintf(" at row %d", e.Row)
	}
	return fmt.Sprintf("unnest %q: schema mismatch%s: %s", e.Column, where, strings.Join(parts, "; "))
}
