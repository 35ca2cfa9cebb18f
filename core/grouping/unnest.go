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
	"fmt"
	"sort"

	"github.com/google/tidynest/core/columns"
	"github.com/google/tidynest/core/tables"
)

type unnestOptions struct {
	union     bool
	keepEmpty bool
}

// UnnestOption configures Unnest.
type UnnestOption func(*unnestOptions)

// WithUnion lets nested tables differ in their column sets. The output has
// the union of all columns in first-seen order and missing cells are null.
// Columns that appear with different kinds are still rejected.
func WithUnion() UnnestOption {
	return func(o *unnestOptions) {
		o.union = true
	}
}

// WithKeepEmpty keeps parent rows whose cell is null or an empty table as a
// single output row with null sub-table cells.
func WithKeepEmpty() UnnestOption {
	return func(o *unnestOptions) {
		o.keepEmpty = true
	}
}

// schemaColumn is one output column of the flattened payload.
type schemaColumn struct {
	name     string
	template columns.IDataColumn
}

// Unnest flattens the list-column of sub-tables named column. Each row of
// each sub-table becomes one output row carrying copies of its parent row's
// other cells; the sub-table columns take the place of the list-column.
// Null cells contribute no rows unless WithKeepEmpty is given. The prototype
// of the list-column, when set, fixes the schema of an input without rows.
func Unnest(t *tables.DataTable, column string, opts ...UnnestOption) (*tables.DataTable, error) {
	var o unnestOptions
	for _, opt := range opts {
		opt(&o)
	}

	nested, err := NestedTables(t, column)
	if err != nil {
		return nil, fmt.Errorf("unnest: %w", err)
	}

	// sub is nil for a kept null cell
	type part struct {
		row int
		sub *tables.DataTable
	}
	parts := make([]part, 0, t.Length())
	for i := 0; i < t.Length(); i++ {
		sub, err := nested.GetValue(i)
		if err != nil || sub == nil {
			if o.keepEmpty {
				parts = append(parts, part{row: i})
			}
			continue
		}
		parts = append(parts, part{row: i, sub: sub})
	}
	height := func(p part) int {
		if p.sub == nil || p.sub.Length() == 0 {
			if o.keepEmpty {
				return 1
			}
			return 0
		}
		return p.sub.Length()
	}

	// Resolve the output schema from the prototype or the first table, then
	// check the others.
	sources := make([]part, 0, len(parts)+1)
	if proto := nested.Prototype(); proto != nil {
		sources = append(sources, part{row: -1, sub: proto})
	}
	for _, p := range parts {
		if p.sub != nil {
			sources = append(sources, p)
		}
	}
	var schema []schemaColumn
	index := map[string]int{}
	for k, p := range sources {
		mismatch := &SchemaMismatchError{Column: column, Row: p.row}
		for _, col := range p.sub.Columns() {
			name := col.ColumnDef().Name()
			j, ok := index[name]
			switch {
			case !ok && k > 0 && !o.union:
				mismatch.Extra = append(mismatch.Extra, name)
			case !ok:
				index[name] = len(schema)
				schema = append(schema, schemaColumn{name: name, template: col})
			case !columns.SameKind(schema[j].template, col):
				mismatch.Conflicts = append(mismatch.Conflicts, name)
			}
		}
		if !o.union {
			for _, sc := range schema {
				if !p.sub.HasColumn(sc.name) {
					mismatch.Missing = append(mismatch.Missing, sc.name)
				}
			}
		}
		if len(mismatch.Extra)+len(mismatch.Missing)+len(mismatch.Conflicts) > 0 {
			sort.Strings(mismatch.Missing)
			return nil, mismatch
		}
	}

	position := 0
	for i, name := range t.GetColumnNames() {
		if name == column {
			position = i
		}
	}
	parent, err := t.Drop(column)
	if err != nil {
		return nil, fmt.Errorf("unnest: %w", err)
	}
	for _, sc := range schema {
		if parent.HasColumn(sc.name) {
			return nil, &SchemaMismatchError{Column: column, Row: -1, Conflicts: []string{sc.name + " (also a parent column)"}}
		}
	}

	// Every parent row is repeated once per row of its sub-table.
	repeat := make([]int, 0)
	for _, p := range parts {
		for r := 0; r < height(p); r++ {
			repeat = append(repeat, p.row)
		}
	}
	repeated := parent.Take(repeat)

	flattened := make([]columns.IDataColumn, 0, len(schema))
	for _, sc := range schema {
		def := sc.template.ColumnDef()
		pieces := make([]columns.IDataColumn, 0, len(parts))
		for _, p := range parts {
			n := height(p)
			if p.sub != nil && p.sub.Length() == n {
				if col := p.sub.GetColumn(sc.name); col != nil {
					pieces = append(pieces, col)
					continue
				}
			}
			pieces = append(pieces, columns.NullLike(sc.template, def, n))
		}
		if len(pieces) == 0 {
			pieces = append(pieces, columns.NullLike(sc.template, def, 0))
		}
		col, err := columns.Concat(def, pieces...)
		if err != nil {
			return nil, fmt.Errorf("unnest: %w", err)
		}
		flattened = append(flattened, col)
	}

	outCols := repeated.Columns()
	outCols = append(outCols[:position], append(flattened, outCols[position:]...)...)
	out, err := tables.NewDataTable(outCols...)
	if err != nil {
		return nil, fmt.Errorf("unnest: %w", err)
	}
	if len(outCols) == 0 {
		return repeated, nil
	}
	return out, nil
}
