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

// Package tables provides an immutable, column-oriented DataTable.
// Every derivation (Select, Take, WithColumn, ...) returns a new table and
// leaves its receiver untouched, so tables can be shared freely between
// pipeline stages and goroutines.
package tables

import (
	"errors"
	"fmt"

	"github.com/google/tidynest/core/columns"
)

var (
	ErrColumnNotFound  = errors.New("column not found")
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrLengthMismatch  = errors.New("column length mismatch")
)

type DataTable struct {
	columns []columns.IDataColumn
	index   map[string]int
	length  int
}

// NewDataTable creates a table from columns of equal length with unique names.
func NewDataTable(cols ...columns.IDataColumn) (*DataTable, error) {
	dt := &DataTable{
		columns: make([]columns.IDataColumn, 0, len(cols)),
		index:   make(map[string]int, len(cols)),
	}
	for i, col := range cols {
		name := col.ColumnDef().Name()
		if _, exists := dt.index[name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		if i == 0 {
			dt.length = col.Length()
		} else if col.Length() != dt.length {
			return nil, fmt.Errorf("%w: %q has %d rows, expected %d", ErrLengthMismatch, name, col.Length(), dt.length)
		}
		dt.index[name] = len(dt.columns)
		dt.columns = append(dt.columns, col)
	}
	return dt, nil
}

// Must panics if err is non-nil. It is meant for static data such as fixtures.
func Must(dt *DataTable, err error) *DataTable {
	if err != nil {
		panic(err)
	}
	return dt
}

// Length returns the number of rows.
func (dt *DataTable) Length() int {
	return dt.length
}

// Width returns the number of columns.
func (dt *DataTable) Width() int {
	return len(dt.columns)
}

// GetColumn returns the named column, or nil if the table has no such column.
func (dt *DataTable) GetColumn(name string) columns.IDataColumn {
	if i, ok := dt.index[name]; ok {
		return dt.columns[i]
	}
	return nil
}

func (dt *DataTable) HasColumn(name string) bool {
	_, ok := dt.index[name]
	return ok
}

// Column returns the column at position i.
func (dt *DataTable) Column(i int) columns.IDataColumn {
	return dt.columns[i]
}

// Columns returns the columns in table order.
func (dt *DataTable) Columns() []columns.IDataColumn {
	return append([]columns.IDataColumn(nil), dt.columns...)
}

// GetColumnNames returns column names in table order.
func (dt *DataTable) GetColumnNames() []string {
	names := make([]string, len(dt.columns))
	for i, col := range dt.columns {
		names[i] = col.ColumnDef().Name()
	}
	return names
}

// Summary returns the compact form used when a table sits inside another table's cell.
func (dt *DataTable) Summary() string {
	return fmt.Sprintf("<table [%d x %d]>", dt.length, len(dt.columns))
}

// Select returns a table with only the named columns, in the given order.
func (dt *DataTable) Select(names ...string) (*DataTable, error) {
	cols := make([]columns.IDataColumn, 0, len(names))
	for _, name := range names {
		col := dt.GetColumn(name)
		if col == nil {
			return nil, fmt.Errorf("select: %w: %q", ErrColumnNotFound, name)
		}
		cols = append(cols, col)
	}
	out, err := NewDataTable(cols...)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	if len(cols) == 0 {
		out.length = dt.length
	}
	return out, nil
}

// Drop returns a table without the named columns.
func (dt *DataTable) Drop(names ...string) (*DataTable, error) {
	dropped := make(map[string]bool, len(names))
	for _, name := range names {
		if !dt.HasColumn(name) {
			return nil, fmt.Errorf("drop: %w: %q", ErrColumnNotFound, name)
		}
		dropped[name] = true
	}
	keep := make([]columns.IDataColumn, 0, len(dt.columns))
	for _, col := range dt.columns {
		if !dropped[col.ColumnDef().Name()] {
			keep = append(keep, col)
		}
	}
	return dt.derive(keep, dt.length), nil
}

// Take returns a table holding the rows at indices, in order.
// An index of -1 yields a row of nulls.
func (dt *DataTable) Take(indices []int) *DataTable {
	cols := make([]columns.IDataColumn, len(dt.columns))
	for i, col := range dt.columns {
		cols[i] = col.Take(indices)
	}
	return dt.derive(cols, len(indices))
}

// Slice returns rows [start, end).
func (dt *DataTable) Slice(start, end int) (*DataTable, error) {
	if start < 0 || end > dt.length || start > end {
		return nil, fmt.Errorf("slice [%d:%d] out of range for %d rows", start, end, dt.length)
	}
	indices := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		indices = append(indices, i)
	}
	return dt.Take(indices), nil
}

// WithColumn returns a table with col added at the end, or replacing the
// column of the same name in place.
func (dt *DataTable) WithColumn(col columns.IDataColumn) (*DataTable, error) {
	name := col.ColumnDef().Name()
	if len(dt.columns) > 0 && col.Length() != dt.length {
		return nil, fmt.Errorf("%w: %q has %d rows, expected %d", ErrLengthMismatch, name, col.Length(), dt.length)
	}
	cols := dt.Columns()
	if i, ok := dt.index[name]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return dt.derive(cols, col.Length()), nil
}

// Rename returns a table where column from is called to.
func (dt *DataTable) Rename(from, to string) (*DataTable, error) {
	i, ok := dt.index[from]
	if !ok {
		return nil, fmt.Errorf("rename: %w: %q", ErrColumnNotFound, from)
	}
	if _, clash := dt.index[to]; clash && from != to {
		return nil, fmt.Errorf("rename: %w: %q", ErrDuplicateColumn, to)
	}
	cols := dt.Columns()
	cols[i] = cols[i].WithDef(cols[i].ColumnDef().Renamed(to))
	return dt.derive(cols, dt.length), nil
}

// Recode returns a table where the string column name has its values
// replaced through mapping. Unmapped values pass through unchanged.
func (dt *DataTable) Recode(name string, mapping map[string]string) (*DataTable, error) {
	col := dt.GetColumn(name)
	if col == nil {
		return nil, fmt.Errorf("recode: %w: %q", ErrColumnNotFound, name)
	}
	sc, ok := col.(*columns.StringColumn)
	if !ok {
		return nil, fmt.Errorf("recode: column %q is %s, not str", name, col.Type())
	}
	return dt.WithColumn(sc.Recode(mapping))
}

// derive builds a table from columns already known to be consistent.
func (dt *DataTable) derive(cols []columns.IDataColumn, length int) *DataTable {
	out := &DataTable{
		columns: cols,
		index:   make(map[string]int, len(cols)),
		length:  length,
	}
	for i, col := range cols {
		out.index[col.ColumnDef().Name()] = i
	}
	return out
}
