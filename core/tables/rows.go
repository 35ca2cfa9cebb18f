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

package tables

import (
	"github.com/google/tidynest/core/columns"
)

// Row is a positional handle on one row of a table, used by Filter.
type Row struct {
	table *DataTable
	index int
}

// Index returns the row position in its table.
func (r Row) Index() int {
	return r.index
}

// GetString returns the display value of the named cell, or "" when the
// table has no such column.
func (r Row) GetString(name string) string {
	col := r.table.GetColumn(name)
	if col == nil {
		return ""
	}
	s, _ := col.GetString(r.index)
	return s
}

// IsNull reports whether the named cell is missing.
func (r Row) IsNull(name string) bool {
	col := r.table.GetColumn(name)
	return col == nil || col.IsNull(r.index)
}

// Float64 returns the named numeric cell as a float64. ok is false for
// nulls, missing columns and non-numeric columns.
func (r Row) Float64(name string) (v float64, ok bool) {
	col := r.table.GetColumn(name)
	if col == nil {
		return 0, false
	}
	return columns.NumericValue(col, r.index)
}

// Filter returns the rows for which keep returns true, in original order.
func (dt *DataTable) Filter(keep func(Row) bool) *DataTable {
	indices := make([]int, 0)
	for i := 0; i < dt.length; i++ {
		if keep(Row{table: dt, index: i}) {
			indices = append(indices, i)
		}
	}
	return dt.Take(indices)
}

// RowStrings returns every row as display strings, in column order.
func (dt *DataTable) RowStrings() [][]string {
	rows := make([][]string, dt.length)
	for i := range rows {
		row := make([]string, len(dt.columns))
		for j, col := range dt.columns {
			s, err := col.GetString(i)
			if err != nil {
				s = columns.ErrorLabel
			}
			row[j] = s
		}
		rows[i] = row
	}
	return rows
}
