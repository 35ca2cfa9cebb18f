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
	"fmt"
	"strings"
	"unicode/utf8"
)

// String renders the table as an ASCII grid with a header row and a row of
// column kinds, for example:
//
//	# table [1 x 2]
//	| country | data            |
//	| <str>   | <list>          |
//	|---------|-----------------|
//	| China   | <table [2 x 2]> |
func (dt *DataTable) String() string {
	return dt.ToAscii(0)
}

// ToAscii renders at most maxRows rows (all rows when maxRows <= 0).
func (dt *DataTable) ToAscii(maxRows int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# table [%d x %d]\n", dt.length, len(dt.columns))
	if len(dt.columns) == 0 {
		return sb.String()
	}

	shown := dt.length
	if maxRows > 0 && maxRows < shown {
		shown = maxRows
	}

	header := make([]string, len(dt.columns))
	kinds := make([]string, len(dt.columns))
	for j, col := range dt.columns {
		header[j] = col.ColumnDef().Name()
		kinds[j] = "<" + col.Type().String() + ">"
	}
	rows := dt.RowStrings()[:shown]

	// Calculate column widths
	widths := make([]int, len(dt.columns))
	for j := range dt.columns {
		widths[j] = max(utf8.RuneCountInString(header[j]), utf8.RuneCountInString(kinds[j]))
		for _, row := range rows {
			widths[j] = max(widths[j], utf8.RuneCountInString(row[j]))
		}
	}

	writeLine := func(cells []string) {
		for j, cell := range cells {
			sb.WriteString("| ")
			sb.WriteString(cell)
			sb.WriteString(strings.Repeat(" ", widths[j]-utf8.RuneCountInString(cell)+1))
		}
		sb.WriteString("|\n")
	}

	writeLine(header)
	writeLine(kinds)
	for j := range dt.columns {
		sb.WriteString("|")
		sb.WriteString(strings.Repeat("-", widths[j]+2))
	}
	sb.WriteString("|\n")
	for _, row := range rows {
		writeLine(row)
	}
	if shown < dt.length {
		fmt.Fprintf(&sb, "# ... with %d more rows\n", dt.length-shown)
	}
	return sb.String()
}
