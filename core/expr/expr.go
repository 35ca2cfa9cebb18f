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

/*
Package expr evaluates small row expressions over the scalar columns of a
table, for filtering rows and deriving new columns.

It supports:
  - Column references by name (lifeExp), or in backquotes for other names (`I(year - 1952)`)
  - Number, string ("Asia" or 'Asia') and boolean literals, and NA
  - Arithmetic operators: +, -, *, /, % and string concatenation with +
  - Comparison operators: ==, !=, <, >, <=, >=
  - Logical operators: and, or, not (also &&, ||, !)
  - Functions: is_na, abs, sqrt, log, log10, exp, round, lower, upper, if_else, coalesce

Missing values follow R: NA propagates through arithmetic and comparisons,
and and/or use three-valued logic. Filter keeps only rows that evaluate to
true.
*/
package expr

import (
	"fmt"

	"github.com/google/tidynest/core/columns"
	"github.com/google/tidynest/core/tables"
)

// Expression is a parsed expression that is not yet tied to a table.
type Expression struct {
	source string
	ast    node
}

// Compile parses source.
func Compile(source string) (*Expression, error) {
	if source == "" {
		return nil, fmt.Errorf("empty expression")
	}
	ast, err := parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", source, err)
	}
	if err := checkCalls(ast); err != nil {
		return nil, fmt.Errorf("parse %q: %w", source, err)
	}
	return &Expression{source: source, ast: ast}, nil
}

// Source returns the text the expression was compiled from.
func (e *Expression) Source() string {
	return e.source
}

// Columns returns the column names the expression reads.
func (e *Expression) Columns() []string {
	return columnRefs(e.ast)
}

// BoundExpression is an expression whose columns have been resolved against a table.
type BoundExpression struct {
	expr *Expression
	eval evaluator
	rows int
}

// Bind resolves the columns of e in t. Unknown columns and list-columns
// are reported here rather than on the first row.
func (e *Expression) Bind(t *tables.DataTable) (*BoundExpression, error) {
	cols := make(map[string]columns.IDataColumn)
	for _, name := range e.Columns() {
		col := t.GetColumn(name)
		if col == nil {
			return nil, fmt.Errorf("%q: %w: %q", e.source, tables.ErrColumnNotFound, name)
		}
		if col.Type() == columns.ColumnTypeValue {
			return nil, fmt.Errorf("%q: list-column %q cannot be used in an expression", e.source, name)
		}
		cols[name] = col
	}
	return &BoundExpression{expr: e, eval: evaluator{cols: cols}, rows: t.Length()}, nil
}

// Eval evaluates the expression for one row.
func (b *BoundExpression) Eval(row int) (Value, error) {
	if row < 0 || row >= b.rows {
		return na, fmt.Errorf("row %d out of bounds (length: %d)", row, b.rows)
	}
	v, err := b.eval.eval(b.expr.ast, row)
	if err != nil {
		return na, fmt.Errorf("%q at row %d: %w", b.expr.source, row, err)
	}
	return v, nil
}

// Filter returns the rows of t for which source evaluates to true.
// Rows evaluating to NA are dropped; any other non-boolean result is an error.
func Filter(t *tables.DataTable, source string) (*tables.DataTable, error) {
	e, err := Compile(source)
	if err != nil {
		return nil, err
	}
	b, err := e.Bind(t)
	if err != nil {
		return nil, err
	}
	keep := make([]int, 0, t.Length())
	for i := 0; i < t.Length(); i++ {
		v, err := b.Eval(i)
		if err != nil {
			return nil, err
		}
		if v.IsNA() {
			continue
		}
		ok, isBool := v.Bool()
		if !isBool {
			return nil, fmt.Errorf("filter %q: row %d evaluates to %s, not bool", source, i, v.kind)
		}
		if ok {
			keep = append(keep, i)
		}
	}
	return t.Take(keep), nil
}

// Mutate returns t with a column name holding source evaluated on every
// row, replacing an existing column of that name. The column kind follows
// the non-NA results; an all-NA result is a float64 column of nulls.
func Mutate(t *tables.DataTable, name, source string) (*tables.DataTable, error) {
	e, err := Compile(source)
	if err != nil {
		return nil, err
	}
	b, err := e.Bind(t)
	if err != nil {
		return nil, err
	}
	results := make([]Value, t.Length())
	resultKind := kindNA
	for i := range results {
		if results[i], err = b.Eval(i); err != nil {
			return nil, err
		}
		k := results[i].kind
		switch {
		case k == kindNA:
		case resultKind == kindNA:
			resultKind = k
		case k != resultKind:
			return nil, fmt.Errorf("mutate %q: row %d is %s, earlier rows are %s", name, i, k, resultKind)
		}
	}

	def := columns.NewNamedColumnDef(name)
	var col columns.IDataColumn
	switch resultKind {
	case kindString:
		c := columns.NewStringColumn(def)
		for _, v := range results {
			if v.IsNA() {
				c.AppendNull()
			} else {
				c.Append(v.str)
			}
		}
		col = c
	case kindBool:
		c := columns.NewBoolColumn(def)
		for _, v := range results {
			if v.IsNA() {
				c.AppendNull()
			} else {
				c.Append(v.b)
			}
		}
		col = c
	default:
		c := columns.NewFloat64Column(def)
		for _, v := range results {
			if v.IsNA() {
				c.AppendNull()
			} else {
				c.Append(v.num)
			}
		}
		col = c
	}
	return t.WithColumn(col)
}
