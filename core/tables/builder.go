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

	"github.com/google/tidynest/core/columns"
)

// Builder assembles a table row by row. Declare the columns first, then
// call AddRow once per row; nil cells become nulls.
//
//	b := NewBuilder().String("country").Int64("year").Float64("lifeExp")
//	b.AddRow("China", 1952, 44.0)
//	t, err := b.Build()
type Builder struct {
	cols []columns.IDataColumn
	err  error
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) String(name string) *Builder {
	b.cols = append(b.cols, columns.NewStringColumn(columns.NewNamedColumnDef(name)))
	return b
}

func (b *Builder) Float64(name string) *Builder {
	b.cols = append(b.cols, columns.NewFloat64Column(columns.NewNamedColumnDef(name)))
	return b
}

func (b *Builder) Int64(name string) *Builder {
	b.cols = append(b.cols, columns.NewInt64Column(columns.NewNamedColumnDef(name)))
	return b
}

func (b *Builder) Bool(name string) *Builder {
	b.cols = append(b.cols, columns.NewBoolColumn(columns.NewNamedColumnDef(name)))
	return b
}

// AddRow appends one value per declared column. The first error is kept
// and reported by Build; later rows are ignored.
func (b *Builder) AddRow(cells ...any) *Builder {
	if b.err != nil {
		return b
	}
	if len(cells) != len(b.cols) {
		b.err = fmt.Errorf("row has %d cells, expected %d", len(cells), len(b.cols))
		return b
	}
	for i, cell := range cells {
		if err := appendCell(b.cols[i], cell); err != nil {
			b.err = err
			return b
		}
	}
	return b
}

// Build returns the assembled table.
func (b *Builder) Build() (*DataTable, error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewDataTable(b.cols...)
}

func appendCell(col columns.IDataColumn, cell any) error {
	name := col.ColumnDef().Name()
	switch c := col.(type) {
	case *columns.StringColumn:
		switch v := cell.(type) {
		case nil:
			c.AppendNull()
		case string:
			c.Append(v)
		default:
			return fmt.Errorf("column %q: cannot append %T to str", name, cell)
		}
	case *columns.Float64Column:
		switch v := cell.(type) {
		case nil:
			c.AppendNull()
		case float64:
			c.Append(v)
		case int:
			c.Append(float64(v))
		case int64:
			c.Append(float64(v))
		default:
			return fmt.Errorf("column %q: cannot append %T to f64", name, cell)
		}
	case *columns.Int64Column:
		switch v := cell.(type) {
		case nil:
			c.AppendNull()
		case int:
			c.Append(int64(v))
		case int64:
			c.Append(v)
		default:
			return fmt.Errorf("column %q: cannot append %T to i64", name, cell)
		}
	case *columns.BoolColumn:
		switch v := cell.(type) {
		case nil:
			c.AppendNull()
		case bool:
			c.Append(v)
		default:
			return fmt.Errorf("column %q: cannot append %T to bool", name, cell)
		}
	}
	return nil
}
