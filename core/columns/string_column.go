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

package columns

// StringColumn holds categorical or free-text values.
type StringColumn struct {
	columnDef *ColumnDef
	values[string]
}

// NewStringColumn creates a new, empty string column
func NewStringColumn(columnDef *ColumnDef) *StringColumn {
	return &StringColumn{
		columnDef: columnDef,
		values:    values[string]{data: make([]string, 0)},
	}
}

// NewStringColumnFrom creates a string column holding a copy of data.
func NewStringColumnFrom(columnDef *ColumnDef, data []string) *StringColumn {
	c := &StringColumn{columnDef: columnDef}
	c.data = append(make([]string, 0, len(data)), data...)
	return c
}

func (c *StringColumn) Append(value string) {
	c.append(value)
}

func (c *StringColumn) AppendNull() {
	c.appendNull()
}

func (c *StringColumn) Length() int {
	return c.length()
}

func (c *StringColumn) ColumnDef() *ColumnDef {
	return c.columnDef
}

func (c *StringColumn) Type() ColumnType {
	return ColumnTypeString
}

func (c *StringColumn) IsNull(i int) bool {
	return c.nulls.isNull(i)
}

// GetValue returns the value at index i, or ErrNull for a missing cell.
func (c *StringColumn) GetValue(i int) (string, error) {
	v, ok, err := c.get(i)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNull
	}
	return v, nil
}

// GetString returns the string value at index i
func (c *StringColumn) GetString(i int) (string, error) {
	v, ok, err := c.get(i)
	if err != nil {
		return "", err
	}
	if !ok {
		return NullLabel, nil
	}
	return v, nil
}

func (c *StringColumn) Take(indices []int) IDataColumn {
	return &StringColumn{columnDef: c.columnDef, values: c.take(indices)}
}

func (c *StringColumn) WithDef(def *ColumnDef) IDataColumn {
	return &StringColumn{columnDef: def, values: c.clone()}
}

func (c *StringColumn) GroupIndices(indices []int) ([][]int, error) {
	return groupComparable(&c.values, indices, nil), nil
}

func (c *StringColumn) concat(def *ColumnDef, others []IDataColumn) (IDataColumn, error) {
	v, err := concatInto(def, &c.values, others, func(o IDataColumn) (*values[string], bool) {
		sc, ok := o.(*StringColumn)
		if !ok {
			return nil, false
		}
		return &sc.values, true
	})
	if err != nil {
		return nil, err
	}
	return &StringColumn{columnDef: def, values: v}, nil
}

// Recode replaces values found in mapping and leaves every other value,
// including nulls, unchanged.
func (c *StringColumn) Recode(mapping map[string]string) *StringColumn {
	out := &StringColumn{columnDef: c.columnDef}
	out.data = make([]string, len(c.data))
	for i, v := range c.data {
		if repl, ok := mapping[v]; ok && !c.nulls.isNull(i) {
			v = repl
		}
		out.data[i] = v
	}
	if c.nulls != nil {
		out.nulls = append(nullMask(nil), c.nulls...)
	}
	return out
}
