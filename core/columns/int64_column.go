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

import (
	"strconv"
)

// Int64Column stores signed integers such as years or counts.
type Int64Column struct {
	columnDef *ColumnDef
	values[int64]
}

func NewInt64Column(columnDef *ColumnDef) *Int64Column {
	return &Int64Column{
		columnDef: columnDef,
		values:    values[int64]{data: make([]int64, 0)},
	}
}

// NewInt64ColumnFrom creates an int64 column holding a copy of data.
func NewInt64ColumnFrom(columnDef *ColumnDef, data []int64) *Int64Column {
	c := &Int64Column{columnDef: columnDef}
	c.data = append(make([]int64, 0, len(data)), data...)
	return c
}

func (c *Int64Column) Append(value int64) {
	c.append(value)
}

func (c *Int64Column) AppendNull() {
	c.appendNull()
}

func (c *Int64Column) Length() int {
	return c.length()
}

func (c *Int64Column) ColumnDef() *ColumnDef {
	return c.columnDef
}

func (c *Int64Column) Type() ColumnType {
	return ColumnTypeInt64
}

func (c *Int64Column) IsNull(i int) bool {
	return c.nulls.isNull(i)
}

// GetString returns the string representation of the value at index i
func (c *Int64Column) GetString(i int) (string, error) {
	v, ok, err := c.get(i)
	if err != nil {
		return "", err
	}
	if !ok {
		return NullLabel, nil
	}
	return strconv.FormatInt(v, 10), nil
}

// GetValue returns the int64 value at index i, or ErrNull.
func (c *Int64Column) GetValue(i int) (int64, error) {
	v, ok, err := c.get(i)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNull
	}
	return v, nil
}

func (c *Int64Column) Take(indices []int) IDataColumn {
	return &Int64Column{columnDef: c.columnDef, values: c.take(indices)}
}

func (c *Int64Column) WithDef(def *ColumnDef) IDataColumn {
	return &Int64Column{columnDef: def, values: c.clone()}
}

func (c *Int64Column) GroupIndices(indices []int) ([][]int, error) {
	return groupComparable(&c.values, indices, nil), nil
}

func (c *Int64Column) concat(def *ColumnDef, others []IDataColumn) (IDataColumn, error) {
	v, err := concatInto(def, &c.values, others, func(o IDataColumn) (*values[int64], bool) {
		ic, ok := o.(*Int64Column)
		if !ok {
			return nil, false
		}
		return &ic.values, true
	})
	if err != nil {
		return nil, err
	}
	return &Int64Column{columnDef: def, values: v}, nil
}
