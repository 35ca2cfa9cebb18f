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
	"fmt"
	"strings"
)

// BoolColumn stores boolean values.
type BoolColumn struct {
	columnDef *ColumnDef
	values[bool]
}

// NewBoolColumn creates a new boolean column.
func NewBoolColumn(columnDef *ColumnDef) *BoolColumn {
	return &BoolColumn{
		columnDef: columnDef,
		values:    values[bool]{data: make([]bool, 0)},
	}
}

// ColumnDef returns the column definition.
func (c *BoolColumn) ColumnDef() *ColumnDef {
	return c.columnDef
}

// Length returns the number of rows in the column.
func (c *BoolColumn) Length() int {
	return c.length()
}

func (c *BoolColumn) Type() ColumnType {
	return ColumnTypeBool
}

func (c *BoolColumn) IsNull(i int) bool {
	return c.nulls.isNull(i)
}

// Append adds a boolean value to the column.
func (c *BoolColumn) Append(value bool) {
	c.append(value)
}

func (c *BoolColumn) AppendNull() {
	c.appendNull()
}

// ParseBool parses a string to a boolean value.
// Accepts: "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %q", s)
	}
}

// GetValue returns the boolean value at the given index, or ErrNull.
func (c *BoolColumn) GetValue(i int) (bool, error) {
	v, ok, err := c.get(i)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrNull
	}
	return v, nil
}

// GetString returns the string representation of the value at the given index.
func (c *BoolColumn) GetString(i int) (string, error) {
	v, ok, err := c.get(i)
	if err != nil {
		return "", err
	}
	if !ok {
		return NullLabel, nil
	}
	if v {
		return "true", nil
	}
	return "false", nil
}

func (c *BoolColumn) Take(indices []int) IDataColumn {
	return &BoolColumn{columnDef: c.columnDef, values: c.take(indices)}
}

func (c *BoolColumn) WithDef(def *ColumnDef) IDataColumn {
	return &BoolColumn{columnDef: def, values: c.clone()}
}

// GroupIndices groups the given indices by boolean value.
func (c *BoolColumn) GroupIndices(indices []int) ([][]int, error) {
	return groupComparable(&c.values, indices, nil), nil
}

func (c *BoolColumn) concat(def *ColumnDef, others []IDataColumn) (IDataColumn, error) {
	v, err := concatInto(def, &c.values, others, func(o IDataColumn) (*values[bool], bool) {
		bc, ok := o.(*BoolColumn)
		if !ok {
			return nil, false
		}
		return &bc.values, true
	})
	if err != nil {
		return nil, err
	}
	return &BoolColumn{columnDef: def, values: v}, nil
}
