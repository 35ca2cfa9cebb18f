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
	"math"
	"strconv"
)

// Float64Column stores float64 (double) values.
// NaN is a value, distinct from a null cell.
type Float64Column struct {
	columnDef *ColumnDef
	values[float64]
}

// NewFloat64Column creates a new float64 column.
func NewFloat64Column(columnDef *ColumnDef) *Float64Column {
	return &Float64Column{
		columnDef: columnDef,
		values:    values[float64]{data: make([]float64, 0)},
	}
}

// NewFloat64ColumnFrom creates a float64 column holding a copy of data.
func NewFloat64ColumnFrom(columnDef *ColumnDef, data []float64) *Float64Column {
	c := &Float64Column{columnDef: columnDef}
	c.data = append(make([]float64, 0, len(data)), data...)
	return c
}

// ColumnDef returns the column definition.
func (c *Float64Column) ColumnDef() *ColumnDef {
	return c.columnDef
}

// Length returns the number of rows in the column.
func (c *Float64Column) Length() int {
	return c.length()
}

func (c *Float64Column) Type() ColumnType {
	return ColumnTypeFloat64
}

func (c *Float64Column) IsNull(i int) bool {
	return c.nulls.isNull(i)
}

// GetString returns the string representation of the value at the given index.
// Returns "NaN" for NaN values, "+Inf"/"-Inf" for infinities.
func (c *Float64Column) GetString(i int) (string, error) {
	v, ok, err := c.get(i)
	if err != nil {
		return "", err
	}
	if !ok {
		return NullLabel, nil
	}
	return FormatFloat64(v), nil
}

// FormatFloat64 formats a float64 value for display.
// Returns "NaN" for NaN, "+Inf"/"-Inf" for infinities.
func FormatFloat64(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.IsInf(v, 1) {
		return "+Inf"
	}
	if math.IsInf(v, -1) {
		return "-Inf"
	}
	// Use 'g' format for compact representation without trailing zeros
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// GetValue returns the float64 value at the given index, or ErrNull.
func (c *Float64Column) GetValue(i int) (float64, error) {
	v, ok, err := c.get(i)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNull
	}
	return v, nil
}

// Append adds a float64 value to the column.
func (c *Float64Column) Append(value float64) {
	c.append(value)
}

func (c *Float64Column) AppendNull() {
	c.appendNull()
}

func (c *Float64Column) Take(indices []int) IDataColumn {
	return &Float64Column{columnDef: c.columnDef, values: c.take(indices)}
}

func (c *Float64Column) WithDef(def *ColumnDef) IDataColumn {
	return &Float64Column{columnDef: def, values: c.clone()}
}

// GroupIndices groups the given indices by float64 value.
// Note: NaN values are grouped together (even though NaN != NaN mathematically).
func (c *Float64Column) GroupIndices(indices []int) ([][]int, error) {
	return groupComparable(&c.values, indices, math.IsNaN), nil
}

func (c *Float64Column) concat(def *ColumnDef, others []IDataColumn) (IDataColumn, error) {
	v, err := concatInto(def, &c.values, others, func(o IDataColumn) (*values[float64], bool) {
		fc, ok := o.(*Float64Column)
		if !ok {
			return nil, false
		}
		return &fc.values, true
	})
	if err != nil {
		return nil, err
	}
	return &Float64Column{columnDef: def, values: v}, nil
}
