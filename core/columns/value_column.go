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
	"reflect"
)

// ValueColumn is a list-column: each cell holds an arbitrary Go value such
// as a nested table or a fitted model. The table layer treats the values as
// opaque; only their display form is inspected.
type ValueColumn[T any] struct {
	columnDef *ColumnDef
	values[T]
	// prototype stands in for the cells when there are none, e.g. the
	// empty sub-table that gives an empty nested table its schema
	prototype T
}

// NewValueColumn creates a new, empty list-column.
func NewValueColumn[T any](columnDef *ColumnDef) *ValueColumn[T] {
	return &ValueColumn[T]{
		columnDef: columnDef,
		values:    values[T]{data: make([]T, 0)},
	}
}

// NewValueColumnFrom creates a list-column holding a copy of data.
func NewValueColumnFrom[T any](columnDef *ColumnDef, data []T) *ValueColumn[T] {
	c := &ValueColumn[T]{columnDef: columnDef}
	c.data = append(make([]T, 0, len(data)), data...)
	return c
}

// SetPrototype records a value describing the shape of the cells. It is
// kept by Take and WithDef.
func (c *ValueColumn[T]) SetPrototype(p T) {
	c.prototype = p
}

// Prototype returns the value set by SetPrototype, or the zero value.
func (c *ValueColumn[T]) Prototype() T {
	return c.prototype
}

func (c *ValueColumn[T]) Append(value T) {
	c.append(value)
}

func (c *ValueColumn[T]) AppendNull() {
	c.appendNull()
}

func (c *ValueColumn[T]) ColumnDef() *ColumnDef {
	return c.columnDef
}

func (c *ValueColumn[T]) Length() int {
	return c.length()
}

func (c *ValueColumn[T]) Type() ColumnType {
	return ColumnTypeValue
}

// ElemType returns the name of the Go type held in the cells.
func (c *ValueColumn[T]) ElemType() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

func (c *ValueColumn[T]) IsNull(i int) bool {
	return c.nulls.isNull(i)
}

// GetValue returns the cell at index i, or ErrNull.
func (c *ValueColumn[T]) GetValue(i int) (T, error) {
	v, ok, err := c.get(i)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, ErrNull
	}
	return v, nil
}

// GetString returns a short description of the cell, never its full contents.
func (c *ValueColumn[T]) GetString(i int) (string, error) {
	v, ok, err := c.get(i)
	if err != nil {
		return "", err
	}
	if !ok {
		return NullLabel, nil
	}
	switch x := any(v).(type) {
	case Summarizer:
		if isNilPointer(x) {
			return NullLabel, nil
		}
		return x.Summary(), nil
	case error:
		return x.Error(), nil
	case fmt.Stringer:
		return x.String(), nil
	default:
		return fmt.Sprintf("<%s>", c.ElemType()), nil
	}
}

func (c *ValueColumn[T]) Take(indices []int) IDataColumn {
	return &ValueColumn[T]{columnDef: c.columnDef, values: c.take(indices), prototype: c.prototype}
}

func (c *ValueColumn[T]) WithDef(def *ColumnDef) IDataColumn {
	return &ValueColumn[T]{columnDef: def, values: c.clone(), prototype: c.prototype}
}

// GroupIndices always fails: list-column cells have no value identity.
func (c *ValueColumn[T]) GroupIndices(indices []int) ([][]int, error) {
	return nil, fmt.Errorf("%w: %q holds %s", ErrNotGroupable, c.columnDef.Name(), c.ElemType())
}

func (c *ValueColumn[T]) concat(def *ColumnDef, others []IDataColumn) (IDataColumn, error) {
	v, err := concatInto(def, &c.values, others, func(o IDataColumn) (*values[T], bool) {
		vc, ok := o.(*ValueColumn[T])
		if !ok {
			return nil, false
		}
		return &vc.values, true
	})
	if err != nil {
		return nil, err
	}
	return &ValueColumn[T]{columnDef: def, values: v, prototype: c.prototype}, nil
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
