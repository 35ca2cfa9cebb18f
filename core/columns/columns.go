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
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NullLabel is the display form of a missing value.
const NullLabel = "NA"

// ErrNotGroupable is returned when grouping is requested on a list-column.
var ErrNotGroupable = errors.New("column cannot be used as a grouping key")

// ErrNull is returned by GetValue for a missing cell.
var ErrNull = errors.New("value is null")

// ColumnType identifies the kind of values a column holds.
type ColumnType int

const (
	ColumnTypeString ColumnType = iota
	ColumnTypeFloat64
	ColumnTypeInt64
	ColumnTypeBool
	// ColumnTypeValue marks a list-column whose cells are opaque Go values.
	ColumnTypeValue
)

func (t ColumnType) String() string {
	switch t {
	case ColumnTypeString:
		return "str"
	case ColumnTypeFloat64:
		return "f64"
	case ColumnTypeInt64:
		return "i64"
	case ColumnTypeBool:
		return "bool"
	case ColumnTypeValue:
		return "list"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

type ColumnDef struct {
	name        string // must not contain any of the following characters: & = : ,
	displayName string
	// entity type of the column, used to mark key columns of a nested table
	entityType string
}

// NewColumnDef creates a new ColumnDef with the given name and display name.
// An empty display name is derived from the column name.
func NewColumnDef(name, displayName, entityType string) *ColumnDef {
	if displayName == "" {
		displayName = defaultDisplayName(name)
	}
	return &ColumnDef{
		name:        name,
		displayName: displayName,
		entityType:  entityType,
	}
}

// NewNamedColumnDef creates a ColumnDef with a derived display name and no entity type.
func NewNamedColumnDef(name string) *ColumnDef {
	return NewColumnDef(name, "", "")
}

// defaultDisplayName turns "gdp_per_cap" into "Gdp Per Cap".
// Casers carry state, so one is built per call.
func defaultDisplayName(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

func (cd *ColumnDef) Name() string {
	return cd.name
}

func (cd *ColumnDef) DisplayName() string {
	return cd.displayName
}

func (cd *ColumnDef) EntityType() string {
	return cd.entityType
}

// Renamed returns a copy of the definition under a new name.
func (cd *ColumnDef) Renamed(name string) *ColumnDef {
	return NewColumnDef(name, "", cd.entityType)
}

// IDataColumn is the read-only view shared by all column kinds.
// Columns are never mutated once they are part of a table; every
// derivation returns a new column.
type IDataColumn interface {
	ColumnDef() *ColumnDef
	Length() int
	Type() ColumnType
	IsNull(i int) bool
	GetString(i int) (string, error)
	// Take returns a new column holding the rows at indices, in order.
	// An index of -1 produces a null cell.
	Take(indices []int) IDataColumn
	// WithDef returns the same data under a different definition.
	WithDef(def *ColumnDef) IDataColumn
	// GroupIndices partitions indices by value. Groups are returned in
	// order of first appearance and each group keeps the input order.
	GroupIndices(indices []int) ([][]int, error)
}

// Summarizer is implemented by cell values that have a short display form,
// such as nested tables.
type Summarizer interface {
	Summary() string
}

// concatenator is implemented by every column kind of this package.
type concatenator interface {
	concat(def *ColumnDef, others []IDataColumn) (IDataColumn, error)
}

// Concat appends columns of the same kind into a new column named by def.
func Concat(def *ColumnDef, cols ...IDataColumn) (IDataColumn, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("concat %q: no columns given", def.Name())
	}
	c, ok := cols[0].(concatenator)
	if !ok {
		return nil, fmt.Errorf("concat %q: unsupported column %T", def.Name(), cols[0])
	}
	return c.concat(def, cols[1:])
}

// NullLike returns an all-null column of n rows with the same kind as col.
func NullLike(col IDataColumn, def *ColumnDef, n int) IDataColumn {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = -1
	}
	return col.Take(indices).WithDef(def)
}

// SameKind reports whether two columns can be concatenated.
func SameKind(a, b IDataColumn) bool {
	if a.Type() != b.Type() {
		return false
	}
	if a.Type() != ColumnTypeValue {
		return true
	}
	return ElemTypeName(a) == ElemTypeName(b)
}

// ElemTypeName returns the Go type held by a list-column, or the scalar kind name.
func ElemTypeName(col IDataColumn) string {
	if v, ok := col.(interface{ ElemType() string }); ok {
		return v.ElemType()
	}
	return col.Type().String()
}

// AllIndices returns 0..n-1.
func AllIndices(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

func checkIndex(i, length int) error {
	if i < 0 || i >= length {
		return fmt.Errorf("index %d out of bounds (length: %d)", i, length)
	}
	return nil
}

// ErrorLabel is displayed in place of a cell that could not be read.
const ErrorLabel = "#ERR"

// NumericValue reads a numeric cell as float64. ok is false for nulls,
// out-of-range indices and non-numeric columns.
func NumericValue(col IDataColumn, i int) (v float64, ok bool) {
	switch c := col.(type) {
	case *Float64Column:
		f, err := c.GetValue(i)
		return f, err == nil
	case *Int64Column:
		n, err := c.GetValue(i)
		return float64(n), err == nil
	default:
		return 0, false
	}
}

// IsNumeric reports whether col holds float64 or int64 values.
func IsNumeric(col IDataColumn) bool {
	t := col.Type()
	return t == ColumnTypeFloat64 || t == ColumnTypeInt64
}
