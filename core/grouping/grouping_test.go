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

package grouping

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/tidynest/core/columns"
	"github.com/google/tidynest/core/tables"
)

func sampleTable(t *testing.T) *tables.DataTable {
	t.Helper()
	dt, err := tables.NewBuilder().
		String("continent").
		String("country").
		Int64("year").
		Float64("lifeExp").
		AddRow("Asia", "China", 1950, 44.0).
		AddRow("Europe", "France", 1950, 67.0).
		AddRow("Asia", "Japan", 1950, 60.0).
		AddRow("Asia", "China", 1960, 50.0).
		AddRow("Asia", "Japan", 1960, 68.0).
		AddRow(nil, "Atlantis", 1950, 99.0).
		Build()
	require.NoError(t, err)
	return dt
}

func cells(t *testing.T, dt *tables.DataTable, name string) []string {
	t.Helper()
	col := dt.GetColumn(name)
	require.NotNil(t, col, "column %q", name)
	out := make([]string, col.Length())
	for i := range out {
		s, err := col.GetString(i)
		require.NoError(t, err)
		out[i] = s
	}
	return out
}

func TestGroupByHierarchicalOrder(t *testing.T) {
	gt, err := GroupBy(sampleTable(t), "continent", "country")
	require.NoError(t, err)

	require.Equal(t, 4, gt.NumGroups())
	var got [][]int
	for _, g := range gt.Groups() {
		got = append(got, g.Indices)
	}
	assert.Equal(t, [][]int{{0, 3}, {2, 4}, {1}, {5}}, got)

	assert.Equal(t, []string{"Asia", "China"}, gt.KeyStrings(gt.Groups()[0]))
	assert.Equal(t, []string{columns.NullLabel, "Atlantis"}, gt.KeyStrings(gt.Groups()[3]))
	assert.Equal(t, 4, gt.Root().Height())
	assert.Equal(t, 2, gt.Root().ChildBlock.Groups[0].Height())
}

func TestGroupByCompleteness(t *testing.T) {
	dt := sampleTable(t)
	gt, err := GroupBy(dt, "country")
	require.NoError(t, err)

	seen := make([]int, dt.Length())
	for _, g := range gt.Groups() {
		require.NotEmpty(t, g.Indices)
		for _, i := range g.Indices {
			seen[i]++
		}
	}
	for i, n := range seen {
		assert.Equal(t, 1, n, "row %d", i)
	}
}

func TestGroupByNoKeys(t *testing.T) {
	dt := sampleTable(t)
	gt, err := GroupBy(dt)
	require.NoError(t, err)
	require.Equal(t, 1, gt.NumGroups())
	assert.Equal(t, columns.AllIndices(dt.Length()), gt.Groups()[0].Indices)

	nested, err := gt.Nest("")
	require.NoError(t, err)
	assert.Equal(t, 1, nested.Length())
	assert.Equal(t, []string{DefaultPayload}, nested.GetColumnNames())
}

func TestGroupByErrors(t *testing.T) {
	dt := sampleTable(t)

	tests := []struct {
		name string
		keys []string
		want error
	}{
		{"unknown", []string{"continent", "gdp"}, ErrUnknownKey},
		{"duplicate", []string{"country", "country"}, ErrDuplicateKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GroupBy(dt, tt.keys...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			var ge *GroupingError
			require.True(t, errors.As(err, &ge))
			assert.Equal(t, dt.GetColumnNames(), ge.Available)
		})
	}

	nested, err := Nest(dt, "country")
	require.NoError(t, err)
	_, err = GroupBy(nested, DefaultPayload)
	assert.ErrorIs(t, err, columns.ErrNotGroupable)
}

func TestNest(t *testing.T) {
	nested, err := Nest(sampleTable(t), "continent", "country")
	require.NoError(t, err)

	assert.Equal(t, 4, nested.Length())
	assert.Equal(t, []string{"continent", "country", DefaultPayload}, nested.GetColumnNames())
	assert.Equal(t, []string{"Asia", "Asia", "Europe", columns.NullLabel}, cells(t, nested, "continent"))
	assert.Equal(t, KeyEntityType, nested.GetColumn("country").ColumnDef().EntityType())

	data, err := NestedTables(nested, DefaultPayload)
	require.NoError(t, err)
	china, err := data.GetValue(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"year", "lifeExp"}, china.GetColumnNames())
	assert.Equal(t, []string{"1950", "1960"}, cells(t, china, "year"))
	assert.Equal(t, "<table [2 x 2]>", cells(t, nested, DefaultPayload)[0])

	_, err = NestedTables(nested, "country")
	assert.Error(t, err)

	gt, err := GroupBy(sampleTable(t), "country")
	require.NoError(t, err)
	_, err = gt.Nest("country")
	assert.ErrorIs(t, err, tables.ErrDuplicateColumn)
}

func TestNestUnnestRoundTrip(t *testing.T) {
	dt := sampleTable(t)
	nested, err := Nest(dt, "country")
	require.NoError(t, err)

	flat, err := Unnest(nested, DefaultPayload)
	require.NoError(t, err)
	require.Equal(t, dt.Length(), flat.Length())
	assert.Equal(t, []string{"country", "continent", "year", "lifeExp"}, flat.GetColumnNames())

	// Same rows, ordered by group
	assert.Equal(t, []string{"China", "China", "France", "Japan", "Japan", "Atlantis"}, cells(t, flat, "country"))
	assert.Equal(t, []string{"44", "50", "67", "60", "68", "99"}, cells(t, flat, "lifeExp"))
	assert.Equal(t, []string{"Asia", "Asia", "Europe", "Asia", "Asia", columns.NullLabel}, cells(t, flat, "continent"))
}

func TestNestUnnestRoundTripEmpty(t *testing.T) {
	nested, err := Nest(sampleTable(t).Take(nil), "country")
	require.NoError(t, err)
	require.Equal(t, 0, nested.Length())

	flat, err := Unnest(nested, DefaultPayload)
	require.NoError(t, err)
	assert.Equal(t, 0, flat.Length())
	assert.Equal(t, []string{"country", "continent", "year", "lifeExp"}, flat.GetColumnNames())
	assert.Equal(t, columns.ColumnTypeFloat64, flat.GetColumn("lifeExp").Type())
}

func TestUnnestKeepEmpty(t *testing.T) {
	first, err := tables.NewBuilder().String("term").Float64("estimate").
		AddRow("x", 1.0).
		AddRow("y", 2.0).
		Build()
	require.NoError(t, err)
	nested := nestedOf(t, first, nil, first.Take(nil))

	out, err := Unnest(nested, "data")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a"}, cells(t, out, "key"))

	out, err = Unnest(nested, "data", WithKeepEmpty())
	require.NoError(t, err)
	assert.Equal(t, []string{"key", "term", "estimate"}, out.GetColumnNames())
	assert.Equal(t, []string{"a", "a", "b", "c"}, cells(t, out, "key"))
	assert.Equal(t, []string{"x", "y", columns.NullLabel, columns.NullLabel}, cells(t, out, "term"))
	assert.Equal(t, []string{"1", "2", columns.NullLabel, columns.NullLabel}, cells(t, out, "estimate"))
}

func nestedOf(t *testing.T, subs ...*tables.DataTable) *tables.DataTable {
	t.Helper()
	keys := columns.NewStringColumn(columns.NewNamedColumnDef("key"))
	data := columns.NewValueColumn[*tables.DataTable](columns.NewNamedColumnDef("data"))
	for i, sub := range subs {
		keys.Append(string(rune('a' + i)))
		if sub == nil {
			data.AppendNull()
			continue
		}
		data.Append(sub)
	}
	out, err := tables.NewDataTable(keys, data)
	require.NoError(t, err)
	return out
}

func TestUnnestSchemaMismatch(t *testing.T) {
	first, err := tables.NewBuilder().String("term").Float64("estimate").AddRow("x", 1.0).Build()
	require.NoError(t, err)
	second, err := tables.NewBuilder().String("term").Float64("p_value").AddRow("y", 0.5).Build()
	require.NoError(t, err)

	_, err = Unnest(nestedOf(t, first, second), "data")
	var mismatch *SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 1, mismatch.Row)
	assert.Equal(t, []string{"estimate"}, mismatch.Missing)
	assert.Equal(t, []string{"p_value"}, mismatch.Extra)

	out, err := Unnest(nestedOf(t, first, nil, second), "data", WithUnion())
	require.NoError(t, err)
	assert.Equal(t, []string{"key", "term", "estimate", "p_value"}, out.GetColumnNames())
	assert.Equal(t, []string{"a", "c"}, cells(t, out, "key"))
	assert.Equal(t, []string{"1", columns.NullLabel}, cells(t, out, "estimate"))
	assert.Equal(t, []string{columns.NullLabel, "0.5"}, cells(t, out, "p_value"))
}

func TestUnnestKindConflict(t *testing.T) {
	first, err := tables.NewBuilder().Float64("x").AddRow(1.0).Build()
	require.NoError(t, err)
	second, err := tables.NewBuilder().String("x").AddRow("1").Build()
	require.NoError(t, err)

	for _, opts := range [][]UnnestOption{nil, {WithUnion()}} {
		_, err := Unnest(nestedOf(t, first, second), "data", opts...)
		var mismatch *SchemaMismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, []string{"x"}, mismatch.Conflicts)
	}
}

func TestUnnestParentClash(t *testing.T) {
	sub, err := tables.NewBuilder().String("key").AddRow("z").Build()
	require.NoError(t, err)
	_, err = Unnest(nestedOf(t, sub), "data")
	var mismatch *SchemaMismatchError
	assert.True(t, errors.As(err, &mismatch))
}

func TestUnnestNotAListColumn(t *testing.T) {
	_, err := Unnest(sampleTable(t), "country")
	assert.Error(t, err)
	_, err = Unnest(sampleTable(t), "missing")
	assert.ErrorIs(t, err, tables.ErrColumnNotFound)
}
