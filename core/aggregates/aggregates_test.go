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

package aggregates

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/tidynest/core/columns"
	"github.com/google/tidynest/core/grouping"
	"github.com/google/tidynest/core/tables"
)

func estimates(t *testing.T) *tables.DataTable {
	t.Helper()
	dt, err := tables.NewBuilder().
		String("term").
		String("country").
		Float64("estimate").
		AddRow("intercept", "China", 44.0).
		AddRow("slope", "China", 0.6).
		AddRow("intercept", "Japan", 60.0).
		AddRow("slope", "Japan", 0.8).
		AddRow("slope", "Chad", nil).
		Build()
	require.NoError(t, err)
	return dt
}

func TestNumericAggState(t *testing.T) {
	s := NewNumericAggState()
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Add(v)
	}
	tests := []struct {
		agg  AggregateType
		want float64
	}{
		{AggCount, 8},
		{AggSum, 40},
		{AggMean, 5},
		{AggMin, 2},
		{AggMax, 9},
		{AggStdDev, math.Sqrt(32.0 / 7)},
	}
	for _, tt := range tests {
		got, err := s.Value(tt.agg)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12, tt.agg.String())
	}

	_, err := s.Value(AggNDistinct)
	assert.Error(t, err)

	empty := NewNumericAggState()
	for _, agg := range []AggregateType{AggMean, AggStdDev, AggMin, AggMax} {
		v, err := empty.Value(agg)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(v), agg.String())
	}
}

func TestCombineMatchesSingleState(t *testing.T) {
	a, b, all := NewNumericAggState(), NewNumericAggState(), NewNumericAggState()
	for i, v := range []float64{3, 1, 4, 1, 5, 9, 2, 6} {
		if i%2 == 0 {
			a.Add(v)
		} else {
			b.Add(v)
		}
		all.Add(v)
	}
	a.Combine(b)
	for _, agg := range []AggregateType{AggCount, AggSum, AggMean, AggStdDev, AggMin, AggMax} {
		got, _ := a.Value(agg)
		want, _ := all.Value(agg)
		assert.InDelta(t, want, got, 1e-12, agg.String())
	}

	s1, s2 := NewStringAggState(), NewStringAggState()
	s1.Add("x")
	s1.Add("y")
	s2.Add("y")
	s1.Combine(s2)
	n, err := s1.Value(AggNDistinct)
	require.NoError(t, err)
	assert.Equal(t, 2.0, n)
	n, err = s1.Value(AggCount)
	require.NoError(t, err)
	assert.Equal(t, 3.0, n)
}

func TestSummarise(t *testing.T) {
	gt, err := grouping.GroupBy(estimates(t), "term")
	require.NoError(t, err)

	out, err := Summarise(gt,
		Spec{Column: "estimate", Agg: AggCount, Name: "n"},
		Spec{Column: "estimate", Agg: AggMean},
		Spec{Column: "country", Agg: AggNDistinct},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"term", "n", "mean_estimate", "n_distinct_country"}, out.GetColumnNames())
	require.Equal(t, 2, out.Length())

	n := out.GetColumn("n").(*columns.Int64Column)
	v, _ := n.GetValue(1)
	assert.Equal(t, int64(2), v, "null estimate is not counted")

	mean := out.GetColumn("mean_estimate").(*columns.Float64Column)
	m, _ := mean.GetValue(0)
	assert.InDelta(t, 52.0, m, 1e-9)
	m, _ = mean.GetValue(1)
	assert.InDelta(t, 0.7, m, 1e-9)

	distinct, _ := out.GetColumn("n_distinct_country").GetString(1)
	assert.Equal(t, "3", distinct)

	_, err = Summarise(gt, Spec{Column: "gdp", Agg: AggSum})
	assert.ErrorIs(t, err, tables.ErrColumnNotFound)
	_, err = Summarise(gt, Spec{Column: "country", Agg: AggMean})
	assert.Error(t, err)

	// Output names may not shadow a key or an earlier result.
	_, err = Summarise(gt, Spec{Column: "estimate", Agg: AggMax, Name: "term"})
	assert.ErrorIs(t, err, tables.ErrDuplicateColumn)
	_, err = Summarise(gt,
		Spec{Column: "estimate", Agg: AggMin, Name: "x"},
		Spec{Column: "estimate", Agg: AggMax, Name: "x"},
	)
	assert.ErrorIs(t, err, tables.ErrDuplicateColumn)
}

func TestTotal(t *testing.T) {
	gt, err := grouping.GroupBy(estimates(t), "country")
	require.NoError(t, err)

	sum, err := Total(gt, Spec{Column: "estimate", Agg: AggSum})
	require.NoError(t, err)
	assert.InDelta(t, 105.4, sum, 1e-9)

	max, err := Total(gt, Spec{Column: "estimate", Agg: AggMax})
	require.NoError(t, err)
	assert.Equal(t, 60.0, max)
}
