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

package lm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/tidynest/core/columns"
	"github.com/google/tidynest/core/tables"
)

func xyTable(t *testing.T, xs []int64, ys []float64) *tables.DataTable {
	t.Helper()
	dt, err := tables.NewDataTable(
		columns.NewInt64ColumnFrom(columns.NewNamedColumnDef("year"), xs),
		columns.NewFloat64ColumnFrom(columns.NewNamedColumnDef("lifeExp"), ys),
	)
	require.NoError(t, err)
	return dt
}

func floats(t *testing.T, dt *tables.DataTable, name string) []float64 {
	t.Helper()
	col, ok := dt.GetColumn(name).(*columns.Float64Column)
	require.True(t, ok, "column %q", name)
	out := make([]float64, col.Length())
	for i := range out {
		v, err := col.GetValue(i)
		require.NoError(t, err)
		out[i] = v
	}
	return out
}

func TestFormulaString(t *testing.T) {
	assert.Equal(t, "lifeExp ~ I(year - 1952)", Formula{Response: "lifeExp", Terms: []Term{Offset("year", 1952)}}.String())
	assert.Equal(t, "y ~ x + z", Formula{Response: "y", Terms: []Term{{Column: "x"}, {Column: "z"}}}.String())
	assert.Equal(t, "y ~ 1", Formula{Response: "y"}.String())
}

func TestFitTwoPoints(t *testing.T) {
	f := Formula{Response: "lifeExp", Terms: []Term{Offset("year", 1950)}}

	tests := []struct {
		country          string
		ys               []float64
		intercept, slope float64
	}{
		{"China", []float64{44, 50}, 44, 0.6},
		{"Japan", []float64{60, 68}, 60, 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			fit, err := FitTable(xyTable(t, []int64{1950, 1960}, tt.ys), f)
			require.NoError(t, err)

			assert.Equal(t, []string{InterceptTerm, "I(year - 1950)"}, fit.Terms())
			b0, ok := fit.Coefficient(InterceptTerm)
			require.True(t, ok)
			assert.InDelta(t, tt.intercept, b0, 1e-9)
			b1, ok := fit.Coefficient("I(year - 1950)")
			require.True(t, ok)
			assert.InDelta(t, tt.slope, b1, 1e-9)
			assert.Equal(t, 2, fit.NObs())

			tidy, err := Tidy(fit)
			require.NoError(t, err)
			assert.Equal(t, []string{ColTerm, ColEstimate, ColStdError, ColStatistic, ColPValue}, tidy.GetColumnNames())
			assert.Equal(t, 2, tidy.Length())
			// exact fit, no residual degrees of freedom
			for _, name := range []string{ColStdError, ColStatistic, ColPValue} {
				for _, v := range floats(t, tidy, name) {
					assert.True(t, math.IsNaN(v), "%s = %v", name, v)
				}
			}
		})
	}
}

func TestFitKnownRegression(t *testing.T) {
	dt := xyTable(t, []int64{1, 2, 3, 4, 5}, []float64{2.1, 3.9, 6.2, 7.8, 10.1})
	fit, err := FitTable(dt, Formula{Response: "lifeExp", Terms: []Term{{Column: "year"}}})
	require.NoError(t, err)

	coef := fit.Coefficients()
	assert.InDelta(t, 0.05, coef[0], 1e-9)
	assert.InDelta(t, 1.99, coef[1], 1e-9)

	resid := fit.Residuals()
	want := []float64{0.06, -0.13, 0.18, -0.21, 0.1}
	for i := range want {
		assert.InDelta(t, want[i], resid[i], 1e-9)
	}

	tidy, err := Tidy(fit)
	require.NoError(t, err)
	se := floats(t, tidy, ColStdError)
	assert.InDelta(t, 0.19807, se[0], 1e-4)
	assert.InDelta(t, 0.059722, se[1], 1e-5)
	stat := floats(t, tidy, ColStatistic)
	assert.InDelta(t, 33.32, stat[1], 0.01)
	p := floats(t, tidy, ColPValue)
	assert.Less(t, p[1], 1e-3)
	assert.Greater(t, p[0], 0.5)

	glance, err := Glance(fit)
	require.NoError(t, err)
	assert.Equal(t, []string{ColRSquared, ColAdjRSquared, ColSigma, ColDFResidual, ColNObs}, glance.GetColumnNames())
	assert.InDelta(t, 0.997305, floats(t, glance, ColRSquared)[0], 1e-5)
	assert.InDelta(t, 0.996407, floats(t, glance, ColAdjRSquared)[0], 1e-5)
	assert.InDelta(t, math.Sqrt(0.107/3), floats(t, glance, ColSigma)[0], 1e-6)
	s, _ := glance.GetColumn(ColDFResidual).GetString(0)
	assert.Equal(t, "3", s)
}

func TestFitErrors(t *testing.T) {
	f := Formula{Response: "lifeExp", Terms: []Term{{Column: "year"}}}

	_, err := FitTable(xyTable(t, []int64{1950}, []float64{44}), f)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = FitTable(xyTable(t, []int64{1950, 1950, 1950}, []float64{44, 45, 46}), f)
	assert.ErrorIs(t, err, ErrSingular)

	_, err = FitTable(nil, f)
	assert.ErrorIs(t, err, ErrNilTable)

	_, err = FitTable(xyTable(t, []int64{1, 2}, []float64{1, 2}), Formula{Response: "gdp"})
	assert.ErrorIs(t, err, tables.ErrColumnNotFound)

	y := columns.NewFloat64Column(columns.NewNamedColumnDef("lifeExp"))
	y.Append(1)
	y.AppendNull()
	y.Append(3)
	dt, err := tables.NewDataTable(columns.NewInt64ColumnFrom(columns.NewNamedColumnDef("year"), []int64{1, 2, 3}), y)
	require.NoError(t, err)
	_, err = FitTable(dt, f)
	assert.ErrorIs(t, err, columns.ErrNull)

	_, err = Tidy(nil)
	assert.ErrorIs(t, err, ErrNilFit)
	_, err = Glance(nil)
	assert.ErrorIs(t, err, ErrNilFit)
}

func TestPredictAndAugment(t *testing.T) {
	f := Formula{Response: "lifeExp", Terms: []Term{Offset("year", 1950)}}
	train := xyTable(t, []int64{1950, 1960}, []float64{44, 50})
	fit, err := New(f)(train)
	require.NoError(t, err)
	assert.Equal(t, "<lm lifeExp ~ I(year - 1950)>", fit.String())

	pred, err := fit.Predict(xyTable(t, []int64{1970}, []float64{0}))
	require.NoError(t, err)
	v, err := pred.GetValue(0)
	require.NoError(t, err)
	assert.InDelta(t, 56.0, v, 1e-9)

	aug, err := fit.Augment(train)
	require.NoError(t, err)
	assert.Equal(t, []string{"year", "lifeExp", "fitted", "resid"}, aug.GetColumnNames())
	assert.InDeltaSlice(t, []float64{44, 50}, floats(t, aug, "fitted"), 1e-9)

	_, err = fit.Augment(xyTable(t, []int64{1}, []float64{1}))
	assert.Error(t, err)
}
