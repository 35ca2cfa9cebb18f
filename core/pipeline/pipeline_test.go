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

package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/tidynest/core/apply"
	"github.com/google/tidynest/core/columns"
	"github.com/google/tidynest/core/config"
	"github.com/google/tidynest/core/lm"
	"github.com/google/tidynest/core/tables"
	"github.com/google/tidynest/demo"
)

func scenarioConfig() config.Config {
	cfg := config.Default()
	cfg.Dataset = demo.Scenario
	cfg.PredictorOffset = 1950
	return cfg
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

func estimates(t *testing.T, dt *tables.DataTable) []float64 {
	t.Helper()
	col := dt.GetColumn(lm.ColEstimate).(*columns.Float64Column)
	out := make([]float64, col.Length())
	for i := range out {
		v, err := col.GetValue(i)
		require.NoError(t, err)
		out[i] = v
	}
	return out
}

func TestRunScenario(t *testing.T) {
	for _, parallelism := range []int{1, 4} {
		cfg := scenarioConfig()
		cfg.Parallelism = parallelism

		res, err := Run(context.Background(), demo.CreateScenarioTable(), cfg, nil)
		require.NoError(t, err)

		assert.Equal(t, 2, res.Nested.Length())
		assert.Equal(t, []string{"continent", "country", ColData}, res.Nested.GetColumnNames())
		assert.Equal(t, []string{"continent", "country", ColData, ColFit}, res.Fits.GetColumnNames())

		out := res.Result
		require.Equal(t, 4, out.Length())
		assert.Equal(t, []string{"continent", "country", lm.ColTerm, lm.ColEstimate, lm.ColStdError, lm.ColStatistic, lm.ColPValue}, out.GetColumnNames())
		assert.Equal(t, []string{"China", "China", "Japan", "Japan"}, cells(t, out, "country"))
		assert.Equal(t, []string{"intercept", "slope", "intercept", "slope"}, cells(t, out, lm.ColTerm))
		assert.InDeltaSlice(t, []float64{44, 0.6, 60, 0.8}, estimates(t, out), 1e-9)

		// the unrecoded tidy stage keeps model term names
		assert.Equal(t, []string{lm.InterceptTerm, "I(year - 1950)"}, cells(t, res.Tidy, lm.ColTerm)[:2])

		assert.Equal(t, 2, res.Glance.Length())
		assert.Equal(t, []string{"2", "2"}, cells(t, res.Glance, lm.ColNObs))

		assert.Equal(t, []string{"intercept", "slope"}, cells(t, res.Summary, lm.ColTerm))
		assert.Equal(t, []string{"2", "2"}, cells(t, res.Summary, "n"))
		mean := res.Summary.GetColumn("mean_estimate").(*columns.Float64Column)
		m0, _ := mean.GetValue(0)
		m1, _ := mean.GetValue(1)
		assert.InDelta(t, 52.0, m0, 1e-9)
		assert.InDelta(t, 0.7, m1, 1e-9)
	}
}

func TestRunGapminderSample(t *testing.T) {
	data := demo.CreateGapminderSample()
	res, err := Run(context.Background(), data, config.Default(), nil)
	require.NoError(t, err)

	groups := res.Nested.Length()
	assert.Equal(t, 2*groups, res.Result.Length())
	assert.Equal(t, groups, res.Glance.Length())

	for i, term := range cells(t, res.Result, lm.ColTerm) {
		assert.Contains(t, []string{"intercept", "slope"}, term, "row %d", i)
	}
}

// withShortGroup appends a country observed only once, too few rows for a fit.
func withShortGroup(t *testing.T) *tables.DataTable {
	t.Helper()
	short, err := tables.NewBuilder().
		String("continent").String("country").Int64("year").Float64("lifeExp").
		AddRow("Asia", "Korea", 1950, 47.0).
		Build()
	require.NoError(t, err)

	data := demo.CreateScenarioTable()
	cols := make([]columns.IDataColumn, 0, data.Width())
	for _, col := range data.Columns() {
		merged, err := columns.Concat(col.ColumnDef(), col, short.GetColumn(col.ColumnDef().Name()))
		require.NoError(t, err)
		cols = append(cols, merged)
	}
	out, err := tables.NewDataTable(cols...)
	require.NoError(t, err)
	return out
}

func TestRunFailFast(t *testing.T) {
	_, err := Run(context.Background(), withShortGroup(t), scenarioConfig(), nil)
	require.Error(t, err)

	var applyErr *apply.ApplyError
	require.True(t, errors.As(err, &applyErr))
	assert.Equal(t, 2, applyErr.Row)
	assert.Equal(t, []string{"Asia", "Korea"}, applyErr.Key)
	assert.ErrorIs(t, err, lm.ErrInsufficientData)
}

func TestRunPartial(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Partial = true

	res, err := Run(context.Background(), withShortGroup(t), cfg, nil)
	require.NoError(t, err)

	assert.True(t, res.Fits.HasColumn(ColFit+apply.ErrorSuffix))
	assert.Equal(t, []string{"continent", "country", lm.ColTerm, lm.ColEstimate, lm.ColStdError, lm.ColStatistic, lm.ColPValue, ColError},
		res.Tidy.GetColumnNames())

	// The failed group keeps one row that carries its error.
	assert.Equal(t, []string{"China", "China", "Japan", "Japan", "Korea"}, cells(t, res.Result, "country"))
	errCol := res.Result.GetColumn(ColError)
	for i := 0; i < 4; i++ {
		assert.True(t, errCol.IsNull(i), "row %d", i)
	}
	assert.True(t, res.Result.GetColumn(lm.ColTerm).IsNull(4))
	assert.True(t, res.Result.GetColumn(lm.ColEstimate).IsNull(4))
	msg, err := errCol.GetString(4)
	require.NoError(t, err)
	assert.Contains(t, msg, lm.ErrInsufficientData.Error())

	assert.Equal(t, []string{"China", "Japan", "Korea"}, cells(t, res.Glance, "country"))
	assert.True(t, res.Glance.GetColumn(ColError).IsNull(0))
	assert.False(t, res.Glance.GetColumn(ColError).IsNull(2))

	// Summaries only cover fitted groups.
	assert.Equal(t, []string{"2", "2"}, cells(t, res.Summary, "n"))
}

func TestRunFilter(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Filter = `country == "Japan"`

	res, err := Run(context.Background(), demo.CreateScenarioTable(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Data.Length())
	assert.Equal(t, []string{"Japan", "Japan"}, cells(t, res.Result, "country"))
	assert.InDeltaSlice(t, []float64{60, 0.8}, estimates(t, res.Result), 1e-9)

	cfg.Filter = "gdp > 0"
	_, err = Run(context.Background(), demo.CreateScenarioTable(), cfg, nil)
	assert.ErrorIs(t, err, tables.ErrColumnNotFound)
	assert.ErrorIs(t, err, ErrFilter)
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := scenarioConfig()
	cfg.GroupBy = []string{"gdp"}
	_, err := Run(context.Background(), demo.CreateScenarioTable(), cfg, nil)
	assert.Error(t, err)

	cfg = scenarioConfig()
	cfg.Parallelism = 0
	_, err = Run(context.Background(), demo.CreateScenarioTable(), cfg, nil)
	assert.Error(t, err)
}

func TestResultStage(t *testing.T) {
	res, err := Run(context.Background(), demo.CreateScenarioTable(), scenarioConfig(), nil)
	require.NoError(t, err)

	got, err := res.Stage(config.StageSummary)
	require.NoError(t, err)
	assert.Same(t, res.Summary, got)

	_, err = res.Stage("bogus")
	assert.Error(t, err)
}

func TestTermLabels(t *testing.T) {
	cfg := scenarioConfig()
	assert.Equal(t, map[string]string{lm.InterceptTerm: "intercept", "I(year - 1950)": "slope"}, TermLabels(cfg))

	cfg.Recode = map[string]string{lm.InterceptTerm: "b0"}
	assert.Equal(t, cfg.Recode, TermLabels(cfg))
}
