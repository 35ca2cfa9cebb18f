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

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/google/tidynest/core/columns"
	"github.com/google/tidynest/core/tables"
)

// Column names of the summary tables.
const (
	ColTerm        = "term"
	ColEstimate    = "estimate"
	ColStdError    = "std_error"
	ColStatistic   = "statistic"
	ColPValue      = "p_value"
	ColRSquared    = "r_squared"
	ColAdjRSquared = "adj_r_squared"
	ColSigma       = "sigma"
	ColDFResidual  = "df_residual"
	ColNObs        = "nobs"
)

// Tidy returns one row per coefficient with the columns term, estimate,
// std_error, statistic and p_value. With no residual degrees of freedom the
// last three are NaN.
func Tidy(f *Fit) (*tables.DataTable, error) {
	if f == nil {
		return nil, ErrNilFit
	}
	term := columns.NewStringColumn(columns.NewColumnDef(ColTerm, "Term", ""))
	estimate := columns.NewFloat64Column(columns.NewColumnDef(ColEstimate, "Estimate", ""))
	stdErr := columns.NewFloat64Column(columns.NewColumnDef(ColStdError, "Std. Error", ""))
	statistic := columns.NewFloat64Column(columns.NewColumnDef(ColStatistic, "t value", ""))
	pValue := columns.NewFloat64Column(columns.NewColumnDef(ColPValue, "Pr(>|t|)", ""))

	for j, name := range f.terms {
		t := f.coefficients[j] / f.stdErrors[j]
		term.Append(name)
		estimate.Append(f.coefficients[j])
		stdErr.Append(f.stdErrors[j])
		statistic.Append(t)
		pValue.Append(f.pValue(t))
	}
	return tables.NewDataTable(term, estimate, stdErr, statistic, pValue)
}

// Glance returns a single row describing the whole model.
func Glance(f *Fit) (*tables.DataTable, error) {
	if f == nil {
		return nil, ErrNilFit
	}
	r2 := math.NaN()
	if f.tss > 0 {
		r2 = 1 - f.rss/f.tss
	}
	adj := math.NaN()
	if f.dfResidual > 0 {
		adj = 1 - (1-r2)*float64(f.nobs-1)/float64(f.dfResidual)
	}
	sigma := math.NaN()
	if f.dfResidual > 0 {
		sigma = math.Sqrt(f.rss / float64(f.dfResidual))
	}

	return tables.NewDataTable(
		columns.NewFloat64ColumnFrom(columns.NewColumnDef(ColRSquared, "R²", ""), []float64{r2}),
		columns.NewFloat64ColumnFrom(columns.NewColumnDef(ColAdjRSquared, "Adjusted R²", ""), []float64{adj}),
		columns.NewFloat64ColumnFrom(columns.NewColumnDef(ColSigma, "Sigma", ""), []float64{sigma}),
		columns.NewInt64ColumnFrom(columns.NewColumnDef(ColDFResidual, "Residual DF", ""), []int64{int64(f.dfResidual)}),
		columns.NewInt64ColumnFrom(columns.NewColumnDef(ColNObs, "Observations", ""), []int64{int64(f.nobs)}),
	)
}

// pValue is the two-sided p-value of a t statistic.
func (f *Fit) pValue(t float64) float64 {
	if f.dfResidual <= 0 || math.IsNaN(t) {
		return math.NaN()
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(f.dfResidual)}
	return 2 * dist.Survival(math.Abs(t))
}
