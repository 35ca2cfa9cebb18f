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

// Package lm fits ordinary least squares models with an intercept to the
// numeric columns of a table and summarizes them as tables: Tidy gives one
// row per coefficient, Glance one row per model.
package lm

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/google/tidynest/core/columns"
	"github.com/google/tidynest/core/tables"
)

// InterceptTerm is the term name of the intercept coefficient.
const InterceptTerm = "(Intercept)"

var (
	// ErrInsufficientData is returned when there are fewer rows than coefficients.
	ErrInsufficientData = errors.New("fewer observations than coefficients")
	// ErrSingular is returned when the predictors are linearly dependent.
	ErrSingular = errors.New("design matrix is singular")
	// ErrNilTable is returned when Fit is handed no table at all.
	ErrNilTable = errors.New("no data")
	// ErrNilFit is returned when a summary is requested for a missing model.
	ErrNilFit = errors.New("no fitted model")
)

// Term is one predictor of a model.
type Term struct {
	// Label is the term name reported by Tidy. Defaults to Column.
	Label string
	// Column is the numeric source column.
	Column string
	// Transform, if set, is applied to each value before fitting,
	// e.g. to center years on a baseline.
	Transform func(float64) float64
}

func (t Term) label() string {
	if t.Label != "" {
		return t.Label
	}
	return t.Column
}

// Offset returns a term for column shifted by -offset, labelled like the
// R formula I(column - offset).
func Offset(column string, offset float64) Term {
	return Term{
		Label:     fmt.Sprintf("I(%s - %s)", column, columns.FormatFloat64(offset)),
		Column:    column,
		Transform: func(x float64) float64 { return x - offset },
	}
}

// Formula describes response ~ 1 + terms.
type Formula struct {
	Response string
	Terms    []Term
}

// String renders the formula in R notation.
func (f Formula) String() string {
	s := f.Response + " ~ "
	if len(f.Terms) == 0 {
		return s + "1"
	}
	for i, t := range f.Terms {
		if i > 0 {
			s += " + "
		}
		s += t.label()
	}
	return s
}

// Fit is a fitted linear model. It is immutable.
type Fit struct {
	formula      Formula
	terms        []string
	coefficients []float64
	stdErrors    []float64
	fitted       []float64
	residuals    []float64
	nobs         int
	dfResidual   int
	rss          float64
	tss          float64
}

// FitTable estimates the coefficients of f from the rows of t by least squares.
// Rows with a null in any used column make the fit fail rather than being
// skipped silently.
func FitTable(t *tables.DataTable, f Formula) (*Fit, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	y, err := numericColumn(t, f.Response, nil)
	if err != nil {
		return nil, err
	}
	n := len(y)
	p := len(f.Terms) + 1
	if n < p {
		return nil, fmt.Errorf("%w: %d observations, %d coefficients", ErrInsufficientData, n, p)
	}

	x := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
	}
	terms := []string{InterceptTerm}
	for j, term := range f.Terms {
		values, err := numericColumn(t, term.Column, term.Transform)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			x.Set(i, j+1, v)
		}
		terms = append(terms, term.label())
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, mat.NewDense(n, 1, y)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	fit := &Fit{
		formula:      f,
		terms:        terms,
		coefficients: make([]float64, p),
		stdErrors:    make([]float64, p),
		fitted:       make([]float64, n),
		residuals:    make([]float64, n),
		nobs:         n,
		dfResidual:   n - p,
	}
	for j := 0; j < p; j++ {
		fit.coefficients[j] = beta.At(j, 0)
	}

	mean := stat.Mean(y, nil)
	for i := 0; i < n; i++ {
		yhat := 0.0
		for j := 0; j < p; j++ {
			yhat += x.At(i, j) * fit.coefficients[j]
		}
		fit.fitted[i] = yhat
		fit.residuals[i] = y[i] - yhat
		fit.rss += fit.residuals[i] * fit.residuals[i]
		fit.tss += (y[i] - mean) * (y[i] - mean)
	}

	sigma2 := math.NaN()
	if fit.dfResidual > 0 {
		sigma2 = fit.rss / float64(fit.dfResidual)
	}
	for j := 0; j < p; j++ {
		fit.stdErrors[j] = math.Sqrt(sigma2 * xtxInv.At(j, j))
	}
	return fit, nil
}

// New returns a fitting function for f, suitable for apply.MapTables.
func New(f Formula) func(*tables.DataTable) (*Fit, error) {
	return func(t *tables.DataTable) (*Fit, error) {
		return FitTable(t, f)
	}
}

func numericColumn(t *tables.DataTable, name string, transform func(float64) float64) ([]float64, error) {
	col := t.GetColumn(name)
	if col == nil {
		return nil, fmt.Errorf("%w: %q", tables.ErrColumnNotFound, name)
	}
	if !columns.IsNumeric(col) {
		return nil, fmt.Errorf("column %q is %s, not numeric", name, col.Type())
	}
	out := make([]float64, col.Length())
	for i := range out {
		v, ok := columns.NumericValue(col, i)
		if !ok {
			return nil, fmt.Errorf("column %q: %w at row %d", name, columns.ErrNull, i)
		}
		if transform != nil {
			v = transform(v)
		}
		out[i] = v
	}
	return out, nil
}

// Formula returns the model formula.
func (f *Fit) Formula() Formula {
	return f.formula
}

// Terms returns the coefficient names, intercept first.
func (f *Fit) Terms() []string {
	return append([]string(nil), f.terms...)
}

// Coefficients returns the estimates in Terms order.
func (f *Fit) Coefficients() []float64 {
	return append([]float64(nil), f.coefficients...)
}

// Coefficient returns the estimate for a term.
func (f *Fit) Coefficient(term string) (float64, bool) {
	for i, t := range f.terms {
		if t == term {
			return f.coefficients[i], true
		}
	}
	return 0, false
}

// Residuals returns observed minus fitted values, in row order.
func (f *Fit) Residuals() []float64 {
	return append([]float64(nil), f.residuals...)
}

// FittedValues returns the model predictions for the fitted rows.
func (f *Fit) FittedValues() []float64 {
	return append([]float64(nil), f.fitted...)
}

// NObs returns the number of observations used.
func (f *Fit) NObs() int {
	return f.nobs
}

// String is used when a fit is displayed inside a table cell.
func (f *Fit) String() string {
	return fmt.Sprintf("<lm %s>", f.formula)
}

// Predict evaluates the model on the rows of t, which must hold every
// predictor column. The result column is named "fitted".
func (f *Fit) Predict(t *tables.DataTable) (*columns.Float64Column, error) {
	pred := make([]float64, t.Length())
	for i := range pred {
		pred[i] = f.coefficients[0]
	}
	for j, term := range f.formula.Terms {
		values, err := numericColumn(t, term.Column, term.Transform)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			pred[i] += f.coefficients[j+1] * v
		}
	}
	return columns.NewFloat64ColumnFrom(columns.NewColumnDef("fitted", "Fitted", ""), pred), nil
}

// Augment returns t with the fitted values and residuals of the rows the
// model was estimated from. t must be the table passed to FitTable.
func (f *Fit) Augment(t *tables.DataTable) (*tables.DataTable, error) {
	if t.Length() != f.nobs {
		return nil, fmt.Errorf("augment: table has %d rows, model was fitted on %d", t.Length(), f.nobs)
	}
	out, err := t.WithColumn(columns.NewFloat64ColumnFrom(columns.NewColumnDef("fitted", "Fitted", ""), f.fitted))
	if err != nil {
		return nil, err
	}
	return out.WithColumn(columns.NewFloat64ColumnFrom(columns.NewColumnDef("resid", "Residual", ""), f.residuals))
}
