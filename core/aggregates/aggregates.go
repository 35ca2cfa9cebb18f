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

// Package aggregates provides aggregate state types for grouped summaries.
// States are computed per group and can be combined, so a summary of a
// parent group is the combination of its children's states.
package aggregates

import (
	"fmt"
	"math"

	"github.com/google/tidynest/core/columns"
	"github.com/google/tidynest/core/grouping"
	"github.com/google/tidynest/core/tables"
)

// AggregateType selects the statistic derived from a state.
type AggregateType int

const (
	AggCount AggregateType = iota
	AggSum
	AggMean
	AggStdDev
	AggMin
	AggMax
	AggNDistinct
)

func (a AggregateType) String() string {
	switch a {
	case AggCount:
		return "count"
	case AggSum:
		return "sum"
	case AggMean:
		return "mean"
	case AggStdDev:
		return "sd"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	case AggNDistinct:
		return "n_distinct"
	default:
		return fmt.Sprintf("AggregateType(%d)", int(a))
	}
}

// AggregateState is the interface for all aggregate state types.
type AggregateState interface {
	// Combine merges another state into this one (for hierarchical aggregation).
	Combine(other AggregateState)
	// Value derives the requested statistic. Statistics that are undefined
	// for the state (e.g. the mean of nothing) are NaN.
	Value(aggType AggregateType) (float64, error)
}

// NumericAggState stores intermediate state for numeric column aggregates.
// It can derive sum, mean, stddev, min, max, and count.
type NumericAggState struct {
	Count int64   // Number of values
	Sum   float64 // Sum of values
	SumSq float64 // Sum of squared values (for stddev)
	Min   float64 // Minimum value
	Max   float64 // Maximum value
}

// NewNumericAggState creates a new empty numeric aggregate state.
func NewNumericAggState() *NumericAggState {
	return &NumericAggState{
		Min: math.MaxFloat64,
		Max: -math.MaxFloat64,
	}
}

// Add adds a single value to the aggregate state.
func (s *NumericAggState) Add(value float64) {
	s.Count++
	s.Sum += value
	s.SumSq += value * value
	if value < s.Min {
		s.Min = value
	}
	if value > s.Max {
		s.Max = value
	}
}

// Combine merges another numeric state into this one.
func (s *NumericAggState) Combine(other AggregateState) {
	o, ok := other.(*NumericAggState)
	if !ok || o.Count == 0 {
		return
	}
	s.Count += o.Count
	s.Sum += o.Sum
	s.SumSq += o.SumSq
	if o.Min < s.Min {
		s.Min = o.Min
	}
	if o.Max > s.Max {
		s.Max = o.Max
	}
}

// Mean returns the average of the values.
func (s *NumericAggState) Mean() float64 {
	if s.Count == 0 {
		return math.NaN()
	}
	return s.Sum / float64(s.Count)
}

// StdDev returns the sample standard deviation (n-1 denominator).
func (s *NumericAggState) StdDev() float64 {
	if s.Count < 2 {
		return math.NaN()
	}
	mean := s.Mean()
	variance := (s.SumSq - float64(s.Count)*mean*mean) / float64(s.Count-1)
	if variance < 0 {
		// Handle floating point precision issues
		variance = 0
	}
	return math.Sqrt(variance)
}

func (s *NumericAggState) Value(aggType AggregateType) (float64, error) {
	switch aggType {
	case AggCount:
		return float64(s.Count), nil
	case AggSum:
		return s.Sum, nil
	case AggMean:
		return s.Mean(), nil
	case AggStdDev:
		return s.StdDev(), nil
	case AggMin:
		if s.Count == 0 {
			return math.NaN(), nil
		}
		return s.Min, nil
	case AggMax:
		if s.Count == 0 {
			return math.NaN(), nil
		}
		return s.Max, nil
	default:
		return 0, fmt.Errorf("aggregate %s is not defined for numeric columns", aggType)
	}
}

// StringAggState stores intermediate state for string column aggregates.
// It can derive count and unique count.
type StringAggState struct {
	Count  int64
	Unique map[string]struct{}
}

// NewStringAggState creates a new empty string aggregate state.
func NewStringAggState() *StringAggState {
	return &StringAggState{Unique: make(map[string]struct{})}
}

// Add adds a single string value to the aggregate state.
func (s *StringAggState) Add(value string) {
	s.Count++
	s.Unique[value] = struct{}{}
}

// Combine merges another string state into this one.
func (s *StringAggState) Combine(other AggregateState) {
	o, ok := other.(*StringAggState)
	if !ok {
		return
	}
	s.Count += o.Count
	for v := range o.Unique {
		s.Unique[v] = struct{}{}
	}
}

func (s *StringAggState) Value(aggType AggregateType) (float64, error) {
	switch aggType {
	case AggCount:
		return float64(s.Count), nil
	case AggNDistinct:
		return float64(len(s.Unique)), nil
	default:
		return 0, fmt.Errorf("aggregate %s is not defined for string columns", aggType)
	}
}

// Spec requests one summary column.
type Spec struct {
	Column string
	Agg    AggregateType
	// Name of the output column. Defaults to "<agg>_<column>".
	Name string
}

func (s Spec) name() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Agg.String() + "_" + s.Column
}

// CreateAggState builds the state for the rows at indices of col.
// Null cells are skipped.
func CreateAggState(col columns.IDataColumn, indices []int) (AggregateState, error) {
	switch c := col.(type) {
	case *columns.StringColumn:
		s := NewStringAggState()
		for _, i := range indices {
			if v, err := c.GetValue(i); err == nil {
				s.Add(v)
			}
		}
		return s, nil
	default:
		if !columns.IsNumeric(col) {
			return nil, fmt.Errorf("column %q of kind %s cannot be aggregated", col.ColumnDef().Name(), col.Type())
		}
		s := NewNumericAggState()
		for _, i := range indices {
			if v, ok := columns.NumericValue(col, i); ok {
				s.Add(v)
			}
		}
		return s, nil
	}
}

// Summarise returns one row per group: the key columns followed by one
// column per spec. Counts are int64 columns, everything else float64. An
// output name that repeats a key or another spec is an ErrDuplicateColumn.
func Summarise(gt *grouping.GroupedTable, specs ...Spec) (*tables.DataTable, error) {
	out := gt.Keys()
	for _, spec := range specs {
		col := gt.Table().GetColumn(spec.Column)
		if col == nil {
			return nil, fmt.Errorf("summarise: %w: %q", tables.ErrColumnNotFound, spec.Column)
		}
		if out.HasColumn(spec.name()) {
			return nil, fmt.Errorf("summarise: %w: %q", tables.ErrDuplicateColumn, spec.name())
		}
		def := columns.NewNamedColumnDef(spec.name())
		counts := columns.NewInt64Column(def)
		values := columns.NewFloat64Column(def)
		for _, g := range gt.Groups() {
			state, err := CreateAggState(col, g.Indices)
			if err != nil {
				return nil, fmt.Errorf("summarise: %w", err)
			}
			v, err := state.Value(spec.Agg)
			if err != nil {
				return nil, fmt.Errorf("summarise %q: %w", spec.Column, err)
			}
			counts.Append(int64(v))
			values.Append(v)
		}
		var result columns.IDataColumn = values
		if spec.Agg == AggCount || spec.Agg == AggNDistinct {
			result = counts
		}
		var err error
		if out, err = out.WithColumn(result); err != nil {
			return nil, fmt.Errorf("summarise: %w", err)
		}
	}
	return out, nil
}

// Total combines the per-group states of spec into one value for the whole
// table.
func Total(gt *grouping.GroupedTable, spec Spec) (float64, error) {
	col := gt.Table().GetColumn(spec.Column)
	if col == nil {
		return 0, fmt.Errorf("total: %w: %q", tables.ErrColumnNotFound, spec.Column)
	}
	var total AggregateState
	for _, g := range gt.Groups() {
		state, err := CreateAggState(col, g.Indices)
		if err != nil {
			return 0, fmt.Errorf("total: %w", err)
		}
		if total == nil {
			total = state
			continue
		}
		total.Combine(state)
	}
	if total == nil {
		var err error
		if total, err = CreateAggState(col, nil); err != nil {
			return 0, fmt.Errorf("total: %w", err)
		}
	}
	return total.Value(spec.Agg)
}
