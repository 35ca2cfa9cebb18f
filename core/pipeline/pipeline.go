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

// Package pipeline runs the grouped model-fitting walkthrough: nest a table
// by its key columns, fit one linear model per group, extract tidy and
// glance summaries and flatten them back into ordinary tables.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/google/tidynest/core/aggregates"
	"github.com/google/tidynest/core/apply"
	"github.com/google/tidynest/core/columns"
	"github.com/google/tidynest/core/config"
	"github.com/google/tidynest/core/expr"
	"github.com/google/tidynest/core/grouping"
	"github.com/google/tidynest/core/lm"
	"github.com/google/tidynest/core/tables"
)

// Column names created by the pipeline.
const (
	ColData   = grouping.DefaultPayload
	ColFit    = "fit"
	ColTidy   = "tidy"
	ColGlance = "glance"
	// ColError holds the failure of a group in partial mode.
	ColError = "error"
)

// ErrFilter wraps failures of the row filter.
var ErrFilter = errors.New("row filter failed")

// Result holds every intermediate table of a run.
type Result struct {
	Data    *tables.DataTable // input, after the row filter
	Nested  *tables.DataTable // keys + data
	Fits    *tables.DataTable // keys + data + fit
	Tidy    *tables.DataTable // one row per group and term
	Glance  *tables.DataTable // one row per group
	Result  *tables.DataTable // Tidy with recoded term names
	Summary *tables.DataTable // estimate statistics per term across groups
}

// Stage returns the table of a named stage (see the config.Stage* constants).
func (r *Result) Stage(name string) (*tables.DataTable, error) {
	switch name {
	case config.StageData:
		return r.Data, nil
	case config.StageNested:
		return r.Nested, nil
	case config.StageFits:
		return r.Fits, nil
	case config.StageTidy:
		return r.Tidy, nil
	case config.StageGlance:
		return r.Glance, nil
	case config.StageResult:
		return r.Result, nil
	case config.StageSummary:
		return r.Summary, nil
	default:
		return nil, fmt.Errorf("unknown stage %q", name)
	}
}

// Formula returns the model fitted for every group: response against the
// predictor shifted by the configured offset.
func Formula(cfg config.Config) lm.Formula {
	return lm.Formula{
		Response: cfg.Response,
		Terms:    []lm.Term{lm.Offset(cfg.Predictor, cfg.PredictorOffset)},
	}
}

// TermLabels returns the recode mapping applied to the term column. An
// empty cfg.Recode maps the intercept to "intercept" and the predictor
// term to "slope".
func TermLabels(cfg config.Config) map[string]string {
	if len(cfg.Recode) > 0 {
		return cfg.Recode
	}
	f := Formula(cfg)
	return map[string]string{
		lm.InterceptTerm: "intercept",
		f.Terms[0].Label: "slope",
	}
}

// Run executes the walkthrough on data.
func Run(ctx context.Context, data *tables.DataTable, cfg config.Config, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Filter != "" {
		filtered, err := expr.Filter(data, cfg.Filter)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFilter, err)
		}
		logger.Info("filtered rows",
			zap.String("filter", cfg.Filter),
			zap.Int("kept", filtered.Length()),
			zap.Int("rows", data.Length()))
		data = filtered
	}
	res := &Result{Data: data}

	gt, err := grouping.GroupBy(data, cfg.GroupBy...)
	if err != nil {
		return nil, err
	}
	if res.Nested, err = gt.Nest(ColData); err != nil {
		return nil, err
	}
	logger.Info("nested table",
		zap.Strings("keys", cfg.GroupBy),
		zap.Int("rows", data.Length()),
		zap.Int("groups", gt.NumGroups()))

	opts := []apply.Option{
		apply.WithParallelism(cfg.Parallelism),
		apply.WithLogger(logger),
	}
	if cfg.Partial {
		opts = append(opts, apply.WithPartialResults())
	}

	formula := Formula(cfg)
	if res.Fits, err = apply.MapTables(ctx, res.Nested, ColData, ColFit, lm.New(formula), opts...); err != nil {
		return nil, err
	}
	logger.Debug("fitted models", zap.Stringer("formula", formula))

	withTidy, err := apply.Map(ctx, res.Fits, ColFit, ColTidy, lm.Tidy, opts...)
	if err != nil {
		return nil, err
	}
	withGlance, err := apply.Map(ctx, res.Fits, ColFit, ColGlance, lm.Glance, opts...)
	if err != nil {
		return nil, err
	}

	var unnestOpts []grouping.UnnestOption
	if cfg.Union {
		unnestOpts = append(unnestOpts, grouping.WithUnion())
	}
	if cfg.Partial {
		unnestOpts = append(unnestOpts, grouping.WithKeepEmpty())
	}
	if res.Tidy, err = flatten(withTidy, ColTidy, cfg.Partial, unnestOpts); err != nil {
		return nil, err
	}
	if res.Glance, err = flatten(withGlance, ColGlance, cfg.Partial, unnestOpts); err != nil {
		return nil, err
	}

	if res.Result, err = res.Tidy.Recode(lm.ColTerm, TermLabels(cfg)); err != nil {
		return nil, err
	}

	// Failed groups carry no term.
	fitted := res.Result.Filter(func(r tables.Row) bool { return !r.IsNull(lm.ColTerm) })
	byTerm, err := grouping.GroupBy(fitted, lm.ColTerm)
	if err != nil {
		return nil, err
	}
	res.Summary, err = aggregates.Summarise(byTerm,
		aggregates.Spec{Column: lm.ColEstimate, Agg: aggregates.AggCount, Name: "n"},
		aggregates.Spec{Column: lm.ColEstimate, Agg: aggregates.AggMean},
		aggregates.Spec{Column: lm.ColEstimate, Agg: aggregates.AggStdDev},
		aggregates.Spec{Column: lm.ColEstimate, Agg: aggregates.AggMin},
		aggregates.Spec{Column: lm.ColEstimate, Agg: aggregates.AggMax},
	)
	if err != nil {
		return nil, err
	}
	logger.Info("pipeline finished",
		zap.Int("terms", res.Result.Length()),
		zap.Int("models", res.Glance.Length()))
	return res, nil
}

// flatten drops the input and model list-columns and unnests column. In
// partial mode the fit and extraction errors are merged into ColError.
func flatten(t *tables.DataTable, column string, partial bool, opts []grouping.UnnestOption) (*tables.DataTable, error) {
	slim, err := t.Drop(ColData, ColFit)
	if err != nil {
		return nil, err
	}
	if partial {
		if slim, err = mergeErrors(slim, ColFit+apply.ErrorSuffix, column+apply.ErrorSuffix); err != nil {
			return nil, err
		}
	}
	return grouping.Unnest(slim, column, opts...)
}

// mergeErrors replaces the named error columns with one ColError column
// holding the first failure of every row.
func mergeErrors(t *tables.DataTable, names ...string) (*tables.DataTable, error) {
	merged := columns.NewStringColumn(columns.NewColumnDef(ColError, "", ""))
	for i := 0; i < t.Length(); i++ {
		failed := false
		for _, name := range names {
			col := t.GetColumn(name)
			if col == nil || col.IsNull(i) {
				continue
			}
			if msg, err := col.GetString(i); err == nil {
				merged.Append(msg)
				failed = true
				break
			}
		}
		if !failed {
			merged.AppendNull()
		}
	}
	out, err := t.Drop(names...)
	if err != nil {
		return nil, err
	}
	return out.WithColumn(merged)
}
