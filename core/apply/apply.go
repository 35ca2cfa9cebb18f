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

// Package apply maps functions over the cells of a list-column, producing a
// new list-column aligned row for row with the input. It is the "apply" step
// of split-apply-combine: fit a model per nested sub-table, then turn each
// fitted model into a summary table.
package apply

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/google/tidynest/core/columns"
	"github.com/google/tidynest/core/grouping"
	"github.com/google/tidynest/core/tables"
)

// Map returns a copy of t with a column dst holding fn(cell) for every cell
// of the list-column src. The input table is not modified. Null cells are
// passed to fn as the zero value of T.
//
// By default the first failing row aborts the whole operation and Map
// returns an *ApplyError for the lowest failing row index; see
// WithPartialResults for per-row error capture.
func Map[T, U any](ctx context.Context, t *tables.DataTable, src, dst string, fn func(T) (U, error), opts ...Option) (*tables.DataTable, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	col := t.GetColumn(src)
	if col == nil {
		return nil, fmt.Errorf("apply: %w: %q", tables.ErrColumnNotFound, src)
	}
	in, ok := col.(*columns.ValueColumn[T])
	if !ok {
		var zero T
		return nil, fmt.Errorf("apply: column %q holds %s, not %T", src, columns.ElemTypeName(col), zero)
	}
	keys, err := keyColumns(t, o.keyColumns)
	if err != nil {
		return nil, err
	}

	n := in.Length()
	results := make([]U, n)
	errs := make([]error, n)
	call := func(i int) error {
		v, err := in.GetValue(i)
		if err != nil && !errors.Is(err, columns.ErrNull) {
			errs[i] = err
			return err
		}
		results[i], errs[i] = safeCall(fn, v)
		if errs[i] != nil {
			o.logger.Debug("apply failed for row",
				zap.String("column", src),
				zap.Int("row", i),
				zap.Strings("key", keyStrings(keys, i)),
				zap.Error(errs[i]))
		}
		return errs[i]
	}

	if o.parallelism <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := call(i); err != nil && !o.partial {
				break
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.parallelism)
		for i := 0; i < n; i++ {
			// Stop launching after a failure. Rows already launched always
			// run to completion, so the lowest failing row is always seen.
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := call(i); err != nil && !o.partial {
					return err
				}
				return nil
			})
		}
		_ = g.Wait()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !o.partial {
		for i, err := range errs {
			if err != nil {
				return nil, &ApplyError{Column: src, Row: i, Key: keyStrings(keys, i), Err: err}
			}
		}
	}

	out := columns.NewValueColumn[U](columns.NewColumnDef(dst, "", ""))
	var errCol *columns.StringColumn
	if o.partial {
		errCol = columns.NewStringColumn(columns.NewColumnDef(dst+ErrorSuffix, "", ""))
	}
	failed := 0
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			failed++
			out.AppendNull()
			errCol.Append(errs[i].Error())
			continue
		}
		out.Append(results[i])
		if errCol != nil {
			errCol.AppendNull()
		}
	}
	if failed > 0 {
		o.logger.Warn("apply completed with failed rows",
			zap.String("column", src),
			zap.Int("failed", failed),
			zap.Int("rows", n))
	}

	result, err := t.WithColumn(out)
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}
	if errCol != nil {
		if result, err = result.WithColumn(errCol); err != nil {
			return nil, fmt.Errorf("apply: %w", err)
		}
	}
	return result, nil
}

// MapTables is Map for a list-column of nested tables, the payload of
// grouping.Nest.
func MapTables[U any](ctx context.Context, t *tables.DataTable, src, dst string, fn func(*tables.DataTable) (U, error), opts ...Option) (*tables.DataTable, error) {
	return Map(ctx, t, src, dst, fn, opts...)
}

// Values returns the cells of the list-column name. Null cells are returned
// as the zero value of T.
func Values[T any](t *tables.DataTable, name string) ([]T, error) {
	col := t.GetColumn(name)
	if col == nil {
		return nil, fmt.Errorf("%w: %q", tables.ErrColumnNotFound, name)
	}
	vc, ok := col.(*columns.ValueColumn[T])
	if !ok {
		var zero T
		return nil, fmt.Errorf("column %q holds %s, not %T", name, columns.ElemTypeName(col), zero)
	}
	out := make([]T, vc.Length())
	for i := range out {
		out[i], _ = vc.GetValue(i)
	}
	return out, nil
}

// safeCall turns a panic in fn into an error for that row.
func safeCall[T, U any](fn func(T) (U, error), v T) (result U, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(v)
}

func keyColumns(t *tables.DataTable, names []string) ([]columns.IDataColumn, error) {
	var keys []columns.IDataColumn
	if len(names) > 0 {
		for _, name := range names {
			col := t.GetColumn(name)
			if col == nil {
				return nil, fmt.Errorf("apply: key %w: %q", tables.ErrColumnNotFound, name)
			}
			keys = append(keys, col)
		}
		return keys, nil
	}
	var scalars []columns.IDataColumn
	for _, col := range t.Columns() {
		if col.ColumnDef().EntityType() == grouping.KeyEntityType {
			keys = append(keys, col)
		}
		if col.Type() != columns.ColumnTypeValue {
			scalars = append(scalars, col)
		}
	}
	if len(keys) > 0 {
		return keys, nil
	}
	return scalars, nil
}

func keyStrings(keys []columns.IDataColumn, row int) []string {
	out := make([]string, len(keys))
	for i, col := range keys {
		out[i], _ = col.GetString(row)
	}
	return out
}
