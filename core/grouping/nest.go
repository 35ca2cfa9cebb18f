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
	"fmt"

	"github.com/google/tidynest/core/columns"
	"github.com/google/tidynest/core/tables"
)

// DefaultPayload is the name of the list-column created by Nest.
const DefaultPayload = "data"

// KeyEntityType tags the key columns of a nested table.
const KeyEntityType = "group_key"

// NestedColumn is the list-column type holding one sub-table per row.
type NestedColumn = columns.ValueColumn[*tables.DataTable]

// Nest collapses every group into a single row: the key columns keep the
// group's key values and the payload column holds the group's rows of the
// remaining columns, in original order.
func (gt *GroupedTable) Nest(payload string) (*tables.DataTable, error) {
	if payload == "" {
		payload = DefaultPayload
	}
	for _, name := range gt.keyNames {
		if name == payload {
			return nil, fmt.Errorf("nest: payload name %q: %w", payload, tables.ErrDuplicateColumn)
		}
	}

	rest, err := gt.table.Drop(gt.keyNames...)
	if err != nil {
		return nil, fmt.Errorf("nest: %w", err)
	}

	data := columns.NewValueColumn[*tables.DataTable](columns.NewColumnDef(payload, "", ""))
	// An empty sub-table keeps the schema when there are no groups.
	data.SetPrototype(rest.Take(nil))
	for _, g := range gt.leaves {
		data.Append(rest.Take(g.Indices))
	}

	nested, err := gt.Keys().WithColumn(data)
	if err != nil {
		return nil, fmt.Errorf("nest: %w", err)
	}
	return nested, nil
}

// Nest groups t by keys and nests the remaining columns into a list-column
// named DefaultPayload.
func Nest(t *tables.DataTable, keys ...string) (*tables.DataTable, error) {
	gt, err := GroupBy(t, keys...)
	if err != nil {
		return nil, err
	}
	return gt.Nest(DefaultPayload)
}

// NestedTables returns the payload column of a nested table.
func NestedTables(t *tables.DataTable, column string) (*NestedColumn, error) {
	col := t.GetColumn(column)
	if col == nil {
		return nil, fmt.Errorf("%w: %q", tables.ErrColumnNotFound, column)
	}
	nc, ok := col.(*NestedColumn)
	if !ok {
		return nil, fmt.Errorf("column %q holds %s, not nested tables", column, columns.ElemTypeName(col))
	}
	return nc, nil
}
