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

// Package grouping splits a table into groups of rows, nests each group
// into a sub-table held by a list-column, and flattens such list-columns
// back into ordinary rows.
package grouping

import (
	"fmt"

	"github.com/google/tidynest/core/columns"
	"github.com/google/tidynest/core/tables"
)

// Grouping is hierarchical: the first key column splits the rows into
// groups, and every following key column splits each group of the previous
// level again. Within a parent group, child groups appear in order of first
// appearance of their value, and every group keeps its rows in table order.
// The leaves of the hierarchy are the groups of the GroupedTable.

// Terminology:
// * the list of columns that are part of the grouping hierarchy are called key columns
// * the remaining columns are the payload columns
// * nulls in a key column form one group of their own; rows are never dropped

type Group struct {
	Indices     []int
	ParentGroup *Group
	Block       *Block
	ChildBlock  *Block
}

// Length returns the number of rows in the group.
func (g *Group) Length() int {
	return len(g.Indices)
}

// Height returns the number of leaf groups below g (1 for a leaf).
func (g *Group) Height() int {
	if g.ChildBlock == nil {
		return 1
	}
	height := 0
	for _, childGroup := range g.ChildBlock.Groups {
		height += childGroup.Height()
	}
	return height
}

// Block holds the groups that one parent group was split into.
type Block struct {
	Groups      []*Group
	ParentGroup *Group
	Column      columns.IDataColumn
	Level       int
}

// GroupedTable is a table together with a partition of its rows.
type GroupedTable struct {
	table    *tables.DataTable
	keyNames []string
	root     *Group
	leaves   []*Group
}

// GroupBy partitions the rows of t by the distinct combinations of the key
// columns. Only combinations present in t produce a group. With no keys the
// whole table is a single group.
func GroupBy(t *tables.DataTable, keys ...string) (*GroupedTable, error) {
	seen := make(map[string]bool, len(keys))
	keyCols := make([]columns.IDataColumn, len(keys))
	for i, name := range keys {
		if seen[name] {
			return nil, &GroupingError{Column: name, Available: t.GetColumnNames(), Err: ErrDuplicateKey}
		}
		seen[name] = true
		col := t.GetColumn(name)
		if col == nil {
			return nil, &GroupingError{Column: name, Available: t.GetColumnNames(), Err: ErrUnknownKey}
		}
		if col.Type() == columns.ColumnTypeValue {
			return nil, &GroupingError{Column: name, Available: t.GetColumnNames(), Err: columns.ErrNotGroupable}
		}
		keyCols[i] = col
	}

	root := &Group{Indices: columns.AllIndices(t.Length())}
	parents := []*Group{root}
	for level, col := range keyCols {
		// every parent group spawns a block
		next := make([]*Group, 0, len(parents))
		for _, parentGroup := range parents {
			b := &Block{
				ParentGroup: parentGroup,
				Column:      col,
				Level:       level,
			}
			parentGroup.ChildBlock = b

			// now group within the parent group
			parts, err := col.GroupIndices(parentGroup.Indices)
			if err != nil {
				return nil, &GroupingError{Column: keys[level], Available: t.GetColumnNames(), Err: err}
			}
			for _, indices := range parts {
				g := &Group{
					Indices:     indices,
					ParentGroup: parentGroup,
					Block:       b,
				}
				b.Groups = append(b.Groups, g)
				next = append(next, g)
			}
		}
		parents = next
	}

	return &GroupedTable{
		table:    t,
		keyNames: append([]string(nil), keys...),
		root:     root,
		leaves:   parents,
	}, nil
}

// Table returns the ungrouped input table.
func (gt *GroupedTable) Table() *tables.DataTable {
	return gt.table
}

// KeyNames returns the key columns in grouping order.
func (gt *GroupedTable) KeyNames() []string {
	return append([]string(nil), gt.keyNames...)
}

// NumGroups returns the number of distinct key combinations.
func (gt *GroupedTable) NumGroups() int {
	return len(gt.leaves)
}

// Groups returns the leaf groups in their stable order.
func (gt *GroupedTable) Groups() []*Group {
	return append([]*Group(nil), gt.leaves...)
}

// Root returns the top of the grouping hierarchy; its Indices cover every row.
func (gt *GroupedTable) Root() *Group {
	return gt.root
}

// firstRows returns the first row index of every group.
func (gt *GroupedTable) firstRows() []int {
	first := make([]int, len(gt.leaves))
	for i, g := range gt.leaves {
		// Groups are never empty, except the single group of an ungrouped empty table.
		if len(g.Indices) == 0 {
			first[i] = -1
			continue
		}
		first[i] = g.Indices[0]
	}
	return first
}

// Keys returns one row per group holding its key values. Key columns are
// tagged with KeyEntityType.
func (gt *GroupedTable) Keys() *tables.DataTable {
	first := gt.firstRows()
	cols := make([]columns.IDataColumn, len(gt.keyNames))
	for i, name := range gt.keyNames {
		col := gt.table.GetColumn(name)
		def := columns.NewColumnDef(name, col.ColumnDef().DisplayName(), KeyEntityType)
		cols[i] = col.Take(first).WithDef(def)
	}
	keys, err := tables.NewDataTable(cols...)
	if err != nil {
		// Key columns come from one table, so names are unique and lengths agree.
		panic(fmt.Sprintf("grouping: inconsistent key table: %v", err))
	}
	return keys
}

// KeyStrings returns the display values of the key columns for group g.
func (gt *GroupedTable) KeyStrings(g *Group) []string {
	out := make([]string, len(gt.keyNames))
	if len(g.Indices) == 0 {
		return out
	}
	for i, name := range gt.keyNames {
		out[i], _ = gt.table.GetColumn(name).GetString(g.Indices[0])
	}
	return out
}
