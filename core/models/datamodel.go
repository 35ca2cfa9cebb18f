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

// Package models keeps named tables: the datasets a pipeline can start from
// and the intermediate tables it produces.
package models

import (
	"fmt"
	"sort"

	"github.com/google/tidynest/core/tables"
)

type DataModel struct {
	tables map[string]*tables.DataTable
	// registration order, so listings are deterministic
	order []string

	// entity type to list of table.column
	columnsByEntityType map[string][]TableColumnRef
}

// NewDataModel creates a new DataModel instance
func NewDataModel() *DataModel {
	return &DataModel{
		tables:              make(map[string]*tables.DataTable),
		columnsByEntityType: make(map[string][]TableColumnRef),
	}
}

// AddTable registers a table under name and indexes its entity-typed
// columns. Registering a name twice replaces the earlier table.
func (dm *DataModel) AddTable(name string, table *tables.DataTable) {
	if _, exists := dm.tables[name]; exists {
		dm.removeRefs(name)
	} else {
		dm.order = append(dm.order, name)
	}
	dm.tables[name] = table

	for _, col := range table.Columns() {
		entityType := col.ColumnDef().EntityType()
		if entityType != "" {
			dm.columnsByEntityType[entityType] = append(dm.columnsByEntityType[entityType], TableColumnRef{
				TableName:  name,
				ColumnName: col.ColumnDef().Name(),
			})
		}
	}
}

func (dm *DataModel) removeRefs(name string) {
	for entityType, refs := range dm.columnsByEntityType {
		kept := refs[:0]
		for _, ref := range refs {
			if ref.TableName != name {
				kept = append(kept, ref)
			}
		}
		dm.columnsByEntityType[entityType] = kept
	}
}

// GetTable returns a table by name, or nil
func (dm *DataModel) GetTable(name string) *tables.DataTable {
	return dm.tables[name]
}

// MustTable returns a table by name or an error listing the known names.
func (dm *DataModel) MustTable(name string) (*tables.DataTable, error) {
	t, ok := dm.tables[name]
	if !ok {
		return nil, fmt.Errorf("unknown table %q (known: %v)", name, dm.TableNames())
	}
	return t, nil
}

// TableNames returns table names in registration order.
func (dm *DataModel) TableNames() []string {
	return append([]string(nil), dm.order...)
}

// TableColumnRef represents a reference to a table and column
type TableColumnRef struct {
	TableName  string
	ColumnName string
}

// GetColumnsByEntityType returns the table/column references for an entity type
func (dm *DataModel) GetColumnsByEntityType(entityType string) []TableColumnRef {
	return append([]TableColumnRef(nil), dm.columnsByEntityType[entityType]...)
}

// GetAllEntityTypes returns all entity types in sorted order
func (dm *DataModel) GetAllEntityTypes() []string {
	var result []string
	for entityType, refs := range dm.columnsByEntityType {
		if len(refs) > 0 {
			result = append(result, entityType)
		}
	}
	sort.Strings(result)
	return result
}
