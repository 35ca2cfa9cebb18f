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

package models

import (
	"github.com/google/tidynest/core/columns"
	"github.com/google/tidynest/core/tables"
)

// System table name constants
const (
	ColumnsTableName = "_columns"
)

// BuildColumnsTable creates a system table containing metadata about all columns
// in the DataModel. Each row represents one column from any table.
//
// Schema:
//   - table_name: str - The table this column belongs to
//   - column_name: str - The column's internal name
//   - display_name: str - The column's display name
//   - data_type: str - The column kind, or the Go type of a list-column
//   - entity_type: str - The entity type (null if none)
//   - row_count: i64 - Number of rows in the column
//   - position: i64 - Column index within the table
func BuildColumnsTable(dm *DataModel) (*tables.DataTable, error) {
	tableNameCol := columns.NewStringColumn(columns.NewColumnDef("table_name", "Table", ""))
	columnNameCol := columns.NewStringColumn(columns.NewColumnDef("column_name", "Column", ""))
	displayNameCol := columns.NewStringColumn(columns.NewColumnDef("display_name", "Display Name", ""))
	dataTypeCol := columns.NewStringColumn(columns.NewColumnDef("data_type", "Data Type", ""))
	entityTypeCol := columns.NewStringColumn(columns.NewColumnDef("entity_type", "Entity Type", ""))
	rowCountCol := columns.NewInt64Column(columns.NewColumnDef("row_count", "Row Count", ""))
	positionCol := columns.NewInt64Column(columns.NewColumnDef("position", "Position", ""))

	// Tables are listed in registration order, columns in table order
	for _, tableName := range dm.TableNames() {
		if isSystemTable(tableName) {
			continue
		}
		table := dm.GetTable(tableName)
		for position, col := range table.Columns() {
			colDef := col.ColumnDef()
			tableNameCol.Append(tableName)
			columnNameCol.Append(colDef.Name())
			displayNameCol.Append(colDef.DisplayName())
			dataTypeCol.Append(columns.ElemTypeName(col))
			if colDef.EntityType() == "" {
				entityTypeCol.AppendNull()
			} else {
				entityTypeCol.Append(colDef.EntityType())
			}
			rowCountCol.Append(int64(col.Length()))
			positionCol.Append(int64(position))
		}
	}

	return tables.NewDataTable(
		tableNameCol,
		columnNameCol,
		displayNameCol,
		dataTypeCol,
		entityTypeCol,
		rowCountCol,
		positionCol,
	)
}

// isSystemTable returns true if the table name is a system table
func isSystemTable(name string) bool {
	return name == ColumnsTableName
}

// AddSystemTables creates and adds all system tables to the DataModel.
// This should be called after all user tables have been added.
func AddSystemTables(dm *DataModel) error {
	columnsTable, err := BuildColumnsTable(dm)
	if err != nil {
		return err
	}
	dm.AddTable(ColumnsTableName, columnsTable)
	return nil
}
