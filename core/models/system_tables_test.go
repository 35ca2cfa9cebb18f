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
	"reflect"
	"testing"

	"github.com/google/tidynest/core/columns"
	"github.com/google/tidynest/core/grouping"
	"github.com/google/tidynest/core/tables"
)

func newTestModel(t *testing.T) *DataModel {
	t.Helper()
	dm := NewDataModel()

	// First table: 2 columns
	name := columns.NewStringColumnFrom(columns.NewColumnDef("country", "Country", "country"), []string{"China", "Japan"})
	year := columns.NewInt64ColumnFrom(columns.NewColumnDef("year", "Year", ""), []int64{1952, 1952})
	countries, err := tables.NewDataTable(name, year)
	if err != nil {
		t.Fatal(err)
	}
	dm.AddTable("countries", countries)

	// Second table: a nested table with a list-column
	nested, err := grouping.Nest(countries, "country")
	if err != nil {
		t.Fatal(err)
	}
	dm.AddTable("by_country", nested)
	return dm
}

func TestBuildColumnsTable(t *testing.T) {
	dm := newTestModel(t)

	columnsTable, err := BuildColumnsTable(dm)
	if err != nil {
		t.Fatalf("BuildColumnsTable failed: %v", err)
	}

	// 2 columns from countries + 2 from by_country
	if columnsTable.Length() != 4 {
		t.Errorf("Expected 4 rows, got %d", columnsTable.Length())
	}

	expectedColumns := []string{"table_name", "column_name", "display_name", "data_type", "entity_type", "row_count", "position"}
	if got := columnsTable.GetColumnNames(); !reflect.DeepEqual(got, expectedColumns) {
		t.Errorf("Expected columns %v, got %v", expectedColumns, got)
	}

	dataTypeCol := columnsTable.GetColumn("data_type")
	entityTypeCol := columnsTable.GetColumn("entity_type")
	wantTypes := []string{"str", "i64", "str", "*tables.DataTable"}
	wantEntities := []string{"country", columns.NullLabel, grouping.KeyEntityType, columns.NullLabel}
	for i := 0; i < columnsTable.Length(); i++ {
		dataType, _ := dataTypeCol.GetString(i)
		if dataType != wantTypes[i] {
			t.Errorf("Row %d: expected data type %q, got %q", i, wantTypes[i], dataType)
		}
		entityType, _ := entityTypeCol.GetString(i)
		if entityType != wantEntities[i] {
			t.Errorf("Row %d: expected entity type %q, got %q", i, wantEntities[i], entityType)
		}
	}
}

func TestAddSystemTables(t *testing.T) {
	dm := newTestModel(t)

	if err := AddSystemTables(dm); err != nil {
		t.Fatalf("AddSystemTables failed: %v", err)
	}

	columnsTable := dm.GetTable(ColumnsTableName)
	if columnsTable == nil {
		t.Fatal("_columns table was not added to DataModel")
	}
	if columnsTable.GetColumn("table_name") == nil {
		t.Error("_columns table missing 'table_name' column")
	}
	if got := dm.TableNames(); !reflect.DeepEqual(got, []string{"countries", "by_country", ColumnsTableName}) {
		t.Errorf("Unexpected table order %v", got)
	}
}

func TestColumnsTableExcludesItself(t *testing.T) {
	dm := newTestModel(t)

	// Adding twice simulates a refresh after new tables were registered
	if err := AddSystemTables(dm); err != nil {
		t.Fatal(err)
	}
	columnsTable, err := BuildColumnsTable(dm)
	if err != nil {
		t.Fatal(err)
	}

	tableNameCol := columnsTable.GetColumn("table_name")
	for i := 0; i < columnsTable.Length(); i++ {
		tableName, _ := tableNameCol.GetString(i)
		if tableName == ColumnsTableName {
			t.Error("_columns table should not include itself in the metadata")
		}
	}
}

func TestEntityTypeIndex(t *testing.T) {
	dm := newTestModel(t)

	if got := dm.GetAllEntityTypes(); !reflect.DeepEqual(got, []string{"country", grouping.KeyEntityType}) {
		t.Errorf("GetAllEntityTypes() = %v", got)
	}
	refs := dm.GetColumnsByEntityType(grouping.KeyEntityType)
	if len(refs) != 1 || refs[0] != (TableColumnRef{TableName: "by_country", ColumnName: "country"}) {
		t.Errorf("GetColumnsByEntityType() = %v", refs)
	}

	// Replacing a table drops its old references
	plain, err := tables.NewBuilder().String("x").AddRow("a").Build()
	if err != nil {
		t.Fatal(err)
	}
	dm.AddTable("by_country", plain)
	if got := dm.GetAllEntityTypes(); !reflect.DeepEqual(got, []string{"country"}) {
		t.Errorf("after replace, GetAllEntityTypes() = %v", got)
	}

	if _, err := dm.MustTable("missing"); err == nil {
		t.Error("MustTable should fail for an unknown table")
	}
}
