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

package tables

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/tidynest/core/columns"
)

// ToListValue converts the table to a protobuf ListValue holding one Struct
// per row. Nested tables become nested lists; other list-column cells are
// exported through their display form.
func (dt *DataTable) ToListValue() (*structpb.ListValue, error) {
	rows := make([]*structpb.Value, dt.length)
	for i := 0; i < dt.length; i++ {
		fields := make(map[string]*structpb.Value, len(dt.columns))
		for _, col := range dt.columns {
			v, err := cellValue(col, i)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", i, col.ColumnDef().Name(), err)
			}
			fields[col.ColumnDef().Name()] = v
		}
		rows[i] = structpb.NewStructValue(&structpb.Struct{Fields: fields})
	}
	return &structpb.ListValue{Values: rows}, nil
}

// MarshalJSON encodes the table as a JSON array of row objects.
func (dt *DataTable) MarshalJSON() ([]byte, error) {
	lv, err := dt.ToListValue()
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(lv)
}

func cellValue(col columns.IDataColumn, i int) (*structpb.Value, error) {
	if col.IsNull(i) {
		return structpb.NewNullValue(), nil
	}
	switch c := col.(type) {
	case *columns.StringColumn:
		s, err := c.GetValue(i)
		if err != nil {
			return nil, err
		}
		return structpb.NewStringValue(s), nil
	case *columns.Float64Column:
		f, err := c.GetValue(i)
		if err != nil {
			return nil, err
		}
		// JSON has no NaN or infinities
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return structpb.NewStringValue(columns.FormatFloat64(f)), nil
		}
		return structpb.NewNumberValue(f), nil
	case *columns.Int64Column:
		n, err := c.GetValue(i)
		if err != nil {
			return nil, err
		}
		return structpb.NewNumberValue(float64(n)), nil
	case *columns.BoolColumn:
		b, err := c.GetValue(i)
		if err != nil {
			return nil, err
		}
		return structpb.NewBoolValue(b), nil
	case *columns.ValueColumn[*DataTable]:
		sub, err := c.GetValue(i)
		if err != nil {
			return nil, err
		}
		if sub == nil {
			return structpb.NewNullValue(), nil
		}
		lv, err := sub.ToListValue()
		if err != nil {
			return nil, err
		}
		return structpb.NewListValue(lv), nil
	default:
		s, err := col.GetString(i)
		if err != nil {
			return nil, err
		}
		return structpb.NewStringValue(s), nil
	}
}
