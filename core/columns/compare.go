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

package columns

import (
	"cmp"
	"math"
	"strings"
)

// CompareAtIndex compares values at indices i and j for the given column.
// Returns -1 if value[i] < value[j], 0 if equal, 1 if value[i] > value[j].
// Nulls sort after every value; NaN sorts after every number but before nulls.
func CompareAtIndex(col IDataColumn, i, j int) int {
	ni, nj := col.IsNull(i), col.IsNull(j)
	if ni || nj {
		return compareNulls(ni, nj)
	}

	switch c := col.(type) {
	case *StringColumn:
		return strings.Compare(c.data[i], c.data[j])

	case *Float64Column:
		return compareFloat64s(c.data[i], c.data[j])

	case *Int64Column:
		return cmp.Compare(c.data[i], c.data[j])

	case *BoolColumn:
		return compareBools(c.data[i], c.data[j])

	default:
		// List-columns have no natural order; fall back to their display form.
		si, _ := col.GetString(i)
		sj, _ := col.GetString(j)
		return strings.Compare(si, sj)
	}
}

func compareNulls(ni, nj bool) int {
	switch {
	case ni && nj:
		return 0
	case ni:
		return 1
	default:
		return -1
	}
}

// compareFloat64s places NaN after all other values.
func compareFloat64s(a, b float64) int {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	if an || bn {
		return compareNulls(an, bn)
	}
	return cmp.Compare(a, b)
}

func compareBools(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}
