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
	"container/heap"
	"fmt"
	"sort"

	"github.com/google/tidynest/core/columns"
)

// SortColumn names a column and its sort direction
type SortColumn struct {
	Name       string
	Descending bool
}

// sortableColumn holds a column reference and its sort direction
type sortableColumn struct {
	col        columns.IDataColumn
	descending bool
}

// topKHeap implements a max-heap for top-K selection
// When we want the smallest K elements, we use a max-heap:
// - If new element is smaller than max, pop max and push new element
// - At the end, heap contains K smallest elements
type topKHeap struct {
	indices []int
	cols    []sortableColumn
}

func (h *topKHeap) Len() int { return len(h.indices) }

// Less puts the worst of the kept elements at the top of the heap.
// Ties are broken by row index so the selection matches a stable sort.
func (h *topKHeap) Less(i, j int) bool {
	a, b := h.indices[i], h.indices[j]
	if c := compareRows(h.cols, a, b); c != 0 {
		return c > 0
	}
	return a > b
}

func (h *topKHeap) Swap(i, j int) {
	h.indices[i], h.indices[j] = h.indices[j], h.indices[i]
}

func (h *topKHeap) Push(x interface{}) {
	h.indices = append(h.indices, x.(int))
}

func (h *topKHeap) Pop() interface{} {
	old := h.indices
	n := len(old)
	x := old[n-1]
	h.indices = old[0 : n-1]
	return x
}

// compareRows compares two row indices using multi-column sort order
// Returns negative if i < j, zero if equal, positive if i > j.
// Nulls sort last in both directions.
func compareRows(cols []sortableColumn, i, j int) int {
	for _, sc := range cols {
		if ni, nj := sc.col.IsNull(i), sc.col.IsNull(j); ni || nj {
			if ni != nj {
				if ni {
					return 1
				}
				return -1
			}
			continue
		}
		cmp := columns.CompareAtIndex(sc.col, i, j)
		if cmp != 0 {
			if sc.descending {
				return -cmp // Reverse for descending
			}
			return cmp
		}
	}
	return 0
}

func (dt *DataTable) sortableColumns(sortOrder []SortColumn) ([]sortableColumn, error) {
	cols := make([]sortableColumn, 0, len(sortOrder))
	for _, so := range sortOrder {
		col := dt.GetColumn(so.Name)
		if col == nil {
			return nil, fmt.Errorf("arrange: %w: %q", ErrColumnNotFound, so.Name)
		}
		cols = append(cols, sortableColumn{col: col, descending: so.Descending})
	}
	return cols, nil
}

// Arrange returns the rows sorted by sortOrder. The sort is stable, so rows
// that compare equal keep their original relative order.
func (dt *DataTable) Arrange(sortOrder ...SortColumn) (*DataTable, error) {
	cols, err := dt.sortableColumns(sortOrder)
	if err != nil {
		return nil, err
	}
	indices := columns.AllIndices(dt.length)
	sort.SliceStable(indices, func(i, j int) bool {
		return compareRows(cols, indices[i], indices[j]) < 0
	})
	return dt.Take(indices), nil
}

// TopK returns the first k rows of Arrange(sortOrder...) without sorting
// the whole table.
//
// Algorithm:
// 1. Build a max-heap of size K (keeping the K "best" elements seen so far)
// 2. Scan all indices, replacing heap top when a better element is found
// 3. Sort the final K elements
func (dt *DataTable) TopK(k int, sortOrder ...SortColumn) (*DataTable, error) {
	cols, err := dt.sortableColumns(sortOrder)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return dt.Take([]int{}), nil
	}
	if k >= dt.length {
		return dt.Arrange(sortOrder...)
	}

	h := &topKHeap{
		indices: make([]int, 0, k),
		cols:    cols,
	}
	for i := 0; i < k; i++ {
		h.indices = append(h.indices, i)
	}
	heap.Init(h)

	for i := k; i < dt.length; i++ {
		// A later row only displaces the top if it is strictly better
		if compareRows(cols, i, h.indices[0]) < 0 {
			heap.Pop(h)
			heap.Push(h, i)
		}
	}

	result := h.indices
	sort.Slice(result, func(a, b int) bool {
		if c := compareRows(cols, result[a], result[b]); c != 0 {
			return c < 0
		}
		return result[a] < result[b]
	})
	return dt.Take(result), nil
}
