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

import "fmt"

// nullMask tracks missing values. A nil mask means every row is present.
type nullMask []bool

func (m nullMask) isNull(i int) bool {
	return m != nil && m[i]
}

// values is the storage shared by every column kind.
type values[T any] struct {
	data  []T
	nulls nullMask
}

func (v *values[T]) length() int {
	return len(v.data)
}

func (v *values[T]) append(x T) {
	if v.nulls != nil {
		v.nulls = append(v.nulls, false)
	}
	v.data = append(v.data, x)
}

func (v *values[T]) appendNull() {
	if v.nulls == nil {
		v.nulls = make(nullMask, len(v.data), len(v.data)+1)
	}
	v.nulls = append(v.nulls, true)
	var zero T
	v.data = append(v.data, zero)
}

func (v *values[T]) get(i int) (T, bool, error) {
	var zero T
	if err := checkIndex(i, len(v.data)); err != nil {
		return zero, false, err
	}
	if v.nulls.isNull(i) {
		return zero, false, nil
	}
	return v.data[i], true, nil
}

// clone copies the storage so that appends to either side stay private.
func (v *values[T]) clone() values[T] {
	out := values[T]{data: append(make([]T, 0, len(v.data)), v.data...)}
	if v.nulls != nil {
		out.nulls = append(make(nullMask, 0, len(v.nulls)), v.nulls...)
	}
	return out
}

func (v *values[T]) take(indices []int) values[T] {
	out := values[T]{data: make([]T, len(indices))}
	for k, i := range indices {
		if i < 0 || v.nulls.isNull(i) {
			if out.nulls == nil {
				out.nulls = make(nullMask, len(indices))
			}
			out.nulls[k] = true
			continue
		}
		out.data[k] = v.data[i]
	}
	return out
}

func (v *values[T]) appendAll(o *values[T]) {
	for i := range o.data {
		if o.nulls.isNull(i) {
			v.appendNull()
		} else {
			v.append(o.data[i])
		}
	}
}

// groupComparable groups indices by value for comparable element types.
// Nulls share one group; values for which special returns true share another.
func groupComparable[T comparable](v *values[T], indices []int, special func(T) bool) [][]int {
	groups := [][]int{}
	slots := map[T]int{}
	nullSlot, specialSlot := -1, -1
	for _, i := range indices {
		var slot int
		switch {
		case v.nulls.isNull(i):
			if nullSlot < 0 {
				nullSlot = len(groups)
				groups = append(groups, nil)
			}
			slot = nullSlot
		case special != nil && special(v.data[i]):
			if specialSlot < 0 {
				specialSlot = len(groups)
				groups = append(groups, nil)
			}
			slot = specialSlot
		default:
			s, ok := slots[v.data[i]]
			if !ok {
				s = len(groups)
				slots[v.data[i]] = s
				groups = append(groups, nil)
			}
			slot = s
		}
		groups[slot] = append(groups[slot], i)
	}
	return groups
}

// concatInto is the shared body of every concat implementation.
func concatInto[T any](def *ColumnDef, first *values[T], others []IDataColumn, unwrap func(IDataColumn) (*values[T], bool)) (values[T], error) {
	out := values[T]{}
	out.appendAll(first)
	for _, o := range others {
		ov, ok := unwrap(o)
		if !ok {
			return values[T]{}, fmt.Errorf("concat %q: cannot append %s column %q", def.Name(), ElemTypeName(o), o.ColumnDef().Name())
		}
		out.appendAll(ov)
	}
	return out, nil
}
