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

package expr

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/tidynest/core/columns"
)

type kind int

const (
	kindNA kind = iota
	kindNumber
	kindString
	kindBool
)

func (k kind) String() string {
	switch k {
	case kindNumber:
		return "number"
	case kindString:
		return "string"
	case kindBool:
		return "bool"
	default:
		return "NA"
	}
}

// Value is the result of evaluating an expression for one row.
// The zero Value is NA.
type Value struct {
	kind kind
	num  float64
	str  string
	b    bool
}

var na = Value{}

func number(v float64) Value { return Value{kind: kindNumber, num: v} }
func str(s string) Value     { return Value{kind: kindString, str: s} }
func boolean(b bool) Value   { return Value{kind: kindBool, b: b} }

func (v Value) IsNA() bool { return v.kind == kindNA }

// Float64 returns the value of a number.
func (v Value) Float64() (float64, bool) { return v.num, v.kind == kindNumber }

// Bool returns the value of a boolean.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == kindBool }

// String formats the value the way table cells are displayed.
func (v Value) String() string {
	switch v.kind {
	case kindNumber:
		return columns.FormatFloat64(v.num)
	case kindString:
		return v.str
	case kindBool:
		if v.b {
			return "true"
		}
		return "false"
	default:
		return columns.NullLabel
	}
}

// readCell converts one cell of a scalar column.
func readCell(col columns.IDataColumn, row int) (Value, error) {
	if col.IsNull(row) {
		return na, nil
	}
	switch c := col.(type) {
	case *columns.StringColumn:
		s, err := c.GetValue(row)
		return str(s), err
	case *columns.BoolColumn:
		b, err := c.GetValue(row)
		return boolean(b), err
	default:
		if f, ok := columns.NumericValue(col, row); ok {
			return number(f), nil
		}
		return na, fmt.Errorf("column %q of kind %s cannot be used in an expression", col.ColumnDef().Name(), col.Type())
	}
}

// evaluator evaluates a parsed expression against resolved columns.
type evaluator struct {
	cols map[string]columns.IDataColumn
}

func (e *evaluator) eval(n node, row int) (Value, error) {
	switch x := n.(type) {
	case *numberLit:
		return number(x.value), nil
	case *stringLit:
		return str(x.value), nil
	case *boolLit:
		return boolean(x.value), nil
	case *naLit:
		return na, nil
	case *columnRef:
		return readCell(e.cols[x.name], row)
	case *unaryOp:
		v, err := e.eval(x.operand, row)
		if err != nil || v.IsNA() {
			return na, err
		}
		switch {
		case x.op == tokMinus && v.kind == kindNumber:
			return number(-v.num), nil
		case x.op == tokNot && v.kind == kindBool:
			return boolean(!v.b), nil
		}
		return na, fmt.Errorf("cannot apply %s to %s", x.op, v.kind)
	case *binaryOp:
		if x.op == tokAnd || x.op == tokOr {
			return e.evalLogical(x, row)
		}
		left, err := e.eval(x.left, row)
		if err != nil {
			return na, err
		}
		right, err := e.eval(x.right, row)
		if err != nil {
			return na, err
		}
		return evalBinary(x.op, left, right)
	case *call:
		return e.evalCall(x, row)
	}
	return na, fmt.Errorf("unknown expression node %T", n)
}

// evalLogical implements three-valued and/or: NA and false is false,
// NA or true is true, anything else involving NA is NA.
func (e *evaluator) evalLogical(x *binaryOp, row int) (Value, error) {
	decisive := x.op == tokOr
	left, err := e.evalCondition(x.left, row)
	if err != nil {
		return na, err
	}
	if !left.IsNA() && left.b == decisive {
		return left, nil
	}
	right, err := e.evalCondition(x.right, row)
	if err != nil {
		return na, err
	}
	if !right.IsNA() && right.b == decisive {
		return right, nil
	}
	if left.IsNA() || right.IsNA() {
		return na, nil
	}
	return boolean(!decisive), nil
}

func (e *evaluator) evalCondition(n node, row int) (Value, error) {
	v, err := e.eval(n, row)
	if err != nil {
		return na, err
	}
	if v.kind != kindBool && v.kind != kindNA {
		return na, fmt.Errorf("expected a condition, got %s %s", v.kind, v)
	}
	return v, nil
}

func evalBinary(op tokenType, left, right Value) (Value, error) {
	if left.IsNA() || right.IsNA() {
		return na, nil
	}
	if left.kind != right.kind {
		return na, fmt.Errorf("cannot apply %s to %s and %s", op, left.kind, right.kind)
	}

	switch op {
	case tokEQ, tokNE, tokLT, tokGT, tokLE, tokGE:
		if left.kind == kindNumber && (math.IsNaN(left.num) || math.IsNaN(right.num)) {
			return na, nil
		}
		c := compare(left, right)
		switch op {
		case tokEQ:
			return boolean(c == 0), nil
		case tokNE:
			return boolean(c != 0), nil
		case tokLT:
			return boolean(c < 0), nil
		case tokGT:
			return boolean(c > 0), nil
		case tokLE:
			return boolean(c <= 0), nil
		default:
			return boolean(c >= 0), nil
		}
	}

	if left.kind == kindString && op == tokPlus {
		return str(left.str + right.str), nil
	}
	if left.kind != kindNumber {
		return na, fmt.Errorf("cannot apply %s to %s", op, left.kind)
	}
	a, b := left.num, right.num
	switch op {
	case tokPlus:
		return number(a + b), nil
	case tokMinus:
		return number(a - b), nil
	case tokStar:
		return number(a * b), nil
	case tokSlash:
		return number(a / b), nil
	case tokPercent:
		return number(math.Mod(a, b)), nil
	}
	return na, fmt.Errorf("unsupported operator %s", op)
}

func compare(a, b Value) int {
	switch a.kind {
	case kindNumber:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	case kindString:
		return strings.Compare(a.str, b.str)
	default:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		}
		return 1
	}
}
