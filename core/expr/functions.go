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
)

// builtin is a function callable from expressions. NA arguments are
// handed to the function unless propagateNA is set, in which case any NA
// argument makes the result NA without calling fn.
type builtin struct {
	minArgs, maxArgs int
	propagateNA      bool
	fn               func(args []Value) (Value, error)
}

var builtins = map[string]builtin{
	"is_na": {1, 1, false, func(args []Value) (Value, error) {
		return boolean(args[0].IsNA()), nil
	}},
	"abs":   numeric(math.Abs),
	"sqrt":  numeric(math.Sqrt),
	"log":   numeric(math.Log),
	"log10": numeric(math.Log10),
	"exp":   numeric(math.Exp),
	"round": {1, 2, true, func(args []Value) (Value, error) {
		x, err := wantNumber(args[0])
		if err != nil {
			return na, err
		}
		digits := 0.0
		if len(args) == 2 {
			if digits, err = wantNumber(args[1]); err != nil {
				return na, err
			}
		}
		scale := math.Pow(10, digits)
		return number(math.RoundToEven(x*scale) / scale), nil
	}},
	"lower": text(strings.ToLower),
	"upper": text(strings.ToUpper),
	"if_else": {3, 3, false, func(args []Value) (Value, error) {
		if args[0].IsNA() {
			return na, nil
		}
		cond, ok := args[0].Bool()
		if !ok {
			return na, fmt.Errorf("if_else condition is %s, not bool", args[0].kind)
		}
		if cond {
			return args[1], nil
		}
		return args[2], nil
	}},
	"coalesce": {1, -1, false, func(args []Value) (Value, error) {
		for _, a := range args {
			if !a.IsNA() {
				return a, nil
			}
		}
		return na, nil
	}},
}

func numeric(f func(float64) float64) builtin {
	return builtin{1, 1, true, func(args []Value) (Value, error) {
		x, err := wantNumber(args[0])
		if err != nil {
			return na, err
		}
		return number(f(x)), nil
	}}
}

func text(f func(string) string) builtin {
	return builtin{1, 1, true, func(args []Value) (Value, error) {
		if args[0].kind != kindString {
			return na, fmt.Errorf("expected string, got %s", args[0].kind)
		}
		return str(f(args[0].str)), nil
	}}
}

func wantNumber(v Value) (float64, error) {
	if v.kind != kindNumber {
		return 0, fmt.Errorf("expected number, got %s", v.kind)
	}
	return v.num, nil
}

// checkCalls reports unknown functions and wrong argument counts before
// any row is evaluated.
func checkCalls(n node) error {
	switch x := n.(type) {
	case *unaryOp:
		return checkCalls(x.operand)
	case *binaryOp:
		if err := checkCalls(x.left); err != nil {
			return err
		}
		return checkCalls(x.right)
	case *call:
		b, ok := builtins[x.fn]
		if !ok {
			return fmt.Errorf("unknown function %q at position %d", x.fn, x.pos)
		}
		if len(x.args) < b.minArgs || (b.maxArgs >= 0 && len(x.args) > b.maxArgs) {
			return fmt.Errorf("%s: wrong number of arguments (%d)", x.fn, len(x.args))
		}
		for _, a := range x.args {
			if err := checkCalls(a); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *evaluator) evalCall(x *call, row int) (Value, error) {
	b := builtins[x.fn]
	args := make([]Value, len(x.args))
	for i, a := range x.args {
		v, err := e.eval(a, row)
		if err != nil {
			return na, err
		}
		if b.propagateNA && v.IsNA() {
			return na, nil
		}
		args[i] = v
	}
	v, err := b.fn(args)
	if err != nil {
		return na, fmt.Errorf("%s: %w", x.fn, err)
	}
	return v, nil
}
