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

// node is an element of a parsed expression
type node interface {
	node()
}

type numberLit struct{ value float64 }

type stringLit struct{ value string }

type boolLit struct{ value bool }

type naLit struct{}

// columnRef names a column of the table the expression is bound to
type columnRef struct{ name string }

type unaryOp struct {
	op      tokenType
	operand node
}

type binaryOp struct {
	op          tokenType
	left, right node
}

type call struct {
	fn   string
	args []node
	pos  int
}

func (*numberLit) node() {}
func (*stringLit) node() {}
func (*boolLit) node()   {}
func (*naLit) node()     {}
func (*columnRef) node() {}
func (*unaryOp) node()   {}
func (*binaryOp) node()  {}
func (*call) node()      {}

// columnRefs returns the distinct column names used by n, in order of use.
func columnRefs(n node) []string {
	var names []string
	seen := map[string]bool{}
	var walk func(node)
	walk = func(n node) {
		switch x := n.(type) {
		case *columnRef:
			if !seen[x.name] {
				seen[x.name] = true
				names = append(names, x.name)
			}
		case *unaryOp:
			walk(x.operand)
		case *binaryOp:
			walk(x.left)
			walk(x.right)
		case *call:
			for _, a := range x.args {
				walk(a)
			}
		}
	}
	walk(n)
	return names
}
