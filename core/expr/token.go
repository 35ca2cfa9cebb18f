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

import "fmt"

// tokenType is the kind of a lexical token
type tokenType int

const (
	tokEOF tokenType = iota
	tokNumber
	tokString
	tokIdent
	tokNA
	tokTrue
	tokFalse
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
	tokLParen
	tokRParen
	tokComma
	tokEQ
	tokNE
	tokLT
	tokGT
	tokLE
	tokGE
	tokAnd
	tokOr
	tokNot
)

var tokenNames = map[tokenType]string{
	tokEOF: "end of expression", tokNumber: "number", tokString: "string", tokIdent: "column name",
	tokNA: "NA", tokTrue: "true", tokFalse: "false",
	tokPlus: "+", tokMinus: "-", tokStar: "*", tokSlash: "/", tokPercent: "%",
	tokLParen: "(", tokRParen: ")", tokComma: ",",
	tokEQ: "==", tokNE: "!=", tokLT: "<", tokGT: ">", tokLE: "<=", tokGE: ">=",
	tokAnd: "and", tokOr: "or", tokNot: "not",
}

func (t tokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

type token struct {
	typ   tokenType
	value string
	pos   int
}
