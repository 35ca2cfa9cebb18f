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
	"strconv"
)

// parser builds an expression tree by precedence climbing.
// Precedence (low to high):
//  1. or
//  2. and
//  3. not
//  4. ==, !=, <, >, <=, >=
//  5. +, -
//  6. *, /, %
//  7. unary -
//  8. literals, columns, calls, parentheses
type parser struct {
	lex lexer
	cur token
}

func parse(source string) (node, error) {
	p := &parser{lex: lexer{input: source}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur.typ != tokEOF {
		return nil, fmt.Errorf("unexpected %s at position %d", p.cur.typ, p.cur.pos)
	}
	return n, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

// binaryLevel parses a left-associative chain of the given operators.
func (p *parser) binaryLevel(next func() (node, error), ops ...tokenType) (node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for p.isOneOf(ops) {
		op := p.cur.typ
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &binaryOp{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) isOneOf(ops []tokenType) bool {
	for _, op := range ops {
		if p.cur.typ == op {
			return true
		}
	}
	return false
}

func (p *parser) parseOr() (node, error) {
	return p.binaryLevel(p.parseAnd, tokOr)
}

func (p *parser) parseAnd() (node, error) {
	return p.binaryLevel(p.parseNot, tokAnd)
}

func (p *parser) parseNot() (node, error) {
	if p.cur.typ != tokNot {
		return p.parseComparison()
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	operand, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return &unaryOp{op: tokNot, operand: operand}, nil
}

func (p *parser) parseComparison() (node, error) {
	return p.binaryLevel(p.parseAddSub, tokEQ, tokNE, tokLT, tokGT, tokLE, tokGE)
}

func (p *parser) parseAddSub() (node, error) {
	return p.binaryLevel(p.parseMulDiv, tokPlus, tokMinus)
}

func (p *parser) parseMulDiv() (node, error) {
	return p.binaryLevel(p.parseUnary, tokStar, tokSlash, tokPercent)
}

func (p *parser) parseUnary() (node, error) {
	if p.cur.typ != tokMinus {
		return p.parsePrimary()
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &unaryOp{op: tokMinus, operand: operand}, nil
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.cur
	switch tok.typ {
	case tokNumber:
		v, err := strconv.ParseFloat(tok.value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", tok.value, tok.pos)
		}
		return &numberLit{value: v}, p.advance()
	case tokString:
		return &stringLit{value: tok.value}, p.advance()
	case tokTrue, tokFalse:
		return &boolLit{value: tok.typ == tokTrue}, p.advance()
	case tokNA:
		return &naLit{}, p.advance()
	case tokIdent:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.typ != tokLParen {
			return &columnRef{name: tok.value}, nil
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &call{fn: tok.value, args: args, pos: tok.pos}, nil
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.cur.typ != tokRParen {
			return nil, fmt.Errorf("expected ')' at position %d", p.cur.pos)
		}
		return n, p.advance()
	case tokEOF:
		return nil, fmt.Errorf("unexpected end of expression")
	default:
		return nil, fmt.Errorf("unexpected %s at position %d", tok.typ, tok.pos)
	}
}

func (p *parser) parseArgs() ([]node, error) {
	// skip '('
	if err := p.advance(); err != nil {
		return nil, err
	}
	var args []node
	for p.cur.typ != tokRParen {
		if len(args) > 0 {
			if p.cur.typ != tokComma {
				return nil, fmt.Errorf("expected ',' or ')' at position %d", p.cur.pos)
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, p.advance()
}
