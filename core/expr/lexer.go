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
	"strings"
	"unicode"
	"unicode/utf8"
)

var keywords = map[string]tokenType{
	"and":   tokAnd,
	"or":    tokOr,
	"not":   tokNot,
	"NA":    tokNA,
	"true":  tokTrue,
	"false": tokFalse,
}

// operators lists two-character operators before their one-character prefixes.
var operators = []struct {
	text string
	typ  tokenType
}{
	{"==", tokEQ}, {"!=", tokNE}, {"<=", tokLE}, {">=", tokGE},
	{"&&", tokAnd}, {"||", tokOr},
	{"<", tokLT}, {">", tokGT}, {"!", tokNot},
	{"+", tokPlus}, {"-", tokMinus}, {"*", tokStar}, {"/", tokSlash}, {"%", tokPercent},
	{"(", tokLParen}, {")", tokRParen}, {",", tokComma},
}

// lexer splits an expression into tokens
type lexer struct {
	input string
	pos   int
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && strings.ContainsRune(" \t\r\n", rune(l.input[l.pos])) {
		l.pos++
	}
	start := l.pos
	if l.pos >= len(l.input) {
		return token{typ: tokEOF, pos: start}, nil
	}

	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	switch {
	case isDigit(r) || (r == '.' && l.pos+1 < len(l.input) && isDigit(rune(l.input[l.pos+1]))):
		return l.readNumber(start), nil
	case r == '"' || r == '\'':
		return l.readQuoted(start, byte(r), tokString)
	case r == '`':
		// `I(year - 1952)` names a column that is not a plain identifier
		return l.readQuoted(start, '`', tokIdent)
	case unicode.IsLetter(r) || r == '_':
		for l.pos < len(l.input) {
			r, size = utf8.DecodeRuneInString(l.input[l.pos:])
			if !unicode.IsLetter(r) && !isDigit(r) && r != '_' && r != '.' {
				break
			}
			l.pos += size
		}
		word := l.input[start:l.pos]
		if typ, ok := keywords[word]; ok {
			return token{typ: typ, value: word, pos: start}, nil
		}
		return token{typ: tokIdent, value: word, pos: start}, nil
	}

	for _, op := range operators {
		if strings.HasPrefix(l.input[l.pos:], op.text) {
			l.pos += len(op.text)
			return token{typ: op.typ, value: op.text, pos: start}, nil
		}
	}
	if r == '=' {
		return token{}, fmt.Errorf("unexpected '=' at position %d, did you mean '=='?", start)
	}
	return token{}, fmt.Errorf("unexpected character %q at position %d", r, start)
}

func (l *lexer) readNumber(start int) token {
	seenDot, seenExp := false, false
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case isDigit(rune(c)):
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
		case (c == 'e' || c == 'E') && !seenExp:
			seenExp = true
			if l.pos+1 < len(l.input) && (l.input[l.pos+1] == '-' || l.input[l.pos+1] == '+') {
				l.pos++
			}
		default:
			return token{typ: tokNumber, value: l.input[start:l.pos], pos: start}
		}
		l.pos++
	}
	return token{typ: tokNumber, value: l.input[start:l.pos], pos: start}
}

func (l *lexer) readQuoted(start int, quote byte, typ tokenType) (token, error) {
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.input) && l.input[l.pos] != quote {
		c := l.input[l.pos]
		if c == '\\' && l.pos+1 < len(l.input) {
			l.pos++
			switch c = l.input[l.pos]; c {
			case 'n':
				c = '\n'
			case 't':
				c = '\t'
			}
		}
		sb.WriteByte(c)
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{}, fmt.Errorf("unterminated %s starting at position %d", typ, start)
	}
	l.pos++
	return token{typ: typ, value: sb.String(), pos: start}, nil
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
