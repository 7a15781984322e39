/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beans

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

type itemType int

const (
	itemError itemType = iota
	itemEOF
	itemKey
	itemValue
	itemComment
)

const (
	eof        = -1
	whitespace = " \f\t"
	keyEnd     = " \f\t\r\n:="
	escapable  = " :=#!fnrt"
	hexDigits  = "0123456789abcdefABCDEF"
)

type item struct {
	typ itemType
	pos int
	val string
}

func (t item) String() string {
	switch {
	case t.typ == itemEOF:
		return "EOF"
	case t.typ == itemError:
		return t.val
	case len(t.val) > 10:
		return fmt.Sprintf("%.10q...", t.val)
	}
	return fmt.Sprintf("%q", t.val)
}

type stateFn func(*lexer) stateFn

/**
Lexer of the properties text, every state function consumes input and returns the next state
*/
type lexer struct {
	input string
	pos   int
	start int
	width int
	buf   []rune
	items []item
}

func lex(input string) []item {
	l := &lexer{
		input: input,
		buf:   make([]rune, 0, 32),
	}
	for state := lexLineStart; state != nil; {
		state = state(l)
	}
	return l.items
}

func (t *lexer) next() rune {
	if t.pos >= len(t.input) {
		t.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(t.input[t.pos:])
	t.width = w
	t.pos += w
	return r
}

func (t *lexer) backup() {
	t.pos -= t.width
}

func (t *lexer) peek() rune {
	r := t.next()
	t.backup()
	return r
}

func (t *lexer) skip(valid string) {
	for strings.ContainsRune(valid, t.next()) {
	}
	t.backup()
}

func (t *lexer) emit(typ itemType) {
	t.items = append(t.items, item{typ, t.start, string(t.buf)})
	t.start = t.pos
	t.buf = t.buf[:0]
}

func (t *lexer) errorf(format string, args ...interface{}) stateFn {
	t.items = append(t.items, item{itemError, t.start, fmt.Sprintf(format, args...)})
	return nil
}

func lexLineStart(t *lexer) stateFn {
	t.skip(whitespace)
	t.start = t.pos
	switch r := t.next(); {
	case r == eof:
		t.emit(itemEOF)
		return nil
	case r == '\n' || r == '\r':
		return lexLineStart
	case r == '#' || r == '!':
		return lexComment
	default:
		t.backup()
		return lexKey
	}
}

func lexComment(t *lexer) stateFn {
	t.skip(whitespace)
	for {
		switch r := t.next(); {
		case r == eof:
			t.emit(itemComment)
			t.emit(itemEOF)
			return nil
		case r == '\n' || r == '\r':
			t.emit(itemComment)
			return lexLineStart
		default:
			t.buf = append(t.buf, r)
		}
	}
}

func lexKey(t *lexer) stateFn {
	for {
		r := t.next()
		switch {
		case r == '\\':
			if err := t.unescape(); err != nil {
				return t.errorf("%v", err)
			}
			continue
		case r == eof:
			t.emit(itemKey)
			t.emit(itemEOF)
			return nil
		case strings.ContainsRune(keyEnd, r):
			t.backup()
			t.emit(itemKey)
			return lexSeparator
		default:
			t.buf = append(t.buf, r)
		}
	}
}

/**
Only the first ':' or '=' after the key is the separator, others belong to the value
*/
func lexSeparator(t *lexer) stateFn {
	t.skip(whitespace)
	if r := t.next(); r != ':' && r != '=' {
		t.backup()
	}
	t.skip(whitespace)
	t.start = t.pos
	return lexValue
}

func lexValue(t *lexer) stateFn {
	for {
		switch r := t.next(); {
		case r == '\\':
			if p := t.peek(); p == '\n' || p == '\r' {
				// line continuation
				t.next()
				if p == '\r' && t.peek() == '\n' {
					t.next()
				}
				t.skip(whitespace)
				continue
			}
			if err := t.unescape(); err != nil {
				return t.errorf("%v", err)
			}
		case r == '\n' || r == '\r':
			t.emit(itemValue)
			return lexLineStart
		case r == eof:
			t.emit(itemValue)
			t.emit(itemEOF)
			return nil
		default:
			t.buf = append(t.buf, r)
		}
	}
}

func (t *lexer) unescape() error {
	r := t.next()
	switch {
	case r == eof:
		return fmt.Errorf("premature EOF")
	case r == 'u':
		var digits [4]rune
		for i := range digits {
			digits[i] = t.next()
			if digits[i] == eof || !strings.ContainsRune(hexDigits, digits[i]) {
				return fmt.Errorf("invalid unicode literal")
			}
		}
		code, err := strconv.ParseInt(string(digits[:]), 16, 32)
		if err != nil {
			return err
		}
		t.buf = append(t.buf, rune(code))
	case strings.ContainsRune(escapable, r):
		switch r {
		case 'f':
			r = '\f'
		case 'n':
			r = '\n'
		case 'r':
			r = '\r'
		case 't':
			r = '\t'
		}
		t.buf = append(t.buf, r)
	default:
		t.buf = append(t.buf, r)
	}
	return nil
}
