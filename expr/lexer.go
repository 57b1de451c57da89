package expr

import (
	"fmt"
	"strconv"
	"unicode"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokString
	tokOp
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokDot
	tokColon
	tokAssign
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// Longest operators first, so that "**" wins over "*" and "//" over "/".
var operators = []string{
	"**", "//", "<<", ">>", "<=", ">=", "==", "!=",
	"+", "-", "*", "/", "%", "@", "&", "|", "^", "~", "<", ">",
}

type lexer struct {
	s string
	i int
}

func (l *lexer) next() (token, error) {
	for l.i < len(l.s) && unicode.IsSpace(rune(l.s[l.i])) {
		l.i++
	}
	if l.i >= len(l.s) {
		return token{kind: tokEOF, pos: l.i}, nil
	}

	start := l.i
	ch := rune(l.s[l.i])

	switch ch {
	case '(':
		l.i++
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case ')':
		l.i++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case '[':
		l.i++
		return token{kind: tokLBracket, text: "[", pos: start}, nil
	case ']':
		l.i++
		return token{kind: tokRBracket, text: "]", pos: start}, nil
	case ',':
		l.i++
		return token{kind: tokComma, text: ",", pos: start}, nil
	case ':':
		l.i++
		return token{kind: tokColon, text: ":", pos: start}, nil
	case '\'', '"':
		return l.scanString(ch)
	}

	if ch == '.' && !(l.i+1 < len(l.s) && isDigit(rune(l.s[l.i+1]))) {
		l.i++
		return token{kind: tokDot, text: ".", pos: start}, nil
	}

	if isIdentStart(ch) {
		l.i++
		for l.i < len(l.s) && isIdentContinue(rune(l.s[l.i])) {
			l.i++
		}
		return token{kind: tokIdent, text: l.s[start:l.i], pos: start}, nil
	}

	if ch == '.' || isDigit(ch) {
		l.i = scanNumber(l.s, l.i)
		txt := l.s[start:l.i]
		if l.i < len(l.s) && isIdentContinue(rune(l.s[l.i])) {
			return token{}, fmt.Errorf(
				"%w: invalid numeric literal at offset %d", ErrSyntax, start,
			)
		}
		f, err := strconv.ParseFloat(txt, 64)
		if err != nil {
			return token{}, fmt.Errorf(
				"%w: invalid numeric literal %q", ErrSyntax, txt,
			)
		}
		return token{kind: tokNumber, text: txt, num: f, pos: start}, nil
	}

	for _, op := range operators {
		if len(l.s)-l.i >= len(op) && l.s[l.i:l.i+len(op)] == op {
			l.i += len(op)
			return token{kind: tokOp, text: op, pos: start}, nil
		}
	}
	if ch == '=' {
		l.i++
		return token{kind: tokAssign, text: "=", pos: start}, nil
	}

	return token{}, fmt.Errorf(
		"%w: unexpected character %q at offset %d", ErrSyntax, ch, start,
	)
}

func (l *lexer) scanString(quote rune) (token, error) {
	start := l.i
	l.i++
	for l.i < len(l.s) {
		c := l.s[l.i]
		if c == '\\' {
			l.i += 2
			continue
		}
		l.i++
		if rune(c) == quote {
			return token{kind: tokString, text: l.s[start:l.i], pos: start}, nil
		}
	}
	return token{}, fmt.Errorf(
		"%w: unterminated string at offset %d", ErrSyntax, start,
	)
}

func scanNumber(s string, i int) int {
	for i < len(s) && isDigit(rune(s[i])) {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(rune(s[i])) {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(rune(s[k])) {
			k++
		}
		if k > j {
			i = k
		}
	}
	return i
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinue(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}
