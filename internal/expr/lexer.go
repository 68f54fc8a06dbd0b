package expr

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenIdent
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenCaret
	tokenLeftParen
	tokenRightParen
	tokenLeftBracket
	tokenRightBracket
	tokenComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lexer scans an expression source string into tokens. Any rune outside the
// restricted grammar is reported immediately; the parser never sees it.
type lexer struct {
	src string
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t') {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{kind: tokenEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.src[l.pos]

	switch c {
	case '+':
		l.pos++
		return token{kind: tokenPlus, text: "+", pos: start}, nil
	case '-':
		l.pos++
		return token{kind: tokenMinus, text: "-", pos: start}, nil
	case '*':
		l.pos++
		// "**" is the one non-single-rune operator; accepted as an alias
		// for "^" because authors coming from spreadsheet formulas mix
		// the two.
		if l.pos < len(l.src) && l.src[l.pos] == '*' {
			l.pos++
			return token{kind: tokenCaret, text: "**", pos: start}, nil
		}
		return token{kind: tokenStar, text: "*", pos: start}, nil
	case '/':
		l.pos++
		return token{kind: tokenSlash, text: "/", pos: start}, nil
	case '^':
		l.pos++
		return token{kind: tokenCaret, text: "^", pos: start}, nil
	case '(':
		l.pos++
		return token{kind: tokenLeftParen, text: "(", pos: start}, nil
	case ')':
		l.pos++
		return token{kind: tokenRightParen, text: ")", pos: start}, nil
	case '[':
		l.pos++
		return token{kind: tokenLeftBracket, text: "[", pos: start}, nil
	case ']':
		l.pos++
		return token{kind: tokenRightBracket, text: "]", pos: start}, nil
	case ',':
		l.pos++
		return token{kind: tokenComma, text: ",", pos: start}, nil
	}

	if isDigit(c) || c == '.' {
		return l.scanNumber()
	}
	if isIdentStart(rune(c)) {
		for l.pos < len(l.src) && isIdentPart(rune(l.src[l.pos])) {
			l.pos++
		}
		return token{kind: tokenIdent, text: l.src[start:l.pos], pos: start}, nil
	}

	return token{}, newParseError(l.src, start, "unexpected character %q", string(rune(c)))
}

func (l *lexer) scanNumber() (token, error) {
	start := l.pos
	sawDigit := false
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
		sawDigit = true
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
			sawDigit = true
		}
	}
	if !sawDigit {
		if l.pos < len(l.src) && isIdentStart(rune(l.src[l.pos])) {
			return token{}, newParseError(l.src, start, "attribute access is not allowed")
		}
		return token{}, newParseError(l.src, start, "malformed number")
	}
	// Optional exponent part, e.g. 1.5e-3.
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		mark := l.pos
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		if l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		} else {
			// "2e" is an identifier boundary, not an exponent.
			l.pos = mark
		}
	}
	return token{kind: tokenNumber, text: l.src[start:l.pos], pos: start}, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// lexAll tokenises the whole source up front so the parser can look ahead
// without re-scanning.
func lexAll(src string) ([]token, error) {
	if strings.TrimSpace(src) == "" {
		return nil, newParseError(src, 0, "expression is empty")
	}
	l := newLexer(src)
	var tokens []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokenEOF {
			return tokens, nil
		}
	}
}
