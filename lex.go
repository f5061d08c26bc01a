package rkexpr

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// lexToken is a resolved token with the rune column where it starts.
type lexToken struct {
	tok Token
	pos int
}

func (t lexToken) String() string {
	return t.tok.Kind.String() + ":" + t.tok.String() + "@" + strconv.Itoa(t.pos)
}

// isWord reports whether r continues a multi-character identifier or number.
func isWord(r rune) bool {
	return r == '.' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// exponent reports whether s is a decimal mantissa followed by 'e'.
func exponent(s string) bool {
	if len(s) < 2 || s[len(s)-1] != 'e' {
		return false
	}
	dig := false
	for _, r := range s[:len(s)-1] {
		switch {
		case '0' <= r && r <= '9':
			dig = true
		case r == '.':
		default:
			return false
		}
	}
	return dig
}

// lexer resolves words and symbols into tokens against a variable table.
type lexer struct {
	// vars is the lower-cased variable table.
	vars []string
	out  []lexToken
}

// tokenize converts src into a sequence of tokens. Input is case-insensitive.
func tokenize(src string, vars []string) ([]lexToken, error) {
	l := lexer{vars: make([]string, len(vars))}
	for i, v := range vars {
		l.vars[i] = strings.ToLower(v)
		for j, w := range l.vars[:i] {
			if w == l.vars[i] {
				return nil, &VariableError{Name: v, First: j, Second: i}
			}
		}
	}
	rs := []rune(strings.ToLower(src))
	var word strings.Builder
	start := 0
	for i, r := range rs {
		col := i + 1
		if isWord(r) {
			if word.Len() == 0 {
				start = col
			}
			word.WriteRune(r)
			continue
		}
		// A sign immediately after an exponent marker belongs to the number.
		if (r == '+' || r == '-') && i+1 < len(rs) && unicode.IsDigit(rs[i+1]) && exponent(word.String()) {
			word.WriteRune(r)
			continue
		}
		if word.Len() > 0 {
			if err := l.word(word.String(), start); err != nil {
				return nil, err
			}
			word.Reset()
		}
		if unicode.IsSpace(r) {
			continue
		}
		s := string(r)
		if r == '-' {
			if strings.TrimSpace(string(rs[i+1:])) == "" {
				return nil, &SyntaxError{Col: col, Msg: "wrong syntax: trailing -"}
			}
			if l.unary() {
				s = "--"
			}
		}
		tok, ok := symbols[s]
		if !ok {
			return nil, &TokenError{Col: col, Text: s}
		}
		l.out = append(l.out, lexToken{tok: tok, pos: col})
	}
	if word.Len() > 0 {
		if err := l.word(word.String(), start); err != nil {
			return nil, err
		}
	}
	return l.out, nil
}

// unary reports whether a - at the current position is unary minus.
func (l *lexer) unary() bool {
	if len(l.out) == 0 {
		return true
	}
	switch l.out[len(l.out)-1].tok.Class() {
	case ClassOperator, ClassLeftParen, ClassDelimiter:
		return true
	}
	return false
}

// word resolves an accumulated word: a number, then a function name, then a
// declared variable.
func (l *lexer) word(s string, pos int) error {
	tok, err := l.getToken(s)
	if err != nil {
		return &TokenError{Col: pos, Text: s}
	}
	l.out = append(l.out, lexToken{tok: tok, pos: pos})
	return nil
}

var errUnknown = errors.New("unknown token")

func (l *lexer) getToken(s string) (Token, error) {
	if v, err := strconv.ParseFloat(s, 64); err == nil || errors.Is(err, strconv.ErrRange) {
		return Token{Kind: Num, Num: v, Lit: s}, nil
	}
	if tok, ok := symbols[s]; ok {
		return tok, nil
	}
	for i, v := range l.vars {
		if v == s {
			return Token{Kind: Var, Var: i}, nil
		}
	}
	return Token{}, errUnknown
}

// TokenError indicates text that is not a number, a function, an operator, or
// a declared variable. It implements InputError.
type TokenError struct {
	// Col is the position of the start of the token.
	Col int
	// Text is the unrecognized token.
	Text string
}

func (err *TokenError) Error() string {
	return errpos(err.Col, "unknown token "+strconv.Quote(err.Text))
}

func (err *TokenError) Pos() int {
	return err.Col
}
