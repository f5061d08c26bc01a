package rkexpr

import "strconv"

// BracketError is an error indicating mismatched parentheses in the input.
// It implements InputError.
type BracketError struct {
	// Col is the position of the unmatched parenthesis.
	Col int
	// Left is the unmatched open parenthesis, if any.
	Left string
	// Right is the unmatched close parenthesis, if any.
	Right string
}

func (err *BracketError) Error() string {
	if err.Left == "" {
		return errpos(err.Col, "mismatched parentheses: close "+err.Right+" with no open")
	}
	return errpos(err.Col, "mismatched parentheses: open "+err.Left+" with no close")
}

func (err *BracketError) Pos() int {
	return err.Col
}

// SeparatorError is an error indicating an argument separator outside a
// function call. It implements InputError.
type SeparatorError struct {
	// Col is the position of the separator.
	Col int
	// Sep is the separator.
	Sep string
}

func (err *SeparatorError) Error() string {
	return errpos(err.Col, "invalid occurrence of separator "+strconv.Quote(err.Sep))
}

func (err *SeparatorError) Pos() int {
	return err.Col
}

// SyntaxError is an error indicating a malformed arrangement of operators and
// operands, such as a trailing minus or a function called with the wrong
// number of arguments. It implements InputError.
type SyntaxError struct {
	// Col is the position of the offending token.
	Col int
	// Msg describes the problem.
	Msg string
}

func (err *SyntaxError) Error() string {
	return errpos(err.Col, err.Msg)
}

func (err *SyntaxError) Pos() int {
	return err.Col
}

// EmptyExpressionError is an error indicating input with nothing to evaluate.
type EmptyExpressionError struct {
	// Col is the position where an expression was expected.
	Col int
}

func (err *EmptyExpressionError) Error() string {
	return errpos(err.Col, "no expression")
}

func (err *EmptyExpressionError) Pos() int {
	return err.Col
}

// VariableError indicates a variable list naming the same variable twice.
// Names are compared without regard to case.
type VariableError struct {
	// Name is the later of the two names.
	Name string
	// First and Second are the indices of the conflicting names.
	First, Second int
}

func (err *VariableError) Error() string {
	return "duplicate variable " + strconv.Quote(err.Name) + " at " + strconv.Itoa(err.First) + " and " + strconv.Itoa(err.Second)
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// InputError is an error with position information. Every error resulting from
// invalid input implements InputError.
type InputError interface {
	error
	// Pos returns the position of the error as the number of runes up to and
	// including the start of the token that caused the error.
	Pos() int
}

var (
	_ InputError = (*BracketError)(nil)
	_ InputError = (*SeparatorError)(nil)
	_ InputError = (*SyntaxError)(nil)
	_ InputError = (*EmptyExpressionError)(nil)
	_ InputError = (*TokenError)(nil)
)
