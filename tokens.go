package rkexpr

import (
	"math"
	"strconv"
	"strings"
)

// TokenKind identifies the kind of a token.
type TokenKind uint8

const (
	// Num is a number literal.
	Num TokenKind = iota
	// Var is a reference to a declared variable.
	Var
	// Add, Sub, Mul, and Div are the binary arithmetic operators.
	Add
	Sub
	Mul
	Div
	// Neg is unary minus.
	Neg
	// Sin, Cos, and Pow are the functions. Pow takes two arguments, the base
	// and the exponent.
	Sin
	Cos
	Pow
	// LeftParen and RightParen group subexpressions and function arguments.
	LeftParen
	RightParen
	// Delim separates function arguments.
	Delim
)

var kindNames = [...]string{
	Num:        "Num",
	Var:        "Var",
	Add:        "Add",
	Sub:        "Sub",
	Mul:        "Mul",
	Div:        "Div",
	Neg:        "Neg",
	Sin:        "Sin",
	Cos:        "Cos",
	Pow:        "Pow",
	LeftParen:  "LeftParen",
	RightParen: "RightParen",
	Delim:      "Delim",
}

func (k TokenKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "TokenKind(" + strconv.Itoa(int(k)) + ")"
}

// Class is the broad category of a token.
type Class uint8

const (
	ClassNumber Class = iota
	ClassVariable
	ClassOperator
	ClassFunction
	ClassLeftParen
	ClassRightParen
	ClassDelimiter
)

// Assoc is the associativity of an operator.
type Assoc uint8

const (
	// AssocBoth marks commutative operators. For grouping they behave as
	// left-associative.
	AssocBoth Assoc = iota
	AssocLeft
	AssocRight
)

// Token is a single element of an expression. Only Num tokens use Num and
// Lit, and only Var tokens use Var.
type Token struct {
	Kind TokenKind
	// Num is the value of a number literal.
	Num float64
	// Lit is the literal's source text, for evaluation at precisions beyond
	// float64. It may be empty, in which case Num is exact.
	Lit string
	// Var is the zero-based index of a variable into the variable table the
	// expression was parsed with.
	Var int
}

// Class returns the category of t.
func (t Token) Class() Class {
	switch t.Kind {
	case Num:
		return ClassNumber
	case Var:
		return ClassVariable
	case Add, Sub, Mul, Div, Neg:
		return ClassOperator
	case Sin, Cos, Pow:
		return ClassFunction
	case LeftParen:
		return ClassLeftParen
	case RightParen:
		return ClassRightParen
	case Delim:
		return ClassDelimiter
	default:
		panic("rkexpr: invalid token kind " + t.Kind.String())
	}
}

// Prec returns the precedence of an operator. Lower values bind tighter.
// Prec returns -1 for tokens that are not operators.
func (t Token) Prec() int {
	switch t.Kind {
	case Neg:
		return 0
	case Mul, Div:
		return 1
	case Add, Sub:
		return 2
	default:
		return -1
	}
}

// Assoc returns the associativity of an operator.
func (t Token) Assoc() Assoc {
	switch t.Kind {
	case Add, Mul:
		return AssocBoth
	case Neg:
		return AssocRight
	default:
		return AssocLeft
	}
}

// leftAssoc reports whether ties in precedence group to the left.
func (t Token) leftAssoc() bool {
	return t.Assoc() != AssocRight
}

// Arity returns the number of operands t consumes during evaluation.
func (t Token) Arity() int {
	switch t.Kind {
	case Neg, Sin, Cos:
		return 1
	case Add, Sub, Mul, Div, Pow:
		return 2
	default:
		return 0
	}
}

// GoSource returns the Go source text for t in a function whose variables are
// held in a []float64 named vars. Number literals render as exact bit
// patterns so that the compiler never constant-folds them.
func (t Token) GoSource() string {
	switch t.Kind {
	case Num:
		return "math.Float64frombits(0x" + strconv.FormatUint(math.Float64bits(t.Num), 16) + ")"
	case Var:
		return "vars[" + strconv.Itoa(t.Var) + "]"
	case Sin:
		return "math.Sin"
	case Cos:
		return "math.Cos"
	case Pow:
		return "math.Pow"
	default:
		return t.symbol()
	}
}

// symbol returns the text of a token as it appears in expressions.
func (t Token) symbol() string {
	switch t.Kind {
	case Num:
		if math.IsInf(t.Num, 1) {
			return "inf"
		}
		return strconv.FormatFloat(t.Num, 'g', -1, 64)
	case Var:
		return "$" + strconv.Itoa(t.Var)
	case Add:
		return "+"
	case Sub, Neg:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Sin:
		return "sin"
	case Cos:
		return "cos"
	case Pow:
		return "pow"
	case LeftParen:
		return "("
	case RightParen:
		return ")"
	case Delim:
		return ","
	default:
		panic("rkexpr: invalid token kind " + t.Kind.String())
	}
}

func (t Token) String() string {
	switch t.Kind {
	case Neg:
		return "neg"
	default:
		return t.symbol()
	}
}

// symbols maps the spelling of each fixed token to its value. Unary minus is
// keyed by "--" since the tokenizer decides it from context.
var symbols = map[string]Token{
	"*":   {Kind: Mul},
	"+":   {Kind: Add},
	"-":   {Kind: Sub},
	"--":  {Kind: Neg},
	"/":   {Kind: Div},
	"(":   {Kind: LeftParen},
	")":   {Kind: RightParen},
	",":   {Kind: Delim},
	"sin": {Kind: Sin},
	"cos": {Kind: Cos},
	"pow": {Kind: Pow},
}

// render concatenates the text of tokens, with spaces around operators only.
func render(tokens []Token, text func(Token) string) string {
	var b strings.Builder
	for _, t := range tokens {
		if t.Class() != ClassOperator {
			b.WriteString(text(t))
			continue
		}
		if b.Len() > 0 && !strings.HasSuffix(b.String(), " ") {
			b.WriteByte(' ')
		}
		b.WriteString(text(t))
		b.WriteByte(' ')
	}
	return b.String()
}

// Render returns Go source for an infix token sequence, suitable as the body
// of a function with a vars []float64 parameter.
func Render(infix []Token) string {
	return render(infix, Token.GoSource)
}

// Program is a postfix evaluation program.
type Program []Token

// String returns the program's tokens separated by spaces.
func (p Program) String() string {
	s := make([]string, len(p))
	for i, t := range p {
		s[i] = t.String()
	}
	return strings.Join(s, " ")
}
