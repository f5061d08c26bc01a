package rkexpr

import (
	"math/big"
	"strings"
)

// Expr is a parsed expression over an ordered list of variables. It
// evaluates with an interpreter until compiled, then with its native
// artifact. An Expr is not safe to use concurrently, but distinct Exprs are
// independent even when they share an artifact.
type Expr struct {
	infix []Token
	prog  Program
	depth int
	vars  []string
	stack []float64

	compiler Compiler
	arena    *Arena
	name     string
	art      Artifact
}

// Parse parses src as an expression over vars. Variables are bound by
// position: the first name in vars is index 0 of the values passed to Eval.
// Errors from invalid input implement InputError. A variable list naming one
// variable twice, including names differing only in case, is a
// *VariableError.
func Parse(src string, vars []string, opts ...Option) (*Expr, error) {
	e := Expr{arena: defaultArena}
	for _, opt := range opts {
		opt.option(&e)
	}
	if err := e.Parse(src, vars); err != nil {
		return nil, err
	}
	return &e, nil
}

// Parse replaces e's expression. On success, any compiled artifact is
// released and e evaluates with the interpreter until compiled again. On
// failure, e is unchanged. Errors closing a released artifact are discarded.
func (e *Expr) Parse(src string, vars []string) error {
	infix, err := tokenize(src, vars)
	if err != nil {
		return err
	}
	prog, depth, err := shunt(infix)
	if err != nil {
		return err
	}
	_ = e.release()
	e.infix = make([]Token, len(infix))
	for i, l := range infix {
		e.infix[i] = l.tok
	}
	e.prog = prog
	e.depth = depth
	e.vars = append([]string(nil), vars...)
	e.stack = make([]float64, 0, depth)
	return nil
}

// Eval evaluates e with variable values bound positionally from vals. vals
// must be at least as long as the variable list e was parsed with.
func (e *Expr) Eval(vals []float64) float64 {
	if e.art != nil {
		return e.art.Eval(vals)
	}
	return e.prog.Eval(vals, e.stack)
}

// EvalBig evaluates e with arbitrary-precision arithmetic at prec bits. It
// always uses the interpreter.
func (e *Expr) EvalBig(vals []*big.Float, prec uint) (*big.Float, error) {
	return e.prog.EvalBig(vals, prec)
}

// Clone returns a copy of e. If e is compiled, the copy shares its artifact
// rather than compiling again.
func (e *Expr) Clone() *Expr {
	c := &Expr{compiler: e.compiler, arena: e.arena}
	c.copy(e)
	return c
}

// Set makes e a copy of x, releasing e's previous artifact reference before
// taking a reference to x's. Returns e. Errors closing a released artifact
// are discarded.
func (e *Expr) Set(x *Expr) *Expr {
	if e == x {
		return e
	}
	_ = e.release()
	e.compiler, e.arena = x.compiler, x.arena
	e.copy(x)
	return e
}

// copy deep-copies x's program state into e and shares x's artifact.
func (e *Expr) copy(x *Expr) {
	e.infix = append([]Token(nil), x.infix...)
	e.prog = append(Program(nil), x.prog...)
	e.depth = x.depth
	e.vars = append([]string(nil), x.vars...)
	e.stack = make([]float64, 0, x.depth)
	if x.art != nil {
		e.arena.acquire(x.name)
		e.name, e.art = x.name, x.art
	}
}

// Close releases e's reference to its artifact, if any. The artifact is torn
// down when its last reference is released. e remains usable with the
// interpreter.
func (e *Expr) Close() error {
	return e.release()
}

// Vars returns a copy of the variable list e was parsed with.
func (e *Expr) Vars() []string {
	return append([]string(nil), e.vars...)
}

// Infix returns a copy of the token sequence e was parsed from.
func (e *Expr) Infix() []Token {
	return append([]Token(nil), e.infix...)
}

// Program returns a copy of e's postfix program.
func (e *Expr) Program() Program {
	return append(Program(nil), e.prog...)
}

// text renders a token with variable names.
func (e *Expr) text(t Token) string {
	if t.Kind == Var {
		return e.vars[t.Var]
	}
	return t.symbol()
}

// String returns e in infix form.
func (e *Expr) String() string {
	return render(e.infix, e.text)
}

// Postfix returns e's postfix program with variable names.
func (e *Expr) Postfix() string {
	s := make([]string, len(e.prog))
	for i, t := range e.prog {
		if t.Kind == Neg {
			s[i] = t.String()
			continue
		}
		s[i] = e.text(t)
	}
	return strings.Join(s, " ")
}
