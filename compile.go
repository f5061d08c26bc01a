package rkexpr

import (
	"context"
	"errors"
)

// EntryPoint is the name of the function exported by generated Go source.
const EntryPoint = "Compiled"

// Unit is everything a Compiler may use to produce native code for one
// expression.
type Unit struct {
	// Name uniquely identifies the artifact.
	Name string
	// Source is a complete Go main package exporting EntryPoint with type
	// func([]float64) float64.
	Source string
	// Program is the postfix program.
	Program Program
	// NumVars is the length of the variable vector.
	NumVars int
	// Depth is the greatest operand stack depth of the program.
	Depth int
}

// Compiler turns a Unit into an evaluable artifact.
type Compiler interface {
	Compile(ctx context.Context, u Unit) (Artifact, error)
}

// Artifact is a loaded native evaluator. Close releases its resources; it is
// called exactly once, after which Eval is never called.
type Artifact interface {
	Eval(vals []float64) float64
	Close() error
}

// ErrNoCompiler is returned by Compile on expressions without a compiler.
var ErrNoCompiler = errors.New("rkexpr: no compiler configured")

// CompileError is an error compiling or loading a native artifact.
type CompileError struct {
	// Name is the artifact name.
	Name string
	// Op is the stage that failed.
	Op string
	// Err is the underlying error.
	Err error
}

func (err *CompileError) Error() string {
	return "rkexpr: " + err.Op + " " + err.Name + ": " + err.Err.Error()
}

func (err *CompileError) Unwrap() error {
	return err.Err
}

const sourceHeader = `package main

import "math"

var _ = math.Pi

`

// Source returns the Go source for e's native evaluator.
func (e *Expr) Source() string {
	return sourceHeader +
		"// " + EntryPoint + " evaluates " + e.String() + ".\n" +
		"func " + EntryPoint + "(vars []float64) float64 {\n" +
		"\treturn " + Render(e.infix) + "\n" +
		"}\n"
}

// Compile compiles e to native code with its compiler. If e is already
// compiled, Compile does nothing. If compilation fails, e is unchanged and
// continues evaluating as before; the error is a *CompileError or
// ErrNoCompiler.
func (e *Expr) Compile(ctx context.Context) error {
	if e.art != nil {
		return nil
	}
	if e.compiler == nil {
		return ErrNoCompiler
	}
	u := Unit{
		Name:    e.arena.Name(),
		Source:  e.Source(),
		Program: e.prog,
		NumVars: len(e.vars),
		Depth:   e.depth,
	}
	art, err := e.compiler.Compile(ctx, u)
	if err != nil {
		var cerr *CompileError
		if errors.As(err, &cerr) {
			return err
		}
		return &CompileError{Name: u.Name, Op: "compile", Err: err}
	}
	e.arena.put(u.Name, art)
	e.name, e.art = u.Name, art
	return nil
}

// Compiled reports whether e evaluates with a native artifact.
func (e *Expr) Compiled() bool {
	return e.art != nil
}

// Artifact returns the name of e's native artifact, or the empty string if e
// is not compiled.
func (e *Expr) Artifact() string {
	return e.name
}

// release drops e's reference to its artifact, if any.
func (e *Expr) release() error {
	if e.art == nil {
		return nil
	}
	name := e.name
	e.name, e.art = "", nil
	return e.arena.release(name)
}
