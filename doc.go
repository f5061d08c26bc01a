// Package rkexpr parses, evaluates, and compiles arithmetic expressions over
// named variables, for use as the right-hand sides of differential equations.
//
// The syntax is infix arithmetic with + - * /, unary minus, parentheses, and
// the functions sin(x), cos(x), and pow(base, exp). Input is case-insensitive.
// Numbers use Go float syntax. Names are made of letters, digits, '.', and
// '_'. "2 * -(x + 4)" is -2(x+4).
//
// Parse tokenizes the input and converts it to a postfix Program, which an
// Expr evaluates against a vector of variable values bound by position. The
// variable list is fixed at parse time, so evaluation does no name lookups.
//
// An Expr given a Compiler with WithCompiler can Compile itself to native
// code. Compiled artifacts are tracked in an Arena: copies made with Clone or
// Set share the artifact, and it is torn down when the last copy is closed or
// reparsed. The native subpackage provides compilers.
//
// EvalBig evaluates with math/big floats at any precision.
package rkexpr
