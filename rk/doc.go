// Package rk integrates ordinary differential equations with explicit
// Runge-Kutta methods.
//
// Derivatives are Funcs over the independent variable followed by the state
// components, which is how an [rkexpr.Expr] parsed with variables
// {"x", "y", ...} evaluates. A state vector is likewise the independent
// variable followed by the components. Fixed-step methods take steps of a
// given size; embedded pairs choose step sizes to meet an error tolerance.
//
// Methods are described by Butcher tableaux. Besides the generic drivers,
// RK4 and RK4System implement the classic fourth-order method directly.
package rk
