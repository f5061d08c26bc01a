package rkexpr

import (
	"math"
	"strconv"
)

// Eval evaluates p with variable values bound positionally from vals. stack
// is scratch space for operands; Eval does not allocate if its capacity
// covers the program's depth. vals must be long enough for every variable the
// program references.
func (p Program) Eval(vals, stack []float64) float64 {
	s := stack[:0]
	for _, t := range p {
		switch t.Kind {
		case Num:
			s = append(s, t.Num)
		case Var:
			s = append(s, vals[t.Var])
		case Neg:
			s[len(s)-1] = -s[len(s)-1]
		case Sin:
			s[len(s)-1] = math.Sin(s[len(s)-1])
		case Cos:
			s[len(s)-1] = math.Cos(s[len(s)-1])
		case Add:
			a := s[len(s)-1]
			s = s[:len(s)-1]
			s[len(s)-1] += a
		case Sub:
			a := s[len(s)-1]
			s = s[:len(s)-1]
			s[len(s)-1] -= a
		case Mul:
			a := s[len(s)-1]
			s = s[:len(s)-1]
			s[len(s)-1] *= a
		case Div:
			a := s[len(s)-1]
			s = s[:len(s)-1]
			s[len(s)-1] /= a
		case Pow:
			a := s[len(s)-1]
			s = s[:len(s)-1]
			s[len(s)-1] = math.Pow(s[len(s)-1], a)
		default:
			panic("rkexpr: invalid program token " + t.Kind.String())
		}
	}
	if len(s) != 1 {
		panic("rkexpr: inconsistent stack: " + strconv.Itoa(len(s)) + " items (bad program?)")
	}
	return s[0]
}
