package rk

import (
	"errors"
	"fmt"
	"math"
)

// Func is a derivative function. Its first argument is the independent
// variable, followed by the state components. *rkexpr.Expr satisfies Func.
type Func interface {
	Eval(vals []float64) float64
}

// Tableau is a Butcher tableau for an explicit method. Stage row j is
// {c_j, a_j0, ..., a_j(j-1), 0}, so row 0 is {0, 0}. The final row is
// {0, b_0, ..., b_(s-1)}. Embedded tableaux end with two weight rows, the
// higher order first.
type Tableau [][]float64

var (
	// ErrBackward is returned when the target precedes the initial point.
	ErrBackward = errors.New("rk: cannot compute solutions left of the initial value")
	// ErrStepBudget is returned when an adaptive solve exhausts its steps.
	ErrStepBudget = errors.New("rk: unable to finish solving for specified values")
	// ErrBadParameter is returned for non-positive steps or tolerances and
	// for method parameters that yield no method.
	ErrBadParameter = errors.New("rk: invalid parameter")
)

// dimensions checks that y0 holds the independent variable and one state
// component per function.
func dimensions(fs []Func, y0 []float64) error {
	if len(fs) == 0 {
		return fmt.Errorf("rk: no derivative functions")
	}
	if len(y0) != len(fs)+1 {
		return fmt.Errorf("rk: %d functions need %d initial values, have %d", len(fs), len(fs)+1, len(y0))
	}
	return nil
}

// steps returns the number of fixed steps of size h from y0[0] to at.
// Zero steps means the distance is negligible.
func steps(y0 []float64, at, h float64) (uint64, error) {
	if !(h > 0) {
		return 0, ErrBadParameter
	}
	diff := at - y0[0]
	if math.IsNaN(diff) || math.IsInf(diff, 0) {
		return 0, ErrBadParameter
	}
	if diff < 0 {
		return 0, ErrBackward
	}
	if diff < h {
		return 0, nil
	}
	n := diff/h + 0.5
	if n >= math.MaxUint64 {
		return 0, ErrStepBudget
	}
	return uint64(n), nil
}

// Solve integrates y' = f(t, y) from y0 = {t0, y(t0)} to at with fixed step
// h using the method described by bt. It returns {t, y(t)} after the last
// step. The number of steps is the distance divided by h, rounded to nearest;
// if the distance is less than h, y0 is returned unchanged.
func Solve(f Func, y0 []float64, at, h float64, bt Tableau) ([]float64, error) {
	return SolveSystem([]Func{f}, y0, at, h, bt)
}

// SolveSystem is like Solve for a system. fs[i] is the derivative of
// component i+1 of the state.
func SolveSystem(fs []Func, y0 []float64, at, h float64, bt Tableau) ([]float64, error) {
	if err := dimensions(fs, y0); err != nil {
		return nil, err
	}
	n, err := steps(y0, at, h)
	if err != nil {
		return nil, err
	}
	y := append([]float64(nil), y0...)
	s := len(bt) - 1
	w := newWork(s, len(fs))
	for range n {
		w.stages(fs, y, h, bt[:s])
		w.combine(y, y, bt[s])
		y[0] += h
	}
	return y, nil
}

// work holds scratch space for stage slopes.
type work struct {
	// k[j][i] is h times the slope of component i at stage j.
	k    [][]float64
	args []float64
}

func newWork(stages, dim int) *work {
	w := work{k: make([][]float64, stages), args: make([]float64, dim+1)}
	for j := range w.k {
		w.k[j] = make([]float64, dim)
	}
	return &w
}

// stages computes the stage slopes of one step of size h from y.
func (w *work) stages(fs []Func, y []float64, h float64, rows Tableau) {
	for j, row := range rows {
		w.args[0] = y[0] + h*row[0]
		for i := range fs {
			var sum float64
			for t := range j {
				sum += w.k[t][i] * row[t+1]
			}
			w.args[i+1] = y[i+1] + sum
		}
		for i, f := range fs {
			w.k[j][i] = h * f.Eval(w.args)
		}
	}
}

// combine sets the state components of dst to those of y advanced by the
// stage slopes weighted by the weight row b. dst[0] is untouched.
func (w *work) combine(dst, y []float64, b []float64) {
	for i := range w.k[0] {
		var sum float64
		for j := range w.k {
			sum += w.k[j][i] * b[j+1]
		}
		dst[i+1] = y[i+1] + sum
	}
}

// RK4 integrates like Solve with the classic fourth-order method, without
// going through a tableau.
func RK4(f Func, y0 []float64, at, h float64) ([]float64, error) {
	return RK4System([]Func{f}, y0, at, h)
}

// RK4System is like RK4 for a system.
func RK4System(fs []Func, y0 []float64, at, h float64) ([]float64, error) {
	if err := dimensions(fs, y0); err != nil {
		return nil, err
	}
	n, err := steps(y0, at, h)
	if err != nil {
		return nil, err
	}
	y := append([]float64(nil), y0...)
	tmp := make([]float64, len(y))
	k1 := make([]float64, len(fs))
	k2 := make([]float64, len(fs))
	k3 := make([]float64, len(fs))
	for range n {
		for i, f := range fs {
			k1[i] = h * f.Eval(y)
		}
		tmp[0] = y[0] + 0.5*h
		for i := range fs {
			tmp[i+1] = y[i+1] + 0.5*k1[i]
		}
		for i, f := range fs {
			k2[i] = h * f.Eval(tmp)
		}
		for i := range fs {
			tmp[i+1] = y[i+1] + 0.5*k2[i]
		}
		for i, f := range fs {
			k3[i] = h * f.Eval(tmp)
		}
		tmp[0] = y[0] + h
		for i := range fs {
			tmp[i+1] = y[i+1] + k3[i]
		}
		for i, f := range fs {
			k4 := h * f.Eval(tmp)
			y[i+1] += (k1[i] + 2*k2[i] + 2*k3[i] + k4) / 6
		}
		y[0] += h
	}
	return y, nil
}
