package rk

import (
	"fmt"
	"math"
	"sort"
)

// Method is a named fixed-step explicit method.
type Method struct {
	Name    string
	Order   int
	Tableau Tableau
}

// Solve integrates f with m. See Solve.
func (m Method) Solve(f Func, y0 []float64, at, h float64) ([]float64, error) {
	return Solve(f, y0, at, h, m.Tableau)
}

// SolveSystem integrates fs with m. See SolveSystem.
func (m Method) SolveSystem(fs []Func, y0 []float64, at, h float64) ([]float64, error) {
	return SolveSystem(fs, y0, at, h, m.Tableau)
}

// Second order.
var (
	Midpoint = Method{"midpoint", 2, Tableau{
		{0, 0},
		{0.5, 0.5, 0},
		{0, 0, 1},
	}}
	Heun2 = Method{"heun2", 2, Tableau{
		{0, 0},
		{1, 1, 0},
		{0, 0.5, 0.5},
	}}
	Ralston2 = Method{"ralston2", 2, Tableau{
		{0, 0},
		{2.0 / 3, 2.0 / 3, 0},
		{0, 0.25, 0.75},
	}}
)

// Third order. SSPRK4 and SSPRK5 are the four and five stage strong
// stability preserving methods, both also third order.
var (
	Kutta3 = Method{"rk3", 3, Tableau{
		{0, 0},
		{0.5, 0.5, 0},
		{1, -1, 2, 0},
		{0, 1.0 / 6, 2.0 / 3, 1.0 / 6},
	}}
	Heun3 = Method{"heun3", 3, Tableau{
		{0, 0},
		{1.0 / 3, 1.0 / 3, 0},
		{2.0 / 3, 0, 2.0 / 3, 0},
		{0, 0.25, 0, 0.75},
	}}
	Ralston3 = Method{"ralston3", 3, Tableau{
		{0, 0},
		{0.5, 0.5, 0},
		{0.75, 0, 0.75, 0},
		{0, 2.0 / 9, 1.0 / 3, 4.0 / 9},
	}}
	SSPRK3 = Method{"ssprk3", 3, Tableau{
		{0, 0},
		{1, 1, 0},
		{0.5, 0.25, 0.25, 0},
		{0, 1.0 / 6, 1.0 / 6, 2.0 / 3},
	}}
	SSPRK4 = Method{"ssprk4", 3, Tableau{
		{0, 0},
		{0.5, 0.5, 0},
		{1, 0.5, 0.5, 0},
		{0.5, 1.0 / 6, 1.0 / 6, 1.0 / 6, 0},
		{0, 1.0 / 6, 1.0 / 6, 1.0 / 6, 0.5},
	}}
	SSPRK5 = Method{"ssprk5", 3, Tableau{
		{0, 0},
		{0.37727, 0.37727, 0},
		{0.75454, 0.37727, 0.37727, 0},
		{0.72899, 0.24300, 0.24300, 0.24300, 0},
		{0.69923, 0.15359, 0.15359, 0.15359, 0.23846, 0},
		{0, 0.20673, 0.20673, 0.11710, 0.18180, 0.28763},
	}}
)

// Fourth order.
var (
	Classic4 = Method{"rk4", 4, Tableau{
		{0, 0},
		{0.5, 0.5, 0},
		{0.5, 0, 0.5, 0},
		{1, 0, 0, 1, 0},
		{0, 1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
	}}
	ThreeEighths4 = Method{"rk4-3/8", 4, Tableau{
		{0, 0},
		{1.0 / 3, 1.0 / 3, 0},
		{2.0 / 3, -1.0 / 3, 1, 0},
		{1, 1, -1, 1, 0},
		{0, 1.0 / 8, 3.0 / 8, 3.0 / 8, 1.0 / 8},
	}}
	Ralston4 = Method{"ralston4", 4, Tableau{
		{0, 0},
		{0.4, 0.4, 0},
		{0.45573725, 0.29697761, 0.15875964, 0},
		{1, 0.21810040, -3.05096516, 3.83286476, 0},
		{0, 0.17476028, -0.55148066, 1.20553560, 0.17118478},
	}}
)

// Generic2 returns the second-order method whose second stage is at alpha.
// Midpoint, Heun2, and Ralston2 are alpha = 1/2, 1, and 2/3.
func Generic2(alpha float64) (Method, error) {
	if math.Abs(alpha) < 1e-6 || math.IsNaN(alpha) {
		return Method{}, fmt.Errorf("%w: generic second-order alpha must not be 0", ErrBadParameter)
	}
	return Method{fmt.Sprintf("generic2(%g)", alpha), 2, Tableau{
		{0, 0},
		{alpha, alpha, 0},
		{0, 1 - 1/(2*alpha), 1 / (2 * alpha)},
	}}, nil
}

// Generic3 returns the third-order method whose second stage is at alpha.
// Kutta3 is alpha = 1/2.
func Generic3(alpha float64) (Method, error) {
	if math.Abs(alpha) < 1e-6 || math.Abs(alpha-2.0/3) < 1e-5 || math.Abs(alpha-1) < 1e-5 || math.IsNaN(alpha) {
		return Method{}, fmt.Errorf("%w: generic third-order alpha must not be 0, 2/3, or 1", ErrBadParameter)
	}
	q := (1 - alpha) / (alpha * (3*alpha - 2))
	return Method{fmt.Sprintf("generic3(%g)", alpha), 3, Tableau{
		{0, 0},
		{alpha, alpha, 0},
		{1, 1 + q, -q, 0},
		{0, 0.5 - 1/(6*alpha), 1 / (6 * alpha * (1 - alpha)), (2 - 3*alpha) / (6 * (1 - alpha))},
	}}, nil
}

var methods = []Method{Midpoint, Heun2, Ralston2, Kutta3, Heun3, Ralston3, SSPRK3, SSPRK4, SSPRK5, Classic4, ThreeEighths4, Ralston4}

// Methods returns the named fixed-step methods sorted by order, then name.
func Methods() []Method {
	r := append([]Method(nil), methods...)
	sort.SliceStable(r, func(i, j int) bool {
		if r[i].Order != r[j].Order {
			return r[i].Order < r[j].Order
		}
		return r[i].Name < r[j].Name
	})
	return r
}

// Lookup finds a fixed-step method by name.
func Lookup(name string) (Method, bool) {
	for _, m := range methods {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}
