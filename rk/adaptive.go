package rk

import (
	"fmt"
	"math"
)

// Embedded is a named embedded pair for adaptive step size control. Its
// tableau ends with the higher-order weights followed by the lower-order
// weights. Order holds the orders of the two weight rows in that sequence.
type Embedded struct {
	Name    string
	Order   [2]int
	Tableau Tableau
}

// Solve integrates f with m. See SolveAdaptive.
func (m Embedded) Solve(f Func, y0 []float64, at, eps float64, opts ...AdaptiveOption) ([]float64, error) {
	return SolveAdaptive(f, y0, at, eps, m.Tableau, opts...)
}

// SolveSystem integrates fs with m. See SolveAdaptiveSystem.
func (m Embedded) SolveSystem(fs []Func, y0 []float64, at, eps float64, opts ...AdaptiveOption) ([]float64, error) {
	return SolveAdaptiveSystem(fs, y0, at, eps, m.Tableau, opts...)
}

const (
	// DefaultMinStep is the smallest step the adaptive driver shrinks to.
	// Steps of this size are accepted regardless of their error estimate.
	DefaultMinStep = 1e-7
	// DefaultMaxSteps is the default adaptive step budget, counting
	// rejected steps.
	DefaultMaxSteps = math.MaxUint64
)

type adaptive struct {
	maxSteps uint64
	minStep  float64
	lo, hi   float64
}

// AdaptiveOption configures an adaptive solve.
type AdaptiveOption func(*adaptive)

// MaxSteps sets the step budget. Exhausting it fails with ErrStepBudget.
func MaxSteps(n uint64) AdaptiveOption {
	return func(a *adaptive) { a.maxSteps = n }
}

// MinStep sets the step size floor.
func MinStep(h float64) AdaptiveOption {
	return func(a *adaptive) { a.minStep = h }
}

// Shrink sets the bounds of the factor applied to the step size after each
// attempt, before the 0.9 safety factor. The default is [0.05, 2]; [0.3, 2]
// is a common, less aggressive alternative.
func Shrink(lo, hi float64) AdaptiveOption {
	return func(a *adaptive) { a.lo, a.hi = lo, hi }
}

// next returns the step size to try after a step of size h with error
// estimate m.
func (a *adaptive) next(h, m, eps float64) float64 {
	f := math.Sqrt(eps / (2 * m))
	switch {
	case !(f >= a.lo):
		f = a.lo
	case f > a.hi:
		f = a.hi
	}
	return math.Max(0.9*f*h, a.minStep)
}

// SolveAdaptive integrates y' = f(t, y) from y0 = {t0, y(t0)} to at with the
// embedded pair described by bt, choosing step sizes to keep the difference
// between its two estimates within eps. The first trial step spans the whole
// distance. A distance below eps² is negligible and returns y0 unchanged.
func SolveAdaptive(f Func, y0 []float64, at, eps float64, bt Tableau, opts ...AdaptiveOption) ([]float64, error) {
	return SolveAdaptiveSystem([]Func{f}, y0, at, eps, bt, opts...)
}

// SolveAdaptiveSystem is like SolveAdaptive for a system. The error estimate
// is the largest difference over all components.
func SolveAdaptiveSystem(fs []Func, y0 []float64, at, eps float64, bt Tableau, opts ...AdaptiveOption) ([]float64, error) {
	if err := dimensions(fs, y0); err != nil {
		return nil, err
	}
	a := adaptive{maxSteps: DefaultMaxSteps, minStep: DefaultMinStep, lo: 0.05, hi: 2}
	for _, opt := range opts {
		opt(&a)
	}
	if !(eps > 0) || !(a.minStep > 0) || !(a.lo > 0) || a.hi < a.lo {
		return nil, ErrBadParameter
	}
	diff := at - y0[0]
	if math.IsNaN(diff) || math.IsInf(diff, 0) {
		return nil, ErrBadParameter
	}
	if diff < 0 {
		return nil, ErrBackward
	}
	y := append([]float64(nil), y0...)
	negligible := eps * eps
	if diff < negligible {
		return y, nil
	}
	s := len(bt) - 2
	w := newWork(s, len(fs))
	high := make([]float64, len(y))
	low := make([]float64, len(y))
	h := diff
	for n := uint64(0); at-y[0] >= negligible; n++ {
		if n >= a.maxSteps {
			return nil, fmt.Errorf("%w: %d steps, reached %g of %g", ErrStepBudget, n, y[0], at)
		}
		w.stages(fs, y, h, bt[:s])
		w.combine(high, y, bt[s])
		w.combine(low, y, bt[s+1])
		var m float64
		for i := 1; i < len(y); i++ {
			d := math.Abs(high[i] - low[i])
			if d > m || math.IsNaN(d) {
				m = d
			}
		}
		if m <= eps || h <= a.minStep {
			y[0] += h
			copy(y[1:], high[1:])
		}
		h = math.Min(a.next(h, m, eps), at-y[0])
	}
	return y, nil
}

var (
	BogackiShampine = Embedded{"bogacki-shampine", [2]int{3, 2}, Tableau{
		{0, 0},
		{0.5, 0.5, 0},
		{0.75, 0, 0.75, 0},
		{1, 2.0 / 9, 1.0 / 3, 4.0 / 9, 0},
		{0, 2.0 / 9, 1.0 / 3, 4.0 / 9, 0},
		{0, 7.0 / 24, 0.25, 1.0 / 3, 0.125},
	}}
	Fehlberg = Embedded{"fehlberg", [2]int{5, 4}, Tableau{
		{0, 0},
		{0.25, 0.25, 0},
		{3.0 / 8, 3.0 / 32, 9.0 / 32, 0},
		{12.0 / 13, 1932.0 / 2197, -7200.0 / 2197, 7296.0 / 2197, 0},
		{1, 439.0 / 216, -8, 3680.0 / 513, -845.0 / 4104, 0},
		{0.5, -8.0 / 27, 2, -3544.0 / 2565, 1859.0 / 4104, -11.0 / 40, 0},
		{0, 16.0 / 135, 0, 6656.0 / 12825, 28561.0 / 56430, -9.0 / 50, 2.0 / 55},
		{0, 25.0 / 216, 0, 1408.0 / 2565, 2197.0 / 4104, -1.0 / 5, 0},
	}}
	CashKarp = Embedded{"cash-karp", [2]int{5, 4}, Tableau{
		{0, 0},
		{0.2, 0.2, 0},
		{0.3, 3.0 / 40, 9.0 / 40, 0},
		{0.6, 0.3, -0.9, 1.2, 0},
		{1, -11.0 / 54, 2.5, -70.0 / 27, 35.0 / 27, 0},
		{7.0 / 8, 1631.0 / 55296, 175.0 / 512, 575.0 / 13824, 44275.0 / 110592, 253.0 / 4096, 0},
		{0, 37.0 / 378, 0, 250.0 / 621, 125.0 / 594, 0, 512.0 / 1771},
		{0, 2825.0 / 27648, 0, 18575.0 / 48384, 13525.0 / 55296, 277.0 / 14336, 0.25},
	}}
	DormandPrince = Embedded{"dormand-prince", [2]int{5, 4}, Tableau{
		{0, 0},
		{0.2, 0.2, 0},
		{0.3, 3.0 / 40, 9.0 / 40, 0},
		{0.8, 44.0 / 45, -56.0 / 15, 32.0 / 9, 0},
		{8.0 / 9, 19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729, 0},
		{1, 9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656, 0},
		{1, 35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0},
		{0, 35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0},
		{0, 5179.0 / 57600, 0, 7571.0 / 16695, 393.0 / 640, -92097.0 / 339200, 187.0 / 2100, 0.025},
	}}
)

var embedded = []Embedded{BogackiShampine, Fehlberg, CashKarp, DormandPrince}

// EmbeddedMethods returns the named embedded pairs.
func EmbeddedMethods() []Embedded {
	return append([]Embedded(nil), embedded...)
}

// LookupEmbedded finds an embedded pair by name.
func LookupEmbedded(name string) (Embedded, bool) {
	for _, m := range embedded {
		if m.Name == name {
			return m, true
		}
	}
	return Embedded{}, false
}
