package rkexpr

import (
	"errors"
	"math"
	"testing"
)

func FuzzParse(f *testing.F) {
	seeds := []string{
		"",
		"2 * x + y",
		"-x * x * x + y * y",
		"2 * -(2 + 4)",
		"pow(x, -y)",
		"sin(cos(x)) / (y - 1)",
		"((x)",
		"x,,y",
		"pow(,)",
		"--",
		"1e400 * 0",
	}
	for _, s := range seeds {
		f.Add(s)
	}
	vars := []string{"x", "y"}
	f.Fuzz(func(t *testing.T, src string) {
		e, err := Parse(src, vars)
		if err != nil {
			var ierr InputError
			if !errors.As(err, &ierr) {
				t.Fatalf("%q: error %v is not an InputError", src, err)
			}
			return
		}
		// Well-formed programs evaluate without panicking and within the
		// depth the parser computed.
		if len(e.prog) == 0 || e.depth < 1 {
			t.Fatalf("%q: empty program or depth %d", src, e.depth)
		}
		e.Eval([]float64{1, 2})
	})
}

func FuzzEval(f *testing.F) {
	f.Add("2 * x + y", 1.0, 2.0)
	f.Add("pow(x, y) - sin(y)", -3.0, 0.5)
	f.Add("x / y / y", 0.0, 0.0)
	f.Fuzz(func(t *testing.T, src string, x, y float64) {
		e, err := Parse(src, []string{"x", "y"})
		if err != nil {
			return
		}
		vals := []float64{x, y}
		want := e.Eval(vals)
		d := e.Clone()
		got := d.Eval(vals)
		if math.Float64bits(want) != math.Float64bits(got) && !(math.IsNaN(want) && math.IsNaN(got)) {
			t.Errorf("%q at %v: original %g, clone %g", src, vals, want, got)
		}
		re, err := Parse(e.String(), []string{"x", "y"})
		if err != nil {
			t.Fatalf("%q rendered as %q does not parse: %v", src, e.String(), err)
		}
		if re.Postfix() != e.Postfix() {
			t.Errorf("%q rendered as %q parses to %q, want %q", src, e.String(), re.Postfix(), e.Postfix())
		}
	})
}
