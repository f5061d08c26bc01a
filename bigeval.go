package rkexpr

import (
	"math"
	"math/big"
	"strconv"

	"github.com/zephyrtronium/bigfloat"
)

// EvalBig evaluates p with arbitrary-precision arithmetic at prec bits. If an
// operation is outside its domain, e.g. 0/0 or a negative base raised to a
// non-integer power, the result is nil and the error is a *DomainError. A
// prec of 0 means 64.
func (p Program) EvalBig(vals []*big.Float, prec uint) (r *big.Float, err error) {
	if prec == 0 {
		prec = 64
	}
	stack := make([]*big.Float, 0, len(p))
	var cur Token
	defer func() {
		x := recover()
		if x == nil {
			return
		}
		// big.Float panics on operations producing NaN, such as inf - inf.
		if nan, ok := x.(big.ErrNaN); ok {
			r, err = nil, &DomainError{X: stack[len(stack)-1], Arg: cur.Arity(), Func: cur.symbol(), Msg: nan.Error()}
			return
		}
		panic(x)
	}()
	for _, t := range p {
		cur = t
		switch t.Kind {
		case Num:
			if math.IsNaN(t.Num) {
				return nil, &DomainError{Func: "literal"}
			}
			stack = append(stack, literal(t, prec))
		case Var:
			stack = append(stack, new(big.Float).SetPrec(prec).Set(vals[t.Var]))
		case Neg:
			x := stack[len(stack)-1]
			x.Neg(x)
		case Sin, Cos:
			x := stack[len(stack)-1]
			if x.IsInf() {
				return nil, &DomainError{X: x, Arg: 1, Func: t.symbol()}
			}
			sincos(x, x, t.Kind == Cos)
		default:
			r := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			l := stack[len(stack)-1]
			if err := binop(t, l, r); err != nil {
				return nil, err
			}
		}
	}
	if len(stack) != 1 {
		panic("rkexpr: inconsistent stack: " + strconv.Itoa(len(stack)) + " items (bad program?)")
	}
	return stack[0], nil
}

// literal converts a number token to a big.Float at prec, parsing its source
// text when it has one so that it is not limited to float64 precision.
func literal(t Token, prec uint) *big.Float {
	x := new(big.Float).SetPrec(prec)
	if t.Lit != "" {
		if _, _, err := x.Parse(t.Lit, 0); err == nil {
			return x
		}
	}
	return x.SetFloat64(t.Num)
}

// binop sets l to l op r.
func binop(t Token, l, r *big.Float) error {
	switch t.Kind {
	case Add:
		l.Add(l, r)
	case Sub:
		l.Sub(l, r)
	case Mul:
		l.Mul(l, r)
	case Div:
		// Guard against invalid divisions, 0/0 or inf/inf.
		if l.Sign() == 0 && r.Sign() == 0 || l.IsInf() && r.IsInf() {
			return &DomainError{X: r, Arg: 2, Func: "/"}
		}
		l.Quo(l, r)
	case Pow:
		return pow(l, l, r)
	default:
		panic("rkexpr: invalid program token " + t.Kind.String())
	}
	return nil
}

// pow sets z to x**y with the special cases of math.Pow for zero, infinite,
// and negative operands.
func pow(z, x, y *big.Float) error {
	switch {
	case y.Sign() == 0:
		z.SetInt64(1)
		return nil
	case x.Sign() == 0:
		if y.Sign() > 0 {
			z.SetInt64(0)
		} else {
			z.SetInf(false)
		}
		return nil
	case y.IsInf():
		var one big.Float
		one.SetInt64(1)
		abs := new(big.Float).Abs(x)
		switch c := abs.Cmp(&one); {
		case c == 0:
			z.SetInt64(1)
		case (c > 0) == (y.Sign() > 0):
			z.SetInf(false)
		default:
			z.SetInt64(0)
		}
		return nil
	}
	neg := false
	if x.Sign() < 0 {
		if !y.IsInt() {
			return &DomainError{X: x, Arg: 1, Func: "pow"}
		}
		k, _ := y.Int(nil)
		neg = k.Bit(0) == 1
	}
	if x.IsInf() {
		if y.Sign() > 0 {
			z.SetInf(neg)
		} else {
			z.SetInt64(0)
			if neg {
				z.Neg(z)
			}
		}
		return nil
	}
	base := new(big.Float).SetPrec(z.Prec()).Abs(x)
	exp := new(big.Float).SetPrec(z.Prec()).Set(y)
	bigfloat.Pow(z, base, exp)
	if neg {
		z.Neg(z)
	}
	return nil
}

// sincos sets z to sin(x), or cos(x) if cos is true. x must be finite.
func sincos(z, x *big.Float, cos bool) *big.Float {
	prec := z.Prec()
	work := prec + 64
	if e := x.MantExp(nil); e > 0 {
		work += uint(e)
	}
	// Reduce x to r in [-π, π].
	tau := bigfloat.Pi(new(big.Float).SetPrec(work))
	tau.Mul(tau, big.NewFloat(2))
	q := new(big.Float).SetPrec(work).Quo(x, tau)
	if q.Sign() < 0 {
		q.Sub(q, big.NewFloat(0.5))
	} else {
		q.Add(q, big.NewFloat(0.5))
	}
	k, _ := q.Int(nil)
	r := new(big.Float).SetPrec(work).SetInt(k)
	r.Mul(r, tau)
	r.Sub(new(big.Float).SetPrec(work).Set(x), r)

	r2 := new(big.Float).SetPrec(work).Mul(r, r)
	term := new(big.Float).SetPrec(work)
	n := int64(1)
	if cos {
		term.SetInt64(1)
	} else {
		term.Set(r)
		n = 2
	}
	sum := new(big.Float).SetPrec(work).Set(term)
	d := new(big.Float).SetPrec(work)
	for term.Sign() != 0 && term.MantExp(nil) > -int(work) {
		// term *= -r² / (n (n+1))
		d.SetInt64(n * (n + 1))
		term.Mul(term, r2)
		term.Quo(term, d)
		term.Neg(term)
		sum.Add(sum, term)
		n += 2
	}
	return z.Set(sum)
}

// DomainError is an error returned when an operation is evaluated on
// arguments outside its domain.
type DomainError struct {
	// X is the out-of-domain argument, if available.
	X *big.Float
	// Arg is the 1-based index of the argument.
	Arg int
	// Func is a name identifying the operation.
	Func string
	// Msg is additional detail, if any.
	Msg string
}

func (err *DomainError) Error() string {
	r := "NaN outside domain"
	if err.X != nil {
		r = err.X.String() + " outside domain"
	}
	if err.Func != "" {
		r += " of " + err.Func
	}
	if err.Arg > 0 {
		r += " (argument " + strconv.Itoa(err.Arg) + ")"
	}
	if err.Msg != "" {
		r += ": " + err.Msg
	}
	return r
}
