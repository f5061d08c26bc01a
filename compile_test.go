package rkexpr

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"
)

// fakeCompiler produces artifacts that evaluate the unit's program with the
// interpreter, recording compilations and teardowns.
type fakeCompiler struct {
	compiles int
	closed   map[string]int
	units    []Unit
	fail     error
}

type fakeArtifact struct {
	name  string
	prog  Program
	stack []float64
	c     *fakeCompiler
	evals int
}

func (c *fakeCompiler) Compile(ctx context.Context, u Unit) (Artifact, error) {
	c.compiles++
	if c.fail != nil {
		return nil, c.fail
	}
	c.units = append(c.units, u)
	return &fakeArtifact{name: u.Name, prog: u.Program, stack: make([]float64, 0, u.Depth), c: c}, nil
}

func (a *fakeArtifact) Eval(vals []float64) float64 {
	a.evals++
	return a.prog.Eval(vals, a.stack)
}

func (a *fakeArtifact) Close() error {
	if a.c.closed == nil {
		a.c.closed = make(map[string]int)
	}
	a.c.closed[a.name]++
	return nil
}

func counter() func() string {
	n := 0
	return func() string {
		n++
		return "unit" + strconv.Itoa(n)
	}
}

func compiled(t *testing.T, src string, vars []string) (*Expr, *fakeCompiler, *Arena) {
	t.Helper()
	c := new(fakeCompiler)
	a := NewArena(WithNames(counter()))
	e, err := Parse(src, vars, WithCompiler(c), WithArena(a))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Compile(context.Background()); err != nil {
		t.Fatal(err)
	}
	return e, c, a
}

func TestCompileEquivalence(t *testing.T) {
	srcs := []string{
		"2 * x + y",
		"-x * x * x + y * y",
		"pow(x, y) - sin(x) / cos(y)",
		"--x - -y",
		"x / (y - y)",
	}
	vals := [][]float64{{0, 0}, {1, 2}, {-3.5, 0.25}, {1e10, -1e-10}, {math.Pi, math.E}}
	for _, src := range srcs {
		interp, err := Parse(src, []string{"x", "y"})
		if err != nil {
			t.Fatal(err)
		}
		e, _, _ := compiled(t, src, []string{"x", "y"})
		for _, v := range vals {
			want, got := interp.Eval(v), e.Eval(v)
			if want != got && !(math.IsNaN(want) && math.IsNaN(got)) {
				t.Errorf("%s at %v: interpreted %g, compiled %g", src, v, want, got)
			}
		}
		if !e.Compiled() {
			t.Errorf("%s: not compiled", src)
		}
	}
}

func TestCompileDispatch(t *testing.T) {
	e, _, _ := compiled(t, "x + 1", []string{"x"})
	e.Eval([]float64{1})
	e.Eval([]float64{2})
	if n := e.art.(*fakeArtifact).evals; n != 2 {
		t.Errorf("artifact evaluated %d times, want 2", n)
	}
}

func TestCompileIdempotent(t *testing.T) {
	e, c, a := compiled(t, "x + 1", []string{"x"})
	name := e.Artifact()
	if err := e.Compile(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.compiles != 1 {
		t.Errorf("compiled %d times, want 1", c.compiles)
	}
	if e.Artifact() != name {
		t.Errorf("artifact changed from %q to %q", name, e.Artifact())
	}
	if a.Refs(name) != 1 {
		t.Errorf("want 1 ref, got %d", a.Refs(name))
	}
}

func TestCompileUnit(t *testing.T) {
	e, c, _ := compiled(t, "sin(x) * -y", []string{"x", "y"})
	u := c.units[0]
	if u.Name != "unit1" || u.Name != e.Artifact() {
		t.Errorf("wrong name %q for artifact %q", u.Name, e.Artifact())
	}
	if u.NumVars != 2 {
		t.Errorf("wrong number of vars: %d", u.NumVars)
	}
	if u.Program.String() != "$0 sin $1 neg *" {
		t.Errorf("wrong program: %s", u.Program)
	}
	want := "\treturn math.Sin(vars[0]) * - vars[1]\n"
	if !strings.Contains(u.Source, want) {
		t.Errorf("source missing %q:\n%s", want, u.Source)
	}
	if !strings.Contains(u.Source, "func Compiled(vars []float64) float64 {") {
		t.Errorf("source missing entry point:\n%s", u.Source)
	}
}

func TestRender(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"x + 1", "vars[0] + math.Float64frombits(0x3ff0000000000000)"},
		{"--x", "- - vars[0]"},
		{"pow(x, 0.5)", "math.Pow(vars[0],math.Float64frombits(0x3fe0000000000000))"},
		{"cos(x)/2", "math.Cos(vars[0]) / math.Float64frombits(0x4000000000000000)"},
	}
	for _, c := range cases {
		e, err := Parse(c.src, []string{"x"})
		if err != nil {
			t.Fatal(err)
		}
		if got := Render(e.Infix()); got != c.want {
			t.Errorf("%q: want %q, got %q", c.src, c.want, got)
		}
	}
}

func TestCloneSharesArtifact(t *testing.T) {
	e, c, a := compiled(t, "x * 2", []string{"x"})
	name := e.Artifact()
	d := e.Clone()
	f := d.Clone()
	if c.compiles != 1 {
		t.Errorf("cloning compiled %d times", c.compiles)
	}
	if d.Artifact() != name || f.Artifact() != name {
		t.Errorf("clones have artifacts %q, %q; want %q", d.Artifact(), f.Artifact(), name)
	}
	if n := a.Refs(name); n != 3 {
		t.Errorf("want 3 refs, got %d", n)
	}
	if got := f.Eval([]float64{4}); got != 8 {
		t.Errorf("clone evaluated to %g, want 8", got)
	}
	for i, x := range []*Expr{e, d, f} {
		if err := x.Close(); err != nil {
			t.Fatal(err)
		}
		if i < 2 && c.closed[name] != 0 {
			t.Fatalf("artifact closed with %d refs left", a.Refs(name))
		}
	}
	if c.closed[name] != 1 {
		t.Errorf("artifact closed %d times, want 1", c.closed[name])
	}
	if a.Len() != 0 {
		t.Errorf("arena has %d live artifacts", a.Len())
	}
	// Closing again does nothing.
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if c.closed[name] != 1 {
		t.Errorf("artifact closed %d times after double close", c.closed[name])
	}
	// Closed expressions still evaluate.
	if got := e.Eval([]float64{1}); got != 2 {
		t.Errorf("closed expression evaluated to %g, want 2", got)
	}
}

func TestCloneDeepCopies(t *testing.T) {
	e, err := Parse("x + y", []string{"x", "y"})
	if err != nil {
		t.Fatal(err)
	}
	d := e.Clone()
	if err := e.Parse("x * y", []string{"x", "y"}); err != nil {
		t.Fatal(err)
	}
	if got := d.Eval([]float64{2, 3}); got != 5 {
		t.Errorf("clone changed with original: want 5, got %g", got)
	}
}

func TestSetReleasesBeforeAcquire(t *testing.T) {
	e, c, a := compiled(t, "x + 1", []string{"x"})
	old := e.Artifact()
	f, err := Parse("x - 1", []string{"x"}, WithCompiler(c), WithArena(a))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Compile(context.Background()); err != nil {
		t.Fatal(err)
	}
	name := f.Artifact()
	e.Set(f)
	if c.closed[old] != 1 {
		t.Errorf("old artifact closed %d times, want 1", c.closed[old])
	}
	if e.Artifact() != name || a.Refs(name) != 2 {
		t.Errorf("want artifact %q with 2 refs, got %q with %d", name, e.Artifact(), a.Refs(name))
	}
	if got := e.Eval([]float64{1}); got != 0 {
		t.Errorf("assigned expression evaluated to %g, want 0", got)
	}
	// Assigning a copy of the same artifact keeps it alive.
	g := f.Clone()
	g.Set(f)
	if a.Refs(name) != 3 || c.closed[name] != 0 {
		t.Errorf("self-sharing assignment: %d refs, closed %d times", a.Refs(name), c.closed[name])
	}
	e.Set(e)
	if a.Refs(name) != 3 {
		t.Errorf("self assignment changed refs to %d", a.Refs(name))
	}
	// Assigning an uncompiled expression drops the reference.
	h, err := Parse("x", []string{"x"})
	if err != nil {
		t.Fatal(err)
	}
	g.Set(h)
	if g.Compiled() || a.Refs(name) != 2 {
		t.Errorf("after assigning uncompiled: compiled %t, %d refs", g.Compiled(), a.Refs(name))
	}
}

func TestReparseInvalidates(t *testing.T) {
	e, c, a := compiled(t, "x + 1", []string{"x"})
	name := e.Artifact()
	if err := e.Parse("x + 2", []string{"x"}); err != nil {
		t.Fatal(err)
	}
	if e.Compiled() || e.Artifact() != "" {
		t.Error("still compiled after reparse")
	}
	if c.closed[name] != 1 || a.Refs(name) != 0 {
		t.Errorf("artifact closed %d times with %d refs", c.closed[name], a.Refs(name))
	}
	if got := e.Eval([]float64{1}); got != 3 {
		t.Errorf("want 3, got %g", got)
	}
	if err := e.Compile(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.compiles != 2 || e.Artifact() == name {
		t.Errorf("recompile: %d compiles, artifact %q", c.compiles, e.Artifact())
	}
}

func TestCompileFailureKeepsState(t *testing.T) {
	boom := errors.New("toolchain exploded")
	c := &fakeCompiler{fail: boom}
	a := NewArena(WithNames(counter()))
	e, err := Parse("x * x", []string{"x"}, WithCompiler(c), WithArena(a))
	if err != nil {
		t.Fatal(err)
	}
	err = e.Compile(context.Background())
	var cerr *CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("wrong error: %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error does not unwrap to cause: %v", err)
	}
	if e.Compiled() || a.Len() != 0 {
		t.Errorf("failed compile left state: compiled %t, %d artifacts", e.Compiled(), a.Len())
	}
	if got := e.Eval([]float64{3}); got != 9 {
		t.Errorf("want 9, got %g", got)
	}
	// Retry succeeds.
	c.fail = nil
	if err := e.Compile(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !e.Compiled() {
		t.Error("retry did not compile")
	}
}

func TestCompileFailureKeepsPreviousArtifact(t *testing.T) {
	e, c, a := compiled(t, "x + 1", []string{"x"})
	name := e.Artifact()
	c.fail = errors.New("no")
	// Already compiled, so Compile is a no-op success.
	if err := e.Compile(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e.Artifact() != name || a.Refs(name) != 1 {
		t.Errorf("artifact %q with %d refs, want %q with 1", e.Artifact(), a.Refs(name), name)
	}
}

func TestNoCompiler(t *testing.T) {
	e, err := Parse("x", []string{"x"})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Compile(context.Background()); !errors.Is(err, ErrNoCompiler) {
		t.Errorf("want ErrNoCompiler, got %v", err)
	}
}

func TestArenaPanics(t *testing.T) {
	a := NewArena()
	cases := []struct {
		name string
		f    func()
	}{
		{"acquire", func() { a.acquire("nothing") }},
		{"release", func() { a.release("nothing") }},
		{"duplicate", func() {
			a.put("x", &fakeArtifact{c: new(fakeCompiler)})
			a.put("x", &fakeArtifact{c: new(fakeCompiler)})
		}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("no panic")
				}
			}()
			c.f()
		})
	}
}

func TestArenaDefaultNames(t *testing.T) {
	a := NewArena()
	x, y := a.Name(), a.Name()
	if x == y || len(x) != 36 {
		t.Errorf("bad generated names %q, %q", x, y)
	}
}

func TestDefaultArena(t *testing.T) {
	c := new(fakeCompiler)
	e, err := Parse("x + 1", []string{"x"}, WithCompiler(c))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Compile(context.Background()); err != nil {
		t.Fatal(err)
	}
	name := e.Artifact()
	if n := DefaultArena().Refs(name); n != 1 {
		t.Errorf("default arena has %d refs to %s, want 1", n, name)
	}
	d := e.Clone()
	if n := DefaultArena().Refs(name); n != 2 {
		t.Errorf("default arena has %d refs to clone's artifact, want 2", n)
	}
	d.Close()
	e.Close()
	if n := DefaultArena().Refs(name); n != 0 {
		t.Errorf("default arena still has %d refs after close", n)
	}
	if c.closed[name] != 1 {
		t.Errorf("artifact closed %d times", c.closed[name])
	}
}
