package native

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/zephyrtronium/rkexpr"
)

func TestPlugin(t *testing.T) {
	if os.Getenv("RKEXPR_PLUGIN_TEST") != "1" {
		t.Skip("set RKEXPR_PLUGIN_TEST=1 to build plugins with the go command")
	}
	dir := t.TempDir()
	p := NewPlugin(dir, "", logrus.New())
	e, err := rkexpr.Parse("2 * x + pow(y, 2)", []string{"x", "y"}, rkexpr.WithCompiler(p), rkexpr.WithArena(rkexpr.NewArena()))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Compile(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := e.Eval([]float64{1, 3}); got != 11 {
		t.Errorf("want 11, got %g", got)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	left, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Errorf("files left after close: %v", left)
	}
}

func TestPluginBuildFailure(t *testing.T) {
	dir := t.TempDir()
	// A command that does not exist fails every build without a toolchain.
	p := NewPlugin(dir, filepath.Join(dir, "no-such-go"), logrus.New())
	e, err := rkexpr.Parse("x", []string{"x"}, rkexpr.WithCompiler(p), rkexpr.WithArena(rkexpr.NewArena()))
	if err != nil {
		t.Fatal(err)
	}
	for range 5 {
		err := e.Compile(context.Background())
		var cerr *rkexpr.CompileError
		if !errors.As(err, &cerr) {
			t.Fatalf("want CompileError, got %v", err)
		}
		if cerr.Op != "build" {
			t.Errorf("failed at %q, want build", cerr.Op)
		}
	}
	if e.Compiled() {
		t.Error("compiled after failures")
	}
	if got := e.Eval([]float64{7}); got != 7 {
		t.Errorf("interpreter evaluates to %g, want 7", got)
	}
	left, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Errorf("staging files left after failures: %v", left)
	}
}
