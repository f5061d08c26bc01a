package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logger.Level != "info" || cfg.Logger.Format != "text" || cfg.Logger.Output != "stderr" {
		t.Errorf("wrong logger defaults: %+v", cfg.Logger)
	}
	if cfg.Native.Backend != BackendInterp || cfg.Native.Go != "go" || cfg.Native.Timeout != 2*time.Minute {
		t.Errorf("wrong native defaults: %+v", cfg.Native)
	}
	want := Solver{Method: "rk4", Step: 0.001, Eps: 1e-6, MaxSteps: 10_000_000, MinStep: 1e-7, ShrinkMin: 0.05, ShrinkMax: 2}
	if *cfg.Solver != want {
		t.Errorf("wrong solver defaults: want %+v, got %+v", want, *cfg.Solver)
	}
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rkexpr.yaml")
	src := `logger:
  level: debug
  format: json
native:
  backend: wasm
  timeout: 10s
solver:
  method: fehlberg
  eps: 1e-9
  max_steps: 500
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logger.Level != "debug" || cfg.Logger.Format != "json" {
		t.Errorf("wrong logger: %+v", cfg.Logger)
	}
	if cfg.Native.Backend != BackendWasm || cfg.Native.Timeout != 10*time.Second {
		t.Errorf("wrong native: %+v", cfg.Native)
	}
	if cfg.Solver.Method != "fehlberg" || cfg.Solver.Eps != 1e-9 || cfg.Solver.MaxSteps != 500 {
		t.Errorf("wrong solver: %+v", cfg.Solver)
	}
	if cfg.Solver.Step != 0.001 {
		t.Errorf("unset key lost its default: step %g", cfg.Solver.Step)
	}
	if got := cfg.Viper.ConfigFileUsed(); got != path {
		t.Errorf("wrong config file: want %q, got %q", path, got)
	}

	// The working directory is searched without an explicit path.
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	cfg, err = Load("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Solver.Method != "fehlberg" {
		t.Errorf("config in working directory not found: %+v", cfg.Solver)
	}
	if got := filepath.Base(cfg.Viper.ConfigFileUsed()); got != "rkexpr.yaml" {
		t.Errorf("wrong config file found: %q", got)
	}
}

func TestPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.yaml")
	if err := os.WriteFile(path, []byte("solver:\n  method: heun2\n  step: 0.5\nlogger:\n  level: warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RKEXPR_SOLVER_METHOD", "midpoint")
	t.Setenv("RKEXPR_LOGGER_LEVEL", "error")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("method", "rk4", "")
	fs.Float64("step", 0.001, "")
	fs.String("log-level", "info", "")
	if err := fs.Parse([]string{"--method", "ralston2"}); err != nil {
		t.Fatal(err)
	}
	flags := map[string]*pflag.Flag{
		"solver.method": fs.Lookup("method"),
		"solver.step":   fs.Lookup("step"),
		"logger.level":  fs.Lookup("log-level"),
		"native.dir":    nil,
	}
	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Solver.Method != "ralston2" {
		t.Errorf("flag did not override: method %q", cfg.Solver.Method)
	}
	if cfg.Logger.Level != "error" {
		t.Errorf("environment did not override: level %q", cfg.Logger.Level)
	}
	if cfg.Solver.Step != 0.5 {
		t.Errorf("unset flag overrode file: step %g", cfg.Solver.Step)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml"), nil); err == nil {
		t.Error("no error for missing explicit file")
	}
	cases := map[string]string{
		"backend": "native:\n  backend: jit\n",
		"format":  "logger:\n  format: xml\n",
		"step":    "solver:\n  step: 0\n",
		"syntax":  "solver: [\n",
	}
	for name, src := range cases {
		path := filepath.Join(dir, name+".yaml")
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path, nil); err == nil {
			t.Errorf("%s: no error", name)
		}
	}
}
