package native

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"plugin"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/zephyrtronium/rkexpr"
)

// stemAlphabet makes stems usable as file names and Go identifiers.
const stemAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

const stemSize = 16

// Plugin compiles expressions by building their Go source as plugins with an
// external go command. It is safe for concurrent use.
type Plugin struct {
	dir   string
	goCmd string
	log   logrus.FieldLogger
	cb    *gobreaker.CircuitBreaker
}

// NewPlugin creates a plugin compiler staging files under dir and building
// with goCmd. Empty dir uses the system temporary directory; empty goCmd uses
// "go" from PATH. If log is nil, the standard logrus logger is used.
//
// Repeated toolchain failures trip a circuit breaker, after which Compile
// fails immediately until the breaker's timeout passes.
func NewPlugin(dir, goCmd string, log logrus.FieldLogger) *Plugin {
	if dir == "" {
		dir = os.TempDir()
	}
	if goCmd == "" {
		goCmd = "go"
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("backend", "plugin")
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "go build",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Warn("toolchain circuit breaker changed state")
		},
	})
	return &Plugin{dir: dir, goCmd: goCmd, log: log, cb: cb}
}

// Compile implements rkexpr.Compiler.
func (p *Plugin) Compile(ctx context.Context, u rkexpr.Unit) (rkexpr.Artifact, error) {
	stem := "rkexpr" + gonanoid.MustGenerate(stemAlphabet, stemSize)
	dir := filepath.Join(p.dir, stem)
	src := filepath.Join(dir, stem+".go")
	obj := filepath.Join(dir, stem+".so")
	log := p.log.WithFields(logrus.Fields{"artifact": u.Name, "dir": dir})

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &rkexpr.CompileError{Name: u.Name, Op: "stage", Err: err}
	}
	fail := func(op string, err error) (rkexpr.Artifact, error) {
		if rerr := os.RemoveAll(dir); rerr != nil {
			log.WithError(rerr).Warn("couldn't remove staging directory")
		}
		return nil, &rkexpr.CompileError{Name: u.Name, Op: op, Err: err}
	}
	if err := os.WriteFile(src, []byte(u.Source), 0o644); err != nil {
		return fail("stage", err)
	}

	_, err := p.cb.Execute(func() (any, error) {
		cmd := exec.CommandContext(ctx, p.goCmd, "build", "-buildmode=plugin", "-o", obj, src)
		cmd.Dir = dir
		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out
		start := time.Now()
		err := cmd.Run()
		log.WithFields(logrus.Fields{"elapsed": time.Since(start), "output": out.String()}).Debug("ran go build")
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, bytes.TrimSpace(out.Bytes()))
		}
		return nil, nil
	})
	if err != nil {
		return fail("build", err)
	}

	pl, err := plugin.Open(obj)
	if err != nil {
		return fail("load", fmt.Errorf("failed to open plugin %s: %w", obj, err))
	}
	sym, err := pl.Lookup(rkexpr.EntryPoint)
	if err != nil {
		return fail("lookup", err)
	}
	fn, ok := sym.(func([]float64) float64)
	if !ok {
		return fail("lookup", fmt.Errorf("%s has type %T", rkexpr.EntryPoint, sym))
	}
	log.Debug("loaded plugin")
	return &pluginArtifact{fn: fn, dir: dir, log: log}, nil
}

type pluginArtifact struct {
	fn  func([]float64) float64
	dir string
	log logrus.FieldLogger
}

func (a *pluginArtifact) Eval(vals []float64) float64 {
	return a.fn(vals)
}

// Close removes the generated files. Plugins cannot be unloaded, so the code
// stays mapped.
func (a *pluginArtifact) Close() error {
	err := os.RemoveAll(a.dir)
	a.log.WithError(err).Debug("removed plugin files")
	return err
}
