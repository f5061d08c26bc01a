package commands

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/zephyrtronium/rkexpr"
	"github.com/zephyrtronium/rkexpr/internal/config"
	"github.com/zephyrtronium/rkexpr/native"
)

// backend is the native compiler selected by configuration.
type backend struct {
	c       rkexpr.Compiler
	e       *env
	release func()
}

func newBackend(ctx context.Context, e *env) (*backend, error) {
	b := backend{e: e, release: func() {}}
	n := e.cfg.Native
	switch n.Backend {
	case config.BackendInterp:
	case config.BackendWasm:
		w, err := native.NewWasm(ctx, e.log)
		if err != nil {
			return nil, err
		}
		b.c = w
		b.release = func() { w.Close(context.Background()) }
	case config.BackendPlugin:
		b.c = native.NewPlugin(n.Dir, n.Go, e.log)
	default:
		return nil, errors.New("unknown backend " + n.Backend)
	}
	return &b, nil
}

// opts returns the parse options that attach the backend's compiler.
func (b *backend) opts() []rkexpr.Option {
	if b.c == nil {
		return nil
	}
	return []rkexpr.Option{rkexpr.WithCompiler(b.c)}
}

// compile compiles x if a native backend is configured. Failures are logged
// and leave x interpreted.
func (b *backend) compile(ctx context.Context, x *rkexpr.Expr) {
	if b.c == nil {
		return
	}
	if t := b.e.cfg.Native.Timeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	if err := x.Compile(ctx); err != nil {
		b.e.log.WithError(err).WithField("expr", x.String()).Warn("compile failed, using interpreter")
		return
	}
	b.e.log.WithFields(logrus.Fields{
		"expr":     x.String(),
		"artifact": x.Artifact(),
		"live":     rkexpr.DefaultArena().Len(),
	}).Debug("compiled")
}
