package rkexpr

// Option is an option for parsing an expression.
type Option interface {
	option(*Expr)
}

type (
	compileropt struct{ c Compiler }
	arenaopt    struct{ a *Arena }
)

func (o compileropt) option(e *Expr) { e.compiler = o.c }
func (o arenaopt) option(e *Expr)    { e.arena = o.a }

// WithCompiler sets the compiler used by Compile. Without one, Compile
// returns ErrNoCompiler.
func WithCompiler(c Compiler) Option {
	return compileropt{c}
}

// WithArena sets the arena that tracks the expression's compiled artifacts.
// Copies made with Clone share the arena. The default is DefaultArena.
func WithArena(a *Arena) Option {
	return arenaopt{a}
}
