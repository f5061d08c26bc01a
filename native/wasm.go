package native

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/zephyrtronium/rkexpr"
)

// Wasm compiles expressions to WebAssembly modules within one wazero
// runtime. It is safe for concurrent use.
type Wasm struct {
	rt  wazero.Runtime
	log logrus.FieldLogger
}

// NewWasm creates a wazero runtime and instantiates the host math functions
// in it. If log is nil, the standard logrus logger is used.
func NewWasm(ctx context.Context, log logrus.FieldLogger) (*Wasm, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	rt := wazero.NewRuntime(ctx)
	_, err := rt.NewHostModuleBuilder(hostModule).
		NewFunctionBuilder().WithFunc(math.Sin).Export("sin").
		NewFunctionBuilder().WithFunc(math.Cos).Export("cos").
		NewFunctionBuilder().WithFunc(math.Pow).Export("pow").
		Instantiate(ctx)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("couldn't instantiate host module: %w", err)
	}
	return &Wasm{rt: rt, log: log.WithField("backend", "wasm")}, nil
}

// Compile implements rkexpr.Compiler.
func (w *Wasm) Compile(ctx context.Context, u rkexpr.Unit) (rkexpr.Artifact, error) {
	log := w.log.WithField("artifact", u.Name)
	bin, err := encode(u.Program, u.NumVars)
	if err != nil {
		return nil, &rkexpr.CompileError{Name: u.Name, Op: "encode", Err: err}
	}
	log.WithField("bytes", len(bin)).Debug("encoded module")
	code, err := w.rt.CompileModule(ctx, bin)
	if err != nil {
		return nil, &rkexpr.CompileError{Name: u.Name, Op: "compile", Err: err}
	}
	mod, err := w.rt.InstantiateModule(ctx, code, wazero.NewModuleConfig().WithName(u.Name))
	if err != nil {
		code.Close(ctx)
		return nil, &rkexpr.CompileError{Name: u.Name, Op: "instantiate", Err: err}
	}
	fn := mod.ExportedFunction(wasmEntry)
	if fn == nil {
		mod.Close(ctx)
		code.Close(ctx)
		return nil, &rkexpr.CompileError{Name: u.Name, Op: "lookup", Err: fmt.Errorf("no export %q", wasmEntry)}
	}
	size := 8 * uint32(u.NumVars)
	mem, ok := mod.Memory().Read(0, size)
	if !ok {
		mod.Close(ctx)
		code.Close(ctx)
		return nil, &rkexpr.CompileError{Name: u.Name, Op: "lookup", Err: fmt.Errorf("memory smaller than %d bytes", size)}
	}
	log.Debug("instantiated module")
	return &wasmArtifact{
		mod:   mod,
		code:  code,
		fn:    fn,
		mem:   mem,
		n:     u.NumVars,
		stack: make([]uint64, 1),
		log:   log,
	}, nil
}

// Close closes the runtime and every module compiled with it.
func (w *Wasm) Close(ctx context.Context) error {
	return w.rt.Close(ctx)
}

type wasmArtifact struct {
	mod  api.Module
	code wazero.CompiledModule
	fn   api.Function
	// mem is a view of the module's linear memory holding the variables.
	mem []byte
	n   int
	log logrus.FieldLogger

	// mu serializes evaluations, since copies of an expression share the
	// module's memory.
	mu    sync.Mutex
	stack []uint64
}

func (a *wasmArtifact) Eval(vals []float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, v := range vals[:a.n] {
		binary.LittleEndian.PutUint64(a.mem[8*i:], math.Float64bits(v))
	}
	a.stack[0] = api.EncodeI32(0)
	if err := a.fn.CallWithStack(context.Background(), a.stack); err != nil {
		// Evaluation only traps on a bug in the encoder.
		panic(fmt.Errorf("rkexpr/native: wasm evaluation failed: %w", err))
	}
	return api.DecodeF64(a.stack[0])
}

func (a *wasmArtifact) Close() error {
	ctx := context.Background()
	err := errors.Join(a.mod.Close(ctx), a.code.Close(ctx))
	a.log.WithError(err).Debug("closed module")
	return err
}
