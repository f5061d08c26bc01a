package native

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/zephyrtronium/rkexpr"
)

// WebAssembly binary encoding constants.
const (
	secType     = 1
	secImport   = 2
	secFunction = 3
	secMemory   = 5
	secExport   = 7
	secCode     = 10

	valI32 = 0x7f
	valF64 = 0x7c

	opEnd      = 0x0b
	opCall     = 0x10
	opLocalGet = 0x20
	opF64Load  = 0x2b
	opF64Const = 0x44
	opF64Neg   = 0x9a
	opF64Add   = 0xa0
	opF64Sub   = 0xa1
	opF64Mul   = 0xa2
	opF64Div   = 0xa3

	pageSize = 65536
)

// Import order fixes the function indices of the host math functions. The
// exported evaluator follows the imports.
const (
	funcSin = iota
	funcCos
	funcPow
	funcCompiled
)

// wasmEntry is the exported evaluator.
const wasmEntry = "compiled"

// hostModule is the import module providing math functions.
const hostModule = "env"

// uleb appends the unsigned LEB128 encoding of x.
func uleb(b []byte, x uint64) []byte {
	for {
		c := byte(x & 0x7f)
		x >>= 7
		if x == 0 {
			return append(b, c)
		}
		b = append(b, c|0x80)
	}
}

func name(b []byte, s string) []byte {
	b = uleb(b, uint64(len(s)))
	return append(b, s...)
}

func section(b []byte, id byte, body []byte) []byte {
	b = append(b, id)
	b = uleb(b, uint64(len(body)))
	return append(b, body...)
}

// pages returns the number of memory pages holding n float64 variables.
func pages(n int) uint64 {
	p := (8*uint64(n) + pageSize - 1) / pageSize
	return max(p, 1)
}

// body encodes the instructions evaluating p. Variables are read from linear
// memory at the address in local 0 plus 8 times their index.
func body(p rkexpr.Program) ([]byte, error) {
	var b []byte
	for _, t := range p {
		switch t.Kind {
		case rkexpr.Num:
			b = append(b, opF64Const)
			b = binary.LittleEndian.AppendUint64(b, math.Float64bits(t.Num))
		case rkexpr.Var:
			// memarg: alignment exponent 3, then offset.
			b = append(b, opLocalGet, 0, opF64Load, 3)
			b = uleb(b, 8*uint64(t.Var))
		case rkexpr.Add:
			b = append(b, opF64Add)
		case rkexpr.Sub:
			b = append(b, opF64Sub)
		case rkexpr.Mul:
			b = append(b, opF64Mul)
		case rkexpr.Div:
			b = append(b, opF64Div)
		case rkexpr.Neg:
			b = append(b, opF64Neg)
		case rkexpr.Sin:
			b = append(b, opCall, funcSin)
		case rkexpr.Cos:
			b = append(b, opCall, funcCos)
		case rkexpr.Pow:
			b = append(b, opCall, funcPow)
		default:
			return nil, fmt.Errorf("cannot encode %v token", t.Kind)
		}
	}
	return append(b, opEnd), nil
}

// encode produces a WebAssembly module exporting wasmEntry, of type
// (i32) -> f64, which evaluates p over numVars variables stored in the
// exported memory.
func encode(p rkexpr.Program, numVars int) ([]byte, error) {
	code, err := body(p)
	if err != nil {
		return nil, err
	}
	for _, t := range p {
		if t.Kind == rkexpr.Var && t.Var >= numVars {
			return nil, fmt.Errorf("variable %d out of range of %d", t.Var, numVars)
		}
	}
	b := []byte{0, 'a', 's', 'm', 1, 0, 0, 0}

	types := []byte{3,
		0x60, 1, valF64, 1, valF64,
		0x60, 2, valF64, valF64, 1, valF64,
		0x60, 1, valI32, 1, valF64,
	}
	b = section(b, secType, types)

	imports := []byte{3}
	for _, imp := range []struct {
		name string
		typ  byte
	}{{"sin", 0}, {"cos", 0}, {"pow", 1}} {
		imports = name(imports, hostModule)
		imports = name(imports, imp.name)
		imports = append(imports, 0, imp.typ)
	}
	b = section(b, secImport, imports)

	b = section(b, secFunction, []byte{1, 2})

	mem := uleb([]byte{1, 0}, pages(numVars))
	b = section(b, secMemory, mem)

	exports := []byte{2}
	exports = name(exports, wasmEntry)
	exports = append(exports, 0, funcCompiled)
	exports = name(exports, "memory")
	exports = append(exports, 2, 0)
	b = section(b, secExport, exports)

	// One function with no locals beyond its parameter.
	fn := append([]byte{0}, code...)
	codes := uleb([]byte{1}, uint64(len(fn)))
	codes = append(codes, fn...)
	b = section(b, secCode, codes)
	return b, nil
}
