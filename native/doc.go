// Package native provides compilers that turn parsed expressions into native
// evaluators for [rkexpr.Expr.Compile].
//
// [Wasm] encodes the postfix program as a WebAssembly module and runs it with
// wazero, which translates it to machine code on supported platforms. It
// needs no external tools.
//
// [Plugin] writes the expression's Go source to disk, builds it with the go
// command as a plugin, and loads it with package plugin. It requires a Go
// toolchain matching the one that built the running program and a platform
// that supports plugins.
package native
