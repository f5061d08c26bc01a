package config

import (
	"time"

	"github.com/spf13/viper"
)

// Native backends.
const (
	BackendInterp = "interp"
	BackendWasm   = "wasm"
	BackendPlugin = "plugin"
)

// Native native compiler config struct
type Native struct {
	Backend string
	// Dir stages plugin sources and binaries.
	Dir string
	// Go is the go command used to build plugins.
	Go string
	// Timeout bounds each compilation.
	Timeout time.Duration
}

func getNativeConfig(v *viper.Viper) *Native {
	return &Native{
		Backend: v.GetString("native.backend"),
		Dir:     v.GetString("native.dir"),
		Go:      v.GetString("native.go"),
		Timeout: v.GetDuration("native.timeout"),
	}
}
