package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the command configuration.
type Config struct {
	Logger *Logger
	Native *Native
	Solver *Solver
	// Viper holds the merged settings.
	Viper *viper.Viper
}

// EnvPrefix prefixes environment variables overriding configuration keys,
// with dots replaced by underscores: RKEXPR_SOLVER_METHOD sets solver.method.
const EnvPrefix = "RKEXPR"

// Load reads configuration from the file at path, or from rkexpr.yaml (or
// another extension viper supports) in the working directory or
// $HOME/.rkexpr if path is empty. A missing file is not an error unless path
// names it. Environment variables override the file, and flags that were set
// override both; flags maps configuration keys to the flags bound to them.
func Load(path string, flags map[string]*pflag.Flag) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, f := range flags {
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("rkexpr")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.rkexpr")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &nf) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Logger: getLoggerConfig(v),
		Native: getNativeConfig(v),
		Solver: getSolverConfig(v),
		Viper:  v,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("native.backend", BackendInterp)
	v.SetDefault("native.go", "go")
	v.SetDefault("native.timeout", "2m")
	v.SetDefault("solver.method", "rk4")
	v.SetDefault("solver.step", 0.001)
	v.SetDefault("solver.eps", 1e-6)
	v.SetDefault("solver.max_steps", 10_000_000)
	v.SetDefault("solver.min_step", 1e-7)
	v.SetDefault("solver.shrink_min", 0.05)
	v.SetDefault("solver.shrink_max", 2.0)
}

func (c *Config) validate() error {
	switch c.Native.Backend {
	case BackendInterp, BackendWasm, BackendPlugin:
	default:
		return fmt.Errorf("unknown native backend %q", c.Native.Backend)
	}
	switch c.Logger.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logger.Format)
	}
	if !(c.Solver.Step > 0) || !(c.Solver.Eps > 0) {
		return fmt.Errorf("solver step and eps must be positive, have %g and %g", c.Solver.Step, c.Solver.Eps)
	}
	return nil
}
