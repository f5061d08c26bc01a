package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/zephyrtronium/rkexpr/internal/config"
	"github.com/zephyrtronium/rkexpr/internal/logging"
)

// env is the state shared by subcommands once configuration is loaded.
type env struct {
	cfg     *config.Config
	log     *logrus.Logger
	cleanup func()
}

// bindings maps configuration keys to the flags that override them.
var bindings = map[string]string{
	"logger.level":      "log-level",
	"logger.format":     "log-format",
	"native.backend":    "backend",
	"solver.method":     "method",
	"solver.step":       "step",
	"solver.eps":        "eps",
	"solver.max_steps":  "max-steps",
	"solver.min_step":   "min-step",
	"solver.shrink_min": "shrink-min",
	"solver.shrink_max": "shrink-max",
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var (
		configFile string
		e          env
	)
	rootCmd := &cobra.Command{
		Use:           "rkexpr",
		Short:         "Evaluate expressions and integrate ODEs with Runge-Kutta methods",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			flags := make(map[string]*pflag.Flag, len(bindings))
			for key, name := range bindings {
				flags[key] = cmd.Flags().Lookup(name)
			}
			cfg, err := config.Load(configFile, flags)
			if err != nil {
				return err
			}
			log, cleanup, err := logging.New(cfg.Logger)
			if err != nil {
				return err
			}
			if f := cfg.Viper.ConfigFileUsed(); f != "" {
				log.WithField("file", f).Debug("loaded configuration")
			}
			e = env{cfg: cfg, log: log, cleanup: cleanup}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.cleanup != nil {
				e.cleanup()
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().String("log-level", "info", "log level")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text or json)")

	rootCmd.AddCommand(
		NewEvalCommand(&e),
		NewSolveCommand(&e),
		NewMethodsCommand(),
	)
	return rootCmd
}
