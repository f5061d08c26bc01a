package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zephyrtronium/rkexpr"
	"github.com/zephyrtronium/rkexpr/rk"
)

// NewSolveCommand creates the solve command
func NewSolveCommand(e *env) *cobra.Command {
	var (
		vars []string
		y0   []float64
		at   float64
		verb string
	)
	cmd := &cobra.Command{
		Use:   "solve expr...",
		Short: "Integrate an initial value problem",
		Long: `Integrate y' = f(x, y) from an initial state to --at. Each argument is
the derivative of one state component. --vars names the independent variable
followed by the state components, and --init gives their initial values.
Embedded methods choose their own steps to meet --eps; other methods take
fixed steps of --step.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(vars) != len(args)+1 {
				return fmt.Errorf("%d expressions need %d variables, have %v", len(args), len(args)+1, vars)
			}
			if len(y0) != len(vars) {
				return fmt.Errorf("%d variables need %d initial values, have %v", len(vars), len(vars), y0)
			}
			b, err := newBackend(cmd.Context(), e)
			if err != nil {
				return err
			}
			defer b.release()

			fs := make([]rk.Func, len(args))
			for i, src := range args {
				x, err := rkexpr.Parse(src, vars, b.opts()...)
				if err != nil {
					return fmt.Errorf("%q: %w", src, err)
				}
				defer x.Close()
				b.compile(cmd.Context(), x)
				fs[i] = x
			}

			s := e.cfg.Solver
			log := e.log.WithField("method", s.Method)
			var y []float64
			switch m, ok := rk.Lookup(s.Method); {
			case s.Method == rk.Classic4.Name:
				log.WithField("step", s.Step).Debug("solving")
				y, err = rk.RK4System(fs, y0, at, s.Step)
			case ok:
				log.WithField("step", s.Step).Debug("solving")
				y, err = m.SolveSystem(fs, y0, at, s.Step)
			default:
				em, ok := rk.LookupEmbedded(s.Method)
				if !ok {
					return fmt.Errorf("unknown method %q", s.Method)
				}
				log.WithField("eps", s.Eps).Debug("solving")
				y, err = em.SolveSystem(fs, y0, at, s.Eps,
					rk.MaxSteps(s.MaxSteps),
					rk.MinStep(s.MinStep),
					rk.Shrink(s.ShrinkMin, s.ShrinkMax),
				)
			}
			if err != nil {
				return err
			}
			parts := make([]string, len(y))
			for i, v := range y {
				parts[i] = vars[i] + "=" + fmt.Sprintf(verb, v)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(parts, " "))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&vars, "vars", []string{"x", "y"}, "independent variable then state variable names")
	cmd.Flags().Float64SliceVar(&y0, "init", []float64{0, 1}, "initial values of --vars")
	cmd.Flags().Float64Var(&at, "at", 1, "independent variable value to integrate to")
	cmd.Flags().StringVar(&verb, "fmt", "%g", "result formatting string")
	cmd.Flags().String("method", "rk4", "integration method; see the methods command")
	cmd.Flags().Float64("step", 0.001, "fixed step size")
	cmd.Flags().Float64("eps", 1e-6, "error tolerance for embedded methods")
	cmd.Flags().Uint64("max-steps", 10_000_000, "step budget for embedded methods")
	cmd.Flags().Float64("min-step", rk.DefaultMinStep, "smallest step for embedded methods")
	cmd.Flags().Float64("shrink-min", 0.05, "smallest step size factor for embedded methods")
	cmd.Flags().Float64("shrink-max", 2, "largest step size factor for embedded methods")
	cmd.Flags().String("backend", "interp", "native backend (interp, wasm, or plugin)")
	return cmd
}
