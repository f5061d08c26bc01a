package commands

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zephyrtronium/rkexpr"
)

// NewEvalCommand creates the eval command
func NewEvalCommand(e *env) *cobra.Command {
	var (
		given []string
		prec  uint
		verb  string
		echo  bool
	)
	cmd := &cobra.Command{
		Use:   "eval [expr...]",
		Short: "Evaluate expressions",
		Long: `Evaluate each argument as an expression, or each line of standard input
if there are no arguments. Variables are defined with --var name=value, where
value is itself an expression over the variables defined before it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, vals, bigs, err := define(given, prec)
			if err != nil {
				return err
			}
			srcs := args
			if len(srcs) == 0 {
				srcs, err = lines(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}
			b, err := newBackend(cmd.Context(), e)
			if err != nil {
				return err
			}
			defer b.release()

			out := cmd.OutOrStdout()
			for _, src := range srcs {
				x, err := rkexpr.Parse(src, names, b.opts()...)
				if err != nil {
					return fmt.Errorf("%q: %w", src, err)
				}
				if echo {
					fmt.Fprintf(out, "%v : ", x)
				}
				if prec > 0 {
					r, err := x.EvalBig(bigs, prec)
					if err != nil {
						fmt.Fprintln(out, err)
						continue
					}
					fmt.Fprintf(out, verb+"\n", r)
				} else {
					b.compile(cmd.Context(), x)
					fmt.Fprintf(out, verb+"\n", x.Eval(vals))
				}
				if err := x.Close(); err != nil {
					e.log.WithError(err).Warn("couldn't release native code")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&given, "var", nil, "name=value variable definition (any number of times)")
	cmd.Flags().UintVarP(&prec, "prec", "p", 0, "evaluate with this many bits of precision instead of float64")
	cmd.Flags().StringVar(&verb, "fmt", "%g", "result formatting string")
	cmd.Flags().BoolVar(&echo, "echo", false, "print each expression before its result")
	cmd.Flags().String("backend", "interp", "native backend (interp, wasm, or plugin)")
	return cmd
}

// define evaluates name=value definitions in order. If prec is nonzero,
// definitions are evaluated with that many bits, and vals holds the results
// rounded to float64.
func define(given []string, prec uint) (names []string, vals []float64, bigs []*big.Float, err error) {
	for _, s := range given {
		d := strings.SplitN(s, "=", 2)
		if len(d) != 2 {
			return nil, nil, nil, fmt.Errorf(`variable definitions must be "name=value", not %q`, s)
		}
		nm := strings.TrimSpace(d[0])
		x, err := rkexpr.Parse(d[1], names)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("setting %s: %w", nm, err)
		}
		names = append(names, nm)
		if prec == 0 {
			vals = append(vals, x.Eval(vals))
			continue
		}
		r, err := x.EvalBig(bigs, prec)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("setting %s: %w", nm, err)
		}
		v, _ := r.Float64()
		vals = append(vals, v)
		bigs = append(bigs, r)
	}
	return names, vals, bigs, nil
}

// lines returns the non-blank lines of r.
func lines(r io.Reader) ([]string, error) {
	var ls []string
	s := bufio.NewScanner(r)
	for s.Scan() {
		if l := strings.TrimSpace(s.Text()); l != "" {
			ls = append(ls, l)
		}
	}
	return ls, s.Err()
}
