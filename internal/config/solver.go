package config

import "github.com/spf13/viper"

// Solver solver config struct
type Solver struct {
	// Method names a fixed-step method or an embedded pair.
	Method string
	// Step is the fixed step size.
	Step float64
	// Eps is the adaptive error tolerance.
	Eps       float64
	MaxSteps  uint64
	MinStep   float64
	ShrinkMin float64
	ShrinkMax float64
}

func getSolverConfig(v *viper.Viper) *Solver {
	return &Solver{
		Method:    v.GetString("solver.method"),
		Step:      v.GetFloat64("solver.step"),
		Eps:       v.GetFloat64("solver.eps"),
		MaxSteps:  v.GetUint64("solver.max_steps"),
		MinStep:   v.GetFloat64("solver.min_step"),
		ShrinkMin: v.GetFloat64("solver.shrink_min"),
		ShrinkMax: v.GetFloat64("solver.shrink_max"),
	}
}
