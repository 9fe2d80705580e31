package ba

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Options control a Solve. The zero value selects the defaults.
type Options struct {
	// MaxIterations bounds the number of accepted Levenberg-Marquardt
	// steps. Default 50.
	MaxIterations int
	// Tolerance stops the solve once the relative cost decrease of an
	// accepted step falls below it. Default 1e-9.
	Tolerance float64
	// InitialDamping seeds the Levenberg-Marquardt damping factor.
	// Default 1e-4.
	InitialDamping float64
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = 50
	}
	if o.Tolerance <= 0 {
		o.Tolerance = 1e-9
	}
	if o.InitialDamping <= 0 {
		o.InitialDamping = 1e-4
	}
	return o
}

// Summary reports how a solve went. Converged means the solve stopped
// because the cost could no longer be meaningfully decreased, rather than by
// exhausting MaxIterations.
type Summary struct {
	Iterations  int
	InitialCost float64
	FinalCost   float64
	Converged   bool
}

const (
	minDamping = 1e-12
	maxDamping = 1e12
)

// Solve runs Levenberg-Marquardt over every parameter block registered with
// the problem and writes the refined values back into the caller-owned
// storage the blocks view. The Jacobian of the stacked robust-weighted
// residual vector is approximated with central finite differences.
func Solve(p *Problem, opts Options) (Summary, error) {
	opts = opts.withDefaults()
	n, m := p.NumParameters(), p.NumResiduals()
	if n == 0 || m == 0 {
		return Summary{}, errors.Errorf("ba: nothing to solve (%d parameters, %d residuals)", n, m)
	}

	x := make([]float64, n)
	p.packParams(x)

	var evalErr error
	residualsAt := func(dst, x []float64) {
		if err := p.evaluate(dst, x); err != nil && evalErr == nil {
			evalErr = err
		}
	}

	r := make([]float64, m)
	residualsAt(r, x)
	if evalErr != nil {
		return Summary{}, errors.Wrap(evalErr, "ba: initial residual evaluation")
	}
	cost := 0.5 * floats.Dot(r, r)

	summary := Summary{InitialCost: cost, FinalCost: cost}
	damping := opts.InitialDamping

	jac := mat.NewDense(m, n, nil)
	xNew := make([]float64, n)
	rNew := make([]float64, m)
	var jtj, damped mat.Dense
	var g, step mat.VecDense

	for iter := 0; iter < opts.MaxIterations; iter++ {
		fd.Jacobian(jac, residualsAt, x, &fd.JacobianSettings{Formula: fd.Central})
		if evalErr != nil {
			return summary, errors.Wrap(evalErr, "ba: jacobian evaluation")
		}
		jtj.Mul(jac.T(), jac)
		g.MulVec(jac.T(), mat.NewVecDense(m, r))

		accepted := false
		for ; damping <= maxDamping; damping *= 10 {
			damped.CloneFrom(&jtj)
			for i := 0; i < n; i++ {
				damped.Set(i, i, jtj.At(i, i)+damping*(jtj.At(i, i)+1))
			}
			if err := step.SolveVec(&damped, &g); err != nil {
				continue // singular even with damping; stiffen further
			}
			copy(xNew, x)
			floats.AddScaled(xNew, -1, step.RawVector().Data)

			residualsAt(rNew, xNew)
			if evalErr != nil {
				return summary, errors.Wrap(evalErr, "ba: step evaluation")
			}
			costNew := 0.5 * floats.Dot(rNew, rNew)
			if costNew < cost && !math.IsNaN(costNew) {
				relDecrease := (cost - costNew) / cost
				copy(x, xNew)
				copy(r, rNew)
				cost = costNew
				summary.Iterations++
				summary.FinalCost = cost
				damping = math.Max(damping/10, minDamping)
				accepted = true
				if relDecrease < opts.Tolerance {
					summary.Converged = true
				}
				break
			}
		}
		// A rejected round means no damping level could decrease the
		// cost: the solve has stalled at a (local) minimum.
		if cost == 0 || !accepted {
			summary.Converged = true
		}
		if summary.Converged {
			break
		}
	}

	p.scatterParams(x)
	summary.FinalCost = cost
	return summary, nil
}
