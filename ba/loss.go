package ba

import "math"

// LossFunction maps the squared norm s of a residual block to the cost the
// solver actually minimizes. Sub-quadratic growth for large s bounds the
// influence of gross outliers on the objective.
type LossFunction interface {
	Eval(s float64) float64
}

type cauchyLoss struct {
	a2 float64
}

// CauchyLoss returns the loss ρ(s) = a²·log(1 + s/a²) for a positive width
// a. Near zero it behaves like ordinary squared error; beyond the width it
// grows only logarithmically.
func CauchyLoss(width float64) LossFunction {
	return cauchyLoss{a2: width * width}
}

func (l cauchyLoss) Eval(s float64) float64 {
	return l.a2 * math.Log1p(s/l.a2)
}
