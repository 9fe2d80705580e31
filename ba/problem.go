// Package ba provides the nonlinear least-squares machinery that the sfm
// package registers its reprojection residuals with: a problem made of
// residual blocks over shared parameter blocks, robust loss functions, and
// a Levenberg-Marquardt solver with numeric Jacobians.
package ba

import "math"

// CostFunction evaluates a fixed number of residuals from one or more
// parameter blocks. Evaluate must write exactly NumResiduals values into
// residuals and may read, but never write, the parameter blocks.
type CostFunction interface {
	NumResiduals() int
	Evaluate(blocks [][]float64, residuals []float64) error
}

type residualBlock struct {
	cost   CostFunction
	loss   LossFunction
	blocks [][]float64
	// offset of this block's residuals in the stacked residual vector
	residualOffset int
}

type paramBlock struct {
	data   []float64
	offset int
}

// Problem accumulates residual blocks ahead of a Solve. Parameter blocks
// are retained by reference: the solver writes refined values back into the
// caller-owned storage the slices view. Two parameter blocks must either be
// identical slices or not overlap at all.
//
// Appending residual blocks is a single-writer operation; Problem is not
// safe for concurrent mutation.
type Problem struct {
	residuals    []residualBlock
	params       []paramBlock
	offsets      map[*float64]int
	numParams    int
	numResiduals int
}

// NewProblem returns an empty problem.
func NewProblem() *Problem {
	return &Problem{offsets: make(map[*float64]int)}
}

// AddResidualBlock registers cost against the given parameter blocks, with
// an optional robust loss (nil means ordinary squared error). A parameter
// block seen for the first time joins the set of jointly optimized
// parameters; re-registering the same slice shares the parameters between
// residuals.
func (p *Problem) AddResidualBlock(cost CostFunction, loss LossFunction, blocks ...[]float64) {
	for _, b := range blocks {
		if len(b) == 0 {
			continue
		}
		if _, seen := p.offsets[&b[0]]; !seen {
			p.offsets[&b[0]] = p.numParams
			p.params = append(p.params, paramBlock{data: b, offset: p.numParams})
			p.numParams += len(b)
		}
	}
	p.residuals = append(p.residuals, residualBlock{
		cost:           cost,
		loss:           loss,
		blocks:         blocks,
		residualOffset: p.numResiduals,
	})
	p.numResiduals += cost.NumResiduals()
}

// NumResidualBlocks reports how many residual blocks have been registered.
func (p *Problem) NumResidualBlocks() int { return len(p.residuals) }

// NumResiduals reports the length of the stacked residual vector.
func (p *Problem) NumResiduals() int { return p.numResiduals }

// NumParameters reports the total number of optimized parameters.
func (p *Problem) NumParameters() int { return p.numParams }

// packParams gathers the live parameter blocks into dst, which must have
// length NumParameters.
func (p *Problem) packParams(dst []float64) {
	for _, b := range p.params {
		copy(dst[b.offset:b.offset+len(b.data)], b.data)
	}
}

// scatterParams writes a packed parameter vector back into the caller-owned
// blocks.
func (p *Problem) scatterParams(src []float64) {
	for _, b := range p.params {
		copy(b.data, src[b.offset:b.offset+len(b.data)])
	}
}

// blockViews assembles, for one residual block, views of the candidate
// parameter vector x that correspond to the block's registered slices.
func (p *Problem) blockViews(rb residualBlock, x []float64) [][]float64 {
	views := make([][]float64, len(rb.blocks))
	for i, b := range rb.blocks {
		if len(b) == 0 {
			views[i] = nil
			continue
		}
		off := p.offsets[&b[0]]
		views[i] = x[off : off+len(b)]
	}
	return views
}

// evaluate writes the stacked robust-weighted residual vector at the packed
// parameter vector x into dst (length NumResiduals). A residual block with
// loss ρ contributes r·sqrt(ρ(|r|²)/|r|²), so that the squared norm of dst
// is the robustified objective.
func (p *Problem) evaluate(dst, x []float64) error {
	for _, rb := range p.residuals {
		n := rb.cost.NumResiduals()
		seg := dst[rb.residualOffset : rb.residualOffset+n]
		if err := rb.cost.Evaluate(p.blockViews(rb, x), seg); err != nil {
			return err
		}
		if rb.loss == nil {
			continue
		}
		s := 0.0
		for _, r := range seg {
			s += r * r
		}
		if s <= 0 {
			continue
		}
		w := math.Sqrt(rb.loss.Eval(s) / s)
		for i := range seg {
			seg[i] *= w
		}
	}
	return nil
}
