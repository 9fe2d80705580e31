package sfm

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"parallax/ba"
)

// Problem is the slice of the optimizer's problem-construction interface
// this package consumes. *ba.Problem satisfies it.
type Problem interface {
	AddResidualBlock(cost ba.CostFunction, loss ba.LossFunction, blocks ...[]float64)
}

// reprojectionError11DOF is the observed-minus-predicted residual for the
// full model. Blocks: camera (11 parameters), point (3).
type reprojectionError11DOF struct {
	observed r2.Point
}

func (e reprojectionError11DOF) NumResiduals() int { return 2 }

func (e reprojectionError11DOF) Evaluate(blocks [][]float64, residuals []float64) error {
	predicted := Project11DOF(blocks[0], blocks[1])
	residuals[0] = e.observed.X - predicted.X
	residuals[1] = e.observed.Y - predicted.Y
	return nil
}

// reprojectionError7DOF optimizes rotation, translation and focal length.
// The principal point is captured by value when the residual is built and
// stays out of the optimization.
type reprojectionError7DOF struct {
	observed  r2.Point
	principal r2.Point
}

func (e reprojectionError7DOF) NumResiduals() int { return 2 }

func (e reprojectionError7DOF) Evaluate(blocks [][]float64, residuals []float64) error {
	predicted := Project7DOF(blocks[0], blocks[1], e.principal)
	residuals[0] = e.observed.X - predicted.X
	residuals[1] = e.observed.Y - predicted.Y
	return nil
}

// reprojectionError6DOF optimizes the pose only; focal length and principal
// point are captured by value when the residual is built.
type reprojectionError6DOF struct {
	observed  r2.Point
	focal     float64
	principal r2.Point
}

func (e reprojectionError6DOF) NumResiduals() int { return 2 }

func (e reprojectionError6DOF) Evaluate(blocks [][]float64, residuals []float64) error {
	predicted := Project6DOF(blocks[0], blocks[1], e.focal, e.principal)
	residuals[0] = e.observed.X - predicted.X
	residuals[1] = e.observed.Y - predicted.Y
	return nil
}

// resolveEntry looks up the camera view, 3D point and observation a
// visibility entry refers to, failing fast on any out-of-range index.
func resolveEntry(
	key uint32, pointID int,
	points []Point3D, observationsByImage [][]Observation, views []CameraView,
) (*CameraView, *Point3D, r2.Point, error) {
	imageIndex, pointIndex := ImageIndex(key), PointIndex(key)
	if imageIndex >= len(views) {
		return nil, nil, r2.Point{}, errors.Errorf(
			"sfm: visibility entry references image %d, have %d camera views", imageIndex, len(views))
	}
	if imageIndex >= len(observationsByImage) {
		return nil, nil, r2.Point{}, errors.Errorf(
			"sfm: visibility entry references image %d, have observations for %d images", imageIndex, len(observationsByImage))
	}
	if pointIndex >= len(observationsByImage[imageIndex]) {
		return nil, nil, r2.Point{}, errors.Errorf(
			"sfm: visibility entry references observation %d of image %d, which has %d",
			pointIndex, imageIndex, len(observationsByImage[imageIndex]))
	}
	if pointID < 0 || pointID >= len(points) {
		return nil, nil, r2.Point{}, errors.Errorf(
			"sfm: visibility entry references point %d, have %d points", pointID, len(points))
	}
	return &views[imageIndex], &points[pointID], observationsByImage[imageIndex][pointIndex], nil
}

func robustLoss(lossWidth float64) ba.LossFunction {
	if lossWidth > 0 {
		return ba.CauchyLoss(lossWidth)
	}
	return nil
}

// AddResidualBlocks11DOF registers one reprojection residual per visibility
// entry, jointly optimizing all eleven camera parameters and the point
// position. lossWidth > 0 wraps each residual in a Cauchy loss of that
// width; 0 disables robust weighting. Iteration order over the graph is
// unspecified; each registration is independent.
func AddResidualBlocks11DOF(
	problem Problem,
	points []Point3D, observationsByImage [][]Observation, views []CameraView,
	visibility VisibilityGraph, lossWidth float64,
) error {
	loss := robustLoss(lossWidth)
	for key, pointID := range visibility {
		view, point, observed, err := resolveEntry(key, pointID, points, observationsByImage, views)
		if err != nil {
			return err
		}
		problem.AddResidualBlock(
			reprojectionError11DOF{observed: observed},
			loss,
			view[:], point[:],
		)
	}
	return nil
}

// AddResidualBlocks7DOF registers one reprojection residual per visibility
// entry, optimizing pose and focal length. The principal point is read from
// each camera's current values once, here, and excluded from the optimized
// block (view[:7]).
func AddResidualBlocks7DOF(
	problem Problem,
	points []Point3D, observationsByImage [][]Observation, views []CameraView,
	visibility VisibilityGraph, lossWidth float64,
) error {
	loss := robustLoss(lossWidth)
	for key, pointID := range visibility {
		view, point, observed, err := resolveEntry(key, pointID, points, observationsByImage, views)
		if err != nil {
			return err
		}
		problem.AddResidualBlock(
			reprojectionError7DOF{
				observed:  observed,
				principal: r2.Point{X: view[ViewPrincipalX], Y: view[ViewPrincipalY]},
			},
			loss,
			view[:7], point[:],
		)
	}
	return nil
}

// AddResidualBlocks6DOF registers one reprojection residual per visibility
// entry, optimizing the pose only. Focal length and principal point are
// read from each camera's current values once, here, and excluded from the
// optimized block (view[:6]).
func AddResidualBlocks6DOF(
	problem Problem,
	points []Point3D, observationsByImage [][]Observation, views []CameraView,
	visibility VisibilityGraph, lossWidth float64,
) error {
	loss := robustLoss(lossWidth)
	for key, pointID := range visibility {
		view, point, observed, err := resolveEntry(key, pointID, points, observationsByImage, views)
		if err != nil {
			return err
		}
		problem.AddResidualBlock(
			reprojectionError6DOF{
				observed:  observed,
				focal:     view[ViewFocal],
				principal: r2.Point{X: view[ViewPrincipalX], Y: view[ViewPrincipalY]},
			},
			loss,
			view[:6], point[:],
		)
	}
	return nil
}
