// Command parallax exercises the bundle-adjustment core end to end on a
// synthetic scene: it registers one reprojection residual per visibility
// entry, refines cameras and points with the Levenberg-Marquardt solver,
// and then flags the points whose reprojection error stayed large.
package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"

	"github.com/pkg/errors"

	"parallax/ba"
	"parallax/sfm"
)

func main() {
	var (
		nCameras  = flag.Int("cameras", 6, "number of synthetic camera views")
		nPoints   = flag.Int("points", 40, "number of synthetic 3D points")
		noise     = flag.Float64("noise", 0.3, "observation noise stddev, pixels")
		nOutliers = flag.Int("outliers", 3, "observations displaced by a gross matching error")
		lossWidth = flag.Float64("loss-width", 4, "Cauchy loss width, pixels (0 disables robust loss)")
		threshold = flag.Float64("threshold", 4, "squared reprojection error above which points are flagged")
		maxIter   = flag.Int("max-iter", 100, "solver iteration cap")
		seed      = flag.Int64("seed", 1, "random seed")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sc, err := generateScene(rand.New(rand.NewSource(*seed)), *nCameras, *nPoints, *noise, *nOutliers)
	if err != nil {
		logger.Error("scene generation failed", "err", err)
		os.Exit(1)
	}
	logger.Info("scene ready",
		"cameras", *nCameras, "points", *nPoints, "observations", len(sc.visibility))

	rmsBefore, err := sfm.RMSReprojectionError(sc.points, sc.observations, sc.views, sc.visibility)
	if err != nil {
		logger.Error("reprojection diagnostic failed", "err", err)
		os.Exit(1)
	}

	problem := ba.NewProblem()
	if err := sfm.AddResidualBlocks11DOF(problem, sc.points, sc.observations, sc.views, sc.visibility, *lossWidth); err != nil {
		logger.Error("residual registration failed", "err", err)
		os.Exit(1)
	}
	logger.Info("problem built",
		"residual_blocks", problem.NumResidualBlocks(), "parameters", problem.NumParameters())

	summary, err := ba.Solve(problem, ba.Options{MaxIterations: *maxIter})
	if err != nil {
		logger.Error("solve failed", "err", err)
		os.Exit(1)
	}

	rmsAfter, err := sfm.RMSReprojectionError(sc.points, sc.observations, sc.views, sc.visibility)
	if err != nil {
		logger.Error("reprojection diagnostic failed", "err", err)
		os.Exit(1)
	}
	logger.Info("bundle adjustment done",
		"iterations", summary.Iterations,
		"converged", summary.Converged,
		"initial_cost", summary.InitialCost,
		"final_cost", summary.FinalCost,
		"rms_before_px", rmsBefore,
		"rms_after_px", rmsAfter)

	marked, err := sfm.MarkNoisyPoints(sc.points, sc.observations, sc.views, sc.visibility, *threshold)
	switch {
	case errors.Is(err, sfm.ErrMarkingDisabled):
		logger.Info("outlier marking disabled")
	case err != nil:
		logger.Error("outlier marking failed", "err", err)
		os.Exit(1)
	default:
		logger.Info("outlier marking done", "newly_marked", marked)
	}
}
