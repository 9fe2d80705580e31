package sfm

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parallax/ba"
)

// TestBundleAdjustmentRefinesScene runs the whole chain: synthesize exact
// observations, perturb the points, register residuals, solve, and verify
// the reprojection error collapses and no point ends up flagged.
func TestBundleAdjustmentRefinesScene(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	views := make([]CameraView, 4)
	for i := range views {
		views[i][ViewTranslation] = 0.5 * float64(i)
		views[i][ViewTranslation+2] = 5
		views[i][ViewFocal] = 100
		views[i][ViewPrincipalX] = 320
		views[i][ViewPrincipalY] = 240
		views[i][ViewK1] = 0.02
	}
	points := []Point3D{
		{0.5, 0.2, 0.6}, {-0.3, 0.1, 1}, {0, -0.4, 0.5}, {0.8, 0.6, 0.2}, {-0.6, -0.3, 0.8},
	}

	observations := make([][]Observation, len(views))
	visibility := make(VisibilityGraph)
	for imageIndex, view := range views {
		observations[imageIndex] = make([]Observation, len(points))
		for pointID, point := range points {
			observations[imageIndex][pointID] = Project11DOF(view[:], point[:])
			require.NoError(t, visibility.Add(imageIndex, pointID, pointID))
		}
	}

	for i := range points {
		for j := range points[i] {
			points[i][j] += 0.05 * (rng.Float64() - 0.5)
		}
	}

	rmsBefore, err := RMSReprojectionError(points, observations, views, visibility)
	require.NoError(t, err)
	require.Greater(t, rmsBefore, 0.01)

	problem := ba.NewProblem()
	require.NoError(t, AddResidualBlocks11DOF(problem, points, observations, views, visibility, 0))
	assert.Equal(t, len(visibility), problem.NumResidualBlocks())

	summary, err := ba.Solve(problem, ba.Options{MaxIterations: 100})
	require.NoError(t, err)
	assert.Less(t, summary.FinalCost, summary.InitialCost)

	rmsAfter, err := RMSReprojectionError(points, observations, views, visibility)
	require.NoError(t, err)
	assert.Less(t, rmsAfter, rmsBefore/10)
	assert.Less(t, rmsAfter, 0.01)

	marked, err := MarkNoisyPoints(points, observations, views, visibility, 4)
	require.NoError(t, err)
	assert.Zero(t, marked)
}
