package sfm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkNoisyPointsDisabled(t *testing.T) {
	points, observations, views, visibility := twoViewFixture(t)
	for _, threshold := range []float64{0, -4} {
		n, err := MarkNoisyPoints(points, observations, views, visibility, threshold)
		assert.ErrorIs(t, err, ErrMarkingDisabled)
		assert.Zero(t, n)
	}
}

func TestMarkNoisyPointsIdempotent(t *testing.T) {
	points, observations, views, visibility := twoViewFixture(t)

	// Push one point's observations far off their predictions.
	observations[0][2].X += 30
	observations[1][2].Y -= 30

	depthsBefore := make([]float64, len(points))
	for i, p := range points {
		depthsBefore[i] = math.Abs(p[2])
	}

	marked, err := MarkNoisyPoints(points, observations, views, visibility, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)
	assert.Less(t, points[2][2], 0.0)

	// Magnitudes never change, only signs.
	for i, p := range points {
		assert.Equal(t, depthsBefore[i], math.Abs(p[2]), "point %d depth magnitude", i)
	}

	// A second pass re-examines nothing that is already flagged.
	snapshot := append([]Point3D(nil), points...)
	marked, err = MarkNoisyPoints(points, observations, views, visibility, 4)
	require.NoError(t, err)
	assert.Zero(t, marked)
	assert.Equal(t, snapshot, points)
}

func TestMarkNoisyPointsKeepsAccuratePoints(t *testing.T) {
	points, observations, views, visibility := twoViewFixture(t)
	marked, err := MarkNoisyPoints(points, observations, views, visibility, 4)
	require.NoError(t, err)
	assert.Zero(t, marked)
	for i, p := range points {
		assert.GreaterOrEqual(t, p[2], 0.0, "point %d", i)
	}
}

func TestMarkNoisyPointsBoundsError(t *testing.T) {
	points, observations, views, _ := twoViewFixture(t)
	bad := make(VisibilityGraph)
	require.NoError(t, bad.Add(0, 0, 99))
	_, err := MarkNoisyPoints(points, observations, views, bad, 4)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMarkingDisabled)
}

func TestRMSReprojectionError(t *testing.T) {
	points, observations, views, visibility := twoViewFixture(t)

	rms, err := RMSReprojectionError(points, observations, views, visibility)
	require.NoError(t, err)
	assert.InDelta(t, 0, rms, 1e-9)

	// One displaced observation out of six: rms = sqrt(25/6).
	observations[0][0].X += 5
	rms, err = RMSReprojectionError(points, observations, views, visibility)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(25.0/6.0), rms, 1e-9)

	// Flagged points drop out of the aggregate.
	points[0][2] = -points[0][2]
	rms, err = RMSReprojectionError(points, observations, views, visibility)
	require.NoError(t, err)
	assert.InDelta(t, 0, rms, 1e-9)
}
