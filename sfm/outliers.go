package sfm

import (
	"math"

	"github.com/pkg/errors"
)

// ErrMarkingDisabled reports that MarkNoisyPoints was called with a
// non-positive threshold and did no work. Callers must distinguish it from
// a zero count of newly marked points.
var ErrMarkingDisabled = errors.New("sfm: outlier marking disabled (threshold <= 0)")

// MarkNoisyPoints re-projects every visible point through the 11-DOF model
// and flags points whose squared reprojection error exceeds the threshold
// by negating their z coordinate: |z| keeps the true depth, the sign is the
// flag. Points already flagged (z < 0) are skipped, which makes repeated
// calls idempotent. Returns the number of points newly marked in this call,
// or ErrMarkingDisabled for a threshold <= 0.
func MarkNoisyPoints(
	points []Point3D, observationsByImage [][]Observation, views []CameraView,
	visibility VisibilityGraph, squaredErrorThreshold float64,
) (int, error) {
	if squaredErrorThreshold <= 0 {
		return 0, ErrMarkingDisabled
	}
	marked := 0
	for key, pointID := range visibility {
		view, point, observed, err := resolveEntry(key, pointID, points, observationsByImage, views)
		if err != nil {
			return marked, err
		}
		if point[2] < 0 {
			continue
		}
		predicted := Project11DOF(view[:], point[:])
		dx, dy := observed.X-predicted.X, observed.Y-predicted.Y
		if dx*dx+dy*dy > squaredErrorThreshold {
			point[2] = -point[2]
			marked++
		}
	}
	return marked, nil
}

// RMSReprojectionError reports the root-mean-square reprojection error of
// the trusted (non-flagged) visibility entries under the 11-DOF model.
// Entries whose point is flagged noisy are excluded; an empty or fully
// flagged graph yields 0.
func RMSReprojectionError(
	points []Point3D, observationsByImage [][]Observation, views []CameraView,
	visibility VisibilityGraph,
) (float64, error) {
	sum, n := 0.0, 0
	for key, pointID := range visibility {
		view, point, observed, err := resolveEntry(key, pointID, points, observationsByImage, views)
		if err != nil {
			return 0, err
		}
		if point[2] < 0 {
			continue
		}
		predicted := Project11DOF(view[:], point[:])
		dx, dy := observed.X-predicted.X, observed.Y-predicted.Y
		sum += dx*dx + dy*dy
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return math.Sqrt(sum / float64(n)), nil
}
