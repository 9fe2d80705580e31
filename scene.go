package main

import (
	"math/rand"

	"parallax/sfm"
)

// scene is a synthetic reconstruction in the state the core expects it:
// noisy initial estimates in points/views, measured pixels in observations,
// and the visibility bookkeeping tying them together.
type scene struct {
	points       []sfm.Point3D
	observations [][]sfm.Observation
	views        []sfm.CameraView
	visibility   sfm.VisibilityGraph
}

// generateScene builds a strip of cameras looking down the z axis at a
// random point cloud, synthesizes observations from the ground truth (plus
// pixel noise and a few gross outliers), then perturbs the points and
// camera parameters to play the role of an imperfect triangulation.
func generateScene(rng *rand.Rand, nCameras, nPoints int, noise float64, nOutliers int) (*scene, error) {
	views := make([]sfm.CameraView, nCameras)
	for i := range views {
		views[i][sfm.ViewRotation+0] = 0.02 * (rng.Float64() - 0.5)
		views[i][sfm.ViewRotation+1] = 0.02 * (rng.Float64() - 0.5)
		views[i][sfm.ViewRotation+2] = 0.02 * (rng.Float64() - 0.5)
		views[i][sfm.ViewTranslation+0] = 0.4*float64(i) - 0.2*float64(nCameras-1)
		views[i][sfm.ViewTranslation+2] = 6
		views[i][sfm.ViewFocal] = 800
		views[i][sfm.ViewPrincipalX] = 320
		views[i][sfm.ViewPrincipalY] = 240
		views[i][sfm.ViewK1] = -0.01
		views[i][sfm.ViewK2] = 0.001
	}

	points := make([]sfm.Point3D, nPoints)
	for i := range points {
		points[i] = sfm.Point3D{
			3 * (rng.Float64() - 0.5),
			3 * (rng.Float64() - 0.5),
			rng.Float64() + 0.5,
		}
	}

	observations := make([][]sfm.Observation, nCameras)
	visibility := make(sfm.VisibilityGraph)
	for imageIndex := range views {
		observations[imageIndex] = make([]sfm.Observation, nPoints)
		for pointID := range points {
			pixel := sfm.Project11DOF(views[imageIndex][:], points[pointID][:])
			pixel.X += noise * rng.NormFloat64()
			pixel.Y += noise * rng.NormFloat64()
			observations[imageIndex][pointID] = pixel
			if err := visibility.Add(imageIndex, pointID, pointID); err != nil {
				return nil, err
			}
		}
	}

	// Gross outliers: tracks that matched the wrong feature entirely.
	for i := 0; i < nOutliers && i < nPoints; i++ {
		observations[i%nCameras][i].X += 40
		observations[i%nCameras][i].Y -= 25
	}

	// Degrade the ground truth into plausible initial estimates.
	for i := range points {
		for j := range points[i] {
			points[i][j] += 0.03 * (rng.Float64() - 0.5)
		}
	}
	for i := range views {
		for j := 0; j < 6; j++ {
			views[i][j] += 0.004 * (rng.Float64() - 0.5)
		}
	}

	return &scene{
		points:       points,
		observations: observations,
		views:        views,
		visibility:   visibility,
	}, nil
}
