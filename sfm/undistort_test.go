package sfm

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
)

func TestUndistortInvertsRadialDistortion(t *testing.T) {
	camera := CameraView{}
	camera[ViewFocal] = 800
	camera[ViewPrincipalX] = 320
	camera[ViewPrincipalY] = 240
	camera[ViewK1] = -0.2
	camera[ViewK2] = 0.05
	principal := r2.Point{X: 320, Y: 240}

	pinhole := camera
	pinhole[ViewK1], pinhole[ViewK2] = 0, 0

	points := []Point3D{
		{0.1, 0.05, 2},
		{-0.4, 0.3, 3},
		{0.6, -0.5, 4},
		{0, 0, 1},
	}
	for _, point := range points {
		distorted := Project11DOF(camera[:], point[:])
		want := Project11DOF(pinhole[:], point[:])
		got := Undistort(distorted, camera[ViewFocal], principal, camera[ViewK1], camera[ViewK2])
		assert.InDelta(t, want.X, got.X, 1e-6)
		assert.InDelta(t, want.Y, got.Y, 1e-6)
	}
}

func TestUndistortNoopWithoutCoefficients(t *testing.T) {
	pixel := r2.Point{X: 123.4, Y: -56.7}
	got := Undistort(pixel, 500, r2.Point{X: 10, Y: 20}, 0, 0)
	assert.InDelta(t, pixel.X, got.X, 1e-12)
	assert.InDelta(t, pixel.Y, got.Y, 1e-12)
}
