package sfm

import "github.com/golang/geo/r2"

const undistortMaxIter = 100

// Undistort inverts the radial distortion of the 11-DOF model by fixed-point
// iteration, returning the pixel a distortion-free pinhole camera with the
// same focal length and principal point would have produced. Useful for
// feeding lens-distorted observations to the 6- and 7-DOF models.
func Undistort(pixel r2.Point, focal float64, principal r2.Point, k1, k2 float64) r2.Point {
	x := (pixel.X - principal.X) / focal
	y := (pixel.Y - principal.Y) / focal
	x0, y0 := x, y

	for i := 0; i < undistortMaxIter; i++ {
		radius2 := x*x + y*y
		kInv := 1 / (1 + radius2*(k1+k2*radius2))
		xPrev, yPrev := x, y
		x = x0 * kInv
		y = y0 * kInv
		e := (xPrev-x)*(xPrev-x) + (yPrev-y)*(yPrev-y)
		if e == 0 {
			break
		}
	}
	return r2.Point{X: x*focal + principal.X, Y: y*focal + principal.Y}
}
