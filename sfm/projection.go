package sfm

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// RotateAngleAxis rotates p about axis/|axis| by |axis| radians using the
// Rodrigues formula. The zero vector is the identity rotation. The same
// routine backs every projection model and the outlier marker.
func RotateAngleAxis(axis, p r3.Vector) r3.Vector {
	theta2 := axis.Dot(axis)
	if theta2 <= 1e-24 {
		// First-order expansion R·p ≈ p + axis × p keeps the result
		// smooth through the identity rotation.
		return p.Add(axis.Cross(p))
	}
	theta := math.Sqrt(theta2)
	w := axis.Mul(1 / theta)
	cos, sin := math.Cos(theta), math.Sin(theta)
	return p.Mul(cos).
		Add(w.Cross(p).Mul(sin)).
		Add(w.Mul(w.Dot(p) * (1 - cos)))
}

// cameraSpace applies the rigid transform X' = R·X + t encoded in the first
// six entries of the camera block.
func cameraSpace(camera, point []float64) r3.Vector {
	rotated := RotateAngleAxis(
		r3.Vector{X: camera[0], Y: camera[1], Z: camera[2]},
		r3.Vector{X: point[0], Y: point[1], Z: point[2]},
	)
	return rotated.Add(r3.Vector{X: camera[3], Y: camera[4], Z: camera[5]})
}

// Project6DOF projects a point through the pinhole model with every
// intrinsic held fixed: only the rotation and translation (camera[0:6]) are
// live parameters; focal length and principal point are supplied by the
// caller. A point at zero camera-space depth yields ±Inf/NaN coordinates
// per floating-point division rules.
func Project6DOF(camera, point []float64, focal float64, principal r2.Point) r2.Point {
	xc := cameraSpace(camera, point)
	return r2.Point{
		X: focal*xc.X/xc.Z + principal.X,
		Y: focal*xc.Y/xc.Z + principal.Y,
	}
}

// Project7DOF adds the focal length (camera[6]) to the live parameters; the
// principal point stays fixed at the caller-supplied value.
func Project7DOF(camera, point []float64, principal r2.Point) r2.Point {
	xc := cameraSpace(camera, point)
	focal := camera[ViewFocal]
	return r2.Point{
		X: focal*xc.X/xc.Z + principal.X,
		Y: focal*xc.Y/xc.Z + principal.Y,
	}
}

// Project11DOF projects through the full model: focal length, principal
// point and the radial distortion coefficients k1, k2 are all read from the
// camera block. Distortion scales the normalized coordinates by
// 1 + r²·(k1 + k2·r²) with r² the squared normalized radius.
func Project11DOF(camera, point []float64) r2.Point {
	xc := cameraSpace(camera, point)
	focal := camera[ViewFocal]
	k1, k2 := camera[ViewK1], camera[ViewK2]
	xn, yn := xc.X/xc.Z, xc.Y/xc.Z
	radius2 := xn*xn + yn*yn
	distort := 1 + radius2*(k1+k2*radius2)
	return r2.Point{
		X: focal*distort*xn + camera[ViewPrincipalX],
		Y: focal*distort*yn + camera[ViewPrincipalY],
	}
}
