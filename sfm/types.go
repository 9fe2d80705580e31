// Package sfm is the bundle-adjustment core of a multi-camera 3D
// reconstruction pipeline. It records which 3D points are observed in which
// images (a packed visibility graph), projects points through pinhole
// camera models of increasing richness (6, 7 and 11 degrees of freedom),
// registers the observed-minus-predicted residuals with a least-squares
// problem, and flags points whose refined reprojection error stays above a
// threshold.
package sfm

import "github.com/golang/geo/r2"

// Indices into a CameraView parameter vector.
const (
	ViewRotation    = 0 // [0:3] axis-angle rotation: angle = |v|, axis = v/|v|
	ViewTranslation = 3 // [3:6] translation
	ViewFocal       = 6
	ViewPrincipalX  = 7
	ViewPrincipalY  = 8
	ViewK1          = 9
	ViewK2          = 10
)

// CameraView holds the parameters of one camera image, positionally laid
// out per the View* constants. All eleven fields are always allocated;
// lower-DOF projection models simply ignore the trailing ones. The array is
// the camera's raw parameter storage: residual builders hand borrowed
// slices of it to the optimizer, which refines it in place.
type CameraView [11]float64

// Point3D is a reconstructed 3D point. As with CameraView, point[:] is the
// raw parameter block the optimizer refines in place. A negative z marks
// the point as noisy while |z| keeps the true depth; see MarkNoisyPoints.
type Point3D [3]float64

// Observation is a measured 2D pixel. Observations are stored per image,
// ordered by the point index within that image, and are never mutated by
// this package.
type Observation = r2.Point
