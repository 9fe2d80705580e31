package sfm

import "github.com/pkg/errors"

// maxPackedIndex is the largest image or point index a packed key can hold.
const maxPackedIndex = 0xFFFF

// VisibilityGraph maps a packed (image index, point index) key to the index
// of the observed 3D point. Keys are unique; several keys may share a value
// when the same point is seen from multiple images.
type VisibilityGraph map[uint32]int

// PackKey packs an image index and a per-image point index into a single
// key. Both indices must fit in 16 bits.
func PackKey(imageIndex, pointIndex int) (uint32, error) {
	if imageIndex < 0 || imageIndex > maxPackedIndex {
		return 0, errors.Errorf("sfm: image index %d outside [0, %d]", imageIndex, maxPackedIndex)
	}
	if pointIndex < 0 || pointIndex > maxPackedIndex {
		return 0, errors.Errorf("sfm: point index %d outside [0, %d]", pointIndex, maxPackedIndex)
	}
	return uint32(imageIndex)<<16 | uint32(pointIndex), nil
}

// ImageIndex recovers the image index from a packed key.
func ImageIndex(key uint32) int {
	return int((key >> 16) & maxPackedIndex)
}

// PointIndex recovers the per-image point index from a packed key.
func PointIndex(key uint32) int {
	return int(key & maxPackedIndex)
}

// Add records that 3D point pointID is observed in image imageIndex at the
// observation slot pointIndex.
func (g VisibilityGraph) Add(imageIndex, pointIndex, pointID int) error {
	key, err := PackKey(imageIndex, pointIndex)
	if err != nil {
		return err
	}
	g[key] = pointID
	return nil
}
