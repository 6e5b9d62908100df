// Package pointcloud defines an organized point cloud: a set of 3D points laid out on the
// regular pixel grid of the depth sensor that produced them.
//
// Points are stored row-major, so the point at column x and row y lives at index
// y*Width()+x. Each cell carries a validity flag; invalid cells (no return, NaN, or masked out
// by the caller) are skipped by every consumer of the cloud.
package pointcloud

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/organized/utils"
)

// NewVector convenience method for creating a vector.
func NewVector(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// IsFinite reports whether all coordinates of p are finite.
func IsFinite(p r3.Vector) bool {
	return utils.IsFinite(p.X, p.Y, p.Z)
}

// Organized is an immutable grid of points with a per cell validity mask.
type Organized struct {
	width  int
	height int
	points []r3.Vector
	mask   []bool
	valid  int
}

// NewOrganized returns an organized cloud over the given row-major points. A cell is valid iff
// all of its coordinates are finite.
func NewOrganized(width, height int, points []r3.Vector) (*Organized, error) {
	mask := make([]bool, len(points))
	for i, p := range points {
		mask[i] = IsFinite(p)
	}
	return NewOrganizedWithMask(width, height, points, mask)
}

// NewOrganizedWithMask returns an organized cloud with an explicit validity mask. A cell marked
// valid must hold finite coordinates.
func NewOrganizedWithMask(width, height int, points []r3.Vector, mask []bool) (*Organized, error) {
	if width < 1 || height < 1 {
		return nil, errors.Errorf("invalid grid size (%d, %d)", width, height)
	}
	if len(points) != width*height {
		return nil, errors.Errorf("expected %d points for a %dx%d grid but got %d", width*height, width, height, len(points))
	}
	if len(mask) != len(points) {
		return nil, errors.Errorf("mask has %d entries but the grid has %d cells", len(mask), len(points))
	}
	valid := 0
	for i, ok := range mask {
		if !ok {
			continue
		}
		if !IsFinite(points[i]) {
			return nil, errors.Errorf("cell %d is marked valid but holds non-finite point %v", i, points[i])
		}
		valid++
	}
	return &Organized{
		width:  width,
		height: height,
		points: append([]r3.Vector(nil), points...),
		mask:   append([]bool(nil), mask...),
		valid:  valid,
	}, nil
}

// Width returns the number of columns.
func (o *Organized) Width() int {
	return o.width
}

// Height returns the number of rows.
func (o *Organized) Height() int {
	return o.height
}

// Size returns the number of cells, valid or not.
func (o *Organized) Size() int {
	return len(o.points)
}

// ValidCount returns the number of valid cells.
func (o *Organized) ValidCount() int {
	return o.valid
}

// IsOrganized reports whether the grid is truly two dimensional. A single row or column is
// an unorganized cloud in disguise.
func (o *Organized) IsOrganized() bool {
	return o.width > 1 && o.height > 1
}

// Contains reports whether (x, y) is inside the grid.
func (o *Organized) Contains(x, y int) bool {
	return x >= 0 && x < o.width && y >= 0 && y < o.height
}

// Index converts a column/row pair to a cell index. The second return is false when the
// pair is outside the grid.
func (o *Organized) Index(x, y int) (int, bool) {
	if !o.Contains(x, y) {
		return -1, false
	}
	return y*o.width + x, true
}

// Coords converts a cell index to its column/row pair.
func (o *Organized) Coords(idx int) (x, y int) {
	return idx % o.width, idx / o.width
}

// Point returns the point stored at idx and whether that cell is valid.
func (o *Organized) Point(idx int) (r3.Vector, bool) {
	if idx < 0 || idx >= len(o.points) {
		return r3.Vector{}, false
	}
	return o.points[idx], o.mask[idx]
}

// At returns the point at column x, row y and whether that cell is valid.
func (o *Organized) At(x, y int) (r3.Vector, bool) {
	idx, ok := o.Index(x, y)
	if !ok {
		return r3.Vector{}, false
	}
	return o.points[idx], o.mask[idx]
}

// Valid reports whether the cell at idx holds a usable point.
func (o *Organized) Valid(idx int) bool {
	return idx >= 0 && idx < len(o.mask) && o.mask[idx]
}

// Iterate calls fn for every valid cell in row-major order until fn returns false.
func (o *Organized) Iterate(fn func(idx int, p r3.Vector) bool) {
	for idx, p := range o.points {
		if !o.mask[idx] {
			continue
		}
		if !fn(idx, p) {
			return
		}
	}
}
