package search

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/organized/utils"
)

// Box is an inclusive, axis aligned rectangle of pixels.
type Box struct {
	MinX, MaxX int
	MinY, MaxY int
}

// Contains reports whether the pixel (x, y) lies inside the box.
func (b Box) Contains(x, y int) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// ProjectedRadiusSearchBox returns the pixel rectangle that contains every grid cell whose
// point lies within sqrt(squaredRadius) of query. The rectangle is never empty and always lies
// inside the image.
func (s *OrganizedNeighbor) ProjectedRadiusSearchBox(query r3.Vector, squaredRadius float64) (Box, error) {
	c, err := s.snapshot(query)
	if err != nil {
		return Box{}, err
	}
	if math.IsNaN(squaredRadius) || squaredRadius < 0 {
		return Box{}, errors.Wrapf(ErrInvalidQuery, "squared radius %g", squaredRadius)
	}
	return c.radiusSearchBox(query, squaredRadius, s.cloud.Width(), s.cloud.Height()), nil
}

// radiusSearchBox bounds the image of the sphere around query. A pixel column u is touched by
// the sphere iff the plane through the camera center that projects to u meets the sphere, which
// gives a·u² - 2b·u + c >= 0 in terms of KR·KRᵗ and the projected center q; rows likewise.
func (c *calibration) radiusSearchBox(query r3.Vector, squaredRadius float64, width, height int) Box {
	q := c.project(query)
	m := c.krkrt
	a := squaredRadius*m[8] - utils.Square(q[2])

	var box Box
	box.MinX, box.MaxX = axisExtent(a, squaredRadius*m[2]-q[0]*q[2], squaredRadius*m[0]-utils.Square(q[0]), width)
	box.MinY, box.MaxY = axisExtent(a, squaredRadius*m[5]-q[1]*q[2], squaredRadius*m[4]-utils.Square(q[1]), height)
	return box
}

// axisExtent solves a·t² - 2b·t + c = 0 and returns the clamped integer range between the roots.
// When the sphere reaches the camera plane (a >= 0) its image is unbounded and the whole axis is
// returned; the same happens for a negative discriminant or non-finite roots.
func axisExtent(a, b, c float64, size int) (int, int) {
	if a >= 0 || !utils.IsFinite(a, b, c) {
		return 0, size - 1
	}
	det := b*b - a*c
	if det < 0 {
		return 0, size - 1
	}
	sqrtDet := math.Sqrt(det)
	r1 := (b - sqrtDet) / a
	r2 := (b + sqrtDet) / a
	lo := math.Floor(math.Min(r1, r2))
	hi := math.Ceil(math.Max(r1, r2))
	if !utils.IsFinite(lo, hi) {
		return 0, size - 1
	}
	return clampPixel(lo, size), clampPixel(hi, size)
}

// clampPixel converts v to a pixel coordinate in [0, size-1]. Clamping happens before the
// conversion since v may not fit in an int.
func clampPixel(v float64, size int) int {
	switch {
	case v <= 0:
		return 0
	case v >= float64(size-1):
		return size - 1
	default:
		return int(v)
	}
}
