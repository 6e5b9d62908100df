package search

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/organized/transform"
	"go.viam.com/organized/utils"
)

// reprojectionSamples is the number of evenly spaced cells checked by CheckProjectionMatrix.
const reprojectionSamples = 11

// calibration is an immutable snapshot of a projection matrix P and the quantities derived
// from it. Matrices are kept row-major in fixed arrays for the query hot path.
type calibration struct {
	projection *mat.Dense
	// kr is the left 3x3 block of P, K·R.
	kr [9]float64
	// krkrt is KR·KRᵗ.
	krkrt [9]float64
	// t is the last column of P.
	t [3]float64
}

func newCalibration(p mat.Matrix) (*calibration, error) {
	if r, c := p.Dims(); r != 3 || c != 4 {
		return nil, errors.Errorf("projection matrix must be 3x4 but is %dx%d", r, c)
	}
	projection := mat.DenseCopyOf(p)
	for _, v := range projection.RawMatrix().Data {
		if !utils.IsFinite(v) {
			return nil, errors.New("projection matrix has non-finite entries")
		}
	}

	kr := projection.Slice(0, 3, 0, 3)
	var krkrt mat.Dense
	krkrt.Mul(kr, kr.T())
	if krkrt.At(2, 2) == 0 {
		return nil, errors.Wrap(ErrNotProjective, "projection matrix has a zero depth row")
	}

	c := &calibration{projection: projection}
	for r := 0; r < 3; r++ {
		for col := 0; col < 3; col++ {
			c.kr[r*3+col] = kr.At(r, col)
			c.krkrt[r*3+col] = krkrt.At(r, col)
		}
		c.t[r] = projection.At(r, 3)
	}
	return c, nil
}

// project returns the homogeneous pixel (u·w, v·w, w) of p.
func (c *calibration) project(p r3.Vector) [3]float64 {
	return [3]float64{
		c.kr[0]*p.X + c.kr[1]*p.Y + c.kr[2]*p.Z + c.t[0],
		c.kr[3]*p.X + c.kr[4]*p.Y + c.kr[5]*p.Z + c.t[1],
		c.kr[6]*p.X + c.kr[7]*p.Y + c.kr[8]*p.Z + c.t[2],
	}
}

// projectPixel returns the pixel p projects to; false if p has zero depth or the result is
// not finite.
func (c *calibration) projectPixel(p r3.Vector) (r2.Point, bool) {
	q := c.project(p)
	if q[2] == 0 {
		return r2.Point{}, false
	}
	px := r2.Point{X: q[0] / q[2], Y: q[1] / q[2]}
	return px, utils.IsFinite(px.X, px.Y)
}

// EstimateProjectionMatrix fits a projection matrix to a lattice of valid cells, each of which
// must project to its own grid coordinate. On success the new calibration replaces the old one;
// on failure the searcher is left uncalibrated.
func (s *OrganizedNeighbor) EstimateProjectionMatrix() error {
	s.Reset()

	width, height := s.cloud.Width(), s.cloud.Height()
	if !s.cloud.IsOrganized() {
		s.logger.Errorw("input dataset is not organized", "width", width, "height", height)
		return errors.Wrapf(ErrNotOrganized, "grid is %dx%d", width, height)
	}

	xStride := max(width>>s.opts.pyramidLevel, 1)
	yStride := max(height>>s.opts.pyramidLevel, 1)
	var points []r3.Vector
	var pixels []r2.Point
	for y := 0; y < height; y += yStride {
		for x := 0; x < width; x += xStride {
			p, ok := s.cloud.At(x, y)
			if !ok {
				continue
			}
			points = append(points, p)
			pixels = append(pixels, r2.Point{X: float64(x), Y: float64(y)})
		}
	}

	projection, residual, err := transform.EstimateProjectionMatrix(points, pixels)
	if err != nil {
		s.logger.Errorw("failed to fit projection matrix", "samples", len(points), "error", err)
		return errors.Wrap(ErrNotProjective, err.Error())
	}
	s.logger.Debugw("estimated projection matrix",
		"projection", fmt.Sprintf("%v", mat.Formatted(projection, mat.Squeeze())),
		"residual", residual,
		"samples", len(points),
	)

	if math.Abs(residual) > s.opts.epsilon*float64(len(points)) {
		mse := residual / float64(len(points))
		s.logger.Errorw("input dataset is not from a projective device", "mse", mse, "samples", len(points))
		return errors.Wrapf(ErrNotProjective, "residual (MSE) %g using %d valid points", mse, len(points))
	}

	c, err := newCalibration(projection)
	if err != nil {
		return err
	}
	s.calib.Store(c)
	return nil
}

// CheckProjectionMatrix reprojects evenly spaced valid cells and verifies each lands within
// one pixel of its own grid coordinate.
func (s *OrganizedNeighbor) CheckProjectionMatrix() error {
	c := s.calib.Load()
	if c == nil {
		return ErrNotCalibrated
	}
	return s.checkCalibration(c)
}

func (s *OrganizedNeighbor) checkCalibration(c *calibration) error {
	size := s.cloud.Size()
	for i := 0; i < reprojectionSamples; i++ {
		idx := size * i / reprojectionSamples
		p, ok := s.cloud.Point(idx)
		if !ok {
			continue
		}
		x, y := s.cloud.Coords(idx)
		px, ok := c.projectPixel(p)
		if !ok || math.Abs(px.X-float64(x)) > 1 || math.Abs(px.Y-float64(y)) > 1 {
			s.logger.Warnw("input dataset does not seem to be from a projective device",
				"index", idx,
				"point", p,
				"projected", px,
				"pixel", r2.Point{X: float64(x), Y: float64(y)},
			)
			return errors.Wrapf(ErrNotProjective,
				"point %d %v projected to pixel (%g,%g) but lives at (%d,%d)", idx, p, px.X, px.Y, x, y)
		}
	}
	return nil
}

// Calibrate estimates the projection matrix and sanity checks it by reprojection. If either
// step fails the searcher stays uncalibrated.
func (s *OrganizedNeighbor) Calibrate() error {
	if err := s.EstimateProjectionMatrix(); err != nil {
		return err
	}
	if err := s.CheckProjectionMatrix(); err != nil {
		s.Reset()
		return err
	}
	s.logger.Debugw("calibrated", "width", s.cloud.Width(), "height", s.cloud.Height())
	return nil
}

// SetProjectionMatrix installs a known 3x4 projection matrix without fitting.
func (s *OrganizedNeighbor) SetProjectionMatrix(p mat.Matrix) error {
	c, err := newCalibration(p)
	if err != nil {
		return err
	}
	s.calib.Store(c)
	return nil
}

// SetIntrinsics calibrates from known sensor intrinsics, for a cloud expressed in the camera's
// own frame. This is the only way to calibrate clouds whose points are coplanar.
func (s *OrganizedNeighbor) SetIntrinsics(intrinsics *transform.PinholeCameraIntrinsics) error {
	if err := intrinsics.CheckValid(); err != nil {
		return err
	}
	if intrinsics.Width != s.cloud.Width() || intrinsics.Height != s.cloud.Height() {
		return errors.Errorf("intrinsics are for a %dx%d image but the cloud is %dx%d",
			intrinsics.Width, intrinsics.Height, s.cloud.Width(), s.cloud.Height())
	}
	return s.SetProjectionMatrix(intrinsics.ProjectionMatrix())
}

// ProjectionMatrix returns a copy of the current projection matrix, or false if uncalibrated.
func (s *OrganizedNeighbor) ProjectionMatrix() (*mat.Dense, bool) {
	c := s.calib.Load()
	if c == nil {
		return nil, false
	}
	return mat.DenseCopyOf(c.projection), true
}

// CameraIntrinsics recovers the camera matrix from the current projection matrix.
func (s *OrganizedNeighbor) CameraIntrinsics() (*transform.PinholeCameraIntrinsics, error) {
	c := s.calib.Load()
	if c == nil {
		return nil, ErrNotCalibrated
	}
	return transform.NewPinholeCameraIntrinsicsFromProjectionMatrix(c.projection, s.cloud.Width(), s.cloud.Height())
}

// ProjectPoint returns the pixel coordinates p projects to. The second return is false when
// the searcher is uncalibrated or p lies on the camera plane.
func (s *OrganizedNeighbor) ProjectPoint(p r3.Vector) (r2.Point, bool) {
	c := s.calib.Load()
	if c == nil {
		return r2.Point{}, false
	}
	px, ok := transform.ProjectPoint(c.projection, p)
	return px, ok && utils.IsFinite(px.X, px.Y)
}
