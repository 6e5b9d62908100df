package transform

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func testIntrinsics() *PinholeCameraIntrinsics {
	return &PinholeCameraIntrinsics{
		Width:  64,
		Height: 48,
		Fx:     60,
		Fy:     58,
		Ppx:    31.5,
		Ppy:    23.5,
	}
}

// rotatedProjection returns K·[R|t] for a small rotation about the y axis.
func rotatedProjection(intrinsics *PinholeCameraIntrinsics) *mat.Dense {
	theta := 0.1
	rt := mat.NewDense(3, 4, []float64{
		math.Cos(theta), 0, math.Sin(theta), 0.05,
		0, 1, 0, -0.02,
		-math.Sin(theta), 0, math.Cos(theta), 0.3,
	})
	var p mat.Dense
	p.Mul(intrinsics.CameraMatrix(), rt)
	return &p
}

func TestEstimateProjectionMatrixRoundTrip(t *testing.T) {
	intrinsics := testIntrinsics()
	truth := rotatedProjection(intrinsics)

	rnd := rand.New(rand.NewSource(7))
	points := make([]r3.Vector, 0, 50)
	pixels := make([]r2.Point, 0, 50)
	for i := 0; i < 50; i++ {
		pt := r3.Vector{X: rnd.Float64() - 0.5, Y: rnd.Float64() - 0.5, Z: 1 + rnd.Float64()}
		px, ok := ProjectPoint(truth, pt)
		test.That(t, ok, test.ShouldBeTrue)
		points = append(points, pt)
		pixels = append(pixels, px)
	}

	p, residual, err := EstimateProjectionMatrix(points, pixels)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, residual, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, p.At(0, 0), test.ShouldBeGreaterThanOrEqualTo, 0)
	test.That(t, mat.Norm(p, 2), test.ShouldAlmostEqual, 1, 1e-9)

	// equal up to scale
	scale := truth.At(2, 3) / p.At(2, 3)
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			test.That(t, p.At(r, c)*scale, test.ShouldAlmostEqual, truth.At(r, c), 1e-6)
		}
	}

	for i, pt := range points {
		px, ok := ProjectPoint(p, pt)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, px.X, test.ShouldAlmostEqual, pixels[i].X, 1e-6)
		test.That(t, px.Y, test.ShouldAlmostEqual, pixels[i].Y, 1e-6)
	}

	recovered, err := NewPinholeCameraIntrinsicsFromProjectionMatrix(p, intrinsics.Width, intrinsics.Height)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, recovered.Fx, test.ShouldAlmostEqual, intrinsics.Fx, 1e-6)
	test.That(t, recovered.Fy, test.ShouldAlmostEqual, intrinsics.Fy, 1e-6)
	test.That(t, recovered.Ppx, test.ShouldAlmostEqual, intrinsics.Ppx, 1e-6)
	test.That(t, recovered.Ppy, test.ShouldAlmostEqual, intrinsics.Ppy, 1e-6)
	test.That(t, recovered.Skew, test.ShouldAlmostEqual, 0, 1e-6)
}

func TestEstimateProjectionMatrixErrors(t *testing.T) {
	pts := []r3.Vector{{X: 1, Y: 2, Z: 3}}
	_, _, err := EstimateProjectionMatrix(pts, nil)
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = EstimateProjectionMatrix(pts, []r2.Point{{X: 1, Y: 1}})
	test.That(t, err, test.ShouldBeError)
	test.That(t, err.Error(), test.ShouldContainSubstring, "correspondences")
}

func TestProjectPointZeroDepth(t *testing.T) {
	p := testIntrinsics().ProjectionMatrix()
	_, ok := ProjectPoint(p, r3.Vector{X: 1, Y: 1, Z: 0})
	test.That(t, ok, test.ShouldBeFalse)

	px, ok := ProjectPoint(p, r3.Vector{X: 0, Y: 0, Z: 2})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, px.X, test.ShouldAlmostEqual, 31.5)
	test.That(t, px.Y, test.ShouldAlmostEqual, 23.5)
}

func TestEstimateProjectionMatrixPlanar(t *testing.T) {
	intrinsics := testIntrinsics()
	p := intrinsics.ProjectionMatrix()
	var points []r3.Vector
	var pixels []r2.Point
	for y := 0; y < 48; y += 6 {
		for x := 0; x < 64; x += 8 {
			pt := intrinsics.PixelToPoint(float64(x), float64(y), 1)
			px, ok := ProjectPoint(p, pt)
			test.That(t, ok, test.ShouldBeTrue)
			points = append(points, pt)
			pixels = append(pixels, px)
		}
	}
	_, _, err := EstimateProjectionMatrix(points, pixels)
	test.That(t, errors.Is(err, ErrDegenerateConfiguration), test.ShouldBeTrue)
}
