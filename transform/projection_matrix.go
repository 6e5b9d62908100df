package transform

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// minCorrespondences is the number of 3D to 2D pairs needed to constrain the 11 degrees of
	// freedom of a projection matrix.
	minCorrespondences = 6
	// degenerateRatio bounds the second smallest singular value relative to the largest. Below
	// it more than one matrix explains the correspondences, e.g. when all points are coplanar.
	degenerateRatio = 1e-9
)

// ErrTooFewCorrespondences is returned when there are not enough point/pixel pairs to fit a
// projection matrix.
var ErrTooFewCorrespondences = errors.Errorf("at least %d correspondences are needed", minCorrespondences)

// ErrDegenerateConfiguration is returned when the correspondences do not determine a unique
// projection matrix.
var ErrDegenerateConfiguration = errors.New("correspondences do not determine a unique projection matrix")

// EstimateProjectionMatrix fits the 3x4 matrix P that maps each point to its pixel,
// (u·w, v·w, w)ᵗ = P·(x, y, z, 1)ᵗ, in the least squares sense (direct linear transform).
//
// P is the right singular vector of the smallest singular value of the stacked constraint
// matrix, so it has unit Frobenius norm; its sign is chosen so that P[0,0] is non-negative. The
// second return is the algebraic residual sum of squares, the squared smallest singular value.
// Coplanar points leave a multi-dimensional solution space and yield ErrDegenerateConfiguration.
func EstimateProjectionMatrix(points []r3.Vector, pixels []r2.Point) (*mat.Dense, float64, error) {
	if len(points) != len(pixels) {
		return nil, 0, errors.Errorf("got %d points but %d pixels", len(points), len(pixels))
	}
	if len(points) < minCorrespondences {
		return nil, 0, errors.Wrapf(ErrTooFewCorrespondences, "got %d", len(points))
	}

	a := mat.NewDense(2*len(points), 12, nil)
	for i, pt := range points {
		u, v := pixels[i].X, pixels[i].Y
		a.SetRow(2*i, []float64{
			pt.X, pt.Y, pt.Z, 1,
			0, 0, 0, 0,
			-u * pt.X, -u * pt.Y, -u * pt.Z, -u,
		})
		a.SetRow(2*i+1, []float64{
			0, 0, 0, 0,
			pt.X, pt.Y, pt.Z, 1,
			-v * pt.X, -v * pt.Y, -v * pt.Z, -v,
		})
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThinV); !ok {
		return nil, 0, errors.New("SVD factorization of the projection constraints failed")
	}
	var vMat mat.Dense
	svd.VTo(&vMat)
	values := svd.Values(nil)
	sigma := values[len(values)-1]
	if values[len(values)-2] <= degenerateRatio*values[0] {
		return nil, 0, errors.Wrapf(ErrDegenerateConfiguration, "singular values %v", values)
	}

	p := mat.NewDense(3, 4, mat.Col(nil, 11, &vMat))
	if p.At(0, 0) < 0 {
		p.Scale(-1, p)
	}
	return p, sigma * sigma, nil
}

// ProjectPoint applies a 3x4 projection matrix to p and divides by depth. The second return is
// false when the depth is zero.
func ProjectPoint(projection mat.Matrix, p r3.Vector) (r2.Point, bool) {
	w := projection.At(2, 0)*p.X + projection.At(2, 1)*p.Y + projection.At(2, 2)*p.Z + projection.At(2, 3)
	if w == 0 {
		return r2.Point{}, false
	}
	return r2.Point{
		X: (projection.At(0, 0)*p.X + projection.At(0, 1)*p.Y + projection.At(0, 2)*p.Z + projection.At(0, 3)) / w,
		Y: (projection.At(1, 0)*p.X + projection.At(1, 1)*p.Y + projection.At(1, 2)*p.Z + projection.At(1, 3)) / w,
	}, true
}
