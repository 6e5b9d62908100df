// Package transform contains the pinhole camera model used to relate an organized point
// cloud to the pixel grid it was captured on.
package transform

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intriniscs are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective projection of a 3D scene to the 2D plane.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
	Skew   float64 `json:"skew,omitempty"`
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if params.Width <= 0 || params.Height <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// NewPinholeCameraIntrinsicsFromJSONFile takes in a file path to a JSON and turns it into PinholeCameraIntrinsics.
func NewPinholeCameraIntrinsicsFromJSONFile(jsonPath string) (*PinholeCameraIntrinsics, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON data")
	}
	intrinsics := &PinholeCameraIntrinsics{}
	if err := json.Unmarshal(byteValue, intrinsics); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	return intrinsics, nil
}

// PixelToPoint transforms a pixel with depth to a 3D point.
// The intrinsics parameters should be the ones of the sensor used to obtain the image that
// contains the pixel.
func (params *PinholeCameraIntrinsics) PixelToPoint(x, y, z float64) r3.Vector {
	if params == nil {
		return r3.Vector{}
	}
	yOverZ := (y - params.Ppy) / params.Fy
	xOverZ := (x - params.Ppx - params.Skew*yOverZ) / params.Fx
	return r3.Vector{X: xOverZ * z, Y: yOverZ * z, Z: z}
}

// PointToPixel projects a 3D point to continuous pixel coordinates. The second return is false
// when the point lies on the camera plane (zero depth).
func (params *PinholeCameraIntrinsics) PointToPixel(p r3.Vector) (r2.Point, bool) {
	if p.Z == 0 {
		return r2.Point{X: -1, Y: -1}, false
	}
	return r2.Point{
		X: (p.X*params.Fx+p.Y*params.Skew)/p.Z + params.Ppx,
		Y: (p.Y/p.Z)*params.Fy + params.Ppy,
	}, true
}

// CameraMatrix returns K, the 3x3 upper triangular camera matrix.
func (params *PinholeCameraIntrinsics) CameraMatrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		params.Fx, params.Skew, params.Ppx,
		0, params.Fy, params.Ppy,
		0, 0, 1,
	})
}

// ProjectionMatrix returns the 3x4 projection matrix K·[I|0] of a camera sitting at the origin
// of the point cloud's frame.
func (params *PinholeCameraIntrinsics) ProjectionMatrix() *mat.Dense {
	p := mat.NewDense(3, 4, nil)
	p.Slice(0, 3, 0, 3).(*mat.Dense).Copy(params.CameraMatrix())
	return p
}

// NewPinholeCameraIntrinsicsFromProjectionMatrix recovers the camera matrix K from the left 3x3
// block of a projection matrix P = s·K·[R|t]. Since R is orthonormal, KR·(KR)ᵗ = s²·K·Kᵗ, which is
// solved in closed form for the upper triangular K.
func NewPinholeCameraIntrinsicsFromProjectionMatrix(p mat.Matrix, width, height int) (*PinholeCameraIntrinsics, error) {
	if r, c := p.Dims(); r != 3 || c != 4 {
		return nil, errors.Errorf("projection matrix must be 3x4 but is %dx%d", r, c)
	}
	kr := mat.DenseCopyOf(p).Slice(0, 3, 0, 3)
	var krkrt mat.Dense
	krkrt.Mul(kr, kr.T())
	scale := krkrt.At(2, 2)
	if scale <= 0 {
		return nil, NewNoIntrinsicsError("projection matrix has a degenerate depth row")
	}
	krkrt.Scale(1/scale, &krkrt)

	ppx := krkrt.At(0, 2)
	ppy := krkrt.At(1, 2)
	fy2 := krkrt.At(1, 1) - ppy*ppy
	if fy2 <= 0 {
		return nil, NewNoIntrinsicsError(fmt.Sprintf("negative squared focal length fy² = %g", fy2))
	}
	fy := math.Sqrt(fy2)
	skew := (krkrt.At(0, 1) - ppx*ppy) / fy
	fx2 := krkrt.At(0, 0) - skew*skew - ppx*ppx
	if fx2 <= 0 {
		return nil, NewNoIntrinsicsError(fmt.Sprintf("negative squared focal length fx² = %g", fx2))
	}
	return &PinholeCameraIntrinsics{
		Width:  width,
		Height: height,
		Fx:     math.Sqrt(fx2),
		Fy:     fy,
		Ppx:    ppx,
		Ppy:    ppy,
		Skew:   skew,
	}, nil
}
