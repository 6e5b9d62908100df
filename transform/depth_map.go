package transform

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/organized/pointcloud"
)

// DepthMapToOrganized back-projects a row-major depth image through the given intrinsics into an
// organized point cloud of the same size. Pixels with no return (depth <= 0, NaN or infinite)
// become invalid cells.
func DepthMapToOrganized(depths []float64, intrinsics *PinholeCameraIntrinsics) (*pointcloud.Organized, error) {
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	width, height := intrinsics.Width, intrinsics.Height
	if len(depths) != width*height {
		return nil, errors.Errorf("depth map has %d pixels but intrinsics expect %dx%d", len(depths), width, height)
	}
	nan := math.NaN()
	points := make([]r3.Vector, len(depths))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			z := depths[idx]
			if z <= 0 || math.IsNaN(z) || math.IsInf(z, 0) {
				points[idx] = r3.Vector{X: nan, Y: nan, Z: nan}
				continue
			}
			points[idx] = intrinsics.PixelToPoint(float64(x), float64(y), z)
		}
	}
	return pointcloud.NewOrganized(width, height, points)
}

// DepthMapFromFunc samples depth(x, y) over the image described by intrinsics.
func DepthMapFromFunc(intrinsics *PinholeCameraIntrinsics, depth func(x, y int) float64) []float64 {
	depths := make([]float64, intrinsics.Width*intrinsics.Height)
	for y := 0; y < intrinsics.Height; y++ {
		for x := 0; x < intrinsics.Width; x++ {
			depths[y*intrinsics.Width+x] = depth(x, y)
		}
	}
	return depths
}
