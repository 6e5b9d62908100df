package search

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// ReprojectionStats summarizes, in pixels, how far valid cells project from their own grid
// coordinate under the current calibration.
type ReprojectionStats struct {
	Samples       int
	Unprojectable int
	Mean          float64
	Median        float64
	P95           float64
	Max           float64
}

// ReprojectionStats measures the reprojection error of every valid cell.
func (s *OrganizedNeighbor) ReprojectionStats() (ReprojectionStats, error) {
	c := s.calib.Load()
	if c == nil {
		return ReprojectionStats{}, ErrNotCalibrated
	}

	var result ReprojectionStats
	errs := make(stats.Float64Data, 0, s.cloud.ValidCount())
	s.cloud.Iterate(func(idx int, p r3.Vector) bool {
		px, ok := c.projectPixel(p)
		if !ok {
			result.Unprojectable++
			return true
		}
		x, y := s.cloud.Coords(idx)
		errs = append(errs, math.Hypot(px.X-float64(x), px.Y-float64(y)))
		return true
	})
	result.Samples = len(errs)
	if len(errs) == 0 {
		return result, errors.New("no valid cell could be reprojected")
	}

	var err error
	if result.Mean, err = errs.Mean(); err != nil {
		return result, err
	}
	if result.Median, err = errs.Median(); err != nil {
		return result, err
	}
	if result.P95, err = errs.Percentile(95); err != nil {
		return result, err
	}
	if result.Max, err = errs.Max(); err != nil {
		return result, err
	}
	return result, nil
}
