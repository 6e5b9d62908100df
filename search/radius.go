package search

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// RadiusSearch returns the valid cells whose points lie within radius of query. At most maxNN
// results are returned; zero, or any value not smaller than the cloud size, means no limit.
// Results come in scan order unless the searcher was built WithSortedResults.
func (s *OrganizedNeighbor) RadiusSearch(query r3.Vector, radius float64, maxNN int) (Neighbors, error) {
	c, err := s.snapshot(query)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(radius) || radius < 0 {
		return nil, errors.Wrapf(ErrInvalidQuery, "radius %g", radius)
	}
	if maxNN < 0 {
		return nil, errors.Wrapf(ErrInvalidQuery, "max results %d", maxNN)
	}

	size := s.cloud.Size()
	if maxNN == 0 || maxNN > size {
		maxNN = size
	}
	squaredRadius := radius * radius
	box := c.radiusSearchBox(query, squaredRadius, s.cloud.Width(), s.cloud.Height())

	results := Neighbors{}
scan:
	for y := box.MinY; y <= box.MaxY; y++ {
		for x := box.MinX; x <= box.MaxX; x++ {
			idx, _ := s.cloud.Index(x, y)
			p, ok := s.cloud.Point(idx)
			if !ok {
				continue
			}
			d := p.Sub(query).Norm2()
			if d > squaredRadius {
				continue
			}
			results = append(results, Neighbor{Index: idx, SquaredDistance: d})
			if len(results) == maxNN {
				break scan
			}
		}
	}

	if s.opts.sortedResults {
		results.Sort()
	}
	return results, nil
}
