package search

import (
	"github.com/golang/geo/r3"
)

// NearestKSearch returns the k valid cells closest to query sorted by ascending distance, or
// every valid cell when the cloud holds fewer than k. k < 1 yields no results.
//
// The scan starts at the pixel the query projects to and grows a window one pixel per side per
// iteration. Once k candidates are known, the radius box of the current k-th distance bounds
// where any closer cell can be, and the search ends as soon as the window covers that box.
func (s *OrganizedNeighbor) NearestKSearch(query r3.Vector, k int) (Neighbors, error) {
	c, err := s.snapshot(query)
	if err != nil {
		return nil, err
	}
	if k < 1 {
		return Neighbors{}, nil
	}

	width, height := s.cloud.Width(), s.cloud.Height()
	cands := newCandidates(min(k, s.cloud.ValidCount()))
	if cands.capacity == 0 {
		return Neighbors{}, nil
	}

	px, ok := c.projectPixel(query)
	if !ok {
		// the query sits on the camera plane so there is nothing to grow from
		s.cloud.Iterate(func(idx int, p r3.Vector) bool {
			cands.offer(idx, p.Sub(query).Norm2())
			return true
		})
		return cands.items, nil
	}

	target := Box{MinX: 0, MaxX: width - 1, MinY: 0, MaxY: height - 1}
	win := seedWindow(px.X, px.Y, width, height)
	if !win.empty() && s.test(win.left, win.top, query, cands) {
		target = c.radiusSearchBox(query, cands.worst(), width, height)
	}

	contained := win.contains(target)
	for !contained {
		win.grow()
		if changed := s.scanBorder(win, query, cands); changed {
			target = c.radiusSearchBox(query, cands.worst(), width, height)
		}
		contained = win.contains(target)
	}
	return cands.items, nil
}

// test offers the cell at (x, y) to the candidate set if it holds a valid point.
func (s *OrganizedNeighbor) test(x, y int, query r3.Vector, cands *candidates) bool {
	p, ok := s.cloud.At(x, y)
	if !ok {
		return false
	}
	idx, _ := s.cloud.Index(x, y)
	return cands.offer(idx, p.Sub(query).Norm2())
}

// scanBorder tests the cells on the outermost rows and columns of a freshly grown window,
// clipped to the image. Corners belong to the rows. It reports whether any test changed the
// worst candidate.
func (s *OrganizedNeighbor) scanBorder(win window, query r3.Vector, cands *candidates) bool {
	width, height := s.cloud.Width(), s.cloud.Height()
	xBegin, xEnd := max(win.left, 0), min(win.right, width)
	if xBegin >= xEnd {
		return false
	}

	changed := false
	scanRow := func(y int) {
		for x := xBegin; x < xEnd; x++ {
			if s.test(x, y, query, cands) {
				changed = true
			}
		}
	}
	scanCol := func(x, yBegin, yEnd int) {
		for y := yBegin; y < yEnd; y++ {
			if s.test(x, y, query, cands) {
				changed = true
			}
		}
	}

	if win.top >= 0 && win.top < height {
		scanRow(win.top)
	}
	if bottom := win.bottom - 1; bottom > win.top && bottom >= 0 && bottom < height {
		scanRow(bottom)
	}

	yBegin, yEnd := max(win.top+1, 0), min(win.bottom-1, height)
	if win.left >= 0 && win.left < width {
		scanCol(win.left, yBegin, yEnd)
	}
	if right := win.right - 1; right > win.left && right >= 0 && right < width {
		scanCol(right, yBegin, yEnd)
	}
	return changed
}
