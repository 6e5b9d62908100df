package search

import "math"

// window is a half-open pixel rectangle [left, right) x [top, bottom). It may extend past the
// image; only its intersection with the image is ever scanned.
type window struct {
	left, right int
	top, bottom int
}

// seedWindow returns the single pixel nearest to the projected query, or an empty window on
// the image border along any axis where the projection falls outside.
func seedWindow(u, v float64, width, height int) window {
	var w window
	w.left, w.right = seedRange(u, width)
	w.top, w.bottom = seedRange(v, height)
	return w
}

func seedRange(u float64, size int) (int, int) {
	rounded := math.Floor(u + 0.5)
	switch {
	case rounded < 0:
		return 0, 0
	case rounded >= float64(size):
		return size, size
	default:
		p := int(rounded)
		return p, p + 1
	}
}

func (w window) empty() bool {
	return w.left >= w.right || w.top >= w.bottom
}

func (w *window) grow() {
	w.left--
	w.right++
	w.top--
	w.bottom++
}

// contains reports whether every pixel of b has been scanned.
func (w window) contains(b Box) bool {
	return w.left <= b.MinX && w.right > b.MaxX && w.top <= b.MinY && w.bottom > b.MaxY
}
