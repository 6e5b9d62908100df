package search

import (
	"sort"

	"github.com/samber/lo"
)

// Neighbor is one search result: a cell of the searched cloud and its squared distance to the
// query.
type Neighbor struct {
	Index           int
	SquaredDistance float64
}

// Neighbors is a list of search results.
type Neighbors []Neighbor

// Len returns the number of results.
func (n Neighbors) Len() int {
	return len(n)
}

// Indices returns the cloud indices of the results, in result order.
func (n Neighbors) Indices() []int {
	return lo.Map(n, func(nb Neighbor, _ int) int {
		return nb.Index
	})
}

// SquaredDistances returns the squared distances of the results, in result order.
func (n Neighbors) SquaredDistances() []float64 {
	return lo.Map(n, func(nb Neighbor, _ int) float64 {
		return nb.SquaredDistance
	})
}

// Sort orders the results by ascending distance. Ties keep their scan order.
func (n Neighbors) Sort() {
	sort.SliceStable(n, func(i, j int) bool {
		return n[i].SquaredDistance < n[j].SquaredDistance
	})
}

// candidates is the working result set of a k nearest query: at most capacity neighbors kept
// sorted by ascending distance.
type candidates struct {
	items    Neighbors
	capacity int
}

func newCandidates(capacity int) *candidates {
	return &candidates{
		items:    make(Neighbors, 0, capacity),
		capacity: capacity,
	}
}

func (c *candidates) full() bool {
	return len(c.items) == c.capacity
}

// worst is the largest retained squared distance. Only meaningful when the set is not empty.
func (c *candidates) worst() float64 {
	return c.items[len(c.items)-1].SquaredDistance
}

// offer inserts the neighbor if it belongs in the set, evicting the current worst when full.
// It returns true when the set is full afterwards and its worst distance may have changed, that
// is when the insert filled the set or replaced the worst.
func (c *candidates) offer(index int, squaredDistance float64) bool {
	if c.capacity == 0 {
		return false
	}
	if c.full() {
		if squaredDistance >= c.worst() {
			return false
		}
		c.items = c.items[:len(c.items)-1]
	}
	// after any equal distances so earlier scanned cells win ties
	pos := sort.Search(len(c.items), func(i int) bool {
		return c.items[i].SquaredDistance > squaredDistance
	})
	c.items = append(c.items, Neighbor{})
	copy(c.items[pos+1:], c.items[pos:])
	c.items[pos] = Neighbor{Index: index, SquaredDistance: squaredDistance}
	return c.full()
}
