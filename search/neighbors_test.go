package search

import (
	"math/rand"
	"testing"

	"go.viam.com/test"
)

func TestNeighbors(t *testing.T) {
	n := Neighbors{{Index: 4, SquaredDistance: 2}, {Index: 1, SquaredDistance: 0.5}, {Index: 9, SquaredDistance: 2}, {Index: 3, SquaredDistance: 1}}
	test.That(t, n.Len(), test.ShouldEqual, 4)
	test.That(t, n.Indices(), test.ShouldResemble, []int{4, 1, 9, 3})
	test.That(t, n.SquaredDistances(), test.ShouldResemble, []float64{2, 0.5, 2, 1})

	n.Sort()
	test.That(t, n.Indices(), test.ShouldResemble, []int{1, 3, 4, 9})
	test.That(t, Neighbors{}.Indices(), test.ShouldBeEmpty)
}

func TestCandidatesOffer(t *testing.T) {
	c := newCandidates(3)
	test.That(t, c.offer(0, 5), test.ShouldBeFalse)
	test.That(t, c.offer(1, 3), test.ShouldBeFalse)
	// fills the set
	test.That(t, c.offer(2, 4), test.ShouldBeTrue)
	test.That(t, c.worst(), test.ShouldEqual, 5.0)

	test.That(t, c.offer(3, 5), test.ShouldBeFalse)
	test.That(t, c.offer(4, 7), test.ShouldBeFalse)
	test.That(t, c.offer(5, 1), test.ShouldBeTrue)
	test.That(t, c.worst(), test.ShouldEqual, 4.0)
	test.That(t, c.items, test.ShouldResemble, Neighbors{
		{Index: 5, SquaredDistance: 1},
		{Index: 1, SquaredDistance: 3},
		{Index: 2, SquaredDistance: 4},
	})

	// ties keep the earlier offer first
	test.That(t, c.offer(6, 3), test.ShouldBeTrue)
	test.That(t, c.items.Indices(), test.ShouldResemble, []int{5, 1, 6})

	empty := newCandidates(0)
	test.That(t, empty.offer(0, 1), test.ShouldBeFalse)
	test.That(t, empty.items, test.ShouldBeEmpty)
}

func TestCandidatesWorstNeverGrows(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	c := newCandidates(10)
	var last float64
	for i := 0; i < 1000; i++ {
		changed := c.offer(i, rnd.Float64()*100)
		if !c.full() {
			test.That(t, changed, test.ShouldBeFalse)
			continue
		}
		if i >= 10 {
			test.That(t, c.worst(), test.ShouldBeLessThanOrEqualTo, last)
		}
		last = c.worst()

		test.That(t, len(c.items), test.ShouldEqual, 10)
		for j := 1; j < len(c.items); j++ {
			test.That(t, c.items[j-1].SquaredDistance, test.ShouldBeLessThanOrEqualTo, c.items[j].SquaredDistance)
		}
	}
}

func TestWindow(t *testing.T) {
	w := seedWindow(3.4, 2.6, 10, 8)
	test.That(t, w, test.ShouldResemble, window{left: 3, right: 4, top: 3, bottom: 4})
	test.That(t, w.empty(), test.ShouldBeFalse)
	test.That(t, w.contains(Box{MinX: 3, MaxX: 3, MinY: 3, MaxY: 3}), test.ShouldBeTrue)
	test.That(t, w.contains(Box{MinX: 2, MaxX: 3, MinY: 3, MaxY: 3}), test.ShouldBeFalse)

	w.grow()
	test.That(t, w, test.ShouldResemble, window{left: 2, right: 5, top: 2, bottom: 5})
	test.That(t, w.contains(Box{MinX: 2, MaxX: 4, MinY: 2, MaxY: 4}), test.ShouldBeTrue)

	// off image seeds sit on the border and start empty
	w = seedWindow(-7, 1e300, 10, 8)
	test.That(t, w, test.ShouldResemble, window{left: 0, right: 0, top: 8, bottom: 8})
	test.That(t, w.empty(), test.ShouldBeTrue)
	w = seedWindow(9.6, -0.4, 10, 8)
	test.That(t, w, test.ShouldResemble, window{left: 10, right: 10, top: 0, bottom: 1})
}
