package pointcloud

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func gridPoints(width, height int) []r3.Vector {
	points := make([]r3.Vector, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			points = append(points, NewVector(float64(x), float64(y), 1))
		}
	}
	return points
}

func TestOrganizedBasic(t *testing.T) {
	points := gridPoints(3, 2)
	points[4] = NewVector(math.NaN(), 0, 1)
	pc, err := NewOrganized(3, 2, points)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, pc.Width(), test.ShouldEqual, 3)
	test.That(t, pc.Height(), test.ShouldEqual, 2)
	test.That(t, pc.Size(), test.ShouldEqual, 6)
	test.That(t, pc.ValidCount(), test.ShouldEqual, 5)
	test.That(t, pc.IsOrganized(), test.ShouldBeTrue)

	idx, ok := pc.Index(2, 1)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, idx, test.ShouldEqual, 5)
	x, y := pc.Coords(idx)
	test.That(t, x, test.ShouldEqual, 2)
	test.That(t, y, test.ShouldEqual, 1)

	p, ok := pc.At(2, 1)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, p, test.ShouldResemble, NewVector(2, 1, 1))
	_, ok = pc.At(1, 1)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, pc.Valid(4), test.ShouldBeFalse)
	test.That(t, pc.Valid(3), test.ShouldBeTrue)

	// out of range accessors report false
	for _, xy := range [][2]int{{-1, 0}, {3, 0}, {0, 2}, {0, -1}} {
		test.That(t, pc.Contains(xy[0], xy[1]), test.ShouldBeFalse)
		_, ok = pc.Index(xy[0], xy[1])
		test.That(t, ok, test.ShouldBeFalse)
		_, ok = pc.At(xy[0], xy[1])
		test.That(t, ok, test.ShouldBeFalse)
	}
	_, ok = pc.Point(6)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, pc.Valid(-1), test.ShouldBeFalse)

	// the cloud does not alias the caller's slice
	points[0] = NewVector(9, 9, 9)
	p, _ = pc.Point(0)
	test.That(t, p, test.ShouldResemble, NewVector(0, 0, 1))
}

func TestOrganizedIterate(t *testing.T) {
	points := gridPoints(4, 4)
	points[1] = NewVector(0, math.Inf(1), 1)
	pc, err := NewOrganized(4, 4, points)
	test.That(t, err, test.ShouldBeNil)

	var visited []int
	pc.Iterate(func(idx int, p r3.Vector) bool {
		visited = append(visited, idx)
		return len(visited) < 3
	})
	test.That(t, visited, test.ShouldResemble, []int{0, 2, 3})

	count := 0
	pc.Iterate(func(int, r3.Vector) bool {
		count++
		return true
	})
	test.That(t, count, test.ShouldEqual, pc.ValidCount())
}

func TestNewOrganizedErrors(t *testing.T) {
	_, err := NewOrganized(0, 3, nil)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewOrganized(3, 3, gridPoints(3, 2))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewOrganizedWithMask(3, 2, gridPoints(3, 2), make([]bool, 5))
	test.That(t, err, test.ShouldNotBeNil)

	points := gridPoints(2, 2)
	points[3] = NewVector(math.NaN(), 0, 0)
	_, err = NewOrganizedWithMask(2, 2, points, []bool{true, true, true, true})
	test.That(t, err, test.ShouldNotBeNil)

	pc, err := NewOrganizedWithMask(2, 2, points, []bool{true, false, true, false})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pc.ValidCount(), test.ShouldEqual, 2)

	pc, err = NewOrganized(5, 1, gridPoints(5, 1))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pc.IsOrganized(), test.ShouldBeFalse)
}
