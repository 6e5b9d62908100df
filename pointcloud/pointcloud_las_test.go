package pointcloud

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

// lasCloud holds whole-unit coordinates so the scaled integers LAS stores reproduce them
// exactly.
func lasCloud(t *testing.T) *Organized {
	t.Helper()
	const width, height = 5, 3
	points := make([]r3.Vector, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			points = append(points, NewVector(float64(10*x-20), float64(10*y-10), float64(1000+x*y)))
		}
	}
	points[7] = NewVector(math.NaN(), math.NaN(), math.NaN())
	pc, err := NewOrganized(width, height, points)
	test.That(t, err, test.ShouldBeNil)
	return pc
}

func TestLASRoundTrip(t *testing.T) {
	pc := lasCloud(t)
	fn := filepath.Join(t.TempDir(), "grid.las")
	test.That(t, WriteToLASFile(pc, fn), test.ShouldBeNil)

	read, err := NewFromFile(fn)
	test.That(t, err, test.ShouldBeNil)
	checkSameCloud(t, read, pc)
	test.That(t, read.Valid(7), test.ShouldBeFalse)

	read, err = NewFromLASFile(fn, 5, 3)
	test.That(t, err, test.ShouldBeNil)
	checkSameCloud(t, read, pc)

	_, err = NewFromLASFile(fn, 3, 5)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "3x5")
}

func TestLASGridRecord(t *testing.T) {
	pc := lasCloud(t)
	width, height, err := decodeLASGrid(encodeLASGrid(pc))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, width, test.ShouldEqual, 5)
	test.That(t, height, test.ShouldEqual, 3)

	_, _, err = decodeLASGrid([]byte{1, 2, 3})
	test.That(t, err, test.ShouldNotBeNil)
}
