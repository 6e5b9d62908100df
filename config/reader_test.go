package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/organized/logging"
	"go.viam.com/organized/pointcloud"
	"go.viam.com/organized/search"
)

func TestRead(t *testing.T) {
	t.Setenv("ORGANIZED_TEST_FX", "60")
	fn := filepath.Join(t.TempDir(), "search.json5")
	data := `{
		// comments and trailing commas are fine
		sorted_results: true,
		eps: 1e-5,
		pyramid_level: 3,
		log_level: "debug",
		intrinsics: {
			width_px: 64,
			height_px: 48,
			fx: $ORGANIZED_TEST_FX,
			fy: 58,
			ppx: 31.5,
			ppy: 23.5,
		},
	}`
	test.That(t, os.WriteFile(fn, []byte(data), 0o600), test.ShouldBeNil)

	cfg, err := Read(fn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.SortedResults, test.ShouldBeTrue)
	test.That(t, *cfg.Epsilon, test.ShouldEqual, 1e-5)
	test.That(t, *cfg.PyramidLevel, test.ShouldEqual, uint(3))
	test.That(t, cfg.Level(), test.ShouldEqual, logging.DEBUG)
	test.That(t, cfg.Intrinsics, test.ShouldNotBeNil)
	test.That(t, cfg.Intrinsics.Fx, test.ShouldEqual, 60.0)
	test.That(t, cfg.Intrinsics.Width, test.ShouldEqual, 64)
	test.That(t, cfg.Options(), test.ShouldHaveLength, 3)

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFromReaderDefaults(t *testing.T) {
	cfg, err := FromReader("inline", strings.NewReader("{}"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.SortedResults, test.ShouldBeFalse)
	test.That(t, cfg.Epsilon, test.ShouldBeNil)
	test.That(t, cfg.PyramidLevel, test.ShouldBeNil)
	test.That(t, cfg.Intrinsics, test.ShouldBeNil)
	test.That(t, cfg.Level(), test.ShouldEqual, logging.INFO)
	test.That(t, cfg.Options(), test.ShouldHaveLength, 1)

	_, err = FromReader("inline", strings.NewReader("{"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "inline")
}

func TestValidate(t *testing.T) {
	eps := -1.0
	level := uint(40)
	cfg := Search{Epsilon: &eps, PyramidLevel: &level, LogLevel: "loud"}
	err := cfg.Validate("search")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "eps")
	test.That(t, err.Error(), test.ShouldContainSubstring, "pyramid_level")
	test.That(t, err.Error(), test.ShouldContainSubstring, "loud")

	_, err = FromReader("inline", strings.NewReader(`{eps: 0}`))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = FromReader("inline", strings.NewReader(`{intrinsics: {height_px: 48, fx: 1, fy: 1}}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "width_px")

	_, err = FromReader("inline", strings.NewReader(`{intrinsics: {width_px: 4, height_px: 4, fx: -1, fy: 1}}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "intrinsics")
}

func TestFromAttributes(t *testing.T) {
	cfg, err := FromAttributes(map[string]interface{}{
		"sorted_results": true,
		"eps":            0.001,
		"pyramid_level":  2,
		"intrinsics": map[string]interface{}{
			"width_px":  4,
			"height_px": 4,
			"fx":        4.0,
			"fy":        4.0,
			"ppx":       1.5,
			"ppy":       1.5,
		},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Validate("search"), test.ShouldBeNil)
	test.That(t, cfg.SortedResults, test.ShouldBeTrue)
	test.That(t, *cfg.Epsilon, test.ShouldEqual, 0.001)
	test.That(t, *cfg.PyramidLevel, test.ShouldEqual, uint(2))
	test.That(t, cfg.Intrinsics.Ppx, test.ShouldEqual, 1.5)

	_, err = FromAttributes(map[string]interface{}{"eps": "small"})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestApplyAttributes(t *testing.T) {
	eps := 1e-3
	cfg := &Search{SortedResults: true, Epsilon: &eps, LogLevel: "warn"}
	err := cfg.ApplyAttributes(map[string]interface{}{
		"eps":           "1e-5",
		"pyramid_level": "4",
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *cfg.Epsilon, test.ShouldEqual, 1e-5)
	test.That(t, *cfg.PyramidLevel, test.ShouldEqual, uint(4))
	test.That(t, cfg.SortedResults, test.ShouldBeTrue)
	test.That(t, cfg.LogLevel, test.ShouldEqual, "warn")
	test.That(t, cfg.Intrinsics, test.ShouldBeNil)

	test.That(t, cfg.ApplyAttributes(map[string]interface{}{"sorted_results": "false"}), test.ShouldBeNil)
	test.That(t, cfg.SortedResults, test.ShouldBeFalse)

	err = cfg.ApplyAttributes(map[string]interface{}{"pyramid_level": "many"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "error decoding search attributes")
}

func TestOptionsApply(t *testing.T) {
	eps := 1e-3
	cfg := Search{SortedResults: true, Epsilon: &eps}
	points, err := pointcloud.NewOrganized(2, 2, []r3.Vector{{X: 0, Z: 1}, {X: 1, Z: 1}, {Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}})
	test.That(t, err, test.ShouldBeNil)
	s, err := search.NewOrganizedNeighbor(points, nil, cfg.Options()...)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.SortedResults(), test.ShouldBeTrue)

	bad := 0.0
	cfg.Epsilon = &bad
	_, err = search.NewOrganizedNeighbor(points, nil, cfg.Options()...)
	test.That(t, err, test.ShouldNotBeNil)
}
