package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/organized/config"
	"go.viam.com/organized/logging"
	"go.viam.com/organized/pointcloud"
	"go.viam.com/organized/search"
	"go.viam.com/organized/transform"
)

type searchActions struct {
	clock clock.Clock
}

// loadConfig reads the config file, if any, and applies the --set overrides on top of it.
func loadConfig(c *cli.Context) (*config.Search, error) {
	cfg := &config.Search{}
	if path := c.Path(generalFlagConfig); path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return nil, err
		}
	}

	overrides := c.StringSlice(generalFlagSet)
	if len(overrides) == 0 {
		return cfg, nil
	}
	attrs := make(map[string]interface{}, len(overrides))
	for _, kv := range overrides {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, errors.Errorf("--%s takes KEY=VALUE but got %q", generalFlagSet, kv)
		}
		attrs[key] = value
	}
	if err := cfg.ApplyAttributes(attrs); err != nil {
		return nil, err
	}
	if err := cfg.Validate("search"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadSearcher reads the cloud and config named by the flags and returns a calibrated searcher.
// The logger it builds becomes the global logger.
func (a *searchActions) loadSearcher(c *cli.Context) (*search.OrganizedNeighbor, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	var logger logging.Logger
	if c.Bool(generalFlagDebug) {
		logger = logging.NewDebugLogger("nnsearch")
	} else {
		logger = logging.NewLogger("nnsearch")
		logger.SetLevel(cfg.Level())
	}
	logging.ReplaceGlobal(logger)

	intrinsics := cfg.Intrinsics
	if path := c.Path(generalFlagIntrinsics); path != "" {
		if intrinsics, err = transform.NewPinholeCameraIntrinsicsFromJSONFile(path); err != nil {
			return nil, err
		}
	}

	cloud, err := pointcloud.NewFromFile(c.Path(searchFlagPCD))
	if err != nil {
		return nil, errors.Wrap(err, "error reading point cloud")
	}
	logger.Debugw("read point cloud",
		"width", cloud.Width(),
		"height", cloud.Height(),
		"valid", cloud.ValidCount(),
	)

	searcher, err := search.NewOrganizedNeighbor(cloud, logger.Sublogger("search"), cfg.Options()...)
	if err != nil {
		return nil, err
	}
	if intrinsics != nil {
		err = searcher.SetIntrinsics(intrinsics)
	} else {
		err = searcher.Calibrate()
	}
	if err != nil {
		return nil, errors.Wrap(err, "error calibrating")
	}
	return searcher, nil
}

func queryPoint(c *cli.Context) (r3.Vector, error) {
	coords := c.Float64Slice(searchFlagPoint)
	if len(coords) != 3 {
		return r3.Vector{}, errors.Errorf("--%s takes x,y,z but got %d values", searchFlagPoint, len(coords))
	}
	return r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

// CalibrateAction is the corresponding action for 'calibrate'.
func (a *searchActions) CalibrateAction(c *cli.Context) error {
	searcher, err := a.loadSearcher(c)
	if err != nil {
		return err
	}
	logger := logging.Global()
	defer utils.UncheckedErrorFunc(logger.Sync)

	p, _ := searcher.ProjectionMatrix()
	printf(c.App.Writer, "projection matrix:\n%v", mat.Formatted(p, mat.Squeeze()))

	intrinsics, err := searcher.CameraIntrinsics()
	if err != nil {
		warningf(c.App.ErrWriter, "could not recover intrinsics: %v", err)
	} else {
		printf(c.App.Writer, "fx=%.4f fy=%.4f ppx=%.4f ppy=%.4f skew=%.4f",
			intrinsics.Fx, intrinsics.Fy, intrinsics.Ppx, intrinsics.Ppy, intrinsics.Skew)
		if path := c.Path(searchFlagIntrinsics); path != "" {
			data, err := json.MarshalIndent(intrinsics, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o600); err != nil {
				return errors.Wrap(err, "error writing intrinsics")
			}
			printf(c.App.Writer, "wrote intrinsics to %s", path)
		}
	}

	stats, err := searcher.ReprojectionStats()
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Samples", "Unprojectable", "Mean (px)", "Median (px)", "P95 (px)", "Max (px)"})
	t.AppendRow(table.Row{
		stats.Samples,
		stats.Unprojectable,
		fmt.Sprintf("%.4g", stats.Mean),
		fmt.Sprintf("%.4g", stats.Median),
		fmt.Sprintf("%.4g", stats.P95),
		fmt.Sprintf("%.4g", stats.Max),
	})
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

// RadiusAction is the corresponding action for 'radius'.
func (a *searchActions) RadiusAction(c *cli.Context) error {
	query, err := queryPoint(c)
	if err != nil {
		return err
	}
	searcher, err := a.loadSearcher(c)
	if err != nil {
		return err
	}
	logger := logging.Global()
	defer utils.UncheckedErrorFunc(logger.Sync)

	start := a.clock.Now()
	results, err := searcher.RadiusSearch(query, c.Float64(searchFlagRadius), c.Int(searchFlagMaxNN))
	if err != nil {
		return err
	}
	elapsed := a.clock.Since(start)
	logger.Debugw("query done", "results", results.Len(), "elapsed", elapsed)

	printNeighbors(c, searcher.Cloud(), results)
	printf(c.App.Writer, "%d neighbors, query took %s", results.Len(), elapsed)
	return nil
}

// KNNAction is the corresponding action for 'knn'.
func (a *searchActions) KNNAction(c *cli.Context) error {
	query, err := queryPoint(c)
	if err != nil {
		return err
	}
	searcher, err := a.loadSearcher(c)
	if err != nil {
		return err
	}
	logger := logging.Global()
	defer utils.UncheckedErrorFunc(logger.Sync)

	start := a.clock.Now()
	results, err := searcher.NearestKSearch(query, c.Int(searchFlagK))
	if err != nil {
		return err
	}
	elapsed := a.clock.Since(start)
	logger.Debugw("query done", "results", results.Len(), "elapsed", elapsed)

	printNeighbors(c, searcher.Cloud(), results)
	printf(c.App.Writer, "%d neighbors, query took %s", results.Len(), elapsed)
	return nil
}

// PlotAction is the corresponding action for 'plot'.
func (a *searchActions) PlotAction(c *cli.Context) error {
	query, err := queryPoint(c)
	if err != nil {
		return err
	}
	searcher, err := a.loadSearcher(c)
	if err != nil {
		return err
	}
	logger := logging.Global()
	defer utils.UncheckedErrorFunc(logger.Sync)

	results, err := searcher.NearestKSearch(query, c.Int(searchFlagK))
	if err != nil {
		return err
	}
	if err := plotNeighbors(searcher, query, results, c.Path(searchFlagOut)); err != nil {
		return errors.Wrap(err, "error plotting neighbors")
	}
	printf(c.App.Writer, "wrote %d neighbors to %s", results.Len(), c.Path(searchFlagOut))
	return nil
}

func printNeighbors(c *cli.Context, cloud *pointcloud.Organized, results search.Neighbors) {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Index", "Pixel", "Squared Distance"})
	for i, n := range results {
		x, y := cloud.Coords(n.Index)
		t.AppendRow(table.Row{i, n.Index, fmt.Sprintf("(%d, %d)", x, y), fmt.Sprintf("%.6g", n.SquaredDistance)})
	}
	printf(c.App.Writer, "%s", t.Render())
}
