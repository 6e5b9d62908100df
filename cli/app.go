// Package cli contains the nnsearch command line interface: calibrating organized clouds stored
// as pcd or las files and running neighbor queries against them.
package cli

import (
	"io"

	"github.com/benbjohnson/clock"
	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	generalFlagConfig     = "config"
	generalFlagSet        = "set"
	generalFlagIntrinsics = "intrinsics"
	generalFlagDebug      = "debug"

	searchFlagPCD        = "pcd"
	searchFlagPoint      = "point"
	searchFlagRadius     = "radius"
	searchFlagMaxNN      = "max-nn"
	searchFlagK          = "k"
	searchFlagOut        = "out"
	searchFlagIntrinsics = "write-intrinsics"
)

func pcdFlag() cli.Flag {
	return &cli.PathFlag{
		Name:     searchFlagPCD,
		Required: true,
		Usage:    "organized point cloud `FILE` (.pcd or .las) to search",
	}
}

func pointFlag() cli.Flag {
	return &cli.Float64SliceFlag{
		Name:     searchFlagPoint,
		Required: true,
		Usage:    "query point as x,y,z",
	}
}

func newApp(clk clock.Clock) *cli.App {
	actions := &searchActions{clock: clk}
	return &cli.App{
		Name:            "nnsearch",
		Usage:           "nearest neighbor search over organized point clouds",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    generalFlagConfig,
				Aliases: []string{"c"},
				Usage:   "load search configuration from `FILE`",
			},
			&cli.StringSliceFlag{
				Name:  generalFlagSet,
				Usage: "override a configuration attribute as `KEY=VALUE`, e.g. eps=1e-5",
			},
			&cli.PathFlag{
				Name:  generalFlagIntrinsics,
				Usage: "calibrate from the camera intrinsics json in `FILE` instead of estimating",
			},
			&cli.BoolFlag{
				Name:  generalFlagDebug,
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "calibrate",
				Usage: "estimate the projection matrix of a cloud and report how well it fits",
				Flags: []cli.Flag{
					pcdFlag(),
					&cli.PathFlag{
						Name:  searchFlagIntrinsics,
						Usage: "write the recovered camera intrinsics as json to `FILE`",
					},
				},
				Action: actions.CalibrateAction,
			},
			{
				Name:  "radius",
				Usage: "find every point within a radius of the query",
				Flags: []cli.Flag{
					pcdFlag(),
					pointFlag(),
					&cli.Float64Flag{
						Name:     searchFlagRadius,
						Required: true,
						Usage:    "search radius, in the cloud's units",
					},
					&cli.IntFlag{
						Name:  searchFlagMaxNN,
						Usage: "return at most this many points, 0 for no limit",
					},
				},
				Action: actions.RadiusAction,
			},
			{
				Name:  "knn",
				Usage: "find the k points closest to the query",
				Flags: []cli.Flag{
					pcdFlag(),
					pointFlag(),
					&cli.IntFlag{
						Name:  searchFlagK,
						Value: 1,
						Usage: "number of neighbors",
					},
				},
				Action: actions.KNNAction,
			},
			{
				Name:  "plot",
				Usage: "draw the k nearest neighbors of the query in pixel space",
				Flags: []cli.Flag{
					pcdFlag(),
					pointFlag(),
					&cli.IntFlag{
						Name:  searchFlagK,
						Value: 10,
						Usage: "number of neighbors",
					},
					&cli.PathFlag{
						Name:     searchFlagOut,
						Required: true,
						Usage:    "output image `FILE` (png, svg or pdf)",
					},
				},
				Action: actions.PlotAction,
			},
		},
	}
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app := newApp(clock.New())
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
