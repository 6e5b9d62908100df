package cli

import (
	"image/color"

	"github.com/golang/geo/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"go.viam.com/organized/search"
)

var (
	validColor    = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	neighborColor = color.RGBA{R: 30, G: 90, B: 200, A: 255}
	queryColor    = color.RGBA{R: 220, G: 40, B: 40, A: 255}
	boxColor      = color.RGBA{R: 40, G: 160, B: 60, A: 255}
)

// plotNeighbors draws the valid cells of the cloud, the neighbors found, the query's pixel and
// the search box implied by the farthest neighbor, all in pixel space.
func plotNeighbors(s *search.OrganizedNeighbor, query r3.Vector, results search.Neighbors, out string) error {
	cloud := s.Cloud()
	p := plot.New()
	p.Title.Text = "nearest neighbors"
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "y (px)"
	p.X.Min, p.X.Max = -1, float64(cloud.Width())
	p.Y.Min, p.Y.Max = -1, float64(cloud.Height())
	// image rows grow downwards
	p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}
	p.Add(plotter.NewGrid())

	validPts := make(plotter.XYs, 0, cloud.ValidCount())
	cloud.Iterate(func(idx int, _ r3.Vector) bool {
		x, y := cloud.Coords(idx)
		validPts = append(validPts, plotter.XY{X: float64(x), Y: float64(y)})
		return true
	})
	if len(validPts) > 0 {
		valid, err := plotter.NewScatter(validPts)
		if err != nil {
			return err
		}
		valid.GlyphStyle.Color = validColor
		valid.GlyphStyle.Radius = vg.Points(1)
		p.Add(valid)
		p.Legend.Add("valid", valid)
	}

	if results.Len() > 0 {
		neighborPts := make(plotter.XYs, 0, results.Len())
		for _, n := range results {
			x, y := cloud.Coords(n.Index)
			neighborPts = append(neighborPts, plotter.XY{X: float64(x), Y: float64(y)})
		}
		neighbors, err := plotter.NewScatter(neighborPts)
		if err != nil {
			return err
		}
		neighbors.GlyphStyle.Color = neighborColor
		neighbors.GlyphStyle.Radius = vg.Points(2.5)
		neighbors.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(neighbors)
		p.Legend.Add("neighbors", neighbors)

		box, err := s.ProjectedRadiusSearchBox(query, results[results.Len()-1].SquaredDistance)
		if err != nil {
			return err
		}
		outline, err := plotter.NewLine(plotter.XYs{
			{X: float64(box.MinX) - 0.5, Y: float64(box.MinY) - 0.5},
			{X: float64(box.MaxX) + 0.5, Y: float64(box.MinY) - 0.5},
			{X: float64(box.MaxX) + 0.5, Y: float64(box.MaxY) + 0.5},
			{X: float64(box.MinX) - 0.5, Y: float64(box.MaxY) + 0.5},
			{X: float64(box.MinX) - 0.5, Y: float64(box.MinY) - 0.5},
		})
		if err != nil {
			return err
		}
		outline.Color = boxColor
		outline.Width = vg.Points(1)
		p.Add(outline)
		p.Legend.Add("search box", outline)
	}

	if pixel, ok := s.ProjectPoint(query); ok {
		q, err := plotter.NewScatter(plotter.XYs{{X: pixel.X, Y: pixel.Y}})
		if err != nil {
			return err
		}
		q.GlyphStyle.Color = queryColor
		q.GlyphStyle.Radius = vg.Points(4)
		q.GlyphStyle.Shape = draw.CrossGlyph{}
		p.Add(q)
		p.Legend.Add("query", q)
	}

	p.Legend.Top = true
	return p.Save(8*vg.Inch, 6*vg.Inch, out)
}
