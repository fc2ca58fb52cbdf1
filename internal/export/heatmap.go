package export

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/fluidsim/internal/fluid"
)

// fieldGrid exposes the interior of an n×n field as a plotter.GridXYZ with
// columns along i and rows along j.
type fieldGrid struct {
	f fluid.Field
	n int
}

func (g fieldGrid) Dims() (c, r int)   { return g.n - 2, g.n - 2 }
func (g fieldGrid) Z(c, r int) float64 { return g.f[(c+1)+(r+1)*g.n] }
func (g fieldGrid) X(c int) float64    { return float64(c + 1) }
func (g fieldGrid) Y(r int) float64    { return float64(r + 1) }

// HeatmapPlot saves an axis-labelled heatmap of the field. The image format
// follows the file extension (png, svg, pdf).
func HeatmapPlot(path, title string, f fluid.Field, n int) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "i"
	p.Y.Label.Text = "j"

	h := plotter.NewHeatMap(fieldGrid{f: f, n: n}, palette.Heat(64, 1))
	if h.Max <= h.Min {
		h.Max = h.Min + 1
	}
	p.Add(h)

	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}
