package export

import (
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ChartPNG renders one metric series against time.
func ChartPNG(w io.Writer, title string, times, values []float64) error {
	if len(times) < 2 || len(values) != len(times) {
		return fmt.Errorf("export: need at least 2 aligned samples, got %d times and %d values", len(times), len(values))
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.1, 1)
	}

	graph := chart.Chart{
		Title:  title,
		Width:  800,
		Height: 400,
		XAxis: chart.XAxis{
			Name:  "time",
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.2f", v.(float64))
			},
		},
		YAxis: chart.YAxis{
			Name:  title,
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: lo - pad, Max: hi + pad},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    title,
				XValues: times,
				YValues: values,
				Style:   chart.Style{StrokeColor: drawing.Color{R: 0, G: 200, B: 120, A: 255}, StrokeWidth: 2.0},
			},
		},
	}

	return graph.Render(chart.PNG, w)
}
