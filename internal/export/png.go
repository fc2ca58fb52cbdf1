package export

import (
	"fmt"
	"io"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/san-kum/fluidsim/internal/fluid"
)

// ImageOptions controls raster output. Zero values pick defaults.
type ImageOptions struct {
	Scale    int     // pixels per cell, default 8
	Max      float64 // normalization ceiling, default the field maximum
	Velocity bool    // overlay velocity arrows
	Label    string  // caption drawn in the top-left corner
}

func (o ImageOptions) scale() int {
	if o.Scale <= 0 {
		return 8
	}
	return o.Scale
}

// Frame is one renderable state: density plus optional velocity.
type Frame struct {
	N       int
	Density fluid.Field
	U, V    fluid.Field
}

// Draw renders a frame into a new gg context.
func (p *Palette) Draw(f Frame, opts ImageOptions) *gg.Context {
	scale := opts.scale()
	n := f.N
	inner := n - 2
	ceiling := Scale(f.Density, opts.Max)

	dc := gg.NewContext(inner*scale, inner*scale)
	dc.DrawImage(p.Paletted(f.Density, n, scale, ceiling), 0, 0)

	if opts.Velocity && f.U != nil && f.V != nil {
		drawArrows(dc, f, scale)
	}
	if opts.Label != "" {
		dc.SetFontFace(basicfont.Face7x13)
		dc.SetRGB(1, 1, 1)
		dc.DrawString(opts.Label, 4, 14)
	}
	return dc
}

// drawArrows strokes one segment per sampled cell along (u, v), scaled so the
// fastest cell spans one sampling stride.
func drawArrows(dc *gg.Context, f Frame, scale int) {
	n := f.N
	stride := int(math.Max(1, float64(n-2)/24))

	maxSpeed := 0.0
	for q := range f.U {
		maxSpeed = math.Max(maxSpeed, math.Hypot(f.U[q], f.V[q]))
	}
	if maxSpeed == 0 {
		return
	}

	length := float64(stride*scale) / maxSpeed
	dc.SetRGBA(1, 1, 1, 0.8)
	dc.SetLineWidth(1)
	for j := 1; j < n-1; j += stride {
		for i := 1; i < n-1; i += stride {
			q := i + j*n
			cx := (float64(i-1) + 0.5) * float64(scale)
			cy := (float64(j-1) + 0.5) * float64(scale)
			dc.DrawLine(cx, cy, cx+f.U[q]*length, cy+f.V[q]*length)
		}
	}
	dc.Stroke()
}

// WritePNG encodes a frame as PNG.
func (p *Palette) WritePNG(w io.Writer, f Frame, opts ImageOptions) error {
	if f.N < 3 || len(f.Density) != f.N*f.N {
		return fmt.Errorf("export: field of %d cells is not %d×%d", len(f.Density), f.N, f.N)
	}
	return p.Draw(f, opts).EncodePNG(w)
}
