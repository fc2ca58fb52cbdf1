package export

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/mazznoer/colorgrad"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/fluidsim/internal/fluid"
)

const paletteLevels = 256

var gradients = map[string]func() colorgrad.Gradient{
	"viridis": colorgrad.Viridis,
	"inferno": colorgrad.Inferno,
	"magma":   colorgrad.Magma,
	"plasma":  colorgrad.Plasma,
	"turbo":   colorgrad.Turbo,
}

// Palette maps normalized density in [0, 1] to one of 256 colours.
type Palette struct {
	Name   string
	colors color.Palette
}

func NewPalette(name string) (*Palette, error) {
	mk, ok := gradients[name]
	if !ok {
		return nil, fmt.Errorf("unknown palette: %s", name)
	}
	grad := mk()
	pal := make(color.Palette, 0, paletteLevels)
	for _, c := range grad.Colors(paletteLevels) {
		pal = append(pal, c)
	}
	return &Palette{Name: name, colors: pal}, nil
}

func ListPalettes() []string {
	names := make([]string, 0, len(gradients))
	for name := range gradients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Palette) Colors() color.Palette { return p.colors }

// Index returns the palette slot for t, clamping t to [0, 1].
func (p *Palette) Index(t float64) uint8 {
	if !(t > 0) {
		return 0
	}
	if t >= 1 {
		return uint8(len(p.colors) - 1)
	}
	return uint8(t * float64(len(p.colors)-1))
}

func (p *Palette) At(t float64) color.Color {
	return p.colors[p.Index(t)]
}

// Scale returns the normalization ceiling for f: the given max when
// positive, otherwise the field's own maximum (or 1 for an empty field).
func Scale(f fluid.Field, max float64) float64 {
	if max > 0 {
		return max
	}
	if len(f) == 0 {
		return 1
	}
	if m := floats.Max(f); m > 0 {
		return m
	}
	return 1
}

// Paletted draws the interior of an n×n field, each cell as a scale×scale
// block, normalized by ceiling.
func (p *Palette) Paletted(f fluid.Field, n, scale int, ceiling float64) *image.Paletted {
	inner := n - 2
	img := image.NewPaletted(image.Rect(0, 0, inner*scale, inner*scale), p.colors)
	for j := 1; j < n-1; j++ {
		for i := 1; i < n-1; i++ {
			idx := p.Index(f[i+j*n] / ceiling)
			x0, y0 := (i-1)*scale, (j-1)*scale
			for y := y0; y < y0+scale; y++ {
				row := img.Pix[y*img.Stride:]
				for x := x0; x < x0+scale; x++ {
					row[x] = idx
				}
			}
		}
	}
	return img
}
