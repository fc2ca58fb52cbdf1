package export

import (
	"fmt"
	"image/color"
	"math"
	"strings"
)

func hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// DensitySVG renders the interior of a frame as one rect per cell. With
// velocity set, arrows are drawn on top.
func (p *Palette) DensitySVG(f Frame, opts ImageOptions) string {
	scale := opts.scale()
	n := f.N
	size := (n - 2) * scale
	ceiling := Scale(f.Density, opts.Max)

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">
<rect width="100%%" height="100%%" fill="%s"/>
`, size, size, size, size, hex(p.At(0))))

	for j := 1; j < n-1; j++ {
		for i := 1; i < n-1; i++ {
			idx := p.Index(f.Density[i+j*n] / ceiling)
			if idx == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>
`, (i-1)*scale, (j-1)*scale, scale, scale, hex(p.colors[idx])))
		}
	}

	if opts.Velocity && f.U != nil && f.V != nil {
		sb.WriteString(velocityPaths(f, scale))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// VelocitySVG draws only the velocity field as arrows on a dark background.
func VelocitySVG(f Frame, scale int) string {
	if scale <= 0 {
		scale = 8
	}
	size := (f.N - 2) * scale

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, size, size, size, size))
	sb.WriteString(velocityPaths(f, scale))
	sb.WriteString("</svg>")
	return sb.String()
}

func velocityPaths(f Frame, scale int) string {
	n := f.N
	maxSpeed := 0.0
	for q := range f.U {
		maxSpeed = math.Max(maxSpeed, math.Hypot(f.U[q], f.V[q]))
	}
	if maxSpeed == 0 {
		return ""
	}

	length := float64(scale) / maxSpeed
	var sb strings.Builder
	sb.WriteString(`<g stroke="#00ff00" stroke-width="1">` + "\n")
	for j := 1; j < n-1; j++ {
		for i := 1; i < n-1; i++ {
			q := i + j*n
			if f.U[q] == 0 && f.V[q] == 0 {
				continue
			}
			cx := (float64(i-1) + 0.5) * float64(scale)
			cy := (float64(j-1) + 0.5) * float64(scale)
			sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, cx, cy, cx+f.U[q]*length, cy+f.V[q]*length))
		}
	}
	sb.WriteString("</g>\n")
	return sb.String()
}

// SeriesSVG draws one metric over time as a polyline.
func SeriesSVG(times, values []float64, width, height int, strokeColor string) string {
	if len(times) < 2 || len(values) != len(times) {
		return ""
	}

	minX, maxX := times[0], times[len(times)-1]
	minY, maxY := values[0], values[0]
	for _, v := range values {
		minY = math.Min(minY, v)
		maxY = math.Max(maxY, v)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, t := range times {
		x := (t - minX) / rangeX * float64(width)
		y := float64(height) - (values[i]-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
