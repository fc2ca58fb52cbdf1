package viz

import (
	"math"
	"strings"

	"github.com/san-kum/fluidsim/internal/fluid"
)

const brailleBlank = 0x2800

// Dot bits of a braille cell, indexed [row][col]:
//
//	1 4
//	2 5
//	3 6
//	7 8
var brailleDots = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille dot matrix. Each character holds 2×4 dots, so a
// canvas of w×h characters has 2w×4h addressable dots.
type Canvas struct {
	Width, Height int
	cells         []rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, cells: make([]rune, w*h)}
	c.Clear()
	return c
}

// Set lights the dot at (x, y). Dots off the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.cells[row*c.Width+col] |= brailleDots[y%4][x%2]
}

// Lit reports whether the dot at (x, y) is set.
func (c *Canvas) Lit(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.cells[(y/4)*c.Width+x/2]&brailleDots[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for k := range c.cells {
		c.cells[k] = brailleBlank
	}
}

// DrawLine is Bresenham between two dots, endpoints included.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), -absInt(y1-y0)
	sx, sy := 1, 1
	if x1 < x0 {
		sx = -1
	}
	if y1 < y0 {
		sy = -1
	}
	e := dx + dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// DrawVelocity plots one streak per stride cells of the interior of an
// n×n grid. A cell covers 2×2 dots, so the canvas should be (n-2)
// characters wide and (n-1)/2 tall. Streak length is speed/ceiling times
// maxLen dots; a non-positive ceiling uses the largest speed on the grid.
func (c *Canvas) DrawVelocity(u, v fluid.Field, n, stride int, ceiling float64) {
	const maxLen = 6.0
	if stride < 1 {
		stride = 1
	}
	if ceiling <= 0 {
		for j := 1; j < n-1; j++ {
			for i := 1; i < n-1; i++ {
				q := i + j*n
				ceiling = math.Max(ceiling, math.Hypot(u[q], v[q]))
			}
		}
	}
	if ceiling == 0 {
		return
	}
	for j := 1; j < n-1; j += stride {
		for i := 1; i < n-1; i += stride {
			q := i + j*n
			x0, y0 := 2*(i-1), 2*(j-1)
			x1 := x0 + int(math.Round(u[q]/ceiling*maxLen))
			y1 := y0 + int(math.Round(v[q]/ceiling*maxLen))
			c.DrawLine(x0, y0, x1, y1)
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow(len(c.cells)*3 + c.Height)
	for row := 0; row < c.Height; row++ {
		b.WriteString(string(c.cells[row*c.Width : (row+1)*c.Width]))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
