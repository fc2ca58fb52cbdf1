package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/fluidsim/internal/export"
	"github.com/san-kum/fluidsim/internal/fluid"
)

// asciiRamp runs from empty to dense.
const asciiRamp = " .:-=+*#%@"

// shadeLevels is how many colours the terminal shader distinguishes.
const shadeLevels = 32

// ViewMode selects how the grid is drawn in the terminal.
type ViewMode int

const (
	ViewColor ViewMode = iota
	ViewASCII
	ViewVelocity
)

func (v ViewMode) String() string {
	switch v {
	case ViewColor:
		return "color"
	case ViewASCII:
		return "ascii"
	case ViewVelocity:
		return "velocity"
	}
	return "unknown"
}

func (v ViewMode) next() ViewMode { return (v + 1) % 3 }

// fieldRows is the number of terminal rows used for an n×n grid: two
// interior rows per character.
func fieldRows(n int) int { return (n - 1) / 2 }

func level(x, ceiling float64, levels int) int {
	if ceiling <= 0 || x <= 0 {
		return 0
	}
	l := int(x / ceiling * float64(levels))
	if l >= levels {
		l = levels - 1
	}
	return l
}

// RenderASCII draws the interior of f one character per cell horizontally
// and two cells per character vertically, using the denser of the pair.
func RenderASCII(f fluid.Field, n int, ceiling float64) string {
	var b strings.Builder
	b.Grow((n - 1) * fieldRows(n))
	for j := 1; j < n-1; j += 2 {
		for i := 1; i < n-1; i++ {
			x := f[i+j*n]
			if j+1 < n-1 {
				x = max(x, f[i+(j+1)*n])
			}
			b.WriteByte(asciiRamp[level(x, ceiling, len(asciiRamp))])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Shader draws density with coloured upper-half blocks, one grid cell per
// half character. Rendered cells are cached per colour pair.
type Shader struct {
	palette *export.Palette
	colors  [shadeLevels]lipgloss.Color
	cache   map[[2]uint8]string
}

func NewShader(p *export.Palette) *Shader {
	s := &Shader{palette: p, cache: make(map[[2]uint8]string)}
	for k := range s.colors {
		t := (float64(k) + 0.5) / shadeLevels
		s.colors[k] = lipgloss.Color(colorHex(p.At(t)))
	}
	return s
}

func (s *Shader) Palette() *export.Palette { return s.palette }

func (s *Shader) cell(top, bottom int) string {
	key := [2]uint8{uint8(top), uint8(bottom)}
	if out, ok := s.cache[key]; ok {
		return out
	}
	out := lipgloss.NewStyle().
		Foreground(s.colors[top]).
		Background(s.colors[bottom]).
		Render("▀")
	s.cache[key] = out
	return out
}

func (s *Shader) Render(f fluid.Field, n int, ceiling float64) string {
	var b strings.Builder
	for j := 1; j < n-1; j += 2 {
		for i := 1; i < n-1; i++ {
			top := level(f[i+j*n], ceiling, shadeLevels)
			bottom := 0
			if j+1 < n-1 {
				bottom = level(f[i+(j+1)*n], ceiling, shadeLevels)
			}
			b.WriteString(s.cell(top, bottom))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderVelocity draws velocity streaks on a braille canvas sized to the
// density views.
func RenderVelocity(u, v fluid.Field, n int) string {
	c := NewCanvas(n-2, fieldRows(n))
	stride := max(1, (n-2)/16)
	c.DrawVelocity(u, v, n, stride, 0)
	return c.String()
}
