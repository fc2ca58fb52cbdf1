package fluid

import (
	"strconv"
	"strings"
)

// Field is one scalar quantity stored row-major: cell (i, j) lives at i + j*N.
type Field []float64

// Pair holds the authoritative value of a quantity and its working copy.
// Stages read one and write the other; the roles are passed explicitly.
type Pair struct {
	Cur  Field
	Prev Field
}

func newPair(cells int) Pair {
	return Pair{Cur: make(Field, cells), Prev: make(Field, cells)}
}

// Grid owns every per-cell buffer of a solver. Buffers are allocated once and
// never resized; the ring i or j in {0, N-1} is the wall.
type Grid struct {
	N int

	Density   Pair
	VelocityX Pair
	VelocityY Pair

	// Scratch for the projection stage.
	Pressure   Field
	Divergence Field
}

// NewGrid allocates a zeroed n×n grid.
func NewGrid(n int) *Grid {
	cells := n * n
	return &Grid{
		N:          n,
		Density:    newPair(cells),
		VelocityX:  newPair(cells),
		VelocityY:  newPair(cells),
		Pressure:   make(Field, cells),
		Divergence: make(Field, cells),
	}
}

// Index maps (i, j) to a flat position. It does not check bounds.
func (g *Grid) Index(i, j int) int {
	return i + j*g.N
}

// Contains reports whether (i, j) addresses a cell of the grid, ring included.
func (g *Grid) Contains(i, j int) bool {
	return i >= 0 && i < g.N && j >= 0 && j < g.N
}

// Add accumulates amount into field at (i, j).
func (g *Grid) Add(field Field, i, j int, amount float64) error {
	if !g.Contains(i, j) {
		return &RangeError{I: i, J: j, N: g.N}
	}
	field[g.Index(i, j)] += amount
	return nil
}

// Reset zeroes every buffer in place.
func (g *Grid) Reset() {
	for _, f := range []Field{
		g.Density.Cur, g.Density.Prev,
		g.VelocityX.Cur, g.VelocityX.Prev,
		g.VelocityY.Cur, g.VelocityY.Prev,
		g.Pressure, g.Divergence,
	} {
		clear(f)
	}
}

// Clone returns an independent copy of the field.
func (f Field) Clone() Field {
	c := make(Field, len(f))
	copy(c, f)
	return c
}

// Format renders the field one grid row per line as "<row> v, v, ..., ".
func (f Field) Format(n int) string {
	var b strings.Builder
	for j := 0; j*n < len(f); j++ {
		b.WriteString(strconv.Itoa(j))
		b.WriteByte(' ')
		for i := 0; i < n; i++ {
			b.WriteString(strconv.FormatFloat(f[i+j*n], 'g', -1, 64))
			b.WriteString(", ")
		}
		b.WriteByte('\n')
	}
	return b.String()
}
