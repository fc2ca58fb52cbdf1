// Package tui prints a running simulation to a plain terminal with ANSI
// escapes, for when the full-screen viewer is unavailable.
package tui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/viz"
)

const (
	maxColumns   = 120
	clearScreen  = "\033[2J\033[H"
	hideCursor   = "\033[?25l"
	showCursor   = "\033[?25h"
	ceilingDecay = 0.98
)

// LiveRenderer is a sim.Observer that redraws the density as ASCII at most
// frameRate times per second. A frameRate of zero draws every step.
type LiveRenderer struct {
	out       io.Writer
	title     string
	frameRate int
	lastFrame time.Time
	ceiling   float64
	frames    int
}

func NewLiveRenderer(out io.Writer, title string, frameRate int) *LiveRenderer {
	return &LiveRenderer{out: out, title: title, frameRate: frameRate}
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }

// Frames counts the redraws so far.
func (r *LiveRenderer) Frames() int { return r.frames }

func (r *LiveRenderer) OnStep(s *fluid.Solver, step int, t float64) {
	if r.frameRate > 0 {
		if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
			return
		}
		r.lastFrame = time.Now()
	}

	n := s.Size()
	f := s.Density()
	if k := (n - 2 + maxColumns - 1) / maxColumns; k > 1 {
		f, n = coarsen(f, n, k)
	}

	// the ceiling falls slowly so a fading plume does not flicker to full
	// brightness
	peak := 0.0
	for _, val := range f {
		peak = math.Max(peak, val)
	}
	r.ceiling = math.Max(peak, r.ceiling*ceilingDecay)

	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(viz.RenderASCII(f, n, r.ceiling))
	fmt.Fprintf(&b, "%s  step %d  t=%.2f  mass=%.2f  peak=%.3g\n",
		r.title, step, t, fluid.InteriorSum(s.Density(), s.Size()), peak)
	io.WriteString(r.out, b.String())
	r.frames++
}

// coarsen averages k×k blocks of the interior into a smaller field with a
// zero boundary ring.
func coarsen(f fluid.Field, n, k int) (fluid.Field, int) {
	m := (n-2)/k + 2
	out := make(fluid.Field, m*m)
	area := float64(k * k)
	for bj := 1; bj < m-1; bj++ {
		for bi := 1; bi < m-1; bi++ {
			sum := 0.0
			for dj := 0; dj < k; dj++ {
				row := 1 + (bj-1)*k + dj
				for di := 0; di < k; di++ {
					sum += f[1+(bi-1)*k+di+row*n]
				}
			}
			out[bi+bj*m] = sum / area
		}
	}
	return out, m
}
