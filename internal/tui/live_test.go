package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/sim"
)

func TestCoarsen(t *testing.T) {
	n := 6
	f := make(fluid.Field, n*n)
	f[1+1*n], f[2+1*n], f[1+2*n], f[2+2*n] = 1, 2, 3, 4

	out, m := coarsen(f, n, 2)
	if m != 4 {
		t.Fatalf("coarse size = %d, want 4", m)
	}
	if out[1+1*m] != 2.5 {
		t.Errorf("block average = %v, want 2.5", out[1+1*m])
	}
	if out[2+2*m] != 0 || out[0] != 0 {
		t.Error("empty block or boundary not zero")
	}
}

func TestLiveRendererDrawsEveryStep(t *testing.T) {
	solver, err := fluid.New(0.0001, 0.0001, 0.1, fluid.WithSize(10))
	if err != nil {
		t.Fatal(err)
	}
	solver.AddDensity(5, 5, 10)

	var buf bytes.Buffer
	r := NewLiveRenderer(&buf, "drop", 0)
	s := sim.New(solver, nil)
	s.AddObserver(r)

	r.Start()
	for k := 0; k < 3; k++ {
		s.Advance()
	}
	r.Stop()

	if r.Frames() != 3 {
		t.Errorf("expected 3 frames, got %d", r.Frames())
	}
	out := buf.String()
	if strings.Count(out, clearScreen) != 3 || !strings.Contains(out, "drop  step 2") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.HasSuffix(out, showCursor) {
		t.Error("cursor not restored")
	}
}

func TestLiveRendererCoarsensWideGrids(t *testing.T) {
	solver, err := fluid.New(0.0001, 0.0001, 0.1, fluid.WithSize(maxColumns+12))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	r := NewLiveRenderer(&buf, "wide", 0)
	r.OnStep(solver, 0, 0)

	first := strings.SplitN(strings.TrimPrefix(buf.String(), clearScreen), "\n", 2)[0]
	if len(first) > maxColumns {
		t.Errorf("row is %d columns wide", len(first))
	}
}
