package fluid

import "fmt"

// DefaultSize is the grid side length, ring included, used when no
// WithSize option is given.
const DefaultSize = 64

// Params are the scalar settings a Solver was built with.
type Params struct {
	Size         int
	Diffusion    float64
	Viscosity    float64
	Dt           float64
	Iterations   int
	Workers      int
	ClampDensity bool
}

// Option customizes a Solver at construction.
type Option func(*Params)

// WithSize sets the grid side length N, ring included.
func WithSize(n int) Option {
	return func(p *Params) { p.Size = n }
}

// WithIterations sets the number of relaxation sweeps per solve.
func WithIterations(k int) Option {
	return func(p *Params) { p.Iterations = k }
}

// WithDensityClamp controls whether negative density is clamped to zero after
// each step.
func WithDensityClamp(on bool) Option {
	return func(p *Params) { p.ClampDensity = on }
}

// WithWorkers sets how many goroutines the row-parallel stages may use.
func WithWorkers(w int) Option {
	return func(p *Params) { p.Workers = w }
}

// Solver integrates velocity and density one time step at a time.
type Solver struct {
	params Params
	grid   *Grid
}

// New builds a solver with all fields zeroed.
func New(diffusion, viscosity, dt float64, opts ...Option) (*Solver, error) {
	p := Params{
		Size:         DefaultSize,
		Diffusion:    diffusion,
		Viscosity:    viscosity,
		Dt:           dt,
		Iterations:   RelaxationIterations,
		Workers:      1,
		ClampDensity: true,
	}
	for _, opt := range opts {
		opt(&p)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &Solver{params: p, grid: NewGrid(p.Size)}, nil
}

func (p Params) validate() error {
	switch {
	case p.Size < 3:
		return fmt.Errorf("%w: size %d < 3", ErrParameterBounds, p.Size)
	case p.Diffusion < 0:
		return fmt.Errorf("%w: diffusion %g < 0", ErrParameterBounds, p.Diffusion)
	case p.Viscosity < 0:
		return fmt.Errorf("%w: viscosity %g < 0", ErrParameterBounds, p.Viscosity)
	case !(p.Dt > 0):
		return fmt.Errorf("%w: dt %g must be positive", ErrParameterBounds, p.Dt)
	case p.Iterations < 1:
		return fmt.Errorf("%w: iterations %d < 1", ErrParameterBounds, p.Iterations)
	case p.Workers < 1:
		return fmt.Errorf("%w: workers %d < 1", ErrParameterBounds, p.Workers)
	}
	return nil
}

func (s *Solver) Params() Params { return s.params }

// Rebuild returns a new solver with the given coefficients that starts from
// a copy of s's fields. Size, iterations, workers and clamping carry over and
// s itself is left unchanged.
func (s *Solver) Rebuild(diffusion, viscosity, dt float64) (*Solver, error) {
	p := s.params
	next, err := New(diffusion, viscosity, dt,
		WithSize(p.Size),
		WithIterations(p.Iterations),
		WithWorkers(p.Workers),
		WithDensityClamp(p.ClampDensity),
	)
	if err != nil {
		return nil, err
	}
	src, dst := s.grid, next.grid
	for _, pair := range [][2]*Pair{
		{&src.Density, &dst.Density},
		{&src.VelocityX, &dst.VelocityX},
		{&src.VelocityY, &dst.VelocityY},
	} {
		copy(pair[1].Cur, pair[0].Cur)
		copy(pair[1].Prev, pair[0].Prev)
	}
	return next, nil
}

func (s *Solver) Size() int   { return s.grid.N }
func (s *Solver) Grid() *Grid { return s.grid }

// Index maps (i, j) to a position in the slices returned by Density and Velocity.
func (s *Solver) Index(i, j int) int { return s.grid.Index(i, j) }

// AddDensity accumulates amount into the density at (i, j).
func (s *Solver) AddDensity(i, j int, amount float64) error {
	return s.grid.Add(s.grid.Density.Cur, i, j, amount)
}

// AddVelocity accumulates (amountX, amountY) into the velocity at (i, j).
func (s *Solver) AddVelocity(i, j int, amountX, amountY float64) error {
	if err := s.grid.Add(s.grid.VelocityX.Cur, i, j, amountX); err != nil {
		return err
	}
	s.grid.VelocityY.Cur[s.grid.Index(i, j)] += amountY
	return nil
}

// Density returns the live density buffer. Callers must treat it as read-only;
// it is overwritten by the next Step.
func (s *Solver) Density() Field { return s.grid.Density.Cur }

// Velocity returns the live velocity buffers, read-only like Density.
func (s *Solver) Velocity() (Field, Field) {
	return s.grid.VelocityX.Cur, s.grid.VelocityY.Cur
}

// Snapshot returns a copy of the current density.
func (s *Solver) Snapshot() Field { return s.grid.Density.Cur.Clone() }

// DensityAt returns the density at (i, j).
func (s *Solver) DensityAt(i, j int) (float64, error) {
	if !s.grid.Contains(i, j) {
		return 0, &RangeError{I: i, J: j, N: s.grid.N}
	}
	return s.grid.Density.Cur[s.grid.Index(i, j)], nil
}

// VelocityAt returns the velocity at (i, j).
func (s *Solver) VelocityAt(i, j int) (float64, float64, error) {
	if !s.grid.Contains(i, j) {
		return 0, 0, &RangeError{I: i, J: j, N: s.grid.N}
	}
	q := s.grid.Index(i, j)
	return s.grid.VelocityX.Cur[q], s.grid.VelocityY.Cur[q], nil
}

// Reset zeroes every field.
func (s *Solver) Reset() { s.grid.Reset() }

// Step advances the simulation by one dt:
//
//	diffuse velocity -> project -> self-advect velocity -> project
//	-> diffuse density -> advect density
func (s *Solver) Step() {
	g, p := s.grid, s.params
	n, it, w := g.N, p.Iterations, p.Workers
	vx, vy, d := &g.VelocityX, &g.VelocityY, &g.Density

	diffuse(VelocityX, vx.Prev, vx.Cur, p.Viscosity, p.Dt, it, n)
	diffuse(VelocityY, vy.Prev, vy.Cur, p.Viscosity, p.Dt, it, n)

	project(vx.Prev, vy.Prev, g.Pressure, g.Divergence, it, w, n)

	advect(VelocityX, vx.Cur, vx.Prev, vx.Prev, vy.Prev, p.Dt, w, n)
	advect(VelocityY, vy.Cur, vy.Prev, vx.Prev, vy.Prev, p.Dt, w, n)

	project(vx.Cur, vy.Cur, g.Pressure, g.Divergence, it, w, n)

	diffuse(Scalar, d.Prev, d.Cur, p.Diffusion, p.Dt, it, n)
	advect(Scalar, d.Cur, d.Prev, vx.Cur, vy.Cur, p.Dt, w, n)

	if p.ClampDensity {
		clampNegative(d.Cur)
	}
}

func clampNegative(x Field) {
	for q, val := range x {
		if val < 0 {
			x[q] = 0
		}
	}
}
