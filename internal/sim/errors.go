package sim

import (
	"errors"
	"fmt"

	"github.com/san-kum/fluidsim/internal/fluid"
)

var (
	ErrNotSetup      = errors.New("sim: experiment not set up")
	ErrInvalidConfig = errors.New("sim: invalid run config")
)

// SimError records the step at which a run was aborted.
type SimError struct {
	Step    int
	Time    float64
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("sim: step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e SimError) Unwrap() error {
	return fluid.ErrUnstable
}
