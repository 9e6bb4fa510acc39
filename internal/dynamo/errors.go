package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidGrid indicates bad grid dimensions, extents, boundary or stencil.
	ErrInvalidGrid = errors.New("dynamo: invalid grid")

	// ErrInvalidParameter indicates a physical or numerical parameter out of range.
	ErrInvalidParameter = errors.New("dynamo: parameter out of valid bounds")

	// ErrInvalidSource indicates an unknown source kind or bad source options.
	ErrInvalidSource = errors.New("dynamo: invalid source")

	// ErrInvalidInitialCondition indicates a missing, ambiguous or malformed initial field.
	ErrInvalidInitialCondition = errors.New("dynamo: invalid initial condition")

	// ErrDiverged indicates the field became non-finite or exceeded the ceiling.
	ErrDiverged = errors.New("dynamo: simulation diverged")
)

func paramErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

// DivergenceError reports the first offending cell of a blown-up step.
// Step is -1 when the caller has not attached a step index yet.
type DivergenceError struct {
	Step  int
	I, J  int
	X, Y  float64
	Value float64
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("dynamo: simulation diverged at step %d, cell (%d,%d) x=%.4g y=%.4g: psi=%g",
		e.Step, e.I, e.J, e.X, e.Y, e.Value)
}

func (e *DivergenceError) Unwrap() error {
	return ErrDiverged
}

// AsDivergence extracts a *DivergenceError from err's chain.
func AsDivergence(err error) (*DivergenceError, bool) {
	var de *DivergenceError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
