package template

import "errors"

var (
	// ErrNoTemplate reports that no template could be formed from the input.
	// It is a negative result, not a failure.
	ErrNoTemplate = errors.New("no template")

	// ErrInvalidTemplate reports a template component that violates the
	// data model invariants.
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrInvalidParameter reports a caller-supplied parameter outside its
	// valid range (DPI, diameter, margins, coordinate space, ...).
	ErrInvalidParameter = errors.New("invalid parameter")
)

// IsNoTemplate reports whether err is (or wraps) ErrNoTemplate.
func IsNoTemplate(err error) bool {
	return errors.Is(err, ErrNoTemplate)
}
