package strategy

import (
	"errors"

	"SwingScanner/internal/calculator"
)

var (
	// ErrInsufficientData means the series is shorter than the component's lookback.
	// Classifiers never return it; they return a nil setup instead.
	ErrInsufficientData = calculator.ErrInsufficientData
	// ErrDegenerate wraps numeric failures such as zero variance or singular fits.
	ErrDegenerate = calculator.ErrDegenerate
)

// IsDegenerate reports whether err is a numeric degeneracy rather than a bug.
func IsDegenerate(err error) bool {
	return errors.Is(err, ErrDegenerate)
}
