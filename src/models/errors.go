package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalid marks a payload or input that failed validation.
var ErrInvalid = errors.New("invalid")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func finitePtr(f *float64) bool {
	return f == nil || finite(*f)
}

// ValidateAll runs Validate on every element and stops at the first failure.
func ValidateAll[T any, PT interface {
	*T
	Validate() error
}](items []T) error {
	for i := range items {
		if err := PT(&items[i]).Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}
