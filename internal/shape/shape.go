// Package shape holds the error shared by every component that validates
// tensor and batch dimensions at its entry point.
package shape

import (
	"fmt"
	"slices"
)

// MismatchError reports that an argument does not have the shape the
// callee was configured for.
type MismatchError struct {
	What string // argument name, e.g. "actions" or "mask row 3"
	Want []int
	Got  []int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("shape mismatch for %s: want %v, got %v", e.What, e.Want, e.Got)
}

// Check returns a *MismatchError when got differs from want, nil otherwise.
func Check(what string, want, got []int) error {
	if slices.Equal(want, got) {
		return nil
	}
	return &MismatchError{What: what, Want: want, Got: got}
}
