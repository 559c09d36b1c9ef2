package game

import (
	"fmt"

	"popit/internal/shape"
)

// ShapeMismatchError is returned by Step when the state or the action
// vector does not match the batch size fixed at Reset.
type ShapeMismatchError = shape.MismatchError

// ActionRangeError is returned by Step when an action lies outside
// [0, Actions). Legality inside the range belongs to the transition.
type ActionRangeError struct {
	Instance int
	Action   int
}

func (e *ActionRangeError) Error() string {
	return fmt.Sprintf("action %d for instance %d out of range [0, %d)", e.Action, e.Instance, Actions)
}
