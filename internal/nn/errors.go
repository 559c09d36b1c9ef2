package nn

import (
	"fmt"

	"popit/internal/shape"
)

// ShapeMismatchError is returned when the input tensor or mask does not
// match the network's configured layout.
type ShapeMismatchError = shape.MismatchError

// InvalidMaskError is returned when a mask row marks every action illegal.
type InvalidMaskError struct {
	Instance int
}

func (e *InvalidMaskError) Error() string {
	return fmt.Sprintf("mask for instance %d marks all %d actions illegal", e.Instance, Actions)
}
