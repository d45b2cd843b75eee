// Package field provides magnetic field models evaluated by position.
// The propagation engine consumes fields only through the Field interface.
package field

import "errors"

// ErrConfig marks invalid field-model parameters.
var ErrConfig = errors.New("invalid field configuration")

// Vector3 is a 3D vector in simulation coordinates. X is the shock normal.
type Vector3 struct {
	X, Y, Z float64
}

// Field evaluates a magnetic field at a position.
type Field interface {
	At(pos Vector3) Vector3
}
