package graph

import "errors"

// ErrInvalidInput is returned when a graph is constructed with a node count that is not a
// power of two, or when a caller-supplied parent buffer has the wrong length.
var ErrInvalidInput = errors.New("graph: invalid input")
