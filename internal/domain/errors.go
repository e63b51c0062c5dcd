package domain

import "errors"

// ErrInvalidInput is returned when a computation is handed an input it
// cannot work with at all, such as a non-positive cost of goods. It is
// the only error the pricing core surfaces; degraded inputs are absorbed
// into absent fields and warning flags instead.
var ErrInvalidInput = errors.New("invalid input")
