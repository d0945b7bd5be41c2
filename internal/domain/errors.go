package domain

import (
	"errors"
	"fmt"
)

// ErrBadRequest marks failures caused by invalid caller input. Handlers map
// it to a 400 response; everything else surfaces as an internal error.
var ErrBadRequest = errors.New("bad request")

// BadRequestf wraps a formatted message with ErrBadRequest so callers can
// test with errors.Is.
func BadRequestf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrBadRequest}, args...)...)
}
