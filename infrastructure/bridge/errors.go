package bridge

import (
	"errors"
	"fmt"

	"seedflow/models"
)

// TransportError reports that the bridge could not be reached or answered with
// a non-2xx status. It is distinct from a business rejection, which arrives as
// a well-formed CommandResult.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("bridge %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("bridge %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err came from the network or HTTP layer.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func malformed(op string, cause error) error {
	if cause == nil {
		return fmt.Errorf("bridge %s: %w", op, models.ErrInvalidDataFormat)
	}
	return fmt.Errorf("bridge %s: %w: %v", op, models.ErrInvalidDataFormat, cause)
}
