package device

import (
	"errors"
	"fmt"
)

const maxErrorBody = 4 << 10

// TransportError reports a failed request: either the request never completed
// (Err is set) or the device answered with a non-2xx status (Status and Body).
// Its message is the device's response text when there is one, so it can be
// shown to the user verbatim.
type TransportError struct {
	Method string
	Path   string
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Body != "":
		return e.Body
	case e.Err != nil:
		return e.Err.Error()
	default:
		return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err came from the device transport.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Status
	}
	return 0
}
