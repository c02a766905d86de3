package harmonize

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport wraps network failures talking to the service.
	ErrTransport = errors.New("harmonization service unreachable")

	// ErrDecode wraps replies whose body does not have the expected shape.
	ErrDecode = errors.New("unexpected reply from harmonization service")
)

// StatusError is returned for non-2xx replies.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: service returned status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: service returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// ServiceError is returned when the service answers 2xx with an {"error": ...}
// body instead of a result. It counts as a non-success reply.
type ServiceError struct {
	Endpoint string
	Message  string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
}
