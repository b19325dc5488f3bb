package backend

import (
	"errors"
	"fmt"
)

// ServerError is a failure the server reported itself, either with a non-2xx status
// or with success=false in the body. Message is shown to the user verbatim.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return e.Message
}

var ErrUnsupportedDownload = errors.New("unsupported download")

// IsServerError reports whether err carries a server-reported failure.
func IsServerError(err error) (*ServerError, bool) {
	var se *ServerError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
