package provider

import (
	"errors"
	"fmt"
)

// ErrMissingArtifact is returned when the provider reports a completed run
// but the result payload has no usable video reference.
var ErrMissingArtifact = errors.New("provider result has no artifact reference")

// RequestError is a non-2xx answer from the provider. Body keeps the raw
// response so the error classifier can inspect it.
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}
