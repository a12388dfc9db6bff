package openani

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// HTTPError is returned when upstream answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d %s from %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// NotFound reports a 404 from upstream.
func (e *HTTPError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// ErrNoSources is returned by Stream when an episode has no usable file.
var ErrNoSources = errors.New("no playable video source found")
