package domain

import (
	"errors"
	"fmt"
)

// Domain errors. Errors local to one item or one asset are contained and
// reported; only a malformed top-level capture file or loss of filesystem
// write access is fatal to a repository's export.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedCapture indicates a required top-level raw capture file
	// is missing or not the expected paginated-array shape. Aborts the
	// repository's export.
	ErrMalformedCapture = errors.New("malformed capture")

	// ErrInvalidTimestamp indicates an item carried an unparseable or
	// absent creation timestamp. Fails that item only.
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrRender indicates a structurally required field was missing at
	// render time. Fails that item only.
	ErrRender = errors.New("render failed")

	// ErrSessionUnavailable indicates no browser session context could be
	// established. Aborts the session-gated fetch path for the run; the
	// direct path is unaffected.
	ErrSessionUnavailable = errors.New("browser session unavailable")
)

// FetchError wraps a failed asset download with its transience. Transient
// failures are retried under the backoff policy; permanent ones are
// journalled immediately.
type FetchError struct {
	URL       string
	Status    int
	Transient bool
	Err       error
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsTransientFetch reports whether err is a fetch failure worth retrying.
func IsTransientFetch(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Transient
}
