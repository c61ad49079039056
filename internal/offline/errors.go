package offline

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when a protected operation is attempted
// without a stored session token. No network I/O happens in that case.
var ErrUnauthenticated = errors.New("no session token, not signed in")

// errEmptyBody marks a 200 response whose body carried no bytes.
var errEmptyBody = errors.New("empty response body")

// DownloadError reports a failed EPUB download: a non-200 status, a
// transport fault, or an empty body. Status is 0 for transport faults.
type DownloadError struct {
	BookID string
	Status int
	Err    error
}

func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("download %s failed: %v", e.BookID, e.Err)
	}
	return fmt.Sprintf("download %s failed: status %d", e.BookID, e.Status)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}
