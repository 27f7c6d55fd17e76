package calendar

import "fmt"

// BackendError wraps any calendar API failure. The router surfaces it as
// "operation failed" without assuming partial state was committed; retry
// policy, if any, belongs to the caller of this client, never to the
// pipeline.
type BackendError struct {
	Op         string // list, create, patch, delete
	StatusCode int    // 0 when the request never completed
	Err        error
}

func (e *BackendError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("calendar %s failed (http %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("calendar %s failed: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
