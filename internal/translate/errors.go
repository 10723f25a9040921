package translate

import (
	"errors"
	"fmt"
)

// ErrStaleResponse marks a reply that arrived after a newer request was
// issued. It never reaches hooks.
var ErrStaleResponse = errors.New("stale translation response discarded")

// FailedError is a translation request that ended without a result.
type FailedError struct {
	RequestID uint64
	Cause     error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("translation request %d failed: %v", e.RequestID, e.Cause)
}

func (e *FailedError) Unwrap() error { return e.Cause }

func IsFailed(err error) bool {
	var fe *FailedError
	return errors.As(err, &fe)
}
