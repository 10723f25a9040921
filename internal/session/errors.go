package session

import (
	"errors"

	"github.com/leonardotrapani/healthtranslate/internal/capture"
)

var (
	// ErrCaptureUnavailable is capture.ErrUnavailable, so either matches
	// with errors.Is.
	ErrCaptureUnavailable = capture.ErrUnavailable
	ErrAlreadyRecording   = errors.New("already recording")
)

// CaptureError is a fault the capture capability reported mid-session.
type CaptureError struct {
	Reason string
}

func (e *CaptureError) Error() string {
	if e == nil || e.Reason == "" {
		return "capture error"
	}
	return "capture error: " + e.Reason
}

func IsCaptureError(err error) bool {
	var ce *CaptureError
	return errors.As(err, &ce)
}
