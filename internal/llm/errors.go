package llm

import (
	"errors"
	"fmt"
)

// ErrAuthenticationMissing is returned by every request made while the API key
// environment variable is unset.
var ErrAuthenticationMissing = errors.New("completion API key missing")

// EndpointError wraps a network, transport, auth or rate-limit failure talking
// to the completion endpoint.
type EndpointError struct {
	StatusCode int // HTTP status when the endpoint answered, 0 otherwise
	Err        error
}

func (e *EndpointError) Error() string {
	if e == nil || e.Err == nil {
		return "completion endpoint error"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion endpoint error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("completion endpoint error: %v", e.Err)
}

func (e *EndpointError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// MalformedReplyError means the transport succeeded but the reply could not be
// parsed as the expected record after wrapper artifacts were stripped.
type MalformedReplyError struct {
	Snippet string
	Err     error
}

func (e *MalformedReplyError) Error() string {
	if e == nil {
		return "malformed completion reply"
	}
	return fmt.Sprintf("malformed completion reply: %q", e.Snippet)
}

func (e *MalformedReplyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func IsEndpointError(err error) bool {
	var endpoint *EndpointError
	return errors.As(err, &endpoint)
}

func IsMalformedReply(err error) bool {
	var malformed *MalformedReplyError
	return errors.As(err, &malformed)
}
