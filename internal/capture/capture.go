// Package capture defines the live speech-to-text capability the session
// controller drives, and a PipeWire-backed implementation of it.
package capture

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by Available when the platform cannot capture
// speech at all.
var ErrUnavailable = errors.New("speech capture unavailable")

type Config struct {
	Continuous     bool
	InterimResults bool
	Language       string // BCP-47
}

type EventKind int

const (
	// EventSnapshot carries the full transcript of the session so far.
	EventSnapshot EventKind = iota
	EventError
	EventEnd
)

func (k EventKind) String() string {
	switch k {
	case EventSnapshot:
		return "snapshot"
	case EventError:
		return "error"
	case EventEnd:
		return "end"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind   EventKind
	Text   string // EventSnapshot
	Reason string // EventError, EventEnd
}

// Stream is one running capture. Events closes after the final event; no
// event is delivered after that.
type Stream interface {
	Events() <-chan Event
	Stop() error
}

type Capability interface {
	Available(ctx context.Context) error
	Start(ctx context.Context, config Config) (Stream, error)
}
