// Package session owns the lifecycle of one recording session: starting the
// capture capability, folding its snapshots into the displayed input and
// settling the Active to Inactive transition.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/leonardotrapani/healthtranslate/internal/capture"
	"github.com/leonardotrapani/healthtranslate/internal/logging"
)

type State int

const (
	Inactive State = iota
	Active
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

type Reason int

const (
	// ReasonStopped means Stop was called.
	ReasonStopped Reason = iota
	// ReasonEnded means the capability ended on its own, e.g. after silence.
	ReasonEnded
	ReasonError
)

func (r Reason) String() string {
	switch r {
	case ReasonStopped:
		return "stopped"
	case ReasonEnded:
		return "ended"
	case ReasonError:
		return "error"
	default:
		return "unknown"
	}
}

// Termination describes how a session became Inactive. Input is the
// displayed input at that moment.
type Termination struct {
	Reason Reason
	Err    error
	Input  string
}

type Hooks struct {
	// OnInput receives the recomputed display after every non-empty snapshot.
	OnInput func(display string)
	// OnInactive runs once per Active to Inactive transition, before State
	// reports Inactive. It must not call Stop.
	OnInactive func(Termination)
}

type Controller struct {
	capability capture.Capability
	hooks      Hooks
	acc        Accumulator

	mu       sync.Mutex
	state    State
	stream   capture.Stream
	stopping bool
	done     chan struct{}
}

// NewController accepts a nil capability; Start then always reports
// ErrCaptureUnavailable.
func NewController(capability capture.Capability, hooks Hooks) *Controller {
	return &Controller{capability: capability, hooks: hooks}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Display returns the input as composed by the current or last session.
func (c *Controller) Display() string {
	return c.acc.Display()
}

// Start begins a session with currentText as the base of the displayed input.
// ctx bounds the whole capture, not just the call.
func (c *Controller) Start(ctx context.Context, languageTag, currentText string) error {
	if c.capability == nil {
		return ErrCaptureUnavailable
	}
	if c.State() == Active {
		return ErrAlreadyRecording
	}
	if err := c.capability.Available(ctx); err != nil {
		if errors.Is(err, ErrCaptureUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Checked again: Available ran without the lock.
	if c.state == Active {
		return ErrAlreadyRecording
	}

	c.acc.Begin(currentText)
	stream, err := c.capability.Start(ctx, capture.Config{
		Continuous:     true,
		InterimResults: true,
		Language:       languageTag,
	})
	if err != nil {
		c.acc.End()
		return &CaptureError{Reason: err.Error()}
	}

	done := make(chan struct{})
	c.state = Active
	c.stream = stream
	c.stopping = false
	c.done = done

	go c.consume(stream, done)

	logging.Sugar.Infof("Session: recording started (language=%s)", languageTag)
	return nil
}

// Stop ends the active session and waits until it has settled. It is a no-op
// when Inactive and safe to call repeatedly.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state == Inactive {
		c.mu.Unlock()
		return nil
	}
	c.stopping = true
	stream := c.stream
	done := c.done
	c.mu.Unlock()

	if err := stream.Stop(); err != nil {
		logging.Sugar.Warnf("Session: capture stop: %v", err)
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) consume(stream capture.Stream, done chan struct{}) {
	var captureErr *CaptureError
	ended := false

	for ev := range stream.Events() {
		switch ev.Kind {
		case capture.EventSnapshot:
			if display, changed := c.acc.Update(ev.Text); changed && c.hooks.OnInput != nil {
				c.hooks.OnInput(display)
			}
		case capture.EventError:
			if captureErr == nil {
				captureErr = &CaptureError{Reason: ev.Reason}
				logging.Sugar.Warnf("Session: %v", captureErr)
				if err := stream.Stop(); err != nil {
					logging.Sugar.Warnf("Session: capture stop: %v", err)
				}
			}
		case capture.EventEnd:
			ended = true
		}
	}

	c.mu.Lock()
	stopping := c.stopping
	c.mu.Unlock()

	term := Termination{Reason: ReasonEnded, Input: c.acc.End()}
	switch {
	case captureErr != nil:
		term.Reason = ReasonError
		term.Err = captureErr
	case stopping:
		term.Reason = ReasonStopped
	case !ended:
		logging.Sugar.Debugf("Session: capture closed without an end event")
	}

	logging.Sugar.Infof("Session: recording %s", term.Reason)
	if c.hooks.OnInactive != nil {
		c.hooks.OnInactive(term)
	}

	c.mu.Lock()
	c.state = Inactive
	c.stream = nil
	c.stopping = false
	c.mu.Unlock()
	close(done)
}
