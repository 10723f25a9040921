package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leonardotrapani/healthtranslate/internal/capture"
	"github.com/leonardotrapani/healthtranslate/internal/testutil"
)

type recorder struct {
	mu     sync.Mutex
	inputs []string
	terms  []Termination
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnInput: func(display string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.inputs = append(r.inputs, display)
		},
		OnInactive: func(term Termination) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.terms = append(r.terms, term)
		},
	}
}

func (r *recorder) terminations() []Termination {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Termination(nil), r.terms...)
}

func (r *recorder) lastInput() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.inputs) == 0 {
		return ""
	}
	return r.inputs[len(r.inputs)-1]
}

func TestControllerStartUnavailable(t *testing.T) {
	t.Run("no capability", func(t *testing.T) {
		c := NewController(nil, Hooks{})
		if err := c.Start(context.Background(), "en-US", ""); !errors.Is(err, ErrCaptureUnavailable) {
			t.Fatalf("err = %v, want ErrCaptureUnavailable", err)
		}
		if c.State() != Inactive {
			t.Error("state should stay Inactive")
		}
	})

	t.Run("capability reports unavailable", func(t *testing.T) {
		capability := testutil.NewMockCapability()
		capability.AvailableErr = errors.New("pw-record not found")
		c := NewController(capability, Hooks{})

		err := c.Start(context.Background(), "en-US", "")
		if !errors.Is(err, ErrCaptureUnavailable) || !errors.Is(err, capture.ErrUnavailable) {
			t.Fatalf("err = %v, want ErrCaptureUnavailable", err)
		}
		if capability.Starts() != 0 {
			t.Error("capability should not be started")
		}
	})
}

func TestControllerStartFailure(t *testing.T) {
	capability := testutil.NewMockCapability()
	capability.StartErr = errors.New("device busy")
	c := NewController(capability, Hooks{})

	err := c.Start(context.Background(), "en-US", "")
	if !IsCaptureError(err) {
		t.Fatalf("err = %v, want CaptureError", err)
	}
	if c.State() != Inactive {
		t.Error("state should stay Inactive")
	}
}

func TestControllerStartConfiguresCapture(t *testing.T) {
	capability := testutil.NewMockCapability()
	c := NewController(capability, Hooks{})

	if err := c.Start(context.Background(), "es-ES", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop(context.Background())

	want := capture.Config{Continuous: true, InterimResults: true, Language: "es-ES"}
	if got := capability.LastConfig(); got != want {
		t.Errorf("config = %+v, want %+v", got, want)
	}
	if c.State() != Active {
		t.Errorf("state = %v, want active", c.State())
	}
}

func TestControllerSnapshotsUpdateInput(t *testing.T) {
	capability := testutil.NewMockCapability()
	rec := &recorder{}
	c := NewController(capability, rec.hooks())

	if err := c.Start(context.Background(), "en-US", "Hello"); err != nil {
		t.Fatalf("start: %v", err)
	}
	stream := capability.Latest()
	stream.Snapshot("my")
	stream.Snapshot("my head")
	stream.Snapshot("")
	stream.Snapshot("my head hurts")

	testutil.WaitForCondition(t, func() bool { return rec.lastInput() == "Hello my head hurts" }, time.Second)

	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	terms := rec.terminations()
	if len(terms) != 1 {
		t.Fatalf("got %d terminations, want 1", len(terms))
	}
	if terms[0].Reason != ReasonStopped || terms[0].Err != nil {
		t.Errorf("termination = %+v", terms[0])
	}
	if terms[0].Input != "Hello my head hurts" {
		t.Errorf("termination input = %q", terms[0].Input)
	}
	if c.Display() != "Hello my head hurts" {
		t.Errorf("display = %q", c.Display())
	}
}

func TestControllerStopIsIdempotent(t *testing.T) {
	capability := testutil.NewMockCapability()
	rec := &recorder{}
	c := NewController(capability, rec.hooks())

	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("stop while inactive: %v", err)
	}

	if err := c.Start(context.Background(), "en-US", ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Stop(context.Background()); err != nil {
				t.Errorf("stop: %v", err)
			}
		}()
	}
	wg.Wait()
	c.Stop(context.Background())

	if n := len(rec.terminations()); n != 1 {
		t.Errorf("got %d Active to Inactive transitions, want 1", n)
	}
	if c.State() != Inactive {
		t.Errorf("state = %v", c.State())
	}
}

func TestControllerAlreadyRecording(t *testing.T) {
	capability := testutil.NewMockCapability()
	c := NewController(capability, Hooks{})

	if err := c.Start(context.Background(), "en-US", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := c.Start(context.Background(), "en-US", ""); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("second start err = %v, want ErrAlreadyRecording", err)
	}
	if capability.Starts() != 1 {
		t.Errorf("capability started %d times", capability.Starts())
	}

	c.Stop(context.Background())
	if err := c.Start(context.Background(), "en-US", ""); err != nil {
		t.Fatalf("start after stop: %v", err)
	}
	c.Stop(context.Background())
}

func TestControllerRejectsStartWhileSettling(t *testing.T) {
	capability := testutil.NewMockCapability()
	capability.HoldStop = true
	c := NewController(capability, Hooks{})

	if err := c.Start(context.Background(), "en-US", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	stream := capability.Latest()

	stopped := make(chan error, 1)
	go func() { stopped <- c.Stop(context.Background()) }()

	testutil.WaitForCondition(t, func() bool { return stream.StopCalls() == 1 }, time.Second)
	if err := c.Start(context.Background(), "en-US", ""); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("start while settling err = %v", err)
	}

	stream.Snapshot("late words")
	stream.Close()
	if err := <-stopped; err != nil {
		t.Fatalf("stop: %v", err)
	}
	if c.Display() != "late words" {
		t.Errorf("snapshot delivered while settling was lost: %q", c.Display())
	}
	if err := c.Start(context.Background(), "en-US", ""); err != nil {
		t.Fatalf("start after settle: %v", err)
	}
	c.Stop(context.Background())
}

func TestControllerStopHonoursContext(t *testing.T) {
	capability := testutil.NewMockCapability()
	capability.HoldStop = true
	c := NewController(capability, Hooks{})

	if err := c.Start(context.Background(), "en-US", ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	capability.Latest().Close()
	testutil.WaitForCondition(t, func() bool { return c.State() == Inactive }, time.Second)
}

func TestControllerCaptureError(t *testing.T) {
	capability := testutil.NewMockCapability()
	rec := &recorder{}
	c := NewController(capability, rec.hooks())

	if err := c.Start(context.Background(), "en-US", "base"); err != nil {
		t.Fatalf("start: %v", err)
	}
	stream := capability.Latest()
	stream.Snapshot("partial")
	stream.Fail("network")

	testutil.WaitForCondition(t, func() bool { return c.State() == Inactive }, time.Second)

	terms := rec.terminations()
	if len(terms) != 1 {
		t.Fatalf("got %d terminations", len(terms))
	}
	term := terms[0]
	if term.Reason != ReasonError {
		t.Errorf("reason = %v, want error", term.Reason)
	}
	var ce *CaptureError
	if !errors.As(term.Err, &ce) || ce.Reason != "network" {
		t.Errorf("err = %v, want CaptureError(network)", term.Err)
	}
	if term.Input != "base partial" {
		t.Errorf("input = %q", term.Input)
	}
	if stream.StopCalls() == 0 {
		t.Error("capture was not asked to stop after the error")
	}
}

func TestControllerNaturalEnd(t *testing.T) {
	capability := testutil.NewMockCapability()
	rec := &recorder{}
	c := NewController(capability, rec.hooks())

	if err := c.Start(context.Background(), "en-US", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	stream := capability.Latest()
	stream.Snapshot("I feel dizzy")
	stream.End("silence")

	testutil.WaitForCondition(t, func() bool { return c.State() == Inactive }, time.Second)

	terms := rec.terminations()
	if len(terms) != 1 || terms[0].Reason != ReasonEnded || terms[0].Err != nil {
		t.Fatalf("terminations = %+v", terms)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Errorf("stop after natural end: %v", err)
	}
	if len(rec.terminations()) != 1 {
		t.Error("stop after natural end produced another transition")
	}
}

func TestControllerInactiveHookRunsBeforeInactive(t *testing.T) {
	capability := testutil.NewMockCapability()
	var c *Controller
	var stateInHook State
	var startErr error
	c = NewController(capability, Hooks{
		OnInactive: func(Termination) {
			stateInHook = c.State()
			startErr = c.Start(context.Background(), "en-US", "")
		},
	})

	if err := c.Start(context.Background(), "en-US", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if stateInHook != Active {
		t.Errorf("state inside hook = %v, want active", stateInHook)
	}
	if !errors.Is(startErr, ErrAlreadyRecording) {
		t.Errorf("start inside hook = %v, want ErrAlreadyRecording", startErr)
	}
}

func TestStateAndReasonStrings(t *testing.T) {
	if Active.String() != "active" || Inactive.String() != "inactive" {
		t.Error("unexpected state strings")
	}
	if ReasonStopped.String() != "stopped" || ReasonEnded.String() != "ended" || ReasonError.String() != "error" {
		t.Error("unexpected reason strings")
	}
}
