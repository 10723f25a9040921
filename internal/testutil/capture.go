package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/leonardotrapani/healthtranslate/internal/capture"
)

// MockStream is a capture.Stream driven by the test. By default Stop closes
// the event channel, so a session settles immediately.
type MockStream struct {
	HoldStop bool

	events    chan capture.Event
	stopCalls atomic.Int32
	closeOnce sync.Once
}

func NewMockStream() *MockStream {
	return &MockStream{events: make(chan capture.Event, 64)}
}

func (m *MockStream) Events() <-chan capture.Event { return m.events }

func (m *MockStream) Stop() error {
	m.stopCalls.Add(1)
	if !m.HoldStop {
		m.Close()
	}
	return nil
}

func (m *MockStream) StopCalls() int { return int(m.stopCalls.Load()) }

func (m *MockStream) Snapshot(text string) {
	m.events <- capture.Event{Kind: capture.EventSnapshot, Text: text}
}

func (m *MockStream) Fail(reason string) {
	m.events <- capture.Event{Kind: capture.EventError, Reason: reason}
}

// End emits a natural end and closes the stream, as a silence timeout does.
func (m *MockStream) End(reason string) {
	m.events <- capture.Event{Kind: capture.EventEnd, Reason: reason}
	m.Close()
}

func (m *MockStream) Close() {
	m.closeOnce.Do(func() { close(m.events) })
}

// MockCapability hands out a fresh MockStream per Start.
type MockCapability struct {
	AvailableErr error
	StartErr     error
	HoldStop     bool

	mu      sync.Mutex
	streams []*MockStream
	configs []capture.Config
}

func NewMockCapability() *MockCapability {
	return &MockCapability{}
}

func (m *MockCapability) Available(ctx context.Context) error {
	return m.AvailableErr
}

func (m *MockCapability) Start(ctx context.Context, config capture.Config) (capture.Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs = append(m.configs, config)
	if m.StartErr != nil {
		return nil, m.StartErr
	}
	stream := NewMockStream()
	stream.HoldStop = m.HoldStop
	m.streams = append(m.streams, stream)
	return stream, nil
}

// Latest returns the most recently started stream, or nil.
func (m *MockCapability) Latest() *MockStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.streams) == 0 {
		return nil
	}
	return m.streams[len(m.streams)-1]
}

func (m *MockCapability) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.configs)
}

func (m *MockCapability) LastConfig() capture.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.configs) == 0 {
		return capture.Config{}
	}
	return m.configs[len(m.configs)-1]
}
