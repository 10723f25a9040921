package testutil

import (
	"context"
	"sync"
)

type TranslatorCall struct {
	Text           string
	TargetLanguage string
}

type cannedReply struct {
	reply string
	err   error
}

// MockTranslator answers llm.Translator calls with a default reply, or a
// per-call reply set with ReplyTo. Calls are numbered from 1. Hold makes a
// call block until the returned release func runs, which lets tests deliver
// replies out of order.
type MockTranslator struct {
	Reply string
	Err   error

	mu      sync.Mutex
	calls   []TranslatorCall
	replies map[int]cannedReply
	gates   map[int]chan struct{}
}

func NewMockTranslator(reply string) *MockTranslator {
	return &MockTranslator{
		Reply:   reply,
		replies: make(map[int]cannedReply),
		gates:   make(map[int]chan struct{}),
	}
}

func (m *MockTranslator) ReplyTo(call int, reply string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[call] = cannedReply{reply: reply, err: err}
}

func (m *MockTranslator) Hold(call int) (release func()) {
	gate := make(chan struct{})
	var once sync.Once
	m.mu.Lock()
	m.gates[call] = gate
	m.mu.Unlock()
	return func() { once.Do(func() { close(gate) }) }
}

func (m *MockTranslator) Complete(ctx context.Context, text, targetLanguage string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, TranslatorCall{Text: text, TargetLanguage: targetLanguage})
	n := len(m.calls)
	gate := m.gates[n]
	reply, err := m.Reply, m.Err
	if canned, ok := m.replies[n]; ok {
		reply, err = canned.reply, canned.err
	}
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return reply, err
}

func (m *MockTranslator) Calls() []TranslatorCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TranslatorCall(nil), m.calls...)
}

func (m *MockTranslator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
