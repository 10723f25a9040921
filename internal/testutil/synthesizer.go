package testutil

import (
	"context"
	"sync"

	"github.com/leonardotrapani/healthtranslate/internal/playback"
)

type SpeakCall struct {
	Text  string
	Voice *playback.Voice
}

// MockSynthesizer implements playback.Synthesizer. With Block set, Speak
// returns only when its context is cancelled.
type MockSynthesizer struct {
	VoiceList []playback.Voice
	VoicesErr error
	SpeakErr  error
	Block     bool

	mu    sync.Mutex
	calls []SpeakCall
}

func NewMockSynthesizer(voices ...playback.Voice) *MockSynthesizer {
	return &MockSynthesizer{VoiceList: voices}
}

func (m *MockSynthesizer) Voices(ctx context.Context) ([]playback.Voice, error) {
	if m.VoicesErr != nil {
		return nil, m.VoicesErr
	}
	voices := make([]playback.Voice, len(m.VoiceList))
	copy(voices, m.VoiceList)
	return voices, nil
}

func (m *MockSynthesizer) Speak(ctx context.Context, text string, voice *playback.Voice) error {
	m.mu.Lock()
	var v *playback.Voice
	if voice != nil {
		copied := *voice
		v = &copied
	}
	m.calls = append(m.calls, SpeakCall{Text: text, Voice: v})
	m.mu.Unlock()

	if m.Block {
		<-ctx.Done()
		return ctx.Err()
	}
	return m.SpeakErr
}

func (m *MockSynthesizer) Calls() []SpeakCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]SpeakCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}
