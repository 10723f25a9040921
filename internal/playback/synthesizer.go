package playback

import (
	"context"
	"errors"
)

var ErrNoSynthesizer = errors.New("speech synthesis unavailable")

// Voice is one entry of a synthesizer's catalog. Tag is canonical BCP-47.
type Voice struct {
	ID   string
	Name string
	Tag  string
}

type Synthesizer interface {
	Voices(ctx context.Context) ([]Voice, error)
	// Speak blocks until the utterance finishes or ctx is cancelled. A nil
	// voice means the synthesizer default.
	Speak(ctx context.Context, text string, voice *Voice) error
}
