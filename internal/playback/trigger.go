// Package playback reads translations aloud, one utterance at a time.
package playback

import (
	"context"
	"strings"
	"sync"

	"github.com/leonardotrapani/healthtranslate/internal/language"
	"github.com/leonardotrapani/healthtranslate/internal/logging"
	"github.com/leonardotrapani/healthtranslate/internal/metrics"
)

type Options struct {
	Metrics *metrics.Metrics
	// OnError receives failures of utterances that were not cancelled.
	OnError func(error)
}

// Trigger owns the voice catalog and the single playing utterance. Starting
// a new utterance cancels the current one and waits for it to end first.
type Trigger struct {
	synth   Synthesizer
	metrics *metrics.Metrics
	onError func(error)

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	voices  []Voice
	current context.CancelFunc
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewTrigger accepts a nil synthesizer; Speak then reports ErrNoSynthesizer.
func NewTrigger(synth Synthesizer, opts Options) *Trigger {
	if opts.Metrics == nil {
		opts.Metrics = metrics.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	closed := make(chan struct{})
	close(closed)
	return &Trigger{
		synth:   synth,
		metrics: opts.Metrics,
		onError: opts.OnError,
		ctx:     ctx,
		cancel:  cancel,
		done:    closed,
	}
}

// Refresh reloads the voice catalog from the synthesizer.
func (t *Trigger) Refresh(ctx context.Context) error {
	if t.synth == nil {
		return ErrNoSynthesizer
	}
	voices, err := t.synth.Voices(ctx)
	if err != nil {
		return err
	}
	for i := range voices {
		voices[i].Tag = language.Canonical(voices[i].Tag)
	}

	t.mu.Lock()
	t.voices = voices
	t.mu.Unlock()

	logging.Sugar.Infof("Playback: %d voices available", len(voices))
	return nil
}

// RefreshAsync reloads the catalog in the background and calls done, if
// set, when it finishes.
func (t *Trigger) RefreshAsync(ctx context.Context, done func(error)) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		err := t.Refresh(ctx)
		if err != nil {
			logging.Sugar.Warnf("Playback: voice catalog refresh failed: %v", err)
		}
		if done != nil {
			done(err)
		}
	}()
}

func (t *Trigger) Voices() []Voice {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Voice(nil), t.voices...)
}

// VoiceTags returns the catalog's language tags in catalog order.
func (t *Trigger) VoiceTags() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	tags := make([]string, 0, len(t.voices))
	for _, v := range t.voices {
		tags = append(tags, v.Tag)
	}
	return tags
}

// SelectVoice returns the first voice whose tag equals languageTag after
// canonicalization, or nil for the synthesizer default.
func (t *Trigger) SelectVoice(languageTag string) *Voice {
	want := language.Canonical(languageTag)
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.voices {
		if t.voices[i].Tag == want {
			v := t.voices[i]
			return &v
		}
	}
	return nil
}

// Speak queues text behind a cancellation of whatever is playing and returns
// without waiting for playback. Blank text is ignored.
func (t *Trigger) Speak(text, languageTag string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if t.synth == nil {
		return ErrNoSynthesizer
	}
	voice := t.SelectVoice(languageTag)

	t.mu.Lock()
	if t.ctx.Err() != nil {
		t.mu.Unlock()
		return t.ctx.Err()
	}
	previous, previousDone := t.current, t.done
	ctx, cancel := context.WithCancel(t.ctx)
	done := make(chan struct{})
	t.current, t.done = cancel, done
	t.wg.Add(1)
	t.mu.Unlock()

	if previous != nil {
		previous()
	}

	go func() {
		defer t.wg.Done()
		defer close(done)
		defer cancel()

		<-previousDone
		if ctx.Err() != nil {
			return
		}
		t.play(ctx, text, voice)
	}()
	return nil
}

func (t *Trigger) play(ctx context.Context, text string, voice *Voice) {
	name := "default"
	if voice != nil {
		name = voice.Tag
	}
	logging.Sugar.Infof("Playback: speaking %d chars with voice %s", len(text), name)

	err := t.synth.Speak(ctx, text, voice)
	switch {
	case err == nil:
		t.metrics.RecordPlayback(context.Background(), name)
	case ctx.Err() != nil:
		logging.Sugar.Debugf("Playback: utterance cancelled")
	default:
		logging.Sugar.Warnf("Playback: %v", err)
		if t.onError != nil {
			t.onError(err)
		}
	}
}

// Cancel stops the playing utterance, if any.
func (t *Trigger) Cancel() {
	t.mu.Lock()
	current := t.current
	t.current = nil
	t.mu.Unlock()
	if current != nil {
		current()
	}
}

// Wait blocks until queued utterances and catalog refreshes finish.
func (t *Trigger) Wait() {
	t.wg.Wait()
}

func (t *Trigger) Close() {
	t.cancel()
	t.wg.Wait()
}
