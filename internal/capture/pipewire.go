package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/leonardotrapani/healthtranslate/internal/language"
	"github.com/leonardotrapani/healthtranslate/internal/logging"
	"github.com/leonardotrapani/healthtranslate/internal/recording"
	"github.com/leonardotrapani/healthtranslate/internal/transcriber"
)

// Recorder is the audio source behind a PipeWire stream.
type Recorder interface {
	Start(ctx context.Context) (<-chan recording.AudioFrame, <-chan error, error)
	Stop() error
}

type Options struct {
	Recording recording.Config

	// MaxDuration ends a session regardless of speech. Zero disables it.
	MaxDuration time.Duration
	// SilenceTimeout ends a continuous session after speech was heard and
	// the input stayed below SilenceThreshold this long.
	SilenceTimeout time.Duration
	// PauseTimeout is the shorter silence that ends a non-continuous session.
	PauseTimeout     time.Duration
	SilenceThreshold float64
	InterimInterval  time.Duration
}

func DefaultOptions() Options {
	return Options{
		Recording:        recording.DefaultConfig(),
		MaxDuration:      2 * time.Minute,
		SilenceTimeout:   8 * time.Second,
		PauseTimeout:     1500 * time.Millisecond,
		SilenceThreshold: 0.01,
		InterimInterval:  1500 * time.Millisecond,
	}
}

// PipeWire captures the microphone with pw-record and re-transcribes the
// growing utterance every InterimInterval, so each snapshot is cumulative.
type PipeWire struct {
	opts        Options
	transcriber transcriber.Transcriber

	newRecorder func(recording.Config) Recorder
	probe       func(context.Context) error
}

func NewPipeWire(opts Options, tr transcriber.Transcriber) *PipeWire {
	return &PipeWire{
		opts:        opts,
		transcriber: tr,
		newRecorder: func(cfg recording.Config) Recorder { return recording.NewRecorder(cfg) },
		probe:       recording.CheckPipeWireAvailable,
	}
}

func (p *PipeWire) Available(ctx context.Context) error {
	if p.transcriber == nil {
		return fmt.Errorf("%w: no transcriber configured", ErrUnavailable)
	}
	if err := p.probe(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (p *PipeWire) Start(ctx context.Context, config Config) (Stream, error) {
	streamCtx, cancel := context.WithCancel(ctx)

	rec := p.newRecorder(p.opts.Recording)
	frames, errs, err := rec.Start(streamCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("start recorder: %w", err)
	}

	s := &pipeWireStream{
		opts:   p.opts,
		config: config,
		lang:   language.Base(config.Language),
		tr:     p.transcriber,
		rec:    rec,
		events: make(chan Event, 16),
		stopCh: make(chan struct{}),
		cancel: cancel,
	}
	go s.run(streamCtx, frames, errs)

	logging.Sugar.Infof("Capture: started (language=%s continuous=%v interim=%v)", config.Language, config.Continuous, config.InterimResults)
	return s, nil
}

type transcription struct {
	text string
	err  error
	upTo int
}

type pipeWireStream struct {
	opts   Options
	config Config
	lang   string
	tr     transcriber.Transcriber
	rec    Recorder

	events   chan Event
	stopCh   chan struct{}
	stopOnce sync.Once
	cancel   context.CancelFunc

	// owned by run
	pcm            []byte
	transcribedLen int
	last           string
	inFlight       bool
	results        chan transcription
}

func (s *pipeWireStream) Events() <-chan Event { return s.events }

func (s *pipeWireStream) Stop() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	return nil
}

func (s *pipeWireStream) run(ctx context.Context, frames <-chan recording.AudioFrame, errs <-chan error) {
	defer close(s.events)
	defer s.cancel()

	s.results = make(chan transcription, 1)

	var interim <-chan time.Time
	if s.config.InterimResults && s.opts.InterimInterval > 0 {
		ticker := time.NewTicker(s.opts.InterimInterval)
		defer ticker.Stop()
		interim = ticker.C
	}

	var deadline <-chan time.Time
	if s.opts.MaxDuration > 0 {
		timer := time.NewTimer(s.opts.MaxDuration)
		defer timer.Stop()
		deadline = timer.C
	}

	pause := s.opts.SilenceTimeout
	if !s.config.Continuous {
		pause = s.opts.PauseTimeout
	}

	heard := false
	var lastVoice time.Time

	for {
		select {
		case <-ctx.Done():
			s.rec.Stop()
			return

		case <-s.stopCh:
			s.finish(ctx, "")
			return

		case <-deadline:
			s.finish(ctx, "max duration reached")
			return

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.fail(ctx, err.Error())
			return

		case frame, ok := <-frames:
			if !ok {
				if errs != nil {
					if err, ok := <-errs; ok && err != nil {
						s.fail(ctx, err.Error())
						return
					}
				}
				s.finish(ctx, "audio stream closed")
				return
			}
			s.pcm = append(s.pcm, frame.Data...)
			if frame.Level >= s.opts.SilenceThreshold {
				heard = true
				lastVoice = frame.Timestamp
			} else if heard && pause > 0 && frame.Timestamp.Sub(lastVoice) >= pause {
				s.finish(ctx, "silence")
				return
			}

		case <-interim:
			if !s.inFlight && len(s.pcm) > s.transcribedLen {
				s.inFlight = true
				snapshot := append([]byte(nil), s.pcm...)
				go func() {
					text, err := s.tr.Transcribe(ctx, snapshot, s.lang)
					s.results <- transcription{text: text, err: err, upTo: len(snapshot)}
				}()
			}

		case r := <-s.results:
			if err := s.apply(ctx, r); err != nil {
				if ctx.Err() != nil {
					s.rec.Stop()
					return
				}
				s.fail(ctx, err.Error())
				return
			}
		}
	}
}

// apply publishes a finished transcription. Unchanged or empty text emits
// nothing.
func (s *pipeWireStream) apply(ctx context.Context, r transcription) error {
	s.inFlight = false
	if r.err != nil {
		return r.err
	}
	if r.upTo > s.transcribedLen {
		s.transcribedLen = r.upTo
	}
	if r.text != "" && r.text != s.last {
		s.last = r.text
		s.emit(ctx, Event{Kind: EventSnapshot, Text: r.text})
	}
	return nil
}

// finish stops the recorder, publishes a final transcript of any audio not
// yet transcribed and, when endReason is set, an end event. An empty
// endReason means the caller asked to stop and gets no end event.
func (s *pipeWireStream) finish(ctx context.Context, endReason string) {
	s.rec.Stop()

	if s.inFlight {
		if err := s.apply(ctx, <-s.results); err != nil {
			logging.Sugar.Warnf("Capture: interim transcription failed during stop: %v", err)
		}
	}

	if len(s.pcm) > s.transcribedLen {
		text, err := s.tr.Transcribe(ctx, s.pcm, s.lang)
		if err == nil {
			err = s.apply(ctx, transcription{text: text, upTo: len(s.pcm)})
		}
		if err != nil && ctx.Err() == nil {
			if endReason != "" {
				s.emit(ctx, Event{Kind: EventError, Reason: err.Error()})
				return
			}
			logging.Sugar.Warnf("Capture: final transcription failed: %v", err)
		}
	}

	if endReason != "" {
		logging.Sugar.Infof("Capture: ended (%s)", endReason)
		s.emit(ctx, Event{Kind: EventEnd, Reason: endReason})
	}
}

func (s *pipeWireStream) fail(ctx context.Context, reason string) {
	s.rec.Stop()
	logging.Sugar.Errorf("Capture: %s", reason)
	s.emit(ctx, Event{Kind: EventError, Reason: reason})
}

func (s *pipeWireStream) emit(ctx context.Context, ev Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}
