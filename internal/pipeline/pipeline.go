// Package pipeline holds the UI-facing state of the translator: the input
// text, the latest translation, the selected languages, and the components
// that move an utterance from the microphone to the speaker.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/leonardotrapani/healthtranslate/internal/capture"
	"github.com/leonardotrapani/healthtranslate/internal/language"
	"github.com/leonardotrapani/healthtranslate/internal/llm"
	"github.com/leonardotrapani/healthtranslate/internal/logging"
	"github.com/leonardotrapani/healthtranslate/internal/metrics"
	"github.com/leonardotrapani/healthtranslate/internal/notify"
	"github.com/leonardotrapani/healthtranslate/internal/playback"
	"github.com/leonardotrapani/healthtranslate/internal/session"
	"github.com/leonardotrapani/healthtranslate/internal/translate"
)

type Status string

const (
	Idle        Status = "idle"
	Recording   Status = "recording"
	Translating Status = "translating"
)

// InputLimit is the input length the UI advertises. It is not enforced.
const InputLimit = 2000

var ErrInputLocked = errors.New("input is locked while recording")

type Config struct {
	SourceLanguage string
	TargetLanguage string
	// AutoSpeak reads every new translation aloud.
	AutoSpeak bool
}

type Deps struct {
	Capability  capture.Capability
	Translator  llm.Translator
	Synthesizer playback.Synthesizer
	Notifier    notify.Notifier
	Metrics     *metrics.Metrics
}

// Snapshot is a consistent copy of the UI-facing state.
type Snapshot struct {
	Status             Status
	Input              string
	InputLength        int
	CorrectedText      string
	TranslatedText     string
	SourceLanguage     string
	TargetLanguage     string
	TargetLanguageName string
	CaptureAvailable   bool
	Translation        translate.Status
	LastError          string
}

type Pipeline interface {
	Run(ctx context.Context)
	Stop()
	Status() Status
	Snapshot() Snapshot

	Toggle(ctx context.Context) error
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) error

	SetInput(text string) error
	Restore(s Snapshot) error
	SetLanguages(source, target string) error
	Translate() (translate.Request, bool)
	Speak() error

	Voices() []playback.Voice
	LanguageOptions() []language.Option
	RefreshVoices(ctx context.Context)
	// Wait blocks until pending translations and utterances finish.
	Wait()
}

type pipeline struct {
	config   Config
	notifier notify.Notifier
	metrics  *metrics.Metrics

	controller   *session.Controller
	orchestrator *translate.Orchestrator
	trigger      *playback.Trigger
	capability   capture.Capability

	ctx    context.Context
	cancel context.CancelFunc

	mu               sync.Mutex
	input            string
	source           string
	target           string
	captureAvailable bool
	lastErr          string
}

func New(deps Deps, config Config) Pipeline {
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &pipeline{
		config:           config,
		notifier:         deps.Notifier,
		metrics:          deps.Metrics,
		capability:       deps.Capability,
		ctx:              ctx,
		cancel:           cancel,
		source:           language.Canonical(config.SourceLanguage),
		target:           language.Canonical(config.TargetLanguage),
		captureAvailable: deps.Capability != nil,
	}

	p.controller = session.NewController(deps.Capability, session.Hooks{
		OnInput:    p.onInput,
		OnInactive: p.onInactive,
	})
	p.orchestrator = translate.New(deps.Translator, translate.Hooks{
		OnResult: p.onResult,
		OnFailed: p.onFailed,
	}, translate.Options{Metrics: deps.Metrics})
	p.trigger = playback.NewTrigger(deps.Synthesizer, playback.Options{
		Metrics: deps.Metrics,
		OnError: func(err error) { p.notifier.Error(fmt.Sprintf("Playback failed: %v", err)) },
	})

	return p
}

// Run probes the capture capability and loads the voice catalog in the
// background. It does not block.
func (p *pipeline) Run(ctx context.Context) {
	p.RefreshVoices(ctx)

	if p.capability == nil {
		logging.Sugar.Infof("Pipeline: no capture capability configured; recording disabled")
		return
	}
	if err := p.capability.Available(ctx); err != nil {
		logging.Sugar.Warnf("Pipeline: %v; recording disabled", err)
		p.setCaptureAvailable(false)
		return
	}
	p.setCaptureAvailable(true)
}

func (p *pipeline) Stop() {
	if err := p.controller.Stop(context.Background()); err != nil {
		logging.Sugar.Warnf("Pipeline: stop recording: %v", err)
	}
	p.cancel()
	p.orchestrator.Close()
	p.trigger.Close()
}

func (p *pipeline) Status() Status {
	if p.controller.State() == session.Active {
		return Recording
	}
	if p.orchestrator.Status() == translate.Pending {
		return Translating
	}
	return Idle
}

func (p *pipeline) Snapshot() Snapshot {
	status := p.Status()
	translation := p.orchestrator.Status()
	result := p.orchestrator.Result()

	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		Status:             status,
		Input:              p.input,
		InputLength:        utf8.RuneCountInString(p.input),
		CorrectedText:      result.CorrectedText,
		TranslatedText:     result.TranslatedText,
		SourceLanguage:     p.source,
		TargetLanguage:     p.target,
		TargetLanguageName: language.DisplayName(p.target),
		CaptureAvailable:   p.captureAvailable,
		Translation:        translation,
		LastError:          p.lastErr,
	}
}

func (p *pipeline) Toggle(ctx context.Context) error {
	if p.controller.State() == session.Active {
		return p.StopRecording(ctx)
	}
	return p.StartRecording(ctx)
}

func (p *pipeline) StartRecording(ctx context.Context) error {
	p.mu.Lock()
	source, input := p.source, p.input
	p.mu.Unlock()

	// The session outlives the request that started it.
	err := p.controller.Start(p.ctx, source, input)
	switch {
	case err == nil:
		p.setLastError("")
		p.metrics.RecordCaptureStarted(ctx)
		p.notifier.RecordingStarted()
		return nil
	case errors.Is(err, session.ErrCaptureUnavailable):
		p.setCaptureAvailable(false)
	}
	return err
}

func (p *pipeline) StopRecording(ctx context.Context) error {
	return p.controller.Stop(ctx)
}

func (p *pipeline) SetInput(text string) error {
	if p.controller.State() == session.Active {
		return ErrInputLocked
	}
	p.mu.Lock()
	p.input = text
	p.mu.Unlock()
	return nil
}

func (p *pipeline) SetLanguages(source, target string) error {
	if source != "" && !language.IsValid(source) {
		return fmt.Errorf("invalid source language: %q", source)
	}
	if target != "" && !language.IsValid(target) {
		return fmt.Errorf("invalid target language: %q", target)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if source != "" {
		p.source = language.Canonical(source)
	}
	if target != "" {
		p.target = language.Canonical(target)
	}
	logging.Sugar.Infof("Pipeline: languages %s -> %s", p.source, p.target)
	return nil
}

// Translate submits the current input, as a user-triggered retranslation.
func (p *pipeline) Translate() (translate.Request, bool) {
	p.mu.Lock()
	input, target := p.input, p.target
	p.mu.Unlock()
	return p.orchestrator.Submit(p.ctx, input, language.DisplayName(target))
}

func (p *pipeline) Speak() error {
	p.mu.Lock()
	target := p.target
	p.mu.Unlock()
	return p.trigger.Speak(p.orchestrator.Result().TranslatedText, target)
}

// Restore carries the input and displayed translation of a replaced
// pipeline over, resubmitting a translation that was still pending.
func (p *pipeline) Restore(s Snapshot) error {
	if p.controller.State() == session.Active {
		return ErrInputLocked
	}
	p.orchestrator.Restore(llm.Result{CorrectedText: s.CorrectedText, TranslatedText: s.TranslatedText})
	p.mu.Lock()
	p.input = s.Input
	p.lastErr = s.LastError
	p.mu.Unlock()

	if s.Translation == translate.Pending {
		p.Translate()
	}
	return nil
}

func (p *pipeline) Voices() []playback.Voice {
	return p.trigger.Voices()
}

// LanguageOptions lists the languages of the installed voices, or the
// built-in catalog while no voices are known.
func (p *pipeline) LanguageOptions() []language.Option {
	tags := p.trigger.VoiceTags()
	if len(tags) == 0 {
		tags = language.CatalogTags()
	}
	return language.Options(tags)
}

func (p *pipeline) RefreshVoices(ctx context.Context) {
	p.trigger.RefreshAsync(ctx, nil)
}

func (p *pipeline) Wait() {
	p.orchestrator.Wait()
	p.trigger.Wait()
}

func (p *pipeline) onInput(display string) {
	p.mu.Lock()
	p.input = display
	p.mu.Unlock()
}

// onInactive submits the final input of every finished session, including
// sessions that ended with a capture error.
func (p *pipeline) onInactive(term session.Termination) {
	p.metrics.RecordCaptureEnded(context.Background(), term.Reason.String())
	p.notifier.RecordingEnded()

	p.mu.Lock()
	p.input = term.Input
	target := p.target
	if term.Err != nil {
		p.lastErr = term.Err.Error()
	}
	p.mu.Unlock()

	if term.Err != nil {
		p.notifier.Error(term.Err.Error())
	}
	if strings.TrimSpace(term.Input) == "" {
		return
	}
	p.orchestrator.Submit(p.ctx, term.Input, language.DisplayName(target))
}

// onResult and onFailed run in submission order, one at a time. The
// displayed texts live in the orchestrator.
func (p *pipeline) onResult(req translate.Request, result llm.Result) {
	translated := p.orchestrator.Result().TranslatedText
	p.mu.Lock()
	p.lastErr = ""
	target := p.target
	p.mu.Unlock()

	if result.TranslatedText == "" {
		return
	}
	p.notifier.TranslationReady(translated)
	if p.config.AutoSpeak {
		if err := p.trigger.Speak(translated, target); err != nil {
			logging.Sugar.Warnf("Pipeline: auto speak: %v", err)
		}
	}
}

func (p *pipeline) onFailed(req translate.Request, err *translate.FailedError) {
	p.setLastError(err.Error())
	p.notifier.Error(describeFailure(err))
}

func describeFailure(err *translate.FailedError) string {
	switch {
	case errors.Is(err, llm.ErrAuthenticationMissing):
		return "Translation failed: API key missing"
	case llm.IsMalformedReply(err):
		return "Translation failed: unexpected reply from the model"
	case llm.IsEndpointError(err):
		return "Translation failed: endpoint unreachable"
	default:
		return "Translation failed"
	}
}

func (p *pipeline) setLastError(msg string) {
	p.mu.Lock()
	p.lastErr = msg
	p.mu.Unlock()
}

func (p *pipeline) setCaptureAvailable(ok bool) {
	p.mu.Lock()
	p.captureAvailable = ok
	p.mu.Unlock()
}
