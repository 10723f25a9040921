// Package translate runs correction and translation requests against the
// completion endpoint, keeping at most one request pending and discarding
// replies that a newer request has overtaken.
package translate

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/leonardotrapani/healthtranslate/internal/llm"
	"github.com/leonardotrapani/healthtranslate/internal/logging"
	"github.com/leonardotrapani/healthtranslate/internal/metrics"
)

type Status int

const (
	Idle Status = iota
	Pending
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

type Request struct {
	ID                 uint64
	SourceText         string
	TargetLanguageName string
}

// Hooks run one at a time, in submission order, and must not call Wait or
// Close.
type Hooks struct {
	// OnResult receives the normalized result of the latest request. Empty
	// fields mean the endpoint produced nothing for them.
	OnResult func(Request, llm.Result)
	OnFailed func(Request, *FailedError)
}

type Options struct {
	Metrics *metrics.Metrics
}

type Orchestrator struct {
	translator llm.Translator
	hooks      Hooks
	metrics    *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// deliver is held from the latest-request check until the hook returns,
	// so hooks never run out of submission order.
	deliver sync.Mutex

	mu      sync.Mutex
	latest  uint64
	status  Status
	result  llm.Result
	lastErr error
}

func New(translator llm.Translator, hooks Hooks, opts Options) *Orchestrator {
	if opts.Metrics == nil {
		opts.Metrics = metrics.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		translator: translator,
		hooks:      hooks,
		metrics:    opts.Metrics,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Submit issues a request for text unless it is blank. A pending request is
// superseded, not aborted: its reply will be discarded when it arrives.
// ctx scopes the completion call in addition to Close.
func (o *Orchestrator) Submit(ctx context.Context, text, targetLanguageName string) (Request, bool) {
	if strings.TrimSpace(text) == "" {
		return Request{}, false
	}

	o.mu.Lock()
	o.latest++
	req := Request{ID: o.latest, SourceText: text, TargetLanguageName: targetLanguageName}
	o.status = Pending
	o.mu.Unlock()

	logging.Sugar.Infof("Translate: request %d submitted (%d chars -> %s)", req.ID, len(text), targetLanguageName)

	o.wg.Add(1)
	go o.run(ctx, req)
	return req, true
}

func (o *Orchestrator) run(ctx context.Context, req Request) {
	defer o.wg.Done()

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(o.ctx, cancel)
	defer stop()

	start := time.Now()
	result, err := o.translate(callCtx, req)
	elapsed := time.Since(start)

	o.deliver.Lock()
	defer o.deliver.Unlock()

	o.mu.Lock()
	if latest := o.latest; req.ID != latest {
		o.mu.Unlock()
		logging.Sugar.Debugf("Translate: request %d: %v (latest is %d)", req.ID, ErrStaleResponse, latest)
		o.metrics.RecordTranslation(context.Background(), metrics.OutcomeStale, elapsed)
		return
	}

	if err != nil {
		failed := &FailedError{RequestID: req.ID, Cause: err}
		o.status = Failed
		o.lastErr = failed
		o.mu.Unlock()

		logging.Sugar.Warnf("Translate: %v", failed)
		o.metrics.RecordTranslation(context.Background(), metrics.OutcomeFailed, elapsed)
		if o.hooks.OnFailed != nil {
			o.hooks.OnFailed(req, failed)
		}
		return
	}

	o.status = Succeeded
	o.lastErr = nil
	if result.CorrectedText != "" {
		o.result.CorrectedText = result.CorrectedText
	}
	if result.TranslatedText != "" {
		o.result.TranslatedText = result.TranslatedText
	}
	o.mu.Unlock()

	logging.Sugar.Infof("Translate: request %d succeeded in %v", req.ID, elapsed.Round(time.Millisecond))
	o.metrics.RecordTranslation(context.Background(), metrics.OutcomeSucceeded, elapsed)
	if o.hooks.OnResult != nil {
		o.hooks.OnResult(req, result)
	}
}

func (o *Orchestrator) translate(ctx context.Context, req Request) (llm.Result, error) {
	reply, err := o.translator.Complete(ctx, req.SourceText, req.TargetLanguageName)
	if err != nil {
		return llm.Result{}, err
	}
	return llm.Normalize(reply)
}

func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Restore sets the displayed result, e.g. one carried over from an
// orchestrator that has been replaced.
func (o *Orchestrator) Restore(result llm.Result) {
	o.mu.Lock()
	o.result = result
	o.mu.Unlock()
}

// Result returns the last displayed result. Failed requests never change it.
func (o *Orchestrator) Result() llm.Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// LastError returns the failure of the latest request, or nil.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Wait blocks until every submitted request has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close cancels in-flight calls and waits for them.
func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
}
