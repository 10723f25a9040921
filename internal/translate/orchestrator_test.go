package translate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/leonardotrapani/healthtranslate/internal/llm"
	"github.com/leonardotrapani/healthtranslate/internal/metrics"
	"github.com/leonardotrapani/healthtranslate/internal/testutil"
)

const (
	replyHello = `{"correctedText":"hello","translatedText":"hola"}`
	replyBye   = `{"correctedText":"bye","translatedText":"adiós"}`
)

type events struct {
	mu      sync.Mutex
	results []llm.Result
	ids     []uint64
	failed  []*FailedError
}

func (e *events) hooks() Hooks {
	return Hooks{
		OnResult: func(req Request, r llm.Result) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.results = append(e.results, r)
			e.ids = append(e.ids, req.ID)
		},
		OnFailed: func(req Request, err *FailedError) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.failed = append(e.failed, err)
		},
	}
}

func newTestOrchestrator(t *testing.T, tr llm.Translator, hooks Hooks) *Orchestrator {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := metrics.New(mp)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	o := New(tr, hooks, Options{Metrics: m})
	t.Cleanup(o.Close)
	return o
}

func TestSubmitBlankTextIsNoop(t *testing.T) {
	tr := testutil.NewMockTranslator(replyHello)
	o := newTestOrchestrator(t, tr, Hooks{})

	for _, text := range []string{"", " ", "\t\n  "} {
		if _, ok := o.Submit(context.Background(), text, "Spanish"); ok {
			t.Errorf("Submit(%q) issued a request", text)
		}
	}
	o.Wait()

	if tr.CallCount() != 0 {
		t.Errorf("translator called %d times", tr.CallCount())
	}
	if o.Status() != Idle {
		t.Errorf("status = %v, want idle", o.Status())
	}
}

func TestSubmitSuccess(t *testing.T) {
	tr := testutil.NewMockTranslator("<think>\nmedical terms ok\n</think>\n```json\n" + replyHello + "\n```")
	ev := &events{}
	o := newTestOrchestrator(t, tr, ev.hooks())

	req, ok := o.Submit(context.Background(), "helo", "Spanish")
	if !ok || req.ID != 1 {
		t.Fatalf("Submit = (%+v, %v)", req, ok)
	}
	if o.Status() != Pending && o.Status() != Succeeded {
		t.Errorf("status right after submit = %v", o.Status())
	}
	o.Wait()

	want := llm.Result{CorrectedText: "hello", TranslatedText: "hola"}
	if o.Result() != want {
		t.Errorf("result = %+v, want %+v", o.Result(), want)
	}
	if o.Status() != Succeeded {
		t.Errorf("status = %v", o.Status())
	}
	calls := tr.Calls()
	if len(calls) != 1 || calls[0].Text != "helo" || calls[0].TargetLanguage != "Spanish" {
		t.Errorf("calls = %+v", calls)
	}
	if len(ev.results) != 1 || ev.results[0] != want {
		t.Errorf("OnResult calls = %+v", ev.results)
	}
}

func TestRequestIDsIncrease(t *testing.T) {
	o := newTestOrchestrator(t, testutil.NewMockTranslator(replyHello), Hooks{})

	var last uint64
	for i := 0; i < 5; i++ {
		req, ok := o.Submit(context.Background(), "text", "Spanish")
		if !ok {
			t.Fatal("submit refused")
		}
		if req.ID <= last {
			t.Fatalf("id %d not greater than %d", req.ID, last)
		}
		last = req.ID
		o.Wait()
	}
}

// A reply to an older request that arrives after the newer one must not
// overwrite the newer result.
func TestStaleReplyIsDiscarded(t *testing.T) {
	tr := testutil.NewMockTranslator("")
	tr.ReplyTo(1, replyHello, nil)
	tr.ReplyTo(2, replyBye, nil)
	releaseFirst := tr.Hold(1)

	ev := &events{}
	o := newTestOrchestrator(t, tr, ev.hooks())

	first, _ := o.Submit(context.Background(), "hello", "Spanish")
	testutil.WaitForCondition(t, func() bool { return tr.CallCount() == 1 }, time.Second)
	second, _ := o.Submit(context.Background(), "bye", "Spanish")

	testutil.WaitForCondition(t, func() bool { return o.Status() == Succeeded }, time.Second)
	releaseFirst()
	o.Wait()

	want := llm.Result{CorrectedText: "bye", TranslatedText: "adiós"}
	if o.Result() != want {
		t.Errorf("result = %+v, want %+v", o.Result(), want)
	}
	if len(ev.ids) != 1 || ev.ids[0] != second.ID {
		t.Errorf("OnResult fired for %v, want only %d (first was %d)", ev.ids, second.ID, first.ID)
	}
}

func TestStaleFailureIsDiscarded(t *testing.T) {
	tr := testutil.NewMockTranslator("")
	tr.ReplyTo(1, "", errors.New("connection reset"))
	tr.ReplyTo(2, replyBye, nil)
	releaseFirst := tr.Hold(1)

	ev := &events{}
	o := newTestOrchestrator(t, tr, ev.hooks())

	o.Submit(context.Background(), "hello", "Spanish")
	testutil.WaitForCondition(t, func() bool { return tr.CallCount() == 1 }, time.Second)
	o.Submit(context.Background(), "bye", "Spanish")
	testutil.WaitForCondition(t, func() bool { return o.Status() == Succeeded }, time.Second)
	releaseFirst()
	o.Wait()

	if len(ev.failed) != 0 {
		t.Errorf("stale failure reached OnFailed: %v", ev.failed)
	}
	if o.Status() != Succeeded || o.LastError() != nil {
		t.Errorf("status = %v, lastErr = %v", o.Status(), o.LastError())
	}
}

func TestNewerRequestSupersedesPending(t *testing.T) {
	tr := testutil.NewMockTranslator("")
	tr.ReplyTo(1, replyHello, nil)
	tr.ReplyTo(2, replyBye, nil)
	releaseFirst := tr.Hold(1)
	releaseSecond := tr.Hold(2)

	ev := &events{}
	o := newTestOrchestrator(t, tr, ev.hooks())

	o.Submit(context.Background(), "hello", "Spanish")
	testutil.WaitForCondition(t, func() bool { return tr.CallCount() == 1 }, time.Second)
	o.Submit(context.Background(), "bye", "Spanish")
	testutil.WaitForCondition(t, func() bool { return tr.CallCount() == 2 }, time.Second)

	// In-order delivery: the first reply is already stale.
	releaseFirst()
	time.Sleep(20 * time.Millisecond)
	if o.Status() != Pending {
		t.Errorf("status after stale reply = %v, want pending", o.Status())
	}
	if len(ev.results) != 0 {
		t.Errorf("stale reply reached OnResult")
	}

	releaseSecond()
	o.Wait()
	if o.Result().TranslatedText != "adiós" {
		t.Errorf("result = %+v", o.Result())
	}
}

func TestFailurePreservesPreviousResult(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		check func(error) bool
	}{
		{
			name:  "authentication missing",
			err:   llm.ErrAuthenticationMissing,
			check: func(err error) bool { return errors.Is(err, llm.ErrAuthenticationMissing) },
		},
		{
			name:  "endpoint error",
			err:   &llm.EndpointError{StatusCode: 503, Err: errors.New("unavailable")},
			check: llm.IsEndpointError,
		},
		{
			name:  "malformed reply",
			reply: "not json at all",
			check: llm.IsMalformedReply,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := testutil.NewMockTranslator(replyHello)
			tr.ReplyTo(2, tt.reply, tt.err)
			ev := &events{}
			o := newTestOrchestrator(t, tr, ev.hooks())

			o.Submit(context.Background(), "hello", "Spanish")
			o.Wait()
			before := o.Result()

			req, _ := o.Submit(context.Background(), "again", "Spanish")
			o.Wait()

			if o.Result() != before {
				t.Errorf("result changed on failure: %+v -> %+v", before, o.Result())
			}
			if o.Status() != Failed {
				t.Errorf("status = %v, want failed", o.Status())
			}
			if len(ev.failed) != 1 {
				t.Fatalf("OnFailed calls = %d", len(ev.failed))
			}
			failed := ev.failed[0]
			if failed.RequestID != req.ID {
				t.Errorf("failed id = %d, want %d", failed.RequestID, req.ID)
			}
			if !tt.check(failed) {
				t.Errorf("cause %v not preserved", failed.Cause)
			}
			if !IsFailed(o.LastError()) {
				t.Errorf("LastError = %v", o.LastError())
			}
			if tr.CallCount() != 2 {
				t.Errorf("translator called %d times; failures must not retry", tr.CallCount())
			}
		})
	}
}

func TestEmptyFieldsDoNotClearResult(t *testing.T) {
	tr := testutil.NewMockTranslator(replyHello)
	tr.ReplyTo(2, `{"correctedText":"hello again"}`, nil)
	tr.ReplyTo(3, "", nil)
	o := newTestOrchestrator(t, tr, Hooks{})

	o.Submit(context.Background(), "hello", "Spanish")
	o.Wait()
	o.Submit(context.Background(), "hello again", "Spanish")
	o.Wait()

	want := llm.Result{CorrectedText: "hello again", TranslatedText: "hola"}
	if o.Result() != want {
		t.Errorf("result = %+v, want %+v", o.Result(), want)
	}

	o.Submit(context.Background(), "silence", "Spanish")
	o.Wait()
	if o.Result() != want {
		t.Errorf("absent reply changed the result: %+v", o.Result())
	}
	if o.Status() != Succeeded {
		t.Errorf("status = %v", o.Status())
	}
}

func TestCloseCancelsInFlight(t *testing.T) {
	tr := testutil.NewMockTranslator(replyHello)
	tr.Hold(1)
	ev := &events{}
	o := New(tr, ev.hooks(), Options{})

	o.Submit(context.Background(), "hello", "Spanish")
	testutil.WaitForCondition(t, func() bool { return tr.CallCount() == 1 }, time.Second)

	done := make(chan struct{})
	go func() {
		o.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not cancel the held call")
	}
	if len(ev.failed) != 1 || !errors.Is(ev.failed[0], context.Canceled) {
		t.Errorf("failed = %v", ev.failed)
	}
}

func TestStatusString(t *testing.T) {
	for status, want := range map[Status]string{Idle: "idle", Pending: "pending", Succeeded: "succeeded", Failed: "failed"} {
		if status.String() != want {
			t.Errorf("%d.String() = %q, want %q", status, status.String(), want)
		}
	}
}

func TestHooksRunInSubmissionOrder(t *testing.T) {
	tr := testutil.NewMockTranslator("")
	tr.ReplyTo(1, replyHello, nil)
	tr.ReplyTo(2, replyBye, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	var releaseOnce sync.Once
	releaseFirst := func() { releaseOnce.Do(func() { close(release) }) }

	var mu sync.Mutex
	var order []uint64
	var displayed llm.Result
	o := newTestOrchestrator(t, tr, Hooks{
		OnResult: func(req Request, r llm.Result) {
			if req.ID == 1 {
				close(entered)
				<-release
			}
			mu.Lock()
			order = append(order, req.ID)
			displayed = r
			mu.Unlock()
		},
	})
	t.Cleanup(releaseFirst)

	o.Submit(context.Background(), "hello", "Spanish")
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("first result never delivered")
	}

	// The first request passed the latest check before this submit.
	o.Submit(context.Background(), "bye", "Spanish")
	testutil.WaitForCondition(t, func() bool { return tr.CallCount() == 2 }, time.Second)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	early := len(order)
	mu.Unlock()
	if early != 0 {
		t.Fatalf("second result delivered while the first was still being delivered")
	}

	releaseFirst()
	o.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("delivery order = %v, want [1 2]", order)
	}
	if displayed.TranslatedText != "adiós" || o.Result().TranslatedText != "adiós" {
		t.Errorf("displayed = %+v, result = %+v", displayed, o.Result())
	}
}

func TestRestore(t *testing.T) {
	tr := testutil.NewMockTranslator("not json")
	o := newTestOrchestrator(t, tr, Hooks{})

	carried := llm.Result{CorrectedText: "hello", TranslatedText: "hola"}
	o.Restore(carried)
	if o.Result() != carried {
		t.Fatalf("result = %+v", o.Result())
	}

	o.Submit(context.Background(), "hello", "Spanish")
	o.Wait()
	if o.Result() != carried {
		t.Errorf("failed request changed the restored result: %+v", o.Result())
	}
}
