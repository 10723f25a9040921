package daemon

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leonardotrapani/healthtranslate/internal/bus"
	"github.com/leonardotrapani/healthtranslate/internal/config"
	"github.com/leonardotrapani/healthtranslate/internal/notify"
	"github.com/leonardotrapani/healthtranslate/internal/pipeline"
	"github.com/leonardotrapani/healthtranslate/internal/playback"
	"github.com/leonardotrapani/healthtranslate/internal/testutil"
	"github.com/leonardotrapani/healthtranslate/internal/translate"
)

type fakeClipboard struct {
	mu     sync.Mutex
	copied []string
}

func (f *fakeClipboard) Copy(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copied = append(f.copied, text)
	return nil
}

func (f *fakeClipboard) Copied() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.copied...)
}

type harness struct {
	capability *testutil.MockCapability
	translator *testutil.MockTranslator
	synth      *testutil.MockSynthesizer
	clipboard  *fakeClipboard
	builds     int
}

func (h *harness) build(cfg *config.Config) (pipeline.Deps, error) {
	h.builds++
	return pipeline.Deps{
		Capability:  h.capability,
		Translator:  h.translator,
		Synthesizer: h.synth,
		Notifier:    notify.Nop{},
	}, nil
}

func newHarness() *harness {
	return &harness{
		capability: testutil.NewMockCapability(),
		translator: testutil.NewMockTranslator(`{"correctedText":"The patient has a fever","translatedText":"El paciente tiene fiebre"}`),
		synth:      testutil.NewMockSynthesizer(playback.Voice{ID: "es", Tag: "es-ES"}),
		clipboard:  &fakeClipboard{},
	}
}

func startDaemon(t *testing.T, h *harness) *Daemon {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	d, err := New(Options{
		Config:    testutil.TestConfig(),
		Build:     h.build,
		Clipboard: h.clipboard,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(context.Background()) }()

	testutil.WaitForCondition(t, func() bool {
		_, err := bus.SendCommand(bus.CmdStatus)
		return err == nil
	}, 2*time.Second)

	t.Cleanup(func() {
		bus.SendCommand(bus.CmdQuit)
		select {
		case err := <-errCh:
			if err != nil {
				t.Errorf("Run() = %v", err)
			}
		case <-time.After(3 * time.Second):
			t.Error("daemon did not exit within timeout")
		}
	})
	return d
}

func send(t *testing.T, cmd byte, args ...string) bus.Response {
	t.Helper()
	resp, err := bus.SendCommand(cmd, args...)
	if err != nil {
		t.Fatalf("command %c: %v", cmd, err)
	}
	return resp
}

func TestDaemonTranslateFlow(t *testing.T) {
	h := newHarness()
	d := startDaemon(t, h)

	if resp := send(t, bus.CmdTranslate); resp.Body != "nothing to translate" {
		t.Errorf("translate with empty input = %+v", resp)
	}
	if resp := send(t, bus.CmdSpeak); resp.Body != "nothing to speak" {
		t.Errorf("speak before translation = %+v", resp)
	}
	if resp := send(t, bus.CmdCopy); resp.Body != "nothing to copy" {
		t.Errorf("copy before translation = %+v", resp)
	}

	if resp := send(t, bus.CmdInput, "The patient has a feever"); resp.Body != "input set" {
		t.Errorf("input = %+v", resp)
	}
	if resp := send(t, bus.CmdTranslate); resp.Body != "submitted id=1" {
		t.Errorf("translate = %+v", resp)
	}
	d.Pipeline().Wait()

	state, err := bus.GetState()
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state.CorrectedText != "The patient has a fever" || state.TranslatedText != "El paciente tiene fiebre" {
		t.Errorf("state = %+v", state)
	}
	if state.Status != "idle" || state.Translation != "succeeded" || state.InputLimit != pipeline.InputLimit {
		t.Errorf("state = %+v", state)
	}
	if state.TargetLanguageName != "Spanish" {
		t.Errorf("target language name = %q", state.TargetLanguageName)
	}

	if resp := send(t, bus.CmdCopy); resp.Body != "copied" {
		t.Errorf("copy = %+v", resp)
	}
	if got := h.clipboard.Copied(); len(got) != 1 || got[0] != "El paciente tiene fiebre" {
		t.Errorf("clipboard = %v", got)
	}

	if resp := send(t, bus.CmdSpeak); resp.Body != "speaking" {
		t.Errorf("speak = %+v", resp)
	}
	d.Pipeline().Wait()
	if calls := h.synth.Calls(); len(calls) != 1 || calls[0].Text != "El paciente tiene fiebre" {
		t.Errorf("synth calls = %+v", calls)
	}
}

func TestDaemonRecordingToggle(t *testing.T) {
	h := newHarness()
	d := startDaemon(t, h)

	if resp := send(t, bus.CmdStatus); resp.Body != "status=idle capture=true" {
		t.Errorf("status = %+v", resp)
	}

	if resp := send(t, bus.CmdToggle); resp.Body != "recording" {
		t.Fatalf("first toggle = %+v", resp)
	}
	if resp := send(t, bus.CmdStatus); !strings.HasPrefix(resp.Body, "status=recording") {
		t.Errorf("status while recording = %+v", resp)
	}

	_, err := bus.SendCommand(bus.CmdInput, "typed")
	if !bus.IsRemoteError(err) {
		t.Errorf("input while recording = %v, want remote error", err)
	}

	h.capability.Latest().Snapshot("patient has chest pain")
	testutil.WaitForCondition(t, func() bool {
		return d.Pipeline().Snapshot().Input == "patient has chest pain"
	}, 2*time.Second)

	if resp := send(t, bus.CmdToggle); resp.Body != "stopped" {
		t.Fatalf("second toggle = %+v", resp)
	}
	d.Pipeline().Wait()

	calls := h.translator.Calls()
	if len(calls) != 1 || calls[0].Text != "patient has chest pain" {
		t.Errorf("translator calls = %+v", calls)
	}
}

func TestDaemonCommandErrors(t *testing.T) {
	h := newHarness()
	h.capability.AvailableErr = errors.New("no pipewire")
	startDaemon(t, h)

	tests := []struct {
		name string
		cmd  byte
		args []string
	}{
		{"unknown", 'z', nil},
		{"input without text", bus.CmdInput, nil},
		{"languages with one arg", bus.CmdLanguages, []string{"en-US"}},
		{"invalid language", bus.CmdLanguages, []string{"en-US", "not a tag!"}},
		{"toggle without capture", bus.CmdToggle, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := bus.SendCommand(tt.cmd, tt.args...); !bus.IsRemoteError(err) {
				t.Errorf("error = %v, want remote error", err)
			}
		})
	}

	if resp := send(t, bus.CmdVersion); resp.Body != "proto="+bus.ProtoVer {
		t.Errorf("version = %+v", resp)
	}
	if resp := send(t, bus.CmdLanguages, "", "fr-FR"); resp.Body != "source=en-US target=fr-FR" {
		t.Errorf("languages = %+v", resp)
	}
}

func TestDaemonRefusesSecondInstance(t *testing.T) {
	h := newHarness()
	startDaemon(t, h)

	other, err := New(Options{Config: testutil.TestConfig(), Build: h.build})
	if err != nil {
		t.Fatal(err)
	}
	defer other.Pipeline().Stop()
	if err := other.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "already running") {
		t.Errorf("second Run() = %v", err)
	}
}

func TestDaemonRunStopsOnContextCancel(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	h := newHarness()
	d, err := New(Options{Config: testutil.TestConfig(), Build: h.build})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()

	testutil.WaitForCondition(t, func() bool {
		_, err := bus.SendCommand(bus.CmdStatus)
		return err == nil
	}, 2*time.Second)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("daemon did not stop")
	}
	if err := bus.CheckExistingDaemon(); err != nil {
		t.Errorf("pid file left behind: %v", err)
	}
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("New without config should fail")
	}

	failing := func(*config.Config) (pipeline.Deps, error) { return pipeline.Deps{}, errors.New("no endpoint") }
	if _, err := New(Options{Config: testutil.TestConfig(), Build: failing}); err == nil {
		t.Error("New should report build errors")
	}
}

func TestApplyConfig(t *testing.T) {
	h := newHarness()
	path := testutil.CreateTempConfigFile(t, "[capture]\n  provider = \"none\"\n")
	manager, err := config.NewManagerWithPath(path)
	if err != nil {
		t.Fatal(err)
	}
	d, err := New(Options{Manager: manager, Build: h.build, Clipboard: h.clipboard})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { d.Pipeline().Stop() }()

	if err := d.Pipeline().SetInput("dizziness"); err != nil {
		t.Fatal(err)
	}

	old := manager.GetConfig()
	langs := manager.GetConfig()
	langs.Languages.Target = "de-DE"
	d.applyConfig(old, langs)

	if h.builds != 1 {
		t.Errorf("language change rebuilt the pipeline (%d builds)", h.builds)
	}
	if got := d.Pipeline().Snapshot().TargetLanguage; got != "de-DE" {
		t.Errorf("target = %q, want de-DE", got)
	}

	completion := *langs
	completion.Completion.Model = "other/model"
	before := d.Pipeline()
	d.applyConfig(langs, &completion)

	if h.builds != 2 {
		t.Errorf("completion change should rebuild (%d builds)", h.builds)
	}
	after := d.Pipeline()
	if after == before {
		t.Fatal("pipeline not replaced")
	}
	snap := after.Snapshot()
	if snap.Input != "dizziness" || snap.TargetLanguage != "de-DE" {
		t.Errorf("rebuilt pipeline state = %+v", snap)
	}
}

func TestBuildDeps(t *testing.T) {
	t.Run("capture and playback disabled", func(t *testing.T) {
		deps, err := BuildDeps(testutil.TestConfig())
		if err != nil {
			t.Fatalf("BuildDeps: %v", err)
		}
		if deps.Translator == nil || deps.Capability != nil || deps.Synthesizer != nil {
			t.Errorf("deps = %+v", deps)
		}
		if _, ok := deps.Notifier.(notify.Log); !ok {
			t.Errorf("notifier = %T, want notify.Log", deps.Notifier)
		}
	})

	t.Run("pipewire and espeak", func(t *testing.T) {
		cfg := config.DefaultConfig()
		deps, err := BuildDeps(cfg)
		if err != nil {
			t.Fatalf("BuildDeps: %v", err)
		}
		if deps.Capability == nil {
			t.Error("pipewire capability not built")
		}
		if _, ok := deps.Synthesizer.(*playback.Espeak); !ok {
			t.Errorf("synthesizer = %T, want *playback.Espeak", deps.Synthesizer)
		}
	})

	t.Run("unusable transcriber leaves capture off", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Capture.Transcriber = "whisper-cpp"
		deps, err := BuildDeps(cfg)
		if err != nil {
			t.Fatalf("BuildDeps: %v", err)
		}
		if deps.Capability != nil {
			t.Error("capability built without a transcriber")
		}
	})

	t.Run("completion misconfigured", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Completion.BaseURL = ""
		if _, err := BuildDeps(cfg); err == nil {
			t.Error("BuildDeps should fail without a completion endpoint")
		}
	})
}

func TestNeedsRebuild(t *testing.T) {
	base := config.DefaultConfig()
	tests := []struct {
		name   string
		modify func(*config.Config)
		want   bool
	}{
		{"unchanged", func(*config.Config) {}, false},
		{"languages", func(c *config.Config) { c.Languages.Source = "fr-FR" }, false},
		{"log level", func(c *config.Config) { c.General.LogLevel = "debug" }, false},
		{"metrics", func(c *config.Config) { c.Metrics.ListenAddr = ":9464" }, false},
		{"capture", func(c *config.Config) { c.Capture.SilenceTimeout = time.Second }, true},
		{"completion", func(c *config.Config) { c.Completion.Temperature = 1 }, true},
		{"playback", func(c *config.Config) { c.Playback.AutoSpeak = true }, true},
		{"notifications", func(c *config.Config) { c.Notifications.Enabled = false }, true},
	}
	for _, tt := range tests {
		updated := *base
		tt.modify(&updated)
		if got := needsRebuild(base, &updated); got != tt.want {
			t.Errorf("%s: needsRebuild = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRebuildCarriesRecordingAndTranslation(t *testing.T) {
	h := newHarness()
	h.translator.ReplyTo(3, `{"correctedText":"fever and chills","translatedText":"fiebre y escalofríos"}`, nil)
	releaseRecorded := h.translator.Hold(2)
	releaseResubmitted := h.translator.Hold(3)
	defer releaseRecorded()
	defer releaseResubmitted()

	path := testutil.CreateTempConfigFile(t, "[capture]\n  provider = \"none\"\n")
	manager, err := config.NewManagerWithPath(path)
	if err != nil {
		t.Fatal(err)
	}
	d, err := New(Options{Manager: manager, Build: h.build, Clipboard: h.clipboard})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { d.Pipeline().Stop() }()

	ctx := context.Background()
	before := d.Pipeline()
	_ = before.SetInput("fever")
	before.Translate()
	before.Wait()

	if err := before.Toggle(ctx); err != nil {
		t.Fatalf("start recording: %v", err)
	}
	h.capability.Latest().Snapshot("and chills")
	testutil.WaitForCondition(t, func() bool {
		return before.Snapshot().Input == "fever and chills"
	}, 2*time.Second)

	old := manager.GetConfig()
	updated := manager.GetConfig()
	updated.Completion.Model = "other/model"
	d.applyConfig(old, updated)

	after := d.Pipeline()
	if after == before {
		t.Fatal("pipeline not replaced")
	}
	snap := after.Snapshot()
	if snap.Input != "fever and chills" || snap.TranslatedText != "El paciente tiene fiebre" {
		t.Errorf("carried snapshot = %+v", snap)
	}
	if snap.Translation != translate.Pending {
		t.Errorf("translation = %v, want the recording's translation resubmitted", snap.Translation)
	}

	releaseResubmitted()
	after.Wait()

	calls := h.translator.Calls()
	if len(calls) != 3 || calls[1].Text != "fever and chills" || calls[2].Text != "fever and chills" {
		t.Fatalf("translator calls = %+v", calls)
	}
	if got := after.Snapshot().TranslatedText; got != "fiebre y escalofríos" {
		t.Errorf("translated = %q", got)
	}
}
