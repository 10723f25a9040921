package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/leonardotrapani/healthtranslate/internal/config"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string) error
		input   string
		wantErr bool
	}{
		{"duration ok", validateDuration, "1.5s", false},
		{"duration zero", validateDuration, "0s", false},
		{"duration garbage", validateDuration, "soon", true},
		{"duration negative", validateDuration, "-2s", true},
		{"float ok", validateFloat(0, 2), " 0.7 ", false},
		{"float high", validateFloat(0, 2), "2.5", true},
		{"float garbage", validateFloat(0, 1), "x", true},
		{"int ok", validateInt(80, 450), "160", false},
		{"int low", validateInt(80, 450), "20", true},
		{"int fraction", validateInt(0, 64), "1.5", true},
		{"required ok", required("model"), "gpt", false},
		{"required blank", required("model"), "  ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseFallbacks(t *testing.T) {
	if got := parseDuration("3s", time.Second); got != 3*time.Second {
		t.Errorf("parseDuration = %v", got)
	}
	if got := parseDuration("bad", time.Second); got != time.Second {
		t.Errorf("parseDuration fallback = %v", got)
	}
	if got := parseFloat("bad", 0.2); got != 0.2 {
		t.Errorf("parseFloat fallback = %v", got)
	}
	if got := parseInt(" 12 ", 0); got != 12 {
		t.Errorf("parseInt = %v", got)
	}
}

func TestMenuLabels(t *testing.T) {
	cfg := config.DefaultConfig()

	if got := formatLanguagesLabel(cfg); got != "Languages (English → Spanish)" {
		t.Errorf("languages label = %q", got)
	}
	if got := formatCaptureLabel(cfg); got != "Speech capture (openai)" {
		t.Errorf("capture label = %q", got)
	}
	if got := formatPlaybackLabel(cfg); got != "Playback (espeak-ng)" {
		t.Errorf("playback label = %q", got)
	}

	cfg.Capture.Provider = "none"
	cfg.Playback.AutoSpeak = true
	cfg.Notifications.Enabled = false
	if got := formatCaptureLabel(cfg); got != "Speech capture (disabled)" {
		t.Errorf("capture label = %q", got)
	}
	if got := formatPlaybackLabel(cfg); got != "Playback (espeak-ng, auto)" {
		t.Errorf("playback label = %q", got)
	}
	if got := formatNotificationsLabel(cfg); got != "Notifications (disabled)" {
		t.Errorf("notifications label = %q", got)
	}
}

func TestSummaryLines(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Capture.Transcriber = "whisper-cpp"
	cfg.Capture.ModelPath = "/models/base.bin"
	cfg.Playback.Backend = "none"

	got := map[string]string{}
	for _, line := range summaryLines(cfg) {
		got[line[0]] = line[1]
	}

	if !strings.Contains(got["Languages:"], "Spanish (es-ES)") {
		t.Errorf("languages = %q", got["Languages:"])
	}
	if got["API key:"] != "$OPENROUTER_API_KEY" {
		t.Errorf("api key = %q", got["API key:"])
	}
	if got["Capture:"] != "whisper-cpp /models/base.bin" {
		t.Errorf("capture = %q", got["Capture:"])
	}
	if got["Playback:"] != "disabled" {
		t.Errorf("playback = %q", got["Playback:"])
	}
	if got["Notifications:"] != "desktop" {
		t.Errorf("notifications = %q", got["Notifications:"])
	}
}

func TestLanguageOptionsCoverCatalog(t *testing.T) {
	options := languageOptions()
	if len(options) == 0 {
		t.Fatal("no language options")
	}
	found := false
	for _, opt := range options {
		if opt.Value == "es-ES" {
			found = true
		}
	}
	if !found {
		t.Error("es-ES missing from options")
	}
}
