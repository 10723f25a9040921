package notify

import (
	"github.com/gen2brain/beeep"
	"go.uber.org/zap"

	"github.com/leonardotrapani/healthtranslate/internal/logging"
)

const appName = "HealthTranslate"

type Notifier interface {
	RecordingStarted()
	RecordingEnded()
	TranslationReady(text string)
	Error(msg string)
	Notify(title, message string)
}

// New returns the notifier for a config type: "desktop", "log" or "none".
func New(kind string, enabled bool) Notifier {
	if !enabled {
		return Nop{}
	}
	switch kind {
	case "log":
		return Log{}
	case "none":
		return Nop{}
	default:
		return Desktop{}
	}
}

// sendDesktop is swapped in tests.
var sendDesktop = func(title, message string) error {
	return beeep.Notify(title, message, "")
}

type Desktop struct{}

func (d Desktop) RecordingStarted() { d.Notify("Recording", "Listening...") }
func (d Desktop) RecordingEnded()   { d.Notify("Recording stopped", "Translating...") }

func (d Desktop) TranslationReady(text string) {
	d.Notify("Translation ready", truncate(text, 100))
}

func (Desktop) Error(msg string) {
	if err := sendDesktop(appName+" Error", msg); err != nil {
		logging.Sugar.Warnf("Notify: failed to send error notification: %v", err)
	}
}

func (Desktop) Notify(title, message string) {
	if title != "" {
		title = appName + ": " + title
	} else {
		title = appName
	}
	if err := sendDesktop(title, message); err != nil {
		logging.Sugar.Warnf("Notify: failed to send notification: %v", err)
	}
}

// Log writes notifications to the structured log instead of the desktop.
type Log struct {
	Logger *zap.Logger
}

func (l Log) logger() *zap.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return logging.Logger.Named("notify")
}

func (l Log) RecordingStarted() { l.Notify("Recording", "started") }
func (l Log) RecordingEnded()   { l.Notify("Recording", "stopped") }

func (l Log) TranslationReady(text string) {
	l.Notify("Translation ready", truncate(text, 100))
}

func (l Log) Error(msg string) {
	l.logger().Error(appName+" Error", zap.String("message", msg))
}

func (l Log) Notify(title, message string) {
	l.logger().Info(appName+": "+title, zap.String("message", message))
}

// Nop is a Notifier that does absolutely nothing.
// Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) RecordingStarted()        {}
func (Nop) RecordingEnded()          {}
func (Nop) TranslationReady(string)  {}
func (Nop) Error(msg string)         {}
func (Nop) Notify(title, msg string) {}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
