package daemon

import (
	"fmt"

	"github.com/leonardotrapani/healthtranslate/internal/capture"
	"github.com/leonardotrapani/healthtranslate/internal/config"
	"github.com/leonardotrapani/healthtranslate/internal/llm"
	"github.com/leonardotrapani/healthtranslate/internal/logging"
	"github.com/leonardotrapani/healthtranslate/internal/notify"
	"github.com/leonardotrapani/healthtranslate/internal/pipeline"
	"github.com/leonardotrapani/healthtranslate/internal/playback"
	"github.com/leonardotrapani/healthtranslate/internal/transcriber"
)

// BuildFunc turns a config into pipeline components.
type BuildFunc func(cfg *config.Config) (pipeline.Deps, error)

// BuildDeps wires the real capture, completion, synthesis and notification
// backends. A transcriber that cannot be built leaves capture unavailable
// instead of failing the daemon.
func BuildDeps(cfg *config.Config) (pipeline.Deps, error) {
	translator, err := llm.NewTranslator(cfg.Completion.ToLLMConfig())
	if err != nil {
		return pipeline.Deps{}, fmt.Errorf("completion: %w", err)
	}

	deps := pipeline.Deps{
		Translator: translator,
		Notifier:   notify.New(cfg.Notifications.Type, cfg.Notifications.Enabled),
	}

	if cfg.Capture.Provider == "pipewire" {
		tr, err := transcriber.New(cfg.Capture.ToTranscriberConfig())
		if err != nil {
			logging.Sugar.Warnf("Daemon: transcriber unavailable: %v", err)
		} else {
			deps.Capability = capture.NewPipeWire(cfg.Capture.ToCaptureOptions(), tr)
		}
	}

	if cfg.Playback.Backend == "espeak-ng" {
		deps.Synthesizer = playback.NewEspeak(cfg.Playback.Speed)
	}

	return deps, nil
}

func pipelineConfig(cfg *config.Config) pipeline.Config {
	return pipeline.Config{
		SourceLanguage: cfg.Languages.Source,
		TargetLanguage: cfg.Languages.Target,
		AutoSpeak:      cfg.Playback.AutoSpeak,
	}
}

// needsRebuild reports whether a config change touches the components
// themselves rather than just the selected languages.
func needsRebuild(old, updated *config.Config) bool {
	return old.Capture != updated.Capture ||
		old.Completion != updated.Completion ||
		old.Playback != updated.Playback ||
		old.Notifications != updated.Notifications
}
