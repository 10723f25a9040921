package config

import (
	"fmt"
	"net"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/leonardotrapani/healthtranslate/internal/language"
)

func (c *Config) Validate() error {
	if err := c.General.validate(); err != nil {
		return fmt.Errorf("general: %w", err)
	}
	if err := c.Languages.validate(); err != nil {
		return fmt.Errorf("languages: %w", err)
	}
	if err := c.Capture.validate(); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if err := c.Completion.validate(); err != nil {
		return fmt.Errorf("completion: %w", err)
	}
	if err := c.Playback.validate(); err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	if err := c.Notifications.validate(); err != nil {
		return fmt.Errorf("notifications: %w", err)
	}
	if err := c.Metrics.validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}

func (g GeneralConfig) validate() error {
	if g.LogLevel != "" {
		if _, err := zapcore.ParseLevel(strings.ToLower(g.LogLevel)); err != nil {
			return fmt.Errorf("invalid log_level: %s", g.LogLevel)
		}
	}
	switch g.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid log_format: %s (must be console or json)", g.LogFormat)
	}
	return nil
}

func (l LanguagesConfig) validate() error {
	if !language.IsValid(l.Source) {
		return fmt.Errorf("invalid source language: %q", l.Source)
	}
	if !language.IsValid(l.Target) {
		return fmt.Errorf("invalid target language: %q", l.Target)
	}
	return nil
}

func (c CaptureConfig) validate() error {
	switch c.Provider {
	case "none":
		return nil
	case "pipewire":
	default:
		return fmt.Errorf("invalid provider: %s (must be pipewire or none)", c.Provider)
	}

	switch c.Transcriber {
	case "openai":
		if c.APIKeyEnv == "" {
			return fmt.Errorf("api_key_env required for openai transcriber")
		}
	case "whisper-cpp":
		if c.ModelPath == "" {
			return fmt.Errorf("model_path required for whisper-cpp transcriber")
		}
		if c.Threads < 0 {
			return fmt.Errorf("invalid threads: %d", c.Threads)
		}
	default:
		return fmt.Errorf("invalid transcriber: %s (must be openai or whisper-cpp)", c.Transcriber)
	}

	if err := c.ToRecordingConfig().Validate(); err != nil {
		return err
	}

	switch {
	case c.MaxDuration < 0:
		return fmt.Errorf("invalid max_duration: %v", c.MaxDuration)
	case c.SilenceTimeout <= 0:
		return fmt.Errorf("invalid silence_timeout: %v", c.SilenceTimeout)
	case c.PauseTimeout <= 0:
		return fmt.Errorf("invalid pause_timeout: %v", c.PauseTimeout)
	case c.InterimInterval <= 0:
		return fmt.Errorf("invalid interim_interval: %v", c.InterimInterval)
	case c.SilenceThreshold < 0 || c.SilenceThreshold > 1:
		return fmt.Errorf("invalid silence_threshold: %v (must be between 0 and 1)", c.SilenceThreshold)
	}
	return nil
}

func (c CompletionConfig) validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("base_url required")
	case c.Model == "":
		return fmt.Errorf("model required")
	case c.APIKeyEnv == "":
		return fmt.Errorf("api_key_env required")
	case c.Temperature < 0 || c.Temperature > 2:
		return fmt.Errorf("invalid temperature: %v (must be between 0 and 2)", c.Temperature)
	case c.RequestTimeout < 0:
		return fmt.Errorf("invalid request_timeout: %v", c.RequestTimeout)
	}
	return nil
}

func (p PlaybackConfig) validate() error {
	switch p.Backend {
	case "none":
		return nil
	case "espeak-ng":
	default:
		return fmt.Errorf("invalid backend: %s (must be espeak-ng or none)", p.Backend)
	}
	if p.Speed != 0 && (p.Speed < 80 || p.Speed > 450) {
		return fmt.Errorf("invalid speed: %d (must be between 80 and 450)", p.Speed)
	}
	return nil
}

func (n NotificationsConfig) validate() error {
	switch n.Type {
	case "", "desktop", "log", "none":
		return nil
	}
	return fmt.Errorf("invalid type: %s (must be desktop, log, or none)", n.Type)
}

func (m MetricsConfig) validate() error {
	if m.ListenAddr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(m.ListenAddr); err != nil {
		return fmt.Errorf("invalid listen_addr %q: %w", m.ListenAddr, err)
	}
	return nil
}
