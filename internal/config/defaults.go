package config

import (
	"time"

	"github.com/leonardotrapani/healthtranslate/internal/llm"
)

func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
		Languages: LanguagesConfig{
			Source: "en-US",
			Target: "es-ES",
		},
		Capture: CaptureConfig{
			Provider:          "pipewire",
			Transcriber:       "openai",
			SampleRate:        16000,
			Channels:          1,
			Format:            "s16",
			BufferSize:        8192,
			ChannelBufferSize: 30,
			MaxDuration:       2 * time.Minute,
			SilenceTimeout:    8 * time.Second,
			PauseTimeout:      1500 * time.Millisecond,
			SilenceThreshold:  0.01,
			InterimInterval:   1500 * time.Millisecond,
			Model:             "whisper-1",
			APIKeyEnv:         "OPENAI_API_KEY",
		},
		Completion: CompletionConfig{
			BaseURL:   llm.DefaultBaseURL,
			Model:     llm.DefaultModel,
			APIKeyEnv: llm.DefaultAPIKeyEnv,
			Referer:   llm.DefaultReferer,
			Title:     llm.DefaultTitle,
		},
		Playback: PlaybackConfig{
			Backend: "espeak-ng",
			Speed:   160,
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Type:    "desktop",
		},
	}
}
