package config

import (
	"github.com/leonardotrapani/healthtranslate/internal/capture"
	"github.com/leonardotrapani/healthtranslate/internal/llm"
	"github.com/leonardotrapani/healthtranslate/internal/logging"
	"github.com/leonardotrapani/healthtranslate/internal/recording"
	"github.com/leonardotrapani/healthtranslate/internal/transcriber"
)

func (c CaptureConfig) ToRecordingConfig() recording.Config {
	return recording.Config{
		SampleRate:        c.SampleRate,
		Channels:          c.Channels,
		Format:            c.Format,
		BufferSize:        c.BufferSize,
		Device:            c.Device,
		ChannelBufferSize: c.ChannelBufferSize,
	}
}

func (c CaptureConfig) ToCaptureOptions() capture.Options {
	return capture.Options{
		Recording:        c.ToRecordingConfig(),
		MaxDuration:      c.MaxDuration,
		SilenceTimeout:   c.SilenceTimeout,
		PauseTimeout:     c.PauseTimeout,
		SilenceThreshold: c.SilenceThreshold,
		InterimInterval:  c.InterimInterval,
	}
}

func (c CaptureConfig) ToTranscriberConfig() transcriber.Config {
	return transcriber.Config{
		Provider:   c.Transcriber,
		BaseURL:    c.BaseURL,
		Model:      c.Model,
		APIKeyEnv:  c.APIKeyEnv,
		SampleRate: c.SampleRate,
		ModelPath:  c.ModelPath,
		Threads:    c.Threads,
	}
}

func (c CompletionConfig) ToLLMConfig() llm.Config {
	return llm.Config{
		BaseURL:        c.BaseURL,
		Model:          c.Model,
		APIKeyEnv:      c.APIKeyEnv,
		Referer:        c.Referer,
		Title:          c.Title,
		Temperature:    c.Temperature,
		RequestTimeout: c.RequestTimeout,
	}
}

func (g GeneralConfig) ToLogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:  g.LogLevel,
		Format: g.LogFormat,
	}
}
