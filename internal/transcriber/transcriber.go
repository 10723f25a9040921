package transcriber

import (
	"context"
	"fmt"
)

// Transcriber turns a buffer of raw 16-bit mono PCM into text. Each call is
// independent; callers pass the whole utterance so far.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []byte, lang string) (string, error)
}

type Config struct {
	Provider   string
	BaseURL    string
	Model      string
	APIKeyEnv  string
	SampleRate int

	// whisper.cpp only
	ModelPath string
	Threads   int
}

func DefaultConfig() Config {
	return Config{
		Provider:   "openai",
		Model:      "whisper-1",
		APIKeyEnv:  "OPENAI_API_KEY",
		SampleRate: 16000,
	}
}

func New(config Config) (Transcriber, error) {
	if config.SampleRate <= 0 {
		config.SampleRate = 16000
	}

	switch config.Provider {
	case "openai", "":
		if config.APIKeyEnv == "" {
			return nil, fmt.Errorf("transcriber: api_key_env required for openai")
		}
		return NewOpenAIAdapter(config), nil
	case "whisper-cpp":
		if config.ModelPath == "" {
			return nil, fmt.Errorf("transcriber: model_path required for whisper-cpp")
		}
		return NewWhisperCppAdapter(config), nil
	default:
		return nil, fmt.Errorf("transcriber: unsupported provider: %s", config.Provider)
	}
}
