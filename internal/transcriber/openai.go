package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/leonardotrapani/healthtranslate/internal/logging"
)

// OpenAIAdapter sends audio to an OpenAI-compatible /audio/transcriptions
// endpoint. Groq and other Whisper hosts work by changing BaseURL.
type OpenAIAdapter struct {
	config Config
}

func NewOpenAIAdapter(config Config) *OpenAIAdapter {
	return &OpenAIAdapter{config: config}
}

func (a *OpenAIAdapter) Transcribe(ctx context.Context, pcm []byte, lang string) (string, error) {
	if len(pcm) == 0 {
		return "", nil
	}

	apiKey := os.Getenv(a.config.APIKeyEnv)
	if apiKey == "" {
		return "", fmt.Errorf("transcriber: %s not set", a.config.APIKeyEnv)
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if a.config.BaseURL != "" {
		clientConfig.BaseURL = a.config.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	req := openai.AudioRequest{
		Model:    a.config.Model,
		Reader:   bytes.NewReader(encodeWAV(pcm, a.config.SampleRate)),
		FilePath: "audio.wav",
		Language: lang,
	}

	start := time.Now()
	resp, err := client.CreateTranscription(ctx, req)
	duration := time.Since(start)
	if err != nil {
		logging.Sugar.Warnf("Transcriber: whisper call failed after %v: %v", duration, err)
		return "", fmt.Errorf("whisper transcription: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	logging.Sugar.Debugf("Transcriber: %d bytes in %v: %q", len(pcm), duration, text)
	return text, nil
}
