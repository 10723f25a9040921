package llm

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultBaseURL   = "https://openrouter.ai/api/v1"
	DefaultModel     = "deepseek/deepseek-r1-0528:free"
	DefaultAPIKeyEnv = "OPENROUTER_API_KEY"
	DefaultReferer   = "http://localhost:3000"
	DefaultTitle     = "Healthcare Translation App"
)

// Translator sends one correction/translation request to the completion
// endpoint and returns the raw reply content. An empty reply means the endpoint
// returned no message body.
type Translator interface {
	Complete(ctx context.Context, text, targetLanguage string) (string, error)
}

// Config holds completion endpoint configuration
type Config struct {
	BaseURL        string
	Model          string
	APIKeyEnv      string // environment variable holding the API key, read per request
	Referer        string
	Title          string
	Temperature    float32
	RequestTimeout time.Duration // 0 = no timeout
}

// DefaultConfig returns the OpenRouter configuration the app ships with.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Model:     DefaultModel,
		APIKeyEnv: DefaultAPIKeyEnv,
		Referer:   DefaultReferer,
		Title:     DefaultTitle,
	}
}

// NewTranslator creates the completion client. The API key is not required
// here: a missing key fails each request with ErrAuthenticationMissing.
func NewTranslator(cfg Config) (Translator, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("completion base URL required")
	}
	if cfg.APIKeyEnv == "" {
		return nil, fmt.Errorf("completion API key environment variable name required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return NewClient(cfg), nil
}
