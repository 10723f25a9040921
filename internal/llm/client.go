package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/leonardotrapani/healthtranslate/internal/logging"
	"github.com/sashabaranov/go-openai"
)

// Client implements Translator against any OpenAI-compatible chat completions
// API (OpenRouter by default).
type Client struct {
	config Config
	doer   *http.Client
}

// NewClient creates a completion client. Referer and title are sent as the
// HTTP-Referer and X-Title headers OpenRouter uses for attribution.
func NewClient(cfg Config) *Client {
	return &Client{
		config: cfg,
		doer: &http.Client{
			Transport: &headerTransport{
				base: http.DefaultTransport,
				headers: map[string]string{
					"HTTP-Referer": cfg.Referer,
					"X-Title":      cfg.Title,
				},
			},
		},
	}
}

func (c *Client) Complete(ctx context.Context, text, targetLanguage string) (string, error) {
	apiKey := os.Getenv(c.config.APIKeyEnv)
	if apiKey == "" {
		return "", fmt.Errorf("%w: set %s", ErrAuthenticationMissing, c.config.APIKeyEnv)
	}

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = c.config.BaseURL
	clientConfig.HTTPClient = c.doer
	client := openai.NewClientWithConfig(clientConfig)

	req := openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: BuildSystemPrompt(targetLanguage)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: c.config.Temperature,
	}

	if c.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)
	if err != nil {
		logging.Sugar.Warnf("LLM: completion failed after %v: %v", duration, err)
		return "", &EndpointError{StatusCode: statusCode(err), Err: err}
	}

	if len(resp.Choices) == 0 {
		logging.Sugar.Warnf("LLM: completion returned no choices after %v", duration)
		return "", nil
	}

	content := resp.Choices[0].Message.Content
	logging.Sugar.Debugf("LLM: completion in %v (%s -> %d chars)", duration, targetLanguage, len(content))
	return content, nil
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(req)
}
