package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	// ErrRateLimited reports that the model provider refused the call for quota reasons.
	ErrRateLimited = errors.New("ai: rate limited")
	// ErrEmptyResponse reports a successful call that carried no text.
	ErrEmptyResponse = errors.New("ai: empty response")
)

// StatusError is a non-2xx response from the model provider.
type StatusError struct {
	StatusCode int
	Status     string // Provider status string, e.g. RESOURCE_EXHAUSTED.
	Message    string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Status != "" {
		return fmt.Sprintf("ai: upstream status %d (%s): %s", e.StatusCode, e.Status, msg)
	}
	return fmt.Sprintf("ai: upstream status %d: %s", e.StatusCode, msg)
}

// Unwrap maps quota failures onto ErrRateLimited.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED" {
		return ErrRateLimited
	}
	return nil
}

// Options configures a GeminiClient.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration // 0 means no client-side timeout.
}

// GeminiClient calls the Gemini generateContent endpoint.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiClient constructs a GeminiClient.
func NewGeminiClient(opts Options) *GeminiClient {
	return &GeminiClient{
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      strings.TrimSpace(opts.Model),
		baseURL:    strings.TrimSuffix(strings.TrimSpace(opts.BaseURL), "/"),
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string {
	return c.model
}

// HasAPIKey reports whether an API key is configured.
func (c *GeminiClient) HasAPIKey() bool {
	return c != nil && c.apiKey != ""
}

// GenerateText sends a single-turn prompt and returns the concatenated text parts
// of the first candidate. The call is made once; failures are not retried.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("ai: client not initialized")
	}

	payload := []byte(`{}`)
	var errSet error
	if payload, errSet = sjson.SetBytes(payload, "contents.0.role", "user"); errSet != nil {
		return "", fmt.Errorf("ai: build request: %w", errSet)
	}
	if payload, errSet = sjson.SetBytes(payload, "contents.0.parts.0.text", prompt); errSet != nil {
		return "", fmt.Errorf("ai: build request: %w", errSet)
	}
	if payload, errSet = sjson.SetBytes(payload, "generationConfig.responseMimeType", "application/json"); errSet != nil {
		return "", fmt.Errorf("ai: build request: %w", errSet)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if errReq != nil {
		return "", fmt.Errorf("ai: create request: %w", errReq)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		return "", fmt.Errorf("ai: request failed: %w", errDo)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.WithError(errClose).Debug("ai: close response body")
		}
	}()

	body, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return "", fmt.Errorf("ai: read response: %w", errRead)
	}
	log.WithFields(log.Fields{
		"model":   c.model,
		"status":  resp.StatusCode,
		"latency": time.Since(start).String(),
	}).Debug("ai: generateContent")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{
			StatusCode: resp.StatusCode,
			Status:     gjson.GetBytes(body, "error.status").String(),
			Message:    gjson.GetBytes(body, "error.message").String(),
		}
	}

	var sb strings.Builder
	gjson.GetBytes(body, "candidates.0.content.parts").ForEach(func(_, part gjson.Result) bool {
		sb.WriteString(part.Get("text").String())
		return true
	})
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
