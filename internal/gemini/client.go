// Package gemini provides a client for the Gemini generateContent endpoint
// used by the Foodify assistant.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hammamikhairi/foodify/internal/domain"
	"github.com/hammamikhairi/foodify/internal/logger"
)

// DefaultBaseURL is the public Generative Language API.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

// Compile-time interface check.
var _ domain.Generator = (*Client)(nil)

// ── Wire types ───────────────────────────────────────────────────

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
}

// SafetySetting is a harm category with its blocking threshold.
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type request struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []SafetySetting  `json:"safetySettings,omitempty"`
}

type response struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// DefaultSafetySettings blocks medium-and-above content in every category.
func DefaultSafetySettings() []SafetySetting {
	categories := []string{
		"HARM_CATEGORY_HARASSMENT",
		"HARM_CATEGORY_HATE_SPEECH",
		"HARM_CATEGORY_SEXUALLY_EXPLICIT",
		"HARM_CATEGORY_DANGEROUS_CONTENT",
	}
	out := make([]SafetySetting, len(categories))
	for i, c := range categories {
		out[i] = SafetySetting{Category: c, Threshold: "BLOCK_MEDIUM_AND_ABOVE"}
	}
	return out
}

// ── Client ───────────────────────────────────────────────────────

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithModel overrides the default model name.
func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) ClientOption {
	return func(c *Client) { c.cfg.Temperature = t }
}

// WithMaxTokens sets the response token limit.
func WithMaxTokens(n int) ClientOption {
	return func(c *Client) { c.cfg.MaxOutputTokens = n }
}

// WithSafetySettings replaces the safety thresholds.
func WithSafetySettings(s []SafetySetting) ClientOption {
	return func(c *Client) { c.safety = s }
}

// WithHTTPTimeout sets the HTTP client timeout.
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// Client calls models/{model}:generateContent with an API key.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	cfg     generationConfig
	safety  []SafetySetting
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a Gemini client.
func NewClient(apiKey string, log *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		model:   DefaultModel,
		cfg: generationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 1024,
			TopP:            0.8,
			TopK:            40,
		},
		safety: DefaultSafetySettings(),
		http:   &http.Client{Timeout: 15 * time.Second},
		log:    log.With("component", "gemini"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Generate sends prompt as a single user turn and returns the reply text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	const op = "gemini generate"

	body := request{
		Contents:         []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: c.cfg,
		SafetySettings:   c.safety,
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", &domain.APIError{Op: op, Message: "marshal payload: " + err.Error(), Permanent: true}
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", &domain.APIError{Op: op, Message: "create request: " + err.Error(), Permanent: true}
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug("POST models/%s:generateContent (%d bytes)", c.model, len(jsonData))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &domain.NetworkError{Op: op, Err: scrubKey(err, c.apiKey)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		var er errorResponse
		if json.Unmarshal(respBody, &er) == nil && er.Error.Message != "" {
			msg = er.Error.Message
		}
		return "", &domain.APIError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}

	var result response
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &domain.APIError{Op: op, StatusCode: resp.StatusCode, Message: "unmarshal response: " + err.Error()}
	}

	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return "", &domain.APIError{Op: op, StatusCode: resp.StatusCode, Message: "prompt blocked: " + result.PromptFeedback.BlockReason, Permanent: true}
	}
	if len(result.Candidates) == 0 {
		return "", &domain.APIError{Op: op, StatusCode: resp.StatusCode, Message: "empty response (no candidates)", Permanent: true}
	}

	cand := result.Candidates[0]
	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		sb.WriteString(p.Text)
	}
	reply := strings.TrimSpace(sb.String())
	if reply == "" {
		reason := cand.FinishReason
		if reason == "" {
			reason = "no text"
		}
		return "", &domain.APIError{Op: op, StatusCode: resp.StatusCode, Message: "empty candidate: " + reason, Permanent: true}
	}

	c.log.Debug("reply (%d chars): %s", len(reply), truncate(reply, 120))
	return reply, nil
}

// scrubKey removes the API key from transport errors, which quote the URL.
func scrubKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
