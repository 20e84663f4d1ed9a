package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"planchette/history"
)

const (
	DefaultBaseURL  = "https://api.anthropic.com"
	DefaultModel    = "claude-sonnet-4-5"
	DefaultAttempts = 3
	DefaultBackoff  = 500 * time.Millisecond
)

const systemPrompt = `You are a spirit speaking through a talking board. The board can only spell
the letters A-Z, the digits 0-9 and spaces, and has the words YES, NO and GOODBYE printed on it.
Answer in at most five short words, uppercase, without punctuation.
Answer yes/no questions with exactly YES or NO. When the sitter says farewell, answer GOODBYE.`

// Anthropic answers through the Anthropic Messages API
type Anthropic struct {
	apiKey     string
	model      string
	baseURL    string
	maxTokens  int
	attempts   int
	backoff    time.Duration
	httpClient *http.Client
}

// NewAnthropic creates a new Anthropic API client
func NewAnthropic(apiKey, model string) *Anthropic {
	if model == "" {
		model = DefaultModel
	}
	return &Anthropic{
		apiKey:    apiKey,
		model:     model,
		baseURL:   DefaultBaseURL,
		maxTokens: 64,
		attempts:  DefaultAttempts,
		backoff:   DefaultBackoff,
		httpClient: &http.Client{
			Timeout: time.Minute,
		},
	}
}

// WithBaseURL points the client at another endpoint
func (c *Anthropic) WithBaseURL(u string) *Anthropic {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// WithRetry sets how often Answer tries and the first backoff delay
func (c *Anthropic) WithRetry(attempts int, base time.Duration) *Anthropic {
	c.attempts, c.backoff = max(attempts, 1), base
	return c
}

type anthropicRequest struct {
	Model     string         `json:"model"`
	MaxTokens int            `json:"max_tokens"`
	System    string         `json:"system,omitempty"`
	Messages  []anthropicMsg `json:"messages"`
}

type anthropicMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError is a non-200 reply from the API
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s - %s", e.Status, e.Type, e.Message)
}

// Retryable reports whether the request may succeed if sent again
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// Answer asks the model, retrying rate limits and server errors
func (c *Anthropic) Answer(ctx context.Context, question string, past []history.Message) (string, error) {
	return c.AnswerWithRetry(ctx, question, past, c.attempts, c.backoff)
}

func (c *Anthropic) send(ctx context.Context, question string, past []history.Message) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	// the conversation must open with the sitter
	for len(past) > 0 && past[0].Role != history.RoleUser {
		past = past[1:]
	}

	msgs := make([]anthropicMsg, 0, len(past)+1)
	for _, m := range past {
		msgs = append(msgs, anthropicMsg{Role: string(m.Role), Content: m.Content})
	}
	msgs = append(msgs, anthropicMsg{Role: string(history.RoleUser), Content: question})

	body, err := json.Marshal(anthropicRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    systemPrompt,
		Messages:  msgs,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode, Message: string(raw)}
		var e anthropicError
		if json.Unmarshal(raw, &e) == nil && e.Error.Message != "" {
			apiErr.Type, apiErr.Message = e.Error.Type, e.Error.Message
		}
		return "", apiErr
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	var b strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// AnswerWithRetry retries retryable failures with exponential backoff
// starting at base
func (c *Anthropic) AnswerWithRetry(ctx context.Context, question string, past []history.Message, attempts int, base time.Duration) (string, error) {
	attempts = max(attempts, 1)
	var lastErr error
	for i := 0; i < attempts; i++ {
		answer, err := c.send(ctx, question, past)
		if err == nil {
			return answer, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var apiErr *APIError
		if errors.Is(err, ErrEmptyQuestion) || (errors.As(err, &apiErr) && !apiErr.Retryable()) {
			return "", err
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-time.After(base << uint(i)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
