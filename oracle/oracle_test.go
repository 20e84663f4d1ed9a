package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"planchette/board"
	"planchette/history"
)

func TestSpiritAnswers(t *testing.T) {
	ctx := context.Background()
	var s Spirit

	for _, q := range []string{"Is anyone there?", "will it rain tomorrow", "Do you know me"} {
		a, err := s.Answer(ctx, q, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a != "YES" && a != "NO" {
			t.Errorf("%q: expected YES or NO, got %q", q, a)
		}
		again, _ := s.Answer(ctx, q, nil)
		if again != a {
			t.Errorf("%q: expected a stable answer, got %q then %q", q, a, again)
		}
	}

	if a, _ := s.Answer(ctx, "ok, goodbye now", nil); a != "GOODBYE" {
		t.Errorf("expected GOODBYE, got %q", a)
	}

	a, err := s.Answer(ctx, "what is my name", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(board.Spell(a)) == 0 {
		t.Errorf("expected a spellable answer, got %q", a)
	}
}

func TestSpiritFarewellsAreWholeWords(t *testing.T) {
	ctx := context.Background()
	tests := map[string]bool{
		"Stop.":              true,
		"please go away!":    true,
		"bye bye":            true,
		"is it stopping?":    false,
		"cleaver":            false,
		"where do you go":    false,
		"did you leave yet?": true,
	}
	for q, farewell := range tests {
		a, err := Spirit{}.Answer(ctx, q, nil)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", q, err)
		}
		if (a == "GOODBYE") != farewell {
			t.Errorf("%q: expected farewell=%v, got %q", q, farewell, a)
		}
	}
}

func TestSpiritEmptyQuestion(t *testing.T) {
	if _, err := (Spirit{}).Answer(context.Background(), "   ", nil); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("expected ErrEmptyQuestion, got %v", err)
	}
}

func TestMusingsAreSpellable(t *testing.T) {
	for _, m := range musings {
		if board.Join(board.Spell(m)) != m {
			t.Errorf("musing %q does not survive spelling", m)
		}
	}
}

func TestNewPicksResponder(t *testing.T) {
	if _, ok := New(Settings{}).(Spirit); !ok {
		t.Errorf("expected Spirit without a key")
	}
	if _, ok := New(Settings{AnthropicKey: "k"}).(*Anthropic); !ok {
		t.Errorf("expected Anthropic with a key")
	}
}

func TestAnthropicAnswer(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "sk-test" || r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":" NOT "},{"type":"text","text":"YET\n"}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	c := NewAnthropic("sk-test", "").WithBaseURL(srv.URL + "/")
	past := []history.Message{
		{Role: history.RoleUser, Content: "hello"},
		{Role: history.RoleAssistant, Content: "HI"},
	}
	answer, err := c.Answer(context.Background(), "am I done", past)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "NOT YET" {
		t.Errorf("expected %q, got %q", "NOT YET", answer)
	}
	if got.Model != DefaultModel || got.System == "" {
		t.Errorf("unexpected request %+v", got)
	}
	if len(got.Messages) != 3 || got.Messages[2].Content != "am I done" || got.Messages[1].Role != "assistant" {
		t.Errorf("expected history plus question, got %+v", got.Messages)
	}
}

func TestAnthropicAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	_, err := NewAnthropic("bad", "m").WithBaseURL(srv.URL).Answer(context.Background(), "hello", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Type != "authentication_error" || apiErr.Retryable() {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestAnthropicRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`overloaded`))
			return
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"YES"}]}`))
	}))
	defer srv.Close()

	c := NewAnthropic("k", "m").WithBaseURL(srv.URL)
	answer, err := c.AnswerWithRetry(context.Background(), "are you there", nil, 3, time.Millisecond)
	if err != nil || answer != "YES" {
		t.Fatalf("expected YES after retries, got %q (%v)", answer, err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestAnthropicAnswerRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"NO"}]}`))
	}))
	defer srv.Close()

	r := New(Settings{AnthropicKey: "k"})
	r.(*Anthropic).WithBaseURL(srv.URL).WithRetry(DefaultAttempts, time.Millisecond)
	answer, err := r.Answer(context.Background(), "is it late", nil)
	if err != nil || answer != "NO" {
		t.Fatalf("expected NO after a retry, got %q (%v)", answer, err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestAnthropicHistoryOpensWithUser(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"content":[{"type":"text","text":"YES"}]}`))
	}))
	defer srv.Close()

	// the window starts mid-conversation, after an unanswered question
	past := []history.Message{
		{Role: history.RoleAssistant, Content: "SOON"},
		{Role: history.RoleUser, Content: "when"},
		{Role: history.RoleUser, Content: "who"},
		{Role: history.RoleAssistant, Content: "THE DOOR"},
	}
	if _, err := NewAnthropic("k", "m").WithBaseURL(srv.URL).Answer(context.Background(), "are you near", past); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Messages) != 4 || got.Messages[0].Role != "user" || got.Messages[0].Content != "when" {
		t.Errorf("expected leading assistant turns dropped, got %+v", got.Messages)
	}
}

func TestAnthropicRetryStopsOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewAnthropic("k", "m").WithBaseURL(srv.URL).AnswerWithRetry(context.Background(), "q", nil, 5, time.Millisecond)
	if err == nil || calls.Load() != 1 {
		t.Errorf("expected a single failed call, got %d calls (%v)", calls.Load(), err)
	}
}
