// Package oracle produces the answers the planchette spells.
package oracle

import (
	"context"
	"errors"

	"planchette/history"
)

var ErrEmptyQuestion = errors.New("empty question")

// Responder answers a question given the conversation so far (oldest first)
type Responder interface {
	Answer(ctx context.Context, question string, past []history.Message) (string, error)
}

// Settings selects and configures a Responder
type Settings struct {
	AnthropicKey string
	Model        string
}

// New returns the Anthropic responder when a key is configured and the
// offline spirit otherwise
func New(s Settings) Responder {
	if s.AnthropicKey != "" {
		return NewAnthropic(s.AnthropicKey, s.Model)
	}
	return Spirit{}
}
