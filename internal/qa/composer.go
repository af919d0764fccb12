package qa

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/teakb/teakb/internal/llm"
)

// Composer turns query rows into a streamed natural-language answer. The
// fragment sequence it produces is always finite and carries at least one
// fragment; mid-stream failures end the sequence with a fixed system-error
// fragment rather than raising past the composer boundary.
type Composer struct {
	provider    llm.Provider
	model       string
	temperature float64
	logger      *slog.Logger
}

// NewComposer creates a composer bound to a provider and model.
func NewComposer(provider llm.Provider, model string, temperature float64, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		provider:    provider,
		model:       model,
		temperature: temperature,
		logger:      logger.With("component", "qa.composer"),
	}
}

// Compose streams the answer for question given the executed rows. Empty rows
// short-circuit to the fixed not-found fragment without touching the model.
// The returned channel is always closed when the sequence ends.
func (c *Composer) Compose(ctx context.Context, question string, rows []map[string]any) <-chan string {
	out := make(chan string, 10)

	if len(rows) == 0 {
		out <- MsgNotFound
		close(out)
		return out
	}

	req := llm.CompletionRequest{
		Model: c.model,
		Messages: []llm.Message{
			llm.NewSystemMessage(composerSystemPrompt),
			llm.NewUserMessage(composerUserPrompt(question, renderRows(rows))),
		},
		Temperature: c.temperature,
		Stream:      true,
	}

	chunks, err := c.provider.Stream(ctx, req)
	if err != nil {
		c.logger.Error("answer stream failed to start", "error", err)
		out <- MsgComposeError
		close(out)
		return out
	}

	go func() {
		defer close(out)
		emitted := false

		for chunk := range chunks {
			if chunk.Error != nil {
				c.logger.Error("answer stream failed mid-flight", "error", chunk.Error)
				c.deliver(ctx, out, MsgComposeError)
				return
			}
			if chunk.Delta.Content == "" {
				continue
			}
			if c.deliver(ctx, out, chunk.Delta.Content) {
				emitted = true
			} else {
				return
			}
		}

		if !emitted {
			c.deliver(ctx, out, MsgNotFound)
		}
	}()

	return out
}

// deliver sends fragment unless the caller has gone away.
func (c *Composer) deliver(ctx context.Context, out chan<- string, fragment string) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- fragment:
		return true
	}
}

// renderRows serializes rows compactly for the composer prompt. Chinese text
// stays readable because encoding/json does not escape multi-byte runes.
func renderRows(rows []map[string]any) string {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Sprintf("%v", rows)
	}
	return string(data)
}
