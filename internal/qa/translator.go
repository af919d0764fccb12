package qa

import (
	"context"
	"log/slog"
	"strings"

	"github.com/teakb/teakb/internal/llm"
	"github.com/teakb/teakb/internal/types"
)

// Translator converts a natural-language question into a Cypher query through
// an LLM. Sampling is pinned at temperature zero so repeated calls on the
// same question produce a stable query.
type Translator struct {
	provider llm.Provider
	model    string
	schema   string
	logger   *slog.Logger
}

// NewTranslator creates a translator bound to a provider, model, and schema
// description.
func NewTranslator(provider llm.Provider, model, schemaDescription string, logger *slog.Logger) *Translator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{
		provider: provider,
		model:    model,
		schema:   schemaDescription,
		logger:   logger.With("component", "qa.translator"),
	}
}

// Translate returns the Cypher query for question. The model is instructed to
// return a bare statement; residual code fences are stripped defensively. An
// errored call or empty content fails with a translation error.
func (t *Translator) Translate(ctx context.Context, question string) (string, error) {
	req := llm.CompletionRequest{
		Model: t.model,
		Messages: []llm.Message{
			llm.NewSystemMessage(translatorSystemPrompt(t.schema)),
			llm.NewUserMessage(question),
		},
		Temperature: 0,
	}

	resp, err := t.provider.Complete(ctx, req)
	if err != nil {
		return "", types.WrapError(ErrCodeTranslationFailed,
			"failed to translate question into a query", err)
	}

	cypher := stripCodeFences(resp.Message.Content)
	if cypher == "" {
		return "", types.NewError(ErrCodeTranslationFailed,
			"model returned empty query content")
	}

	t.logger.Info("question translated", "cypher", cypher)
	return cypher, nil
}

// stripCodeFences removes markdown fence markers the model may emit despite
// instructions, then trims whitespace.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```cypher", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
