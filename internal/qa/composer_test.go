package qa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teakb/teakb/internal/llm/providers"
)

func collect(t *testing.T, ch <-chan string) []string {
	t.Helper()
	var fragments []string
	for fragment := range ch {
		fragments = append(fragments, fragment)
	}
	return fragments
}

func TestComposer_EmptyRowsShortCircuit(t *testing.T) {
	provider := providers.NewMockProvider([]string{"should never stream"})
	composer := NewComposer(provider, "gpt-3.5-turbo", 0.7, testLogger())

	fragments := collect(t, composer.Compose(context.Background(), "夏季适合喝什么茶？", nil))

	assert.Equal(t, []string{MsgNotFound}, fragments)
	// The model is never invoked for an empty result.
	assert.Empty(t, provider.GetCalls())
}

func TestComposer_StreamsFragmentsInOrder(t *testing.T) {
	answer := "推荐金银花茶，功效为清热解毒；荷叶茶，功效为消暑利湿。"
	provider := providers.NewMockProvider([]string{answer})
	composer := NewComposer(provider, "gpt-3.5-turbo", 0.7, testLogger())

	rows := []map[string]any{
		{"t.name": "金银花茶", "t.efficacy": "清热解毒"},
		{"t.name": "荷叶茶", "t.efficacy": "消暑利湿"},
	}
	fragments := collect(t, composer.Compose(context.Background(), "夏季适合喝什么茶？", rows))

	require.NotEmpty(t, fragments)
	assert.Greater(t, len(fragments), 1)
	assert.Equal(t, answer, strings.Join(fragments, ""))

	// The composer request embeds the question and the serialized rows.
	req, ok := provider.LastRequest()
	require.True(t, ok)
	assert.Contains(t, req.Messages[1].Content, "夏季适合喝什么茶？")
	assert.Contains(t, req.Messages[1].Content, "金银花茶")
}

func TestComposer_StartFailureYieldsSingleErrorFragment(t *testing.T) {
	provider := providers.NewMockProvider([]string{"unused"})
	provider.SetStreamError(errors.New("connection refused"))
	composer := NewComposer(provider, "gpt-3.5-turbo", 0.7, testLogger())

	rows := []map[string]any{{"t.name": "金银花茶"}}
	fragments := collect(t, composer.Compose(context.Background(), "金银花茶有什么功效？", rows))

	assert.Equal(t, []string{MsgComposeError}, fragments)
}

func TestComposer_MidStreamErrorTerminatesWithErrorFragment(t *testing.T) {
	provider := providers.NewMockProvider([]string{"推荐金银花茶，功效为清热解毒，适合夏季饮用。"})
	provider.FailStreamMidway(errors.New("stream reset"))
	composer := NewComposer(provider, "gpt-3.5-turbo", 0.7, testLogger())

	rows := []map[string]any{{"t.name": "金银花茶"}}
	fragments := collect(t, composer.Compose(context.Background(), "金银花茶有什么功效？", rows))

	// Some content, then exactly one terminal error fragment, then the
	// channel closes.
	require.NotEmpty(t, fragments)
	assert.Equal(t, MsgComposeError, fragments[len(fragments)-1])
	for _, fragment := range fragments[:len(fragments)-1] {
		assert.NotEqual(t, MsgComposeError, fragment)
	}
}
