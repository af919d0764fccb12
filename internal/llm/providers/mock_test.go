package providers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teakb/teakb/internal/llm"
	"github.com/teakb/teakb/internal/types"
)

func testRequest(content string) llm.CompletionRequest {
	return llm.CompletionRequest{
		Model:    "mock-model",
		Messages: []llm.Message{llm.NewUserMessage(content)},
	}
}

func drain(t *testing.T, ch <-chan llm.StreamChunk) (string, error) {
	t.Helper()
	var sb strings.Builder
	for chunk := range ch {
		if chunk.Error != nil {
			return sb.String(), chunk.Error
		}
		sb.WriteString(chunk.Delta.Content)
	}
	return sb.String(), nil
}

func TestMockProvider_ServesResponsesInRotation(t *testing.T) {
	provider := NewMockProvider([]string{"first", "second"})

	resp, err := provider.Complete(context.Background(), testRequest("a"))
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Message.Content)
	assert.Equal(t, llm.RoleAssistant, resp.Message.Role)

	ch, err := provider.Stream(context.Background(), testRequest("b"))
	require.NoError(t, err)
	content, streamErr := drain(t, ch)
	require.NoError(t, streamErr)
	assert.Equal(t, "second", content)

	// Rotation wraps around.
	resp, err = provider.Complete(context.Background(), testRequest("c"))
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Message.Content)

	calls := provider.GetCalls()
	require.Len(t, calls, 3)
	assert.Equal(t, []string{"Complete", "Stream", "Complete"},
		[]string{calls[0].Method, calls[1].Method, calls[2].Method})
}

func TestMockProvider_StreamChunksOnRuneBoundaries(t *testing.T) {
	answer := "夏季推荐金银花茶，功效为清热解毒。"
	provider := NewMockProvider([]string{answer})

	ch, err := provider.Stream(context.Background(), testRequest("q"))
	require.NoError(t, err)

	var fragments []string
	for chunk := range ch {
		require.NoError(t, chunk.Error)
		if chunk.Delta.Content != "" {
			fragments = append(fragments, chunk.Delta.Content)
		}
	}

	assert.Greater(t, len(fragments), 1)
	assert.Equal(t, answer, strings.Join(fragments, ""))
	for _, fragment := range fragments {
		assert.True(t, utf8.ValidString(fragment))
	}
}

func TestMockProvider_FailStreamMidwayIsOneShot(t *testing.T) {
	provider := NewMockProvider([]string{"这是一段足够长的回答文本，会被切成多块。"})
	provider.FailStreamMidway(errors.New("stream reset"))

	ch, err := provider.Stream(context.Background(), testRequest("q"))
	require.NoError(t, err)
	partial, streamErr := drain(t, ch)
	require.Error(t, streamErr)
	assert.NotEmpty(t, partial)

	// The injected failure is consumed; the next stream completes.
	ch, err = provider.Stream(context.Background(), testRequest("q"))
	require.NoError(t, err)
	_, streamErr = drain(t, ch)
	assert.NoError(t, streamErr)
}

func TestMockProvider_NoResponsesConfigured(t *testing.T) {
	provider := NewMockProvider(nil)

	_, err := provider.Complete(context.Background(), testRequest("q"))
	require.Error(t, err)
	assert.Equal(t, llm.ErrCodeEmptyResponse, types.CodeOf(err))
}

func TestNewProvider_UnknownProvider(t *testing.T) {
	_, err := NewProvider(llm.ProviderConfig{Provider: "bard"})
	require.Error(t, err)
	assert.Equal(t, llm.ErrCodeProviderNotFound, types.CodeOf(err))
}

func TestNewProvider_Mock(t *testing.T) {
	provider, err := NewProvider(llm.ProviderConfig{Provider: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", provider.Name())
}

func TestToSchemaMessages(t *testing.T) {
	messages := []llm.Message{
		llm.NewSystemMessage("你是中药茶专家。"),
		llm.NewUserMessage("夏季适合喝什么茶？"),
		llm.NewAssistantMessage("推荐金银花茶。"),
	}

	converted := toSchemaMessages(messages)
	require.Len(t, converted, 3)
	assert.Equal(t, "system", string(converted[0].Role))
	assert.Equal(t, "human", string(converted[1].Role))
	assert.Equal(t, "ai", string(converted[2].Role))
}

func TestSendChunk_Delivers(t *testing.T) {
	ch := make(chan llm.StreamChunk, 1)
	sendChunk(context.Background(), ch, llm.StreamChunk{Delta: llm.StreamDelta{Content: "ok"}})

	chunk := <-ch
	assert.Equal(t, "ok", chunk.Delta.Content)
}

func TestSendChunk_CancelledContextDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Full buffer and no reader: the send must still return.
	ch := make(chan llm.StreamChunk, 1)
	ch <- llm.StreamChunk{}

	done := make(chan struct{})
	go func() {
		sendChunk(ctx, ch, llm.StreamChunk{Error: errors.New("late failure")})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("send blocked on a severed consumer")
	}
}

func TestBuildCallOptions_ForwardsZeroTemperature(t *testing.T) {
	opts := buildCallOptions(llm.CompletionRequest{Model: "gpt-3.5-turbo", Temperature: 0})
	// Temperature plus model; a zero temperature is still an option.
	assert.Len(t, opts, 2)
}
