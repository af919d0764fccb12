package providers

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/teakb/teakb/internal/llm"
	"github.com/teakb/teakb/internal/types"
)

// MockCall represents a recorded call to the mock provider
type MockCall struct {
	Method  string
	Request llm.CompletionRequest
}

// MockProvider implements llm.Provider for testing. Responses are served in
// rotation; errors can be injected both at call time and mid-stream.
type MockProvider struct {
	mu            sync.Mutex
	responses     []string
	responseIndex int
	calls         []MockCall

	completeErr  error
	streamErr    error
	midStreamErr error
}

// NewMockProvider creates a new mock provider
func NewMockProvider(responses []string) *MockProvider {
	return &MockProvider{
		responses: responses,
		calls:     make([]MockCall, 0),
	}
}

// SetCompleteError makes Complete fail with err
func (p *MockProvider) SetCompleteError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completeErr = err
}

// SetStreamError makes Stream fail immediately with err
func (p *MockProvider) SetStreamError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.streamErr = err
}

// FailStreamMidway makes the next stream emit part of its response, then an
// error chunk, then close.
func (p *MockProvider) FailStreamMidway(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.midStreamErr = err
}

// Name returns the provider name
func (p *MockProvider) Name() string {
	return "mock"
}

// Complete generates a completion
func (p *MockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.calls = append(p.calls, MockCall{Method: "Complete", Request: req})

	if p.completeErr != nil {
		err := p.completeErr
		p.mu.Unlock()
		return nil, err
	}

	if len(p.responses) == 0 {
		p.mu.Unlock()
		return nil, types.NewError(llm.ErrCodeEmptyResponse, "mock has no responses configured")
	}

	response := p.responses[p.responseIndex%len(p.responses)]
	p.responseIndex++
	p.mu.Unlock()

	return &llm.CompletionResponse{
		ID:    uuid.New().String(),
		Model: req.Model,
		Message: llm.Message{
			Role:    llm.RoleAssistant,
			Content: response,
		},
		FinishReason: llm.FinishReasonStop,
	}, nil
}

// Stream generates a streaming completion
func (p *MockProvider) Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	p.mu.Lock()
	p.calls = append(p.calls, MockCall{Method: "Stream", Request: req})

	if p.streamErr != nil {
		err := p.streamErr
		p.mu.Unlock()
		return nil, err
	}

	if len(p.responses) == 0 {
		p.mu.Unlock()
		return nil, types.NewError(llm.ErrCodeEmptyResponse, "mock has no responses configured")
	}

	response := p.responses[p.responseIndex%len(p.responses)]
	p.responseIndex++
	midErr := p.midStreamErr
	p.midStreamErr = nil
	p.mu.Unlock()

	chunkChan := make(chan llm.StreamChunk, 10)

	go func() {
		defer close(chunkChan)

		// Chunk on rune boundaries so multi-byte text never splits.
		runes := []rune(response)
		chunkSize := 5
		for i := 0; i < len(runes); i += chunkSize {
			if midErr != nil && i > 0 {
				select {
				case <-ctx.Done():
				case chunkChan <- llm.StreamChunk{Error: midErr}:
				}
				return
			}

			end := i + chunkSize
			if end > len(runes) {
				end = len(runes)
			}

			select {
			case <-ctx.Done():
				return
			case chunkChan <- llm.StreamChunk{
				Delta: llm.StreamDelta{
					Content: string(runes[i:end]),
				},
			}:
			}
		}

		if midErr != nil {
			select {
			case <-ctx.Done():
			case chunkChan <- llm.StreamChunk{Error: midErr}:
			}
			return
		}

		select {
		case <-ctx.Done():
		case chunkChan <- llm.StreamChunk{
			FinishReason: llm.FinishReasonStop,
		}:
		}
	}()

	return chunkChan, nil
}

// Health checks the provider health
func (p *MockProvider) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("")
}

// GetCalls returns all recorded calls
func (p *MockProvider) GetCalls() []MockCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	calls := make([]MockCall, len(p.calls))
	copy(calls, p.calls)
	return calls
}

// LastRequest returns the most recently recorded request
func (p *MockProvider) LastRequest() (llm.CompletionRequest, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.calls) == 0 {
		return llm.CompletionRequest{}, false
	}
	return p.calls[len(p.calls)-1].Request, true
}
