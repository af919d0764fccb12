package llm

import (
	"fmt"
	"strings"

	"github.com/teakb/teakb/internal/types"
)

// LLM provider error codes
const (
	ErrCodeProviderNotFound      types.ErrorCode = "LLM_PROVIDER_NOT_FOUND"
	ErrCodeProviderInvalid       types.ErrorCode = "LLM_PROVIDER_INVALID"
	ErrCodeAuthFailed            types.ErrorCode = "LLM_AUTH_FAILED"
	ErrCodeRateLimited           types.ErrorCode = "LLM_RATE_LIMITED"
	ErrCodeTimeout               types.ErrorCode = "LLM_TIMEOUT"
	ErrCodeCompletionFailed      types.ErrorCode = "LLM_COMPLETION_FAILED"
	ErrCodeStreamFailed          types.ErrorCode = "LLM_STREAM_FAILED"
	ErrCodeInvalidRequest        types.ErrorCode = "LLM_INVALID_REQUEST"
	ErrCodeEmptyResponse         types.ErrorCode = "LLM_EMPTY_RESPONSE"
	ErrCodeContextLengthExceeded types.ErrorCode = "LLM_CONTEXT_LENGTH_EXCEEDED"
)

// TranslateError classifies a raw backend error into a coded error. Rate
// limits and timeouts are marked retryable; everything else is terminal for
// the request that produced it.
func TranslateError(provider string, err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	prefix := fmt.Sprintf("provider %s", provider)

	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") ||
		strings.Contains(msg, "too many requests"):
		return types.WrapRetryableError(ErrCodeRateLimited,
			prefix+" rate limited", err)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return types.WrapRetryableError(ErrCodeTimeout,
			prefix+" request timed out", err)
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "401") ||
		strings.Contains(msg, "invalid api key") || strings.Contains(msg, "authentication"):
		return types.WrapError(ErrCodeAuthFailed,
			prefix+" authentication failed", err)
	case strings.Contains(msg, "context length") || strings.Contains(msg, "maximum context"):
		return types.WrapError(ErrCodeContextLengthExceeded,
			prefix+" context length exceeded", err)
	default:
		return types.WrapError(ErrCodeCompletionFailed,
			prefix+" completion failed", err)
	}
}
