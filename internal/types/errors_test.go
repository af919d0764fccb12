package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKBError_Error(t *testing.T) {
	err := NewError("TEST_CODE", "something broke")
	assert.Equal(t, "[TEST_CODE] something broke", err.Error())

	wrapped := WrapError("TEST_CODE", "something broke", fmt.Errorf("root cause"))
	assert.Equal(t, "[TEST_CODE] something broke: root cause", wrapped.Error())
}

func TestKBError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := WrapError("TEST_CODE", "context", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestKBError_IsMatchesByCode(t *testing.T) {
	err := NewError("TEST_CODE", "first message")
	other := NewError("TEST_CODE", "entirely different message")
	different := NewError("OTHER_CODE", "first message")

	assert.True(t, errors.Is(err, other))
	assert.False(t, errors.Is(err, different))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", fmt.Errorf("boom"), false},
		{"non-retryable", NewError("TEST_CODE", "boom"), false},
		{"retryable", NewRetryableError("TEST_CODE", "transient"), true},
		{"wrapped retryable", fmt.Errorf("outer: %w", WrapRetryableError("TEST_CODE", "inner", fmt.Errorf("cause"))), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrorCode("TEST_CODE"), CodeOf(NewError("TEST_CODE", "boom")))
	assert.Equal(t, ErrorCode(""), CodeOf(fmt.Errorf("plain")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}
