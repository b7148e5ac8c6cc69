package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRetryStrategy(t *testing.T) {
	assert.Equal(t, uint64(2), defaultRetryStrategy.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, defaultRetryStrategy.BaseDelay)
	assert.Equal(t, 30*time.Second, defaultRetryStrategy.MaxDelay)
	assert.Equal(t, BackoffFixed, defaultRetryStrategy.Backoff)
}

func TestBackoffType_UnmarshalText(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    BackoffType
		expectError bool
	}{
		{
			name:        "fixed",
			input:       "fixed",
			expected:    BackoffFixed,
			expectError: false,
		},
		{
			name:        "linear",
			input:       "linear",
			expected:    BackoffLinear,
			expectError: false,
		},
		{
			name:        "exponential",
			input:       "exponential",
			expected:    BackoffExponential,
			expectError: false,
		},
		{
			name:        "invalid",
			input:       "invalid",
			expectError: true,
		},
		{
			name:        "empty",
			input:       "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b BackoffType
			err := b.UnmarshalText([]byte(tt.input))
			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidBackoffType)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, b)
			}
		})
	}
}

func TestBackoffType_String(t *testing.T) {
	assert.Equal(t, "exponential", BackoffExponential.String())
}
