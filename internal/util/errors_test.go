package util

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		field          string
		message        string
		cause          error
		expectedString string
	}{
		{
			name:           "with field",
			field:          "rateLimit.default.max",
			message:        "must be greater than zero",
			expectedString: "config error at rateLimit.default.max: must be greater than zero",
		},
		{
			name:           "without field",
			message:        "invalid configuration",
			expectedString: "config error: invalid configuration",
		},
		{
			name:           "with cause",
			field:          "cache.ttl",
			message:        "invalid duration",
			cause:          errors.New("negative"),
			expectedString: "config error at cache.ttl: invalid duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var err *ConfigError
			if tt.cause != nil {
				err = NewConfigErrorWithCause(tt.field, tt.message, tt.cause)
			} else {
				err = NewConfigError(tt.field, tt.message)
			}

			assert.Equal(t, tt.expectedString, err.Error())
			assert.Equal(t, tt.cause, err.Unwrap())
			assert.True(t, errors.Is(err, ErrConfigInvalid))
		})
	}
}

func TestConfigError_IsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := NewConfigErrorWithCause("server.port", "bad", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, &ConfigError{}))
	assert.False(t, errors.Is(err, errors.New("other")))
}
