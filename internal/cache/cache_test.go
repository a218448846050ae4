package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateTTL(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateTTL(DefaultTTL))
	assert.True(t, errors.Is(validateTTL(0), ErrInvalidConfig))
	assert.True(t, errors.Is(validateTTL(-time.Second), ErrInvalidConfig))
}

func TestAction_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		action Action
		want   string
	}{
		{PassThrough, "pass_through"},
		{ServeCached, "serve_cached"},
		{Continue, "continue"},
		{Action(42), "action(42)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.action.String())
	}
}
