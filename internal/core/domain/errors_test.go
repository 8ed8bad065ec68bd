package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrEmptyEntityID", ErrEmptyEntityID},
		{"ErrMissingLocation", ErrMissingLocation},
		{"ErrInvalidTimestamp", ErrInvalidTimestamp},
		{"ErrAuthRequired", ErrAuthRequired},
		{"ErrAuthInvalid", ErrAuthInvalid},
		{"ErrMissingConfig", ErrMissingConfig},
		{"ErrConnectorValidation", ErrConnectorValidation},
		{"ErrConnectorClosed", ErrConnectorClosed},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrAlreadyExists))
}

func TestErrors_WrappedKeepCause(t *testing.T) {
	wrapped := fmt.Errorf("%w: [sources.github] section", ErrMissingConfig)

	assert.True(t, errors.Is(wrapped, ErrMissingConfig))
	assert.False(t, errors.Is(wrapped, ErrAuthRequired))
	assert.Contains(t, wrapped.Error(), "missing configuration")
}
