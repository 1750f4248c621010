package zkerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsAreWrappable(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", ErrAuthenticationFailure)
	assert.True(t, errors.Is(wrapped, ErrAuthenticationFailure))
	assert.False(t, errors.Is(wrapped, ErrSessionExpired))
}

func TestSentinelsAreDistinct(t *testing.T) {
	all := []error{
		ErrInvalidInput,
		ErrConfigError,
		ErrAlreadyRegistered,
		ErrNotRegistered,
		ErrInsufficientShares,
		ErrAuthenticationFailure,
		ErrSessionExpired,
		ErrBackendUnavailable,
	}
	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}
