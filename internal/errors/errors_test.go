package errors

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceError_Unwrap(t *testing.T) {
	err := NewResourceError("patterns.json", "read", os.ErrNotExist)

	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, "read patterns.json: file does not exist", err.Error())
}

func TestIsResourceError(t *testing.T) {
	wrapped := fmt.Errorf("loading corpus: %w", NewResourceError("https://example.com/a.mid", "fetch", nil))

	assert.True(t, IsResourceError(wrapped))
	assert.False(t, IsResourceError(ErrUnknownTechnique))
	assert.Equal(t, "fetch https://example.com/a.mid failed", errors.Unwrap(wrapped).Error())
}

func TestDegraded(t *testing.T) {
	err := Degraded("bad key %q", "(1, x)")

	assert.ErrorIs(t, err, ErrDegradedInput)
	assert.Contains(t, err.Error(), `bad key "(1, x)"`)
}
