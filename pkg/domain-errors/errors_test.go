package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsCauseAndCode(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Wrap(cause, CodeMailUnavailable, "mail server issue")

	assert.True(t, HasCode(err, CodeMailUnavailable))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "mail server issue: dial tcp: connection refused", err.Error())
}

func TestFromUnwrapsFmtWrapping(t *testing.T) {
	err := fmt.Errorf("submit: %w", New(CodeValidation, "Validation failed."))

	de, ok := From(err)
	require.True(t, ok)
	assert.Equal(t, CodeValidation, de.Code)
	assert.Equal(t, "Validation failed.", de.Message)
}

func TestHasCodeOnPlainError(t *testing.T) {
	assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	assert.False(t, HasCode(nil, CodeInternal))
}
