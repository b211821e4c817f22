package validation

import (
	"errors"
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/walletguard/internal/errors"
)

func TestWrapValidationError(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.Nil(t, WrapValidationError(nil))
	})

	t.Run("wraps as invalid input", func(t *testing.T) {
		err := WrapValidationError(validation.NewError("code", "bad value"))
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	})
}

func TestNonEmptyFields(t *testing.T) {
	rule := NonEmptyFields{}

	t.Run("valid fields", func(t *testing.T) {
		assert.NoError(t, rule.Validate([]string{"name", "email"}))
	})

	t.Run("empty entry", func(t *testing.T) {
		assert.Error(t, rule.Validate([]string{"name", ""}))
	})

	t.Run("not a slice", func(t *testing.T) {
		assert.Error(t, rule.Validate(42))
	})
}
