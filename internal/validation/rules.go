// Package validation provides custom validation rules shared by the domain
// packages.
package validation

import (
	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/walletguard/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NonEmptyFields validates that a string slice contains no empty entries.
type NonEmptyFields struct{}

// Validate checks every entry of a []string is non-empty.
func (NonEmptyFields) Validate(value interface{}) error {
	fields, ok := value.([]string)
	if !ok {
		return validation.NewError("validation_fields", "fields must be a string slice")
	}
	for _, f := range fields {
		if f == "" {
			return validation.NewError("validation_fields_empty", "fields must not contain empty entries")
		}
	}
	return nil
}
