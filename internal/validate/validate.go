// Package validate checks registration and employee fields.
package validate

import (
	"fmt"
	"strings"

	"github.com/hongminglow/bank-portal/internal/apperrors"
)

// Phone requires exactly ten digits.
func Phone(phone string) error {
	if !digits(phone, 10) {
		return fmt.Errorf("%w: phone must be 10 digits", apperrors.ErrValidation)
	}
	return nil
}

// Aadhaar requires exactly twelve digits.
func Aadhaar(aadhaar string) error {
	if !digits(aadhaar, 12) {
		return fmt.Errorf("%w: aadhaar must be 12 digits", apperrors.ErrValidation)
	}
	return nil
}

// Required fails on the first blank field, naming it.
func Required(fields ...[2]string) error {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			return fmt.Errorf("%w: %s is required", apperrors.ErrValidation, f[0])
		}
	}
	return nil
}

func digits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
