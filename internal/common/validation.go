package common

import (
	"fmt"
	"slices"
	"strings"

	"jobscout/internal/errors"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("Unsupported output format '%s'. Supported formats: %v",
			format, supportedFormats), nil)
}

// ValidateSearchQuery rejects blank queries before they reach the backend.
func ValidateSearchQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return errors.NewValidationError(errors.ErrCodeBlankQuery,
			"Please enter a job title or keywords to search for.", nil)
	}
	return nil
}

// ValidateCredentials checks the sign-in form fields locally.
func ValidateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidCredentials,
			"Email cannot be empty.", nil)
	}
	if !strings.Contains(email, "@") {
		return errors.NewValidationError(errors.ErrCodeInvalidCredentials,
			"Please enter a valid email address.", nil)
	}
	if password == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidCredentials,
			"Password cannot be empty.", nil)
	}
	return nil
}
