package session

import (
	stderrors "errors"
	"net/http"
	"strings"

	"jobscout/internal/errors"

	"google.golang.org/api/googleapi"
)

// The identity provider reports failures as structured API errors whose
// message field carries a stable machine code (EMAIL_NOT_FOUND, EMAIL_EXISTS,
// ...). Users never see those codes; every one maps to a fixed human message
// so wording stays consistent across every sign-in surface.

var authMessages = map[string]string{
	"EMAIL_NOT_FOUND":             "No account found with this email address.",
	"INVALID_PASSWORD":            "Incorrect password. Please try again.",
	"INVALID_LOGIN_CREDENTIALS":   "Invalid email or password.",
	"USER_DISABLED":               "This account has been disabled.",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "Too many failed attempts. Please try again later.",
	"EMAIL_EXISTS":                "An account with this email already exists.",
	"WEAK_PASSWORD":               "Password should be at least 6 characters.",
	"INVALID_EMAIL":               "Please enter a valid email address.",
	"TOKEN_EXPIRED":               "Your session has expired. Please sign in again.",
	"INVALID_REFRESH_TOKEN":       "Your session is no longer valid. Please sign in again.",
	"USER_NOT_FOUND":              "Your session is no longer valid. Please sign in again.",
}

const defaultAuthMessage = "Authentication failed. Please try again."

// humanAuthMessage maps a provider code to its fixed user-facing message.
func humanAuthMessage(providerCode string) string {
	if msg, ok := authMessages[providerCode]; ok {
		return msg
	}
	return defaultAuthMessage
}

// providerCodeFrom extracts the machine code from a provider error message.
// The provider sometimes appends detail after the code, as in
// "WEAK_PASSWORD : Password should be at least 6 characters".
func providerCodeFrom(message string) string {
	code, _, _ := strings.Cut(message, ":")
	return strings.TrimSpace(code)
}

// checkProviderResponse validates an identity provider HTTP response,
// returning a *googleapi.Error describing any failure payload.
func checkProviderResponse(resp *http.Response) error {
	return googleapi.CheckResponse(resp)
}

// classifyProviderError converts a provider API error into the client error
// taxonomy with the fixed human message for its code.
func classifyProviderError(err error, logger *errors.Logger) error {
	var apiErr *googleapi.Error
	if !stderrors.As(err, &apiErr) {
		return errors.NewAuthError(errors.ErrCodeInvalidCredentials, defaultAuthMessage, err)
	}

	code := providerCodeFrom(apiErr.Message)
	logger.Debug("Identity provider rejected request",
		"provider_code", code,
		"status", apiErr.Code)

	if apiErr.Code >= 500 {
		return errors.NewTransientError(errors.ErrCodeBackendUnavailable,
			"The sign-in service is temporarily unavailable. Please try again.", err)
	}

	return errors.NewAuthError(errors.ErrCodeInvalidCredentials, humanAuthMessage(code), err)
}
