package providers

import (
	"errors"
	"fmt"
	"strings"
)

type rateLimitError struct{}

func (e *rateLimitError) Error() string { return "rate limited" }

type authError struct {
	message string
}

func (e *authError) Error() string {
	return "authentication error: " + e.message
}

type serverError struct {
	statusCode int
	body       string
}

func (e *serverError) Error() string {
	return "server error: " + e.body
}

type contextLengthError struct {
	body string
}

func (e *contextLengthError) Error() string {
	return "context length exceeded: " + e.body
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	var ae *authError
	return errors.As(err, &ae)
}

// IsContextLength checks if an error is a context-length overflow.
func IsContextLength(err error) bool {
	var ce *contextLengthError
	return errors.As(err, &ce)
}

// classifyStatus maps a non-200 vendor response to a typed error. 400
// responses are inspected for context-length overflow markers so the shrink
// loop can react.
func classifyStatus(status int, body []byte) error {
	switch {
	case status == 200:
		return nil
	case status == 429:
		return &rateLimitError{}
	case status == 401 || status == 403:
		return &authError{message: string(body)}
	case status >= 500:
		return &serverError{statusCode: status, body: string(body)}
	case status == 400 && looksLikeContextOverflow(string(body)):
		return &contextLengthError{body: string(body)}
	default:
		return fmt.Errorf("API error (status %d): %s", status, string(body))
	}
}

// looksLikeContextOverflow matches the phrasings the supported vendors use
// for an over-long input.
func looksLikeContextOverflow(body string) bool {
	b := strings.ToLower(body)
	for _, marker := range []string{
		"context length",
		"context_length_exceeded",
		"too many tokens",
		"prompt is too long",
		"input is too long",
		"exceeds the maximum",
	} {
		if strings.Contains(b, marker) {
			return true
		}
	}
	return false
}
