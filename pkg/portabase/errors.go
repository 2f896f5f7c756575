package portabase

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Error kinds. Match them with errors.Is; use errors.As with *Error to read
// the status code and raw body.
var (
	// ErrInvalidParameter is returned when a caller-supplied argument fails
	// local validation. No request is sent.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidRequest is returned when the server answers 400.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnauthorized is returned when the server answers 401 or 403.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRemote is returned for any other non-success status.
	ErrRemote = errors.New("remote error")
)

// Error carries the response context of a failed call.
type Error struct {
	Kind       error
	StatusCode int
	Body       []byte
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("portabase: ")
	b.WriteString(e.Kind.Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if snippet := bodySnippet(e.Body); snippet != "" {
		b.WriteString(": ")
		b.WriteString(snippet)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and any underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func invalidParameter(msg string) error {
	return &Error{Kind: ErrInvalidParameter, Message: msg}
}

// classifyStatus maps a non-success status to its error kind.
func classifyStatus(status int) error {
	switch status {
	case http.StatusBadRequest:
		return ErrInvalidRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return ErrRemote
	}
}

func isSuccess(status int) bool {
	return status == http.StatusOK || status == http.StatusCreated
}

func bodySnippet(body []byte) string {
	const maxLen = 256
	s := strings.TrimSpace(string(body))
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
