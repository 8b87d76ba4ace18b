package llm

import (
	"errors"
	"fmt"
)

// Kind classifies a completion or materialization failure.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindHTTPStatus Kind = "http_status"
	KindMalformed  Kind = "malformed_response"
	KindEmpty      Kind = "empty_result"
	KindIO         Kind = "io"
)

// Failure is the typed error surfaced to callers.
type Failure struct {
	Kind       Kind
	StatusCode int // set for KindHTTPStatus
	Message    string
	Cause      error
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	msg := string(f.Kind)
	if f.Kind == KindHTTPStatus {
		msg = fmt.Sprintf("%s %d", f.Kind, f.StatusCode)
	}
	if f.Message != "" {
		msg += ": " + f.Message
	}
	if f.Cause != nil {
		msg += ": " + f.Cause.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Cause
}

// NetworkFailure reports a transport error, including timeouts.
func NetworkFailure(cause error) error {
	return &Failure{Kind: KindNetwork, Message: "request failed", Cause: cause}
}

// HTTPStatusFailure reports a non-2xx response.
func HTTPStatusFailure(code int, message string) error {
	return &Failure{Kind: KindHTTPStatus, StatusCode: code, Message: message}
}

// MalformedResponse reports a body that could not be interpreted.
func MalformedResponse(message string, cause error) error {
	return &Failure{Kind: KindMalformed, Message: message, Cause: cause}
}

// EmptyResult reports a response whose text is empty or whitespace.
func EmptyResult() error {
	return &Failure{Kind: KindEmpty, Message: "completion returned no text"}
}

// IOFailure reports a filesystem error.
func IOFailure(message string, cause error) error {
	return &Failure{Kind: KindIO, Message: message, Cause: cause}
}

// IsKind reports whether err carries a Failure of the given kind.
func IsKind(err error, kind Kind) bool {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind == kind
	}
	return false
}

// StatusCode returns the HTTP status of an http_status failure, or 0.
func StatusCode(err error) int {
	var f *Failure
	if errors.As(err, &f) && f.Kind == KindHTTPStatus {
		return f.StatusCode
	}
	return 0
}
