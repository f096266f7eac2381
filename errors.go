package relay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNoCredentials is returned when a call is made with no credentials configured.
var ErrNoCredentials = errors.New("no API keys provided; add at least one key in the application settings")

// ErrorKind classifies errors by how the dispatcher handles them.
type ErrorKind string

const (
	// KindConfiguration means nothing can be attempted until the setup is fixed.
	KindConfiguration ErrorKind = "configuration"

	// KindRateLimited is an HTTP 429. Retried after a cycle-scaled backoff.
	KindRateLimited ErrorKind = "rate_limited"

	// KindTransient covers every other provider or network failure.
	// Retried immediately with the next credential.
	KindTransient ErrorKind = "transient"

	// KindAllCredentialsFailed means the attempt budget was exhausted.
	KindAllCredentialsFailed ErrorKind = "all_credentials_failed"
)

// Error is a classified provider error.
type Error struct {
	Kind       ErrorKind
	StatusCode int    // HTTP status code, 0 if not applicable
	Msg        string // cleaned, human-readable message
	Raw        []byte // raw provider error payload when it was valid JSON
	Cause      error
}

// Error returns the error message. The cause is appended unless Msg
// already carries its text.
func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Msg
	}
	cause := e.Cause.Error()
	switch {
	case e.Msg == "":
		return cause
	case strings.Contains(e.Msg, cause):
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Msg, cause)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match configuration errors against ErrNoCredentials.
func (e *Error) Is(target error) bool {
	return target == ErrNoCredentials && e.Kind == KindConfiguration
}

// NewConfigurationError creates a fatal configuration error.
func NewConfigurationError(msg string) *Error {
	return &Error{Kind: KindConfiguration, Msg: msg}
}

// NewRateLimitedError creates a rate-limit error carrying the HTTP status.
func NewRateLimitedError(msg string, statusCode int, raw []byte) *Error {
	return &Error{Kind: KindRateLimited, StatusCode: statusCode, Msg: msg, Raw: raw}
}

// NewTransientError creates an error that is retried on the next credential.
func NewTransientError(msg string, statusCode int, raw []byte, cause error) *Error {
	return &Error{Kind: KindTransient, StatusCode: statusCode, Msg: msg, Raw: raw, Cause: cause}
}

// NewStatusError classifies an HTTP failure by status code: 429 is rate limited,
// anything else transient.
func NewStatusError(msg string, statusCode int, raw []byte) *Error {
	if statusCode == 429 {
		return NewRateLimitedError(msg, statusCode, raw)
	}
	return NewTransientError(msg, statusCode, raw, nil)
}

// AllCredentialsFailedError is returned once every attempt in the budget has failed.
type AllCredentialsFailedError struct {
	Attempts int
	Last     error
}

// Error returns the error message including the cleaned last failure.
func (e *AllCredentialsFailedError) Error() string {
	return "all API keys failed. Last error: " + CleanMessage(e.Last)
}

// Unwrap returns the last observed failure.
func (e *AllCredentialsFailedError) Unwrap() error {
	return e.Last
}

// KindOf returns the kind of err. Unclassified errors report KindTransient.
func KindOf(err error) ErrorKind {
	var acf *AllCredentialsFailedError
	if errors.As(err, &acf) {
		return KindAllCredentialsFailed
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransient
}

// IsRateLimited reports whether err is, or wraps, a rate-limit error.
func IsRateLimited(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindRateLimited
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrNoCredentials)
}

// StatusCodeOf returns the HTTP status code carried by err, or 0.
func StatusCodeOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// CleanMessage renders err for logs and users. When the message itself is a
// JSON document carrying error.message, that nested message is returned.
// It never panics.
func CleanMessage(err error) (msg string) {
	if err == nil {
		return "An unknown error occurred."
	}
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprintf("%v", r)
		}
	}()

	var acf *AllCredentialsFailedError
	if errors.As(err, &acf) {
		return acf.Error()
	}
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return nestedMessage(e.Msg)
	}
	return nestedMessage(err.Error())
}

func nestedMessage(s string) string {
	trimmed := strings.TrimSpace(s)
	if !gjson.Valid(trimmed) {
		return s
	}
	if nested := gjson.Get(trimmed, "error.message"); nested.Type == gjson.String && nested.Str != "" {
		return nested.Str
	}
	return s
}
