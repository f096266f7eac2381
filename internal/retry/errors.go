package retry

import (
	"errors"
	"net/http"

	ai "github.com/spetersoncode/relay"
)

// statusCoder is implemented by SDK errors that expose an HTTP status code.
type statusCoder interface {
	StatusCode() int
}

// Classify returns how the dispatcher treats err. Classified relay errors
// keep their kind; errors exposing a 429 status are rate limits; everything
// else is transient.
func Classify(err error) ai.ErrorKind {
	if err == nil {
		return ""
	}

	var e *ai.Error
	if errors.As(err, &e) {
		return e.Kind
	}

	var sc statusCoder
	if errors.As(err, &sc) && sc.StatusCode() == http.StatusTooManyRequests {
		return ai.KindRateLimited
	}

	return ai.KindTransient
}
