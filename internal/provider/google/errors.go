package google

import (
	"encoding/json"
	"errors"

	"google.golang.org/genai"

	ai "github.com/spetersoncode/relay"
)

// wrapError classifies a genai error by its HTTP status. Anything that is
// not an API error is treated as a transient network failure.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return ai.NewTransientError("", 0, nil, err)
	}

	msg := apiErr.Message
	if msg == "" {
		msg = apiErr.Error()
	}
	raw, _ := json.Marshal(map[string]genai.APIError{"error": apiErr})
	e := ai.NewStatusError(msg, apiErr.Code, raw)
	e.Cause = err
	return e
}
