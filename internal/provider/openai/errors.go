package openai

import (
	"fmt"

	"github.com/tidwall/gjson"

	ai "github.com/spetersoncode/relay"
)

// parseError turns a non-2xx reply into a classified error. JSON bodies
// surface error.message and are kept as Raw; anything else is reported
// with the status and body text.
func parseError(status int, body []byte) error {
	if !gjson.ValidBytes(body) {
		return ai.NewStatusError(fmt.Sprintf("OpenAI API Error: %d - %s", status, body), status, nil)
	}

	msg := gjson.GetBytes(body, "error.message").String()
	if msg == "" {
		msg = fmt.Sprintf("OpenAI API Error: %d", status)
	}
	return ai.NewStatusError(msg, status, append([]byte(nil), body...))
}
