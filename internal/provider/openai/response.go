package openai

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	ai "github.com/spetersoncode/relay"
)

// parseResponse normalizes a chat completion body. The first choice's
// message content becomes the text; all top-level fields are kept in Raw.
func parseResponse(status int, body []byte) (*ai.Response, error) {
	if !gjson.ValidBytes(body) {
		return nil, ai.NewTransientError("OpenAI API returned an invalid JSON body", status, nil, nil)
	}

	parsed := gjson.ParseBytes(body)
	text := parsed.Get("choices.0.message.content").String()

	var raw map[string]json.RawMessage
	if parsed.IsObject() {
		raw = make(map[string]json.RawMessage)
		parsed.ForEach(func(key, value gjson.Result) bool {
			raw[key.String()] = json.RawMessage(value.Raw)
			return true
		})
	}

	resp := ai.NewTextResponse(text, raw)
	if reason := parsed.Get("choices.0.finish_reason"); reason.Type == gjson.String {
		resp.Candidates[0].FinishReason = reason.Str
	}
	return resp, nil
}
