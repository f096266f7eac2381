package relay

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Part is one piece of a turn. Text parts carry Text; any other part
// (inline data, file references) is kept verbatim in Raw and passed through.
type Part struct {
	Text string
	Raw  json.RawMessage
}

// NewTextPart creates a text part.
func NewTextPart(text string) Part {
	return Part{Text: text}
}

// MarshalJSON emits Raw untouched for opaque parts, {"text": ...} otherwise.
func (p Part) MarshalJSON() ([]byte, error) {
	if len(p.Raw) > 0 {
		return p.Raw, nil
	}
	return json.Marshal(struct {
		Text string `json:"text"`
	}{p.Text})
}

// UnmarshalJSON reads the text field and keeps the whole part in Raw when it
// carries anything besides text.
func (p *Part) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid part JSON")
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return fmt.Errorf("part must be a JSON object, got %s", res.Type)
	}
	*p = Part{Text: res.Get("text").String()}
	opaque := false
	res.ForEach(func(key, _ gjson.Result) bool {
		if key.String() != "text" {
			opaque = true
			return false
		}
		return true
	})
	if opaque {
		p.Raw = append(json.RawMessage(nil), data...)
	}
	return nil
}

// Contents is the payload of a Request. It is one of Prompt, Turn,
// Conversation or Opaque.
type Contents interface {
	isContents()
}

// Prompt is a bare string sent as a single user turn.
type Prompt string

// Turn is one conversational turn. Text is used only when Parts is empty.
type Turn struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts,omitempty"`
	Text  string `json:"text,omitempty"`
}

// Conversation is an ordered sequence of turns.
type Conversation []Turn

// Opaque holds a contents value of unrecognized shape. Adapters send its
// string form as a single user message.
type Opaque struct {
	Value any
}

func (Prompt) isContents()       {}
func (Turn) isContents()         {}
func (Conversation) isContents() {}
func (Opaque) isContents()       {}

// JoinedText joins the text of every part with newlines, falling back to
// Text when the parts produce nothing.
func (t Turn) JoinedText() string {
	if len(t.Parts) > 0 {
		texts := make([]string, len(t.Parts))
		for i, p := range t.Parts {
			texts[i] = p.Text
		}
		if joined := strings.Join(texts, "\n"); joined != "" {
			return joined
		}
	}
	return t.Text
}

// String renders the opaque value.
func (o Opaque) String() string {
	switch v := o.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.RawMessage:
		return string(v)
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// ParseContents detects the shape of a JSON contents payload: a string
// becomes a Prompt, an object with parts a Turn, an array of objects a
// Conversation. Anything else is returned as Opaque holding the raw JSON.
func ParseContents(data []byte) Contents {
	if !gjson.ValidBytes(data) {
		return Opaque{Value: string(data)}
	}
	res := gjson.ParseBytes(data)
	switch {
	case res.Type == gjson.String:
		return Prompt(res.Str)
	case res.IsArray():
		var turns Conversation
		if err := json.Unmarshal(data, &turns); err == nil {
			return turns
		}
	case res.IsObject() && res.Get("parts").Exists():
		var turn Turn
		if err := json.Unmarshal(data, &turn); err == nil {
			return turn
		}
	}
	return Opaque{Value: json.RawMessage(append([]byte(nil), data...))}
}

// GenerateConfig holds optional generation settings. Nil pointers are omitted
// from the provider request rather than defaulted.
type GenerateConfig struct {
	SystemInstruction string
	Temperature       *float64
	MaxOutputTokens   *int

	// Extra holds provider-specific fields passed through as-is where the
	// provider supports them.
	Extra map[string]any
}

// Request is a provider-neutral generate-content request.
type Request struct {
	Model    string
	Contents Contents
	Config   *GenerateConfig
}

// SystemInstruction returns the configured system instruction, if any.
func (r *Request) SystemInstruction() string {
	if r.Config == nil {
		return ""
	}
	return r.Config.SystemInstruction
}

// Ptr returns a pointer to v. Handy for optional config fields.
func Ptr[T any](v T) *T {
	return &v
}
