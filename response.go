package relay

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/sjson"
)

// Response is a provider-neutral generate-content response. Candidates
// mirror the Gemini envelope so callers can read
// Candidates[0].Content.Parts[0].Text whichever provider answered.
type Response struct {
	Text       string
	Candidates []Candidate

	// Raw holds the provider's own top-level fields under their native names.
	Raw map[string]json.RawMessage
}

// Candidate is one generated answer.
type Candidate struct {
	Content      CandidateContent `json:"content"`
	FinishReason string           `json:"finishReason,omitempty"`

	// Raw holds the provider's other per-candidate fields, such as
	// safetyRatings or citationMetadata, under their native names.
	Raw map[string]json.RawMessage `json:"-"`
}

// CandidateContent holds the parts of a candidate.
type CandidateContent struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// NewTextResponse builds a response with a single text candidate.
func NewTextResponse(text string, raw map[string]json.RawMessage) *Response {
	return &Response{
		Text: text,
		Candidates: []Candidate{{
			Content: CandidateContent{Parts: []Part{NewTextPart(text)}},
		}},
		Raw: raw,
	}
}

// FirstText returns the text of the first part of the first candidate,
// falling back to Text.
func (r *Response) FirstText() string {
	if len(r.Candidates) > 0 && len(r.Candidates[0].Content.Parts) > 0 {
		return r.Candidates[0].Content.Parts[0].Text
	}
	return r.Text
}

// MarshalJSON emits the raw provider fields merged with text and
// candidates. The normalized fields win on key collision.
func (r Response) MarshalJSON() ([]byte, error) {
	out := []byte("{}")
	if len(r.Raw) > 0 {
		raw, err := json.Marshal(r.Raw)
		if err != nil {
			return nil, err
		}
		out = raw
	}
	out, err := sjson.SetBytes(out, "text", r.Text)
	if err != nil {
		return nil, err
	}
	candidates := r.Candidates
	if candidates == nil {
		candidates = []Candidate{}
	}
	return sjson.SetBytes(out, "candidates", candidates)
}

// UnmarshalJSON reads text and candidates and keeps every other field in Raw.
func (r *Response) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*r = Response{}
	if text, ok := fields["text"]; ok {
		if err := json.Unmarshal(text, &r.Text); err != nil {
			return err
		}
		delete(fields, "text")
	}
	if candidates, ok := fields["candidates"]; ok {
		if err := json.Unmarshal(candidates, &r.Candidates); err != nil {
			return err
		}
		delete(fields, "candidates")
	}
	if len(fields) > 0 {
		r.Raw = fields
	}
	return nil
}

// JoinText concatenates the text of a candidate's parts.
func (c Candidate) JoinText() string {
	var b strings.Builder
	for _, p := range c.Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// MarshalJSON emits the raw candidate fields merged with content and
// finishReason. The normalized fields win on key collision.
func (c Candidate) MarshalJSON() ([]byte, error) {
	out := []byte("{}")
	if len(c.Raw) > 0 {
		raw, err := json.Marshal(c.Raw)
		if err != nil {
			return nil, err
		}
		out = raw
	}
	out, err := sjson.SetBytes(out, "content", c.Content)
	if err != nil {
		return nil, err
	}
	if c.FinishReason != "" {
		return sjson.SetBytes(out, "finishReason", c.FinishReason)
	}
	return sjson.DeleteBytes(out, "finishReason")
}

// UnmarshalJSON reads content and finishReason and keeps every other field
// in Raw.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*c = Candidate{}
	if content, ok := fields["content"]; ok {
		if err := json.Unmarshal(content, &c.Content); err != nil {
			return err
		}
		delete(fields, "content")
	}
	if reason, ok := fields["finishReason"]; ok {
		if err := json.Unmarshal(reason, &c.FinishReason); err != nil {
			return err
		}
		delete(fields, "finishReason")
	}
	if len(fields) > 0 {
		c.Raw = fields
	}
	return nil
}
