package google

import (
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	ai "github.com/spetersoncode/relay"
)

func convertRole(role string) string {
	switch role {
	case "", "user":
		return genai.RoleUser
	case "assistant", "model":
		return genai.RoleModel
	default:
		return role
	}
}

func convertPart(p ai.Part) (*genai.Part, error) {
	if len(p.Raw) == 0 {
		return genai.NewPartFromText(p.Text), nil
	}
	var part genai.Part
	if err := json.Unmarshal(p.Raw, &part); err != nil {
		return nil, fmt.Errorf("google: decode part: %w", err)
	}
	return &part, nil
}

func convertTurn(t ai.Turn) (*genai.Content, error) {
	content := &genai.Content{Role: convertRole(t.Role)}
	for _, p := range t.Parts {
		part, err := convertPart(p)
		if err != nil {
			return nil, err
		}
		content.Parts = append(content.Parts, part)
	}
	if len(content.Parts) == 0 {
		content.Parts = []*genai.Part{genai.NewPartFromText(t.Text)}
	}
	return content, nil
}

// convertContents maps contents onto genai contents. Unknown shapes become
// a single user turn holding their string form.
func convertContents(contents ai.Contents) ([]*genai.Content, error) {
	switch c := contents.(type) {
	case ai.Prompt:
		return []*genai.Content{genai.NewContentFromText(string(c), genai.RoleUser)}, nil
	case ai.Turn:
		content, err := convertTurn(c)
		if err != nil {
			return nil, err
		}
		return []*genai.Content{content}, nil
	case ai.Conversation:
		result := make([]*genai.Content, 0, len(c))
		for _, t := range c {
			content, err := convertTurn(t)
			if err != nil {
				return nil, err
			}
			result = append(result, content)
		}
		return result, nil
	case ai.Opaque:
		return []*genai.Content{genai.NewContentFromText(c.String(), genai.RoleUser)}, nil
	default:
		return []*genai.Content{genai.NewContentFromText(ai.Opaque{Value: contents}.String(), genai.RoleUser)}, nil
	}
}

// convertConfig maps config onto the SDK config. Extra is decoded first so
// the named fields take precedence.
func convertConfig(cfg *ai.GenerateConfig) (*genai.GenerateContentConfig, error) {
	if cfg == nil {
		return nil, nil
	}

	out := &genai.GenerateContentConfig{}
	if len(cfg.Extra) > 0 {
		data, err := json.Marshal(cfg.Extra)
		if err != nil {
			return nil, fmt.Errorf("google: encode config extras: %w", err)
		}
		if err := json.Unmarshal(data, out); err != nil {
			return nil, fmt.Errorf("google: decode config extras: %w", err)
		}
	}

	if cfg.SystemInstruction != "" {
		out.SystemInstruction = genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser)
	}
	if cfg.Temperature != nil {
		temp := float32(*cfg.Temperature)
		out.Temperature = &temp
	}
	if cfg.MaxOutputTokens != nil {
		out.MaxOutputTokens = int32(*cfg.MaxOutputTokens)
	}
	return out, nil
}

// convertResponse normalizes an SDK response. Candidates keep their content
// parts and carry their other fields in Candidate.Raw; every other
// top-level field lands in Response.Raw.
func convertResponse(resp *genai.GenerateContentResponse) (*ai.Response, error) {
	if resp == nil {
		return ai.NewTextResponse("", nil), nil
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, ai.NewTransientError(fmt.Sprintf("encode response: %v", err), 0, nil, err)
	}

	var out ai.Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, ai.NewTransientError(fmt.Sprintf("decode response: %v", err), 0, nil, err)
	}
	out.Text = resp.Text()
	if len(out.Candidates) == 0 {
		out.Candidates = []ai.Candidate{{Content: ai.CandidateContent{Parts: []ai.Part{ai.NewTextPart(out.Text)}}}}
	}
	return &out, nil
}
