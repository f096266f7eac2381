package openai

import (
	"github.com/openai/openai-go"

	ai "github.com/spetersoncode/relay"
)

// Chat roles.
const (
	roleSystem    = "system"
	roleUser      = "user"
	roleAssistant = "assistant"
)

type message struct {
	Role    string
	Content string
}

// convertRole maps a Gemini-style role onto a chat role.
func convertRole(role string) string {
	switch role {
	case "model":
		return roleAssistant
	case "":
		return roleUser
	default:
		return role
	}
}

func convertTurn(t ai.Turn) message {
	return message{Role: convertRole(t.Role), Content: t.JoinedText()}
}

// convertContents flattens contents into chat messages. Unknown shapes
// become a single user message holding their string form.
func convertContents(contents ai.Contents) []message {
	switch c := contents.(type) {
	case ai.Prompt:
		return []message{{Role: roleUser, Content: string(c)}}
	case ai.Turn:
		return []message{convertTurn(c)}
	case ai.Conversation:
		result := make([]message, 0, len(c))
		for _, t := range c {
			result = append(result, convertTurn(t))
		}
		return result
	case ai.Opaque:
		return []message{{Role: roleUser, Content: c.String()}}
	default:
		return []message{{Role: roleUser, Content: ai.Opaque{Value: contents}.String()}}
	}
}

// convertMessages builds SDK message params. Roles the chat API has no
// plain-text form for are sent as user messages.
func convertMessages(messages []message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case roleSystem:
			result = append(result, openai.SystemMessage(m.Content))
		case roleAssistant:
			result = append(result, openai.AssistantMessage(m.Content))
		default:
			result = append(result, openai.UserMessage(m.Content))
		}
	}
	return result
}

func buildRequest(req *ai.Request) openai.ChatCompletionNewParams {
	messages := convertContents(req.Contents)
	if sys := req.SystemInstruction(); sys != "" {
		messages = append([]message{{Role: roleSystem, Content: sys}}, messages...)
	}

	params := openai.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: convertMessages(messages),
	}
	if cfg := req.Config; cfg != nil {
		if cfg.Temperature != nil {
			params.Temperature = openai.Float(*cfg.Temperature)
		}
		if cfg.MaxOutputTokens != nil {
			params.MaxTokens = openai.Int(int64(*cfg.MaxOutputTokens))
		}
	}
	return params
}
