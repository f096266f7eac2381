package mcp

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

// Tool names.
const (
	ToolGenerateContent = "generate_content"
	ToolGetSettings     = "get_settings"
	ToolUpdateSettings  = "update_settings"
)

// generateContentSchema accepts contents as a string, a single turn or a
// list of turns.
var generateContentSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "model": {"type": "string", "description": "Model identifier. Defaults to the server's configured model."},
    "contents": {
      "description": "A prompt string, a turn {role, parts:[{text}]}, or a list of turns.",
      "anyOf": [
        {"type": "string"},
        {"type": "object"},
        {"type": "array", "items": {"type": "object"}}
      ]
    },
    "system_instruction": {"type": "string", "description": "Optional system instruction."},
    "temperature": {"type": "number", "description": "Optional sampling temperature."},
    "max_output_tokens": {"type": "integer", "description": "Optional output token limit."}
  },
  "required": ["contents"]
}`)

func generateContentTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(ToolGenerateContent,
		"Generate content with the configured provider, rotating API keys and retrying on failure",
		generateContentSchema)
}

func getSettingsTool() mcp.Tool {
	return mcp.NewTool(ToolGetSettings,
		mcp.WithDescription("Show the active provider, base URL and masked API keys"),
	)
}

func updateSettingsTool() mcp.Tool {
	return mcp.NewTool(ToolUpdateSettings,
		mcp.WithDescription("Change the provider, base URL or API keys. Ignored when keys come from the environment."),
		mcp.WithString("provider", mcp.Description("gemini or openai"), mcp.Enum("gemini", "openai")),
		mcp.WithString("base_url", mcp.Description("API base URL; empty resets to the provider default")),
		mcp.WithString("api_keys", mcp.Description("API keys separated by newlines or commas")),
	)
}
