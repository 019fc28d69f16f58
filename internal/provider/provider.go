// Package provider provides LLM provider abstraction using Eino framework.
package provider

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/locuscode/locus/pkg/types"
)

// Provider represents an LLM provider with Eino ChatModel.
type Provider interface {
	// ID returns the provider identifier.
	ID() string

	// Name returns the human-readable provider name.
	Name() string

	// Models returns the list of available models.
	Models() []types.Model

	// ChatModel returns the Eino ChatModel for this provider.
	ChatModel() model.ToolCallingChatModel

	// CreateCompletion creates a streaming completion. Streaming calls do
	// not retry transparently; a caller that wants retry-on-failure uses
	// Generate instead.
	CreateCompletion(ctx context.Context, req *CompletionRequest) (*CompletionStream, error)

	// Generate produces a single non-streaming completion.
	Generate(ctx context.Context, req *CompletionRequest) (*schema.Message, error)
}

// CompletionRequest represents a request to generate a completion.
type CompletionRequest struct {
	Model       string            `json:"model"`
	Messages    []*schema.Message `json:"messages"`
	Tools       []*schema.ToolInfo `json:"tools,omitempty"`
	MaxTokens   int               `json:"maxTokens,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
	TopP        float64           `json:"topP,omitempty"`
	StopWords   []string          `json:"stopWords,omitempty"`
}

// CompletionStream wraps an Eino stream reader.
type CompletionStream struct {
	reader *schema.StreamReader[*schema.Message]
}

// NewCompletionStream creates a new completion stream.
func NewCompletionStream(reader *schema.StreamReader[*schema.Message]) *CompletionStream {
	return &CompletionStream{reader: reader}
}

// Recv receives the next message chunk from the stream.
func (s *CompletionStream) Recv() (*schema.Message, error) {
	return s.reader.Recv()
}

// Close closes the stream.
func (s *CompletionStream) Close() {
	s.reader.Close()
}

// ToolInfo represents a tool definition for the LLM.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"` // JSON Schema
}

// ConvertToEinoTools converts internal tool definitions to Eino format.
func ConvertToEinoTools(tools []ToolInfo) []*schema.ToolInfo {
	result := make([]*schema.ToolInfo, len(tools))
	for i, t := range tools {
		// Parse parameters from JSON schema
		var params map[string]*schema.ParameterInfo
		if len(t.Parameters) > 0 {
			params = parseJSONSchemaToParams(t.Parameters)
		}

		result[i] = &schema.ToolInfo{
			Name: t.Name,
			Desc: t.Description,
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		}
	}
	return result
}

// parseJSONSchemaToParams converts JSON Schema to Eino ParameterInfo.
func parseJSONSchemaToParams(schemaJSON json.RawMessage) map[string]*schema.ParameterInfo {
	var jsonSchema struct {
		Properties map[string]struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"properties"`
		Required []string `json:"required"`
	}

	if err := json.Unmarshal(schemaJSON, &jsonSchema); err != nil {
		return nil
	}

	requiredSet := make(map[string]bool)
	for _, r := range jsonSchema.Required {
		requiredSet[r] = true
	}

	params := make(map[string]*schema.ParameterInfo)
	for name, prop := range jsonSchema.Properties {
		paramType := schema.String
		switch prop.Type {
		case "integer":
			paramType = schema.Integer
		case "number":
			paramType = schema.Number
		case "boolean":
			paramType = schema.Boolean
		case "array":
			paramType = schema.Array
		case "object":
			paramType = schema.Object
		}

		params[name] = &schema.ParameterInfo{
			Type:     paramType,
			Desc:     prop.Description,
			Required: requiredSet[name],
		}
	}

	return params
}

// ConvertFromEinoTurn converts one Eino response message into an open Turn,
// splitting plain content and tool calls into their own blocks in
// declaration order, matching how a provider's native response is shaped.
//
// Some OpenAI-compatible endpoints (zai, ollama-served local models) ignore
// the tool-calling API and instead return the legacy single-JSON-object
// shape as plain message content. When msg carries no native ToolCalls and
// its content parses as that shape, ConvertFromEinoTurn falls back to
// LegacyResponse.ToTurn so callers never need to know which path a given
// provider took.
func ConvertFromEinoTurn(msg *schema.Message) *types.Turn {
	if len(msg.ToolCalls) == 0 && looksLikeLegacyResponse(msg.Content) {
		if legacy, err := ParseLegacyResponse(msg.Content); err == nil {
			return legacy.ToTurn()
		}
	}

	role := types.RoleAssistant
	switch msg.Role {
	case schema.User:
		role = types.RoleUser
	case schema.System:
		role = types.RoleSystem
	case schema.Tool:
		role = types.RoleTool
	}

	turn := &types.Turn{Role: role}
	if msg.Content != "" {
		turn.AppendBlock(&types.TextBlock{Text: msg.Content})
	}
	for _, tc := range msg.ToolCalls {
		var args map[string]any
		if tc.Function.Arguments != "" {
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		}
		turn.AppendBlock(&types.ToolUseBlock{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}
	return turn
}

// ConvertToEinoMessages converts a session's turn history into Eino chat
// messages. A turn's blocks map onto zero or more Eino messages: text and
// thinking collapse into one assistant/user message's content, each
// ToolUseBlock becomes a tool call on that message, and each
// ToolResultBlock becomes its own tool-role message referencing the call.
func ConvertToEinoMessages(turns []*types.Turn) []*schema.Message {
	result := make([]*schema.Message, 0, len(turns))

	for _, turn := range turns {
		role := schema.Assistant
		switch turn.Role {
		case types.RoleUser:
			role = schema.User
		case types.RoleSystem:
			role = schema.System
		case types.RoleTool:
			role = schema.Tool
		}

		var content string
		var toolCalls []schema.ToolCall
		for _, block := range turn.Blocks {
			switch b := block.(type) {
			case *types.TextBlock:
				content += b.Text
			case *types.ThinkingBlock:
				content += b.Text
			case *types.ToolUseBlock:
				argsJSON, _ := json.Marshal(b.Args)
				toolCalls = append(toolCalls, schema.ToolCall{
					ID: b.ID,
					Function: schema.FunctionCall{
						Name:      b.Name,
						Arguments: string(argsJSON),
					},
				})
			case *types.ToolResultBlock:
				result = append(result, &schema.Message{
					Role:       schema.Tool,
					Content:    string(b.Output),
					ToolCallID: b.ToolUseID,
				})
			case *types.ErrorBlock:
				content += b.Message
			}
		}

		if content == "" && len(toolCalls) == 0 {
			continue
		}
		result = append(result, &schema.Message{
			Role:      role,
			Content:   content,
			ToolCalls: toolCalls,
		})
	}

	return result
}
