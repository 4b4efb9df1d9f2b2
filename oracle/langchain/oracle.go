// Package langchain adapts a langchaingo chat model into a decision oracle.
package langchain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/jlaakso/deskflow/pkg/api"
)

// Oracle asks an llms.Model for the next actions via tool calling. It
// implements api.Oracle.
type Oracle struct {
	model llms.Model
	opts  []llms.CallOption
}

// New wraps model. Extra call options (temperature, model name) are passed
// through to every GenerateContent call.
func New(model llms.Model, opts ...llms.CallOption) *Oracle {
	return &Oracle{model: model, opts: opts}
}

// Decide sends the conversation and tool schemas to the model and translates
// the returned tool calls into proposed actions. Text content becomes the
// rationale.
func (o *Oracle) Decide(ctx context.Context, conv []api.Message, tools []api.ToolSchema) (string, []api.ProposedAction, error) {
	messages := toMessageContent(conv)

	opts := make([]llms.CallOption, 0, len(o.opts)+1)
	opts = append(opts, o.opts...)
	if len(tools) > 0 {
		opts = append(opts, llms.WithTools(toLLMTools(tools)))
	}

	resp, err := o.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", nil, fmt.Errorf("generating decision: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil, fmt.Errorf("model returned no choices")
	}
	choice := resp.Choices[0]

	actions := make([]api.ProposedAction, 0, len(choice.ToolCalls))
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		params := map[string]any{}
		if args := tc.FunctionCall.Arguments; args != "" {
			if err := json.Unmarshal([]byte(args), &params); err != nil {
				return "", nil, fmt.Errorf("decoding arguments for %s: %w", tc.FunctionCall.Name, err)
			}
		}
		actions = append(actions, api.ProposedAction{
			Name:       tc.FunctionCall.Name,
			Parameters: params,
		})
	}

	return choice.Content, actions, nil
}

func toMessageContent(conv []api.Message) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(conv))
	for _, m := range conv {
		switch m.Role {
		case api.RoleSystem:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, m.Content))
		case api.RoleAssistant:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeAI, m.Content))
		case api.RoleTool:
			messages = append(messages, llms.MessageContent{
				Role:  llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{Content: m.Content}},
			})
		default:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))
		}
	}
	return messages
}

func toLLMTools(tools []api.ToolSchema) []llms.Tool {
	llmTools := make([]llms.Tool, 0, len(tools))
	for _, t := range tools {
		llmTools = append(llmTools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return llmTools
}
