package langchain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/jlaakso/deskflow/pkg/api"
)

// fakeModel captures the request and replays a canned response.
type fakeModel struct {
	messages []llms.MessageContent
	opts     []llms.CallOption
	resp     *llms.ContentResponse
	err      error
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	m.opts = options
	return m.resp, m.err
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func sampleTools() []api.ToolSchema {
	return []api.ToolSchema{
		{
			Name:        "run_command",
			Description: "Run a shell command on the desktop.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"command": map[string]any{"type": "string"},
				},
			},
		},
		{Name: "stop", Description: "Signal that the objective is complete."},
	}
}

func TestDecideTranslatesToolCalls(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content: "I will open a terminal first.",
			ToolCalls: []llms.ToolCall{
				{
					ID: "call_1",
					FunctionCall: &llms.FunctionCall{
						Name:      "run_command",
						Arguments: `{"command":"xterm &"}`,
					},
				},
				{
					ID:           "call_2",
					FunctionCall: &llms.FunctionCall{Name: "stop", Arguments: ""},
				},
			},
		}},
	}}

	oracle := New(model)
	conv := []api.Message{
		{Role: api.RoleSystem, Content: "you operate a desktop"},
		{Role: api.RoleUser, Content: "OBJECTIVE: open a terminal"},
	}

	rationale, actions, err := oracle.Decide(context.Background(), conv, sampleTools())
	require.NoError(t, err)

	require.Equal(t, "I will open a terminal first.", rationale)
	require.Len(t, actions, 2)
	require.Equal(t, "run_command", actions[0].Name)
	require.Equal(t, "xterm &", actions[0].Parameters["command"])
	require.Equal(t, "stop", actions[1].Name)
	require.Empty(t, actions[1].Parameters)

	require.Len(t, model.messages, 2)
	require.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	require.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
}

func TestDecideMapsAllRoles(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "ok"}},
	}}
	oracle := New(model)

	conv := []api.Message{
		{Role: api.RoleSystem, Content: "sys"},
		{Role: api.RoleUser, Content: "user"},
		{Role: api.RoleAssistant, Content: "assistant"},
		{Role: api.RoleTool, Content: "tool output"},
	}
	_, _, err := oracle.Decide(context.Background(), conv, nil)
	require.NoError(t, err)

	require.Len(t, model.messages, 4)
	require.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	require.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	require.Equal(t, llms.ChatMessageTypeAI, model.messages[2].Role)
	require.Equal(t, llms.ChatMessageTypeTool, model.messages[3].Role)
}

func TestDecideModelError(t *testing.T) {
	model := &fakeModel{err: errors.New("rate limited")}
	oracle := New(model)

	_, _, err := oracle.Decide(context.Background(), nil, sampleTools())
	require.ErrorContains(t, err, "rate limited")
}

func TestDecideNoChoices(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{}}
	oracle := New(model)

	_, _, err := oracle.Decide(context.Background(), nil, nil)
	require.ErrorContains(t, err, "no choices")
}

func TestDecideMalformedArguments(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			ToolCalls: []llms.ToolCall{{
				FunctionCall: &llms.FunctionCall{Name: "run_command", Arguments: "{not json"},
			}},
		}},
	}}
	oracle := New(model)

	_, _, err := oracle.Decide(context.Background(), nil, nil)
	require.ErrorContains(t, err, "run_command")
}
