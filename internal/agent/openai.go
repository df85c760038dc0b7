package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/eokafor/go-pharmacy-backend/internal/config"
	"github.com/eokafor/go-pharmacy-backend/internal/domain"
	"github.com/eokafor/go-pharmacy-backend/internal/tools"
)

// OpenAIEngine drives an OpenAI-compatible chat-completion model with
// function calling. Tool calls requested by the model are dispatched
// through the orchestrator and their envelopes fed back, up to a
// bounded number of rounds per turn.
type OpenAIEngine struct {
	client    *openai.Client
	model     string
	maxRounds int
}

var _ Engine = (*OpenAIEngine)(nil)

// NewOpenAIEngine builds an engine from config.
func NewOpenAIEngine(cfg config.AgentConfig) (*OpenAIEngine, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("agent: API key is required")
	}
	cc := openai.DefaultConfig(cfg.APIKey)
	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		cc.BaseURL = trimmed
	}
	rounds := cfg.MaxRounds
	if rounds < 1 {
		rounds = 6
	}
	return &OpenAIEngine{
		client:    openai.NewClientWithConfig(cc),
		model:     cfg.Model,
		maxRounds: rounds,
	}, nil
}

// Respond runs the function-calling loop for one turn.
func (e *OpenAIEngine) Respond(ctx context.Context, orch *tools.Orchestrator, turn Turn) (string, error) {
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: BuildSystemContext(turn)},
	}
	for _, m := range turn.History {
		role := openai.ChatMessageRoleUser
		if m.Sender == domain.SenderAgent {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: turn.Message})

	defs := toolDefinitions(orch)
	tc := &tools.TurnContext{User: turn.User, SessionID: turn.SessionID}

	for round := 0; round < e.maxRounds; round++ {
		resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    e.model,
			Messages: msgs,
			Tools:    defs,
		})
		if err != nil {
			return "", fmt.Errorf("agent: completion failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("agent: empty completion")
		}

		choice := resp.Choices[0].Message
		if len(choice.ToolCalls) == 0 {
			return strings.TrimSpace(choice.Content), nil
		}

		msgs = append(msgs, choice)
		for _, call := range choice.ToolCalls {
			env := orch.Dispatch(ctx, tc, call.Function.Name, json.RawMessage(call.Function.Arguments))
			encoded, err := json.Marshal(env)
			if err != nil {
				encoded = []byte(`{"success":false,"error":"unserializable tool result"}`)
			}
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    string(encoded),
				ToolCallID: call.ID,
			})
		}
	}

	return "", fmt.Errorf("agent: no final reply after %d tool rounds", e.maxRounds)
}

// toolDefinitions converts orchestrator specs into the SDK's tool form.
func toolDefinitions(orch *tools.Orchestrator) []openai.Tool {
	specs := orch.Specs()
	out := make([]openai.Tool, 0, len(specs))
	for _, s := range specs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.Parameters,
			},
		})
	}
	return out
}
