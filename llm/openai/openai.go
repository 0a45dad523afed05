// Package openai adapts the OpenAI chat completions API to the llm.Adapter
// boundary, using go-openai's streaming client.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/weaveai/weave/agent/message"
	"github.com/weaveai/weave/llm"
)

const (
	defaultModel   = openai.GPT4o
	defaultTimeout = 120 * time.Second
)

// Config configures the OpenAI adapter.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client is an llm.Adapter backed by the OpenAI chat completions API.
type Client struct {
	sdk   *openai.Client
	model string
}

// New constructs a Client. APIKey is required; everything else defaults.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	conf.HTTPClient.Timeout = timeout

	return &Client{sdk: openai.NewClientWithConfig(conf), model: model}, nil
}

// Name identifies this adapter.
func (c *Client) Name() string { return "openai:" + c.model }

// Chat streams a completion, accumulating tool-call argument fragments
// across deltas (the Chat Completions API streams tool-call arguments token
// by token, unlike content) and emitting one ChunkToolCall per completed
// call once the stream finishes.
func (c *Client) Chat(ctx context.Context, req llm.Request) (<-chan llm.Chunk, error) {
	apiReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAIMessages(req.SystemPrompt, req.Messages),
		Temperature: float32(req.Temperature),
		Stream:      true,
	}
	for _, t := range req.Tools {
		apiReq.Tools = append(apiReq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	stream, err := c.sdk.CreateChatCompletionStream(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("openai: create stream: %w", err)
	}

	out := make(chan llm.Chunk)

	go func() {
		defer close(out)
		defer stream.Close()

		type pendingCall struct {
			id, name string
			args     string
		}
		calls := map[int]*pendingCall{}
		var order []int
		var usage message.TokenUsage

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				out <- llm.Chunk{Kind: llm.ChunkError, Err: fmt.Errorf("openai: stream recv: %w", err)}
				return
			}
			if resp.Usage != nil {
				usage = message.TokenUsage{
					Prompt:     resp.Usage.PromptTokens,
					Completion: resp.Usage.CompletionTokens,
					Total:      resp.Usage.TotalTokens,
				}
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta

			if delta.Content != "" {
				select {
				case out <- llm.Chunk{Kind: llm.ChunkContent, Delta: delta.Content}:
				case <-ctx.Done():
					out <- llm.Chunk{Kind: llm.ChunkError, Err: ctx.Err()}
					return
				}
			}

			for _, tc := range delta.ToolCalls {
				idx := 0
				if tc.Index != nil {
					idx = *tc.Index
				}
				pc, ok := calls[idx]
				if !ok {
					pc = &pendingCall{}
					calls[idx] = pc
					order = append(order, idx)
				}
				if tc.ID != "" {
					pc.id = tc.ID
				}
				if tc.Function.Name != "" {
					pc.name = tc.Function.Name
				}
				pc.args += tc.Function.Arguments
			}
		}

		for _, idx := range order {
			pc := calls[idx]
			if _, err := normalizeArgs(pc.args); err != nil {
				out <- llm.Chunk{Kind: llm.ChunkError, Err: fmt.Errorf("openai: malformed tool arguments for %s: %w", pc.name, err)}
				return
			}
			select {
			case out <- llm.Chunk{
				Kind:         llm.ChunkToolCall,
				ToolCallID:   pc.id,
				ToolCallName: pc.name,
				ArgumentsRaw: pc.args,
			}:
			case <-ctx.Done():
				out <- llm.Chunk{Kind: llm.ChunkError, Err: ctx.Err()}
				return
			}
		}

		out <- llm.Chunk{Kind: llm.ChunkDone, Usage: usage}
	}()

	return out, nil
}

func normalizeArgs(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func toOpenAIMessages(systemPrompt string, msgs []message.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	if systemPrompt != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	for _, m := range msgs {
		switch m.Role {
		case message.RoleUser:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Text()})
		case message.RoleSystem:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: m.Text()})
		case message.RoleAssistant:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Text()}
			for _, tc := range m.ToolCalls {
				args, _ := json.Marshal(tc.Arguments)
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: string(args),
					},
				})
			}
			out = append(out, msg)
		case message.RoleTool:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.Text(),
				ToolCallID: m.ToolCallID,
			})
		}
	}
	return out
}

var _ llm.Adapter = (*Client)(nil)
