// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package anthropic adapts the Anthropic Messages API to the llm.Adapter
// boundary, using the official SDK's streaming accumulator.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/weaveai/weave/agent/message"
	"github.com/weaveai/weave/llm"
)

const (
	defaultModel     = anthropic.ModelClaudeSonnet4_20250514
	defaultMaxTokens = 4096
	defaultTimeout   = 120 * time.Second
)

// Config configures the Anthropic adapter.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	BaseURL   string
}

// Client is an llm.Adapter backed by the Anthropic Messages API.
type Client struct {
	sdk       anthropic.Client
	model     string
	maxTokens int64
}

// New constructs a Client. APIKey is required; everything else defaults.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = string(defaultModel)
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		sdk:       anthropic.NewClient(opts...),
		model:     model,
		maxTokens: int64(maxTokens),
	}, nil
}

// Name identifies this adapter.
func (c *Client) Name() string { return "anthropic:" + c.model }

// Chat streams a completion, translating SDK stream events into llm.Chunk
// values on the returned channel. The channel is always closed, and the
// final value is either a ChunkDone or a ChunkError.
func (c *Client) Chat(ctx context.Context, req llm.Request) (<-chan llm.Chunk, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  toAnthropicMessages(req.Messages),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	for _, t := range req.Tools {
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{Properties: t.Parameters["properties"]},
			},
		})
	}

	out := make(chan llm.Chunk)

	go func() {
		defer close(out)

		stream := c.sdk.Messages.NewStreaming(ctx, params)
		acc := anthropic.Message{}
		var usage message.TokenUsage

		for stream.Next() {
			event := stream.Current()
			if err := acc.Accumulate(event); err != nil {
				slog.Warn("anthropic: accumulate failed", "err", err)
			}

			switch variant := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				switch delta := variant.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					select {
					case out <- llm.Chunk{Kind: llm.ChunkContent, Delta: delta.Text}:
					case <-ctx.Done():
						out <- llm.Chunk{Kind: llm.ChunkError, Err: ctx.Err()}
						return
					}
				}
			case anthropic.MessageDeltaEvent:
				usage.Prompt += int(variant.Usage.InputTokens)
				usage.Completion += int(variant.Usage.OutputTokens)
			}
		}

		if err := stream.Err(); err != nil {
			out <- llm.Chunk{Kind: llm.ChunkError, Err: fmt.Errorf("anthropic: stream: %w", err)}
			return
		}

		for _, block := range acc.Content {
			if tu, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
				raw, _ := json.Marshal(tu.Input)
				select {
				case out <- llm.Chunk{
					Kind:         llm.ChunkToolCall,
					ToolCallID:   tu.ID,
					ToolCallName: tu.Name,
					ArgumentsRaw: string(raw),
				}:
				case <-ctx.Done():
					out <- llm.Chunk{Kind: llm.ChunkError, Err: ctx.Err()}
					return
				}
			}
		}

		usage.Total = usage.Prompt + usage.Completion
		out <- llm.Chunk{Kind: llm.ChunkDone, Usage: usage}
	}()

	return out, nil
}

func toAnthropicMessages(msgs []message.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for _, m := range msgs {
		switch m.Role {
		case message.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text())))
		case message.RoleAssistant:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, 1+len(m.ToolCalls))
			if m.Text() != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Text()))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, tc.Arguments, tc.Name))
			}
			out = append(out, anthropic.MessageParam{Role: anthropic.MessageParamRoleAssistant, Content: blocks})
		case message.RoleTool:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, m.Text(), false),
			))
		}
	}
	return out
}

var _ llm.Adapter = (*Client)(nil)
