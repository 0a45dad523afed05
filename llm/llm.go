// Package llm defines the adapter boundary between the agent loop and a
// concrete model provider. Only the interface and wire-level chunk shapes
// live here; provider wire protocols are implemented in sibling packages
// (llm/anthropic, llm/openai) and treated as pluggable collaborators.
package llm

import (
	"context"

	"github.com/weaveai/weave/agent/message"
	"github.com/weaveai/weave/tool"
)

// Adapter streams a chat completion for a single model step.
//
// Ordering contract: content chunks are total-ordered; tool_call chunks
// appear between or after content chunks; exactly one Done or one Error
// chunk terminates the stream. Cancellation must be honored at every
// suspension point — on ctx cancellation the adapter emits an Error chunk
// and returns.
type Adapter interface {
	// Name identifies the adapter, e.g. "anthropic:claude-sonnet-4".
	Name() string

	// Chat streams a completion for the given conversation.
	Chat(ctx context.Context, req Request) (<-chan Chunk, error)
}

// Request carries everything an adapter needs to produce one completion.
type Request struct {
	Messages     []message.Message
	SystemPrompt string
	Tools        []tool.Schema
	Temperature  float64
	Options      map[string]any
}

// ChunkKind discriminates the Chunk sum type.
type ChunkKind string

const (
	ChunkContent  ChunkKind = "content"
	ChunkToolCall ChunkKind = "tool_call"
	ChunkDone     ChunkKind = "done"
	ChunkError    ChunkKind = "error"
)

// Chunk is one element of an adapter's streamed reply. Exactly one of the
// fields relevant to Kind is populated.
type Chunk struct {
	Kind ChunkKind

	// ChunkContent
	Delta string

	// ChunkToolCall — the adapter hands back each call fully assembled;
	// argument-level deltas are intentionally elided at this boundary (see
	// spec §9 open question on tool-call argument streaming).
	ToolCallID   string
	ToolCallName string
	ArgumentsRaw string // raw JSON arguments

	// ChunkDone
	Usage message.TokenUsage

	// ChunkError
	Err error
}
