package agent

import (
	"github.com/weaveai/weave/agent/message"
)

// StreamChunkKind discriminates the AgentStreamChunk sum type.
type StreamChunkKind string

const (
	ChunkContent       StreamChunkKind = "content"
	ChunkToolCallStart StreamChunkKind = "tool-call-start"
	ChunkToolCallArgs  StreamChunkKind = "tool-call-args"
	ChunkToolCallEnd   StreamChunkKind = "tool-call-end"
	ChunkToolResult    StreamChunkKind = "tool-result"
	ChunkFinish        StreamChunkKind = "finish"
	ChunkError         StreamChunkKind = "error"
)

// StreamChunk is one element of an agent's public stream. Every stream
// terminates with exactly one ChunkFinish; ChunkError precedes ChunkFinish
// when the run ended in error.
type StreamChunk struct {
	Kind StreamChunkKind

	Delta string // ChunkContent

	ToolCallID   string // ChunkToolCallStart, ChunkToolCallArgs, ChunkToolCallEnd, ChunkToolResult
	ToolCallName string

	ArgsJSON string              // ChunkToolCallArgs
	Args     map[string]any      // ChunkToolCallEnd, ChunkToolResult
	Result   *message.ToolResult // ChunkToolResult

	Err error // ChunkError

	Finish *RunResult // ChunkFinish
}

// FinishReason is the terminal cause of a run.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishMaxIterations FinishReason = "max_iterations"
	FinishError         FinishReason = "error"
)

// RunResult is the sealed outcome of a completed agent run.
type RunResult struct {
	Content      string
	Structured   any
	ToolCalls    []message.ToolCallRecord
	Usage        message.TokenUsage
	DurationNS   int64
	FinishReason FinishReason
	Error        string
	Iterations   int
}
