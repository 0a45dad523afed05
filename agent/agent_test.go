package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weaveai/weave/agent/message"
	"github.com/weaveai/weave/llm"
	"github.com/weaveai/weave/tool"
)

// stubAdapter replays a fixed sequence of steps, one per Chat call.
type stubAdapter struct {
	mu    sync.Mutex
	steps [][]llm.Chunk
	calls int
}

func (s *stubAdapter) Name() string { return "stub" }

func (s *stubAdapter) Chat(ctx context.Context, req llm.Request) (<-chan llm.Chunk, error) {
	s.mu.Lock()
	idx := s.calls
	s.calls++
	s.mu.Unlock()

	step := s.steps[idx]
	ch := make(chan llm.Chunk, len(step))
	for _, c := range step {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func content(delta string) llm.Chunk { return llm.Chunk{Kind: llm.ChunkContent, Delta: delta} }
func done(u message.TokenUsage) llm.Chunk {
	return llm.Chunk{Kind: llm.ChunkDone, Usage: u}
}
func toolCall(id, name, argsJSON string) llm.Chunk {
	return llm.Chunk{Kind: llm.ChunkToolCall, ToolCallID: id, ToolCallName: name, ArgumentsRaw: argsJSON}
}

// funcTool adapts a bare Go function into a tool.Tool for tests, bypassing
// schema validation (Validate always true).
type funcTool struct {
	name string
	fn   func(args map[string]any) (any, error)
}

func (t *funcTool) Name() string                     { return t.name }
func (t *funcTool) Description() string              { return t.name }
func (t *funcTool) Schema() tool.Schema               { return tool.Schema{Name: t.name} }
func (t *funcTool) Validate(map[string]any) bool      { return true }
func (t *funcTool) Parse(a map[string]any) (map[string]any, error) { return a, nil }
func (t *funcTool) Timeout() time.Duration            { return 0 }
func (t *funcTool) Retry() *tool.RetryPolicy          { return nil }
func (t *funcTool) RequiresApproval() bool            { return false }
func (t *funcTool) Execute(ctx tool.Context, args map[string]any) tool.Result {
	return tool.Dispatch(ctx, t, args, func(tool.Context, map[string]any) (any, error) {
		return t.fn(args)
	})
}

func TestAgent_NoToolSingleTurn(t *testing.T) {
	adapter := &stubAdapter{steps: [][]llm.Chunk{
		{content("O"), content("K"), content("."), done(message.TokenUsage{Prompt: 3, Completion: 1, Total: 4})},
	}}

	a, err := New(Config{SystemPrompt: "You are terse.", Model: adapter})
	require.NoError(t, err)

	var contentChunks []string
	var finish *RunResult
	for chunk, err := range a.Stream(context.Background(), "Say OK.") {
		require.NoError(t, err)
		if chunk.Kind == ChunkContent {
			contentChunks = append(contentChunks, chunk.Delta)
		}
		if chunk.Kind == ChunkFinish {
			finish = chunk.Finish
		}
	}

	require.NotNil(t, finish)
	assert.Equal(t, []string{"O", "K", "."}, contentChunks)
	assert.Equal(t, "OK.", finish.Content)
	assert.Empty(t, finish.ToolCalls)
	assert.Equal(t, 4, finish.Usage.Total)
	assert.Equal(t, FinishStop, finish.FinishReason)
	assert.Equal(t, 1, finish.Iterations)
}

func TestAgent_SingleToolCall(t *testing.T) {
	adapter := &stubAdapter{steps: [][]llm.Chunk{
		{toolCall("t1", "add", `{"a":2,"b":3}`), done(message.TokenUsage{})},
		{content("5"), done(message.TokenUsage{Prompt: 1, Completion: 1, Total: 2})},
	}}

	addTool := &funcTool{name: "add", fn: func(args map[string]any) (any, error) {
		a := args["a"].(float64)
		b := args["b"].(float64)
		return a + b, nil
	}}

	a, err := New(Config{Model: adapter, Tools: []tool.Tool{addTool}})
	require.NoError(t, err)

	var kinds []StreamChunkKind
	var finish *RunResult
	for chunk, err := range a.Stream(context.Background(), "2 plus 3?") {
		require.NoError(t, err)
		kinds = append(kinds, chunk.Kind)
		if chunk.Kind == ChunkFinish {
			finish = chunk.Finish
		}
	}

	require.NotNil(t, finish)
	assert.Contains(t, kinds, ChunkToolCallStart)
	assert.Contains(t, kinds, ChunkToolCallArgs)
	assert.Contains(t, kinds, ChunkToolCallEnd)
	assert.Contains(t, kinds, ChunkToolResult)
	assert.Equal(t, "5", finish.Content)
	require.Len(t, finish.ToolCalls, 1)
	assert.True(t, finish.ToolCalls[0].Success)
	assert.Equal(t, float64(5), finish.ToolCalls[0].Data)
}

func TestAgent_ParallelToolsPreserveCallOrder(t *testing.T) {
	adapter := &stubAdapter{steps: [][]llm.Chunk{
		{toolCall("t1", "slow", `{}`), toolCall("t2", "fast", `{}`), done(message.TokenUsage{})},
		{content("done"), done(message.TokenUsage{})},
	}}

	slow := &funcTool{name: "slow", fn: func(map[string]any) (any, error) {
		time.Sleep(50 * time.Millisecond)
		return map[string]any{"v": 1}, nil
	}}
	fast := &funcTool{name: "fast", fn: func(map[string]any) (any, error) {
		return map[string]any{"v": 2}, nil
	}}

	a, err := New(Config{Model: adapter, Tools: []tool.Tool{slow, fast}})
	require.NoError(t, err)

	result, err := a.Run(context.Background(), "go")
	require.NoError(t, err)
	require.Len(t, result.ToolCalls, 2)
	assert.Equal(t, "t1", result.ToolCalls[0].ToolCallID)
	assert.Equal(t, "t2", result.ToolCalls[1].ToolCallID)
}

func TestAgent_MaxIterations(t *testing.T) {
	step := []llm.Chunk{toolCall("t1", "echo", `{}`), done(message.TokenUsage{})}
	adapter := &stubAdapter{steps: [][]llm.Chunk{step, step, step}}

	echo := &funcTool{name: "echo", fn: func(map[string]any) (any, error) {
		return map[string]any{"done": false}, nil
	}}

	a, err := New(Config{Model: adapter, Tools: []tool.Tool{echo}, MaxIterations: 3})
	require.NoError(t, err)

	result, err := a.Run(context.Background(), "loop")
	require.NoError(t, err)
	assert.Equal(t, FinishMaxIterations, result.FinishReason)
	assert.Equal(t, "", result.Content)
	assert.Len(t, result.ToolCalls, 3)
}

func TestAgent_DuplicateToolNameRejected(t *testing.T) {
	adapter := &stubAdapter{}
	dup := &funcTool{name: "dup"}
	_, err := New(Config{Model: adapter, Tools: []tool.Tool{dup, dup}})
	require.Error(t, err)
}
