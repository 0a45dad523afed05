package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weaveai/weave/agent/message"
	"github.com/weaveai/weave/llm"
)

// stepAdapter replays one fixed chunk sequence per Chat call, in order.
type stepAdapter struct {
	steps [][]llm.Chunk
	calls int
}

func (s *stepAdapter) Name() string { return "stub" }

func (s *stepAdapter) Chat(ctx context.Context, req llm.Request) (<-chan llm.Chunk, error) {
	step := s.steps[s.calls]
	s.calls++
	ch := make(chan llm.Chunk, len(step))
	for _, c := range step {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func content(delta string) llm.Chunk { return llm.Chunk{Kind: llm.ChunkContent, Delta: delta} }
func done() llm.Chunk                { return llm.Chunk{Kind: llm.ChunkDone} }

func TestWorkflow_OutlineThenDraft(t *testing.T) {
	adapter := &stepAdapter{steps: [][]llm.Chunk{
		{content("# Intro\n# Body"), done()},
		{content("Hello world."), done()},
	}}

	outline := NewLLMNode(LLMNodeConfig{
		Name:    "outline",
		Adapter: adapter,
		Prompt:  func(*Context) string { return "outline this" },
	})
	draft := NewLLMNode(LLMNodeConfig{
		Name:    "content",
		Adapter: adapter,
		Messages: func(wctx *Context) []message.Message {
			out, _ := wctx.NodeOutput("outline")
			return []message.Message{message.NewUser("draft from: " + out.(LLMOutput).Content)}
		},
	})

	g, err := NewGraph([]*Node{outline, draft}, []Edge{{From: "outline", To: "content"}}, "outline")
	require.NoError(t, err)

	var kinds []EventKind
	var tokens string
	var result *ExecutionResult
	for ev, err := range g.Stream(context.Background(), nil) {
		require.NoError(t, err)
		kinds = append(kinds, ev.Kind)
		if ev.Kind == EventLLMToken {
			tokens += ev.Delta
		}
		if ev.Kind == EventWorkflowComplete {
			result = ev.Result
		}
	}

	require.NotNil(t, result)
	assert.Equal(t, []EventKind{
		EventWorkflowStart,
		EventNodeStart, EventLLMToken, EventNodeComplete,
		EventNodeStart, EventLLMToken, EventNodeComplete,
		EventWorkflowComplete,
	}, kinds)
	assert.Equal(t, "# Intro\n# BodyHello world.", tokens)
	assert.Equal(t, "# Intro\n# Body", result.NodeOutputs["outline"].(LLMOutput).Content)
	assert.Equal(t, "Hello world.", result.NodeOutputs["content"].(LLMOutput).Content)
	assert.Greater(t, result.DurationMS, int64(-1))
}

func TestGraph_DuplicateNameRejected(t *testing.T) {
	a := NewCustomNode(CustomNodeConfig{Name: "a", Execute: func(context.Context, *Context) (any, error) { return nil, nil }})
	b := NewCustomNode(CustomNodeConfig{Name: "a", Execute: func(context.Context, *Context) (any, error) { return nil, nil }})
	_, err := NewGraph([]*Node{a, b}, nil, "a")
	require.Error(t, err)
}

func TestGraph_CycleRejected(t *testing.T) {
	a := NewCustomNode(CustomNodeConfig{Name: "a", Execute: func(context.Context, *Context) (any, error) { return nil, nil }})
	b := NewCustomNode(CustomNodeConfig{Name: "b", Execute: func(context.Context, *Context) (any, error) { return nil, nil }})
	_, err := NewGraph([]*Node{a, b}, []Edge{{From: "a", To: "b"}, {From: "b", To: "a"}}, "a")
	require.Error(t, err)
}

func TestGraph_UnknownStartRejected(t *testing.T) {
	a := NewCustomNode(CustomNodeConfig{Name: "a", Execute: func(context.Context, *Context) (any, error) { return nil, nil }})
	_, err := NewGraph([]*Node{a}, nil, "missing")
	require.Error(t, err)
}

func TestCondition_PrunesNonSelectedBranch(t *testing.T) {
	var ranTrue, ranFalse bool

	start := NewConditionNode(ConditionNodeConfig{
		Name:      "check",
		Predicate: func(*Context) bool { return true },
		IfTrue:    "onTrue",
		IfFalse:   "onFalse",
	})
	onTrue := NewCustomNode(CustomNodeConfig{Name: "onTrue", Execute: func(context.Context, *Context) (any, error) {
		ranTrue = true
		return nil, nil
	}})
	onFalse := NewCustomNode(CustomNodeConfig{Name: "onFalse", Execute: func(context.Context, *Context) (any, error) {
		ranFalse = true
		return nil, nil
	}})

	g, err := NewGraph([]*Node{start, onTrue, onFalse},
		[]Edge{{From: "check", To: "onTrue"}, {From: "check", To: "onFalse"}}, "check")
	require.NoError(t, err)

	_, err = g.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, ranTrue)
	assert.False(t, ranFalse)
}

func TestParallel_PreservesOrderRegardlessOfCompletion(t *testing.T) {
	slow := NewCustomNode(CustomNodeConfig{Name: "slow", Execute: func(context.Context, *Context) (any, error) {
		time.Sleep(30 * time.Millisecond)
		return "slow", nil
	}})
	fast := NewCustomNode(CustomNodeConfig{Name: "fast", Execute: func(context.Context, *Context) (any, error) {
		return "fast", nil
	}})

	p := NewParallelNode(ParallelNodeConfig{Name: "p", Branches: []*Node{slow, fast}})

	g, err := NewGraph([]*Node{p}, nil, "p")
	require.NoError(t, err)

	result, err := g.Execute(context.Background(), nil)
	require.NoError(t, err)

	out := result.NodeOutputs["p"].(ParallelOutput)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "slow", out.Results[0])
	assert.Equal(t, "fast", out.Results[1])
}

func TestLoop_TimesBoundedAndBreak(t *testing.T) {
	count := 0
	body := NewCustomNode(CustomNodeConfig{Name: "body", Execute: func(_ context.Context, wctx *Context) (any, error) {
		count++
		if wctx.LoopState().Index == 2 {
			return nil, Break("stopped early")
		}
		return count, nil
	}})

	loop := NewLoopNode(LoopNodeConfig{Name: "loop", Mode: LoopTimes, Times: 10, Body: body})

	g, err := NewGraph([]*Node{loop}, nil, "loop")
	require.NoError(t, err)

	result, err := g.Execute(context.Background(), nil)
	require.NoError(t, err)

	out := result.NodeOutputs["loop"].(LoopOutput)
	assert.True(t, out.Broke)
	assert.Equal(t, "stopped early", out.BrokeWith)
	assert.Equal(t, 3, count)
}

func TestLoop_ReduceThreadsItemAndAccumulator(t *testing.T) {
	var seen []int

	body := NewCustomNode(CustomNodeConfig{Name: "body", Execute: func(_ context.Context, wctx *Context) (any, error) {
		ls := wctx.LoopState()
		item := ls.Item.(int)
		acc, _ := ls.Accumulator.(int)
		seen = append(seen, item)
		return acc + item, nil
	}})

	loop := NewLoopNode(LoopNodeConfig{
		Name:    "sum",
		Mode:    LoopReduce,
		Body:    body,
		Items:   func(*Context) []any { return []any{1, 2, 3} },
		Initial: 0,
	})

	g, err := NewGraph([]*Node{loop}, nil, "sum")
	require.NoError(t, err)

	result, err := g.Execute(context.Background(), nil)
	require.NoError(t, err)

	out := result.NodeOutputs["sum"].(LoopOutput)
	assert.False(t, out.Broke)
	assert.Equal(t, 6, out.Accumulator)
	assert.Equal(t, []int{1, 2, 3}, seen)
}
