package workflow

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/weaveai/weave/agent/message"
	"github.com/weaveai/weave/internal/retry"
	"github.com/weaveai/weave/llm"
	"github.com/weaveai/weave/tool"
)

// LLMOutput is the output value an LLM node installs into the workflow
// context under its own name.
type LLMOutput struct {
	Content string
	Usage   message.TokenUsage
}

// LLMNodeConfig configures an LLM node. Exactly one of Prompt or Messages
// should be set; Prompt produces a single user message, Messages a full
// non-system sequence (any system entries within it are stripped — the
// node's SystemPrompt is the only system voice).
type LLMNodeConfig struct {
	Name         string
	Adapter      llm.Adapter
	SystemPrompt string
	Temperature  float64
	Tools        []tool.Schema
	Prompt       func(wctx *Context) string
	Messages     func(wctx *Context) []message.Message
	Retry        retry.Config
}

// NewLLMNode builds an LLM node that streams content as llm_token events.
func NewLLMNode(cfg LLMNodeConfig) *Node {
	r := cfg.Retry
	if r.MaxAttempts == 0 {
		r = retry.Default()
	}

	exec := func(ctx context.Context, wctx *Context, onToken func(string) bool) (any, error) {
		var msgs []message.Message
		if cfg.Messages != nil {
			for _, m := range cfg.Messages(wctx) {
				if m.Role == message.RoleSystem {
					continue
				}
				msgs = append(msgs, m)
			}
		} else if cfg.Prompt != nil {
			msgs = []message.Message{message.NewUser(cfg.Prompt(wctx))}
		}

		req := llm.Request{
			Messages:     msgs,
			SystemPrompt: cfg.SystemPrompt,
			Tools:        cfg.Tools,
			Temperature:  cfg.Temperature,
		}

		var content string
		var usage message.TokenUsage
		stopped := false

		err := retry.Do(ctx, r, func() error {
			content, usage = "", message.TokenUsage{}
			ch, err := cfg.Adapter.Chat(ctx, req)
			if err != nil {
				return err
			}
			for chunk := range ch {
				switch chunk.Kind {
				case llm.ChunkContent:
					content += chunk.Delta
					if onToken != nil && !onToken(chunk.Delta) {
						stopped = true
						return nil
					}
				case llm.ChunkDone:
					usage = chunk.Usage
				case llm.ChunkError:
					return chunk.Err
				}
			}
			return nil
		})
		if stopped {
			return LLMOutput{Content: content, Usage: usage}, nil
		}
		if err != nil {
			return nil, err
		}

		return LLMOutput{Content: content, Usage: usage}, nil
	}

	return &Node{Name: cfg.Name, Kind: KindLLM, execute: exec}
}

// ToolOutput is the output value a tool node installs into the workflow
// context under its own name.
type ToolOutput struct {
	Success    bool
	Data       any
	Error      string
	DurationNS int64
}

// ToolNodeConfig configures a tool node.
type ToolNodeConfig struct {
	Name      string
	Tool      tool.Tool
	Input     func(wctx *Context) map[string]any
	Transform func(data any) any
}

// NewToolNode builds a node that wraps a tool invocation.
func NewToolNode(cfg ToolNodeConfig) *Node {
	exec := func(ctx context.Context, wctx *Context, _ func(string) bool) (any, error) {
		args := map[string]any{}
		if cfg.Input != nil {
			args = cfg.Input(wctx)
		}

		if !cfg.Tool.Validate(args) {
			return ToolOutput{Success: false, Error: "arguments failed schema validation"}, nil
		}

		toolCtx := tool.Context{ExecutionID: cfg.Name, Signal: ctx}
		res := cfg.Tool.Execute(toolCtx, args)

		out := ToolOutput{Success: res.Success, Data: res.Data, Error: res.Error, DurationNS: int64(res.Duration)}
		if res.Success && cfg.Transform != nil {
			out.Data = cfg.Transform(res.Data)
		}
		return out, nil
	}

	return &Node{Name: cfg.Name, Kind: KindTool, execute: exec}
}

// ConditionNodeConfig configures a two-way branch node.
type ConditionNodeConfig struct {
	Name      string
	Predicate func(wctx *Context) bool
	IfTrue    string
	IfFalse   string
}

// NewConditionNode builds a node whose branch decision prunes the
// non-selected successor for this execution.
func NewConditionNode(cfg ConditionNodeConfig) *Node {
	exec := func(_ context.Context, wctx *Context, _ func(string) bool) (any, error) {
		return cfg.Predicate(wctx), nil
	}
	branch := func(output any) []string {
		if output.(bool) {
			return []string{cfg.IfTrue}
		}
		return []string{cfg.IfFalse}
	}
	return &Node{Name: cfg.Name, Kind: KindCondition, execute: exec, branch: branch}
}

// SwitchNodeConfig configures a multi-way branch node.
type SwitchNodeConfig struct {
	Name    string
	Key     func(wctx *Context) string
	Cases   map[string]string
	Default string
}

// NewSwitchNode builds a multi-way branch node.
func NewSwitchNode(cfg SwitchNodeConfig) *Node {
	exec := func(_ context.Context, wctx *Context, _ func(string) bool) (any, error) {
		return cfg.Key(wctx), nil
	}
	branch := func(output any) []string {
		key := output.(string)
		if to, ok := cfg.Cases[key]; ok {
			return []string{to}
		}
		return []string{cfg.Default}
	}
	return &Node{Name: cfg.Name, Kind: KindSwitch, execute: exec, branch: branch}
}

// FailurePolicy governs how a parallel node reacts to a branch/item error.
type FailurePolicy string

const (
	FailAll     FailurePolicy = "all"
	FailPartial FailurePolicy = "partial"
)

// ParallelOutput is the output value a parallel node installs into the
// workflow context: Results preserves input order regardless of completion
// order; Errors (only populated under FailPartial) is keyed by index.
type ParallelOutput struct {
	Results []any
	Errors  map[int]string
}

// ParallelNodeConfig configures a parallel node. Either Branches (a fixed
// list of distinct nodes) or ForEach+Item (one item-processing node run per
// produced item) must be set, never both.
type ParallelNodeConfig struct {
	Name           string
	Branches       []*Node
	ForEach        func(wctx *Context) []any
	Item           *Node
	MaxConcurrency int
	Failure        FailurePolicy
}

// NewParallelNode builds a bounded-concurrency fan-out node.
func NewParallelNode(cfg ParallelNodeConfig) *Node {
	maxConc := cfg.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 10
	}
	policy := cfg.Failure
	if policy == "" {
		policy = FailAll
	}

	exec := func(ctx context.Context, wctx *Context, _ func(string) bool) (any, error) {
		var items []any
		var runNode func(i int) *Node
		if cfg.ForEach != nil {
			items = cfg.ForEach(wctx)
			runNode = func(int) *Node { return cfg.Item }
		} else {
			items = make([]any, len(cfg.Branches))
			runNode = func(i int) *Node { return cfg.Branches[i] }
		}

		n := len(items)
		results := make([]any, n)
		errsByIdx := make(map[int]string)
		var mu sync.Mutex
		sem := make(chan struct{}, maxConc)

		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < n; i++ {
			i := i
			g.Go(func() error {
				sem <- struct{}{}
				defer func() { <-sem }()

				ls := &LoopState{Index: i, IsFirst: i == 0, IsLast: i == n-1, Item: items[i]}
				out, err := runNode(i).execute(gctx, wctx.withLoopState(ls), nil)
				if err != nil {
					if policy == FailAll {
						return fmt.Errorf("branch %d: %w", i, err)
					}
					mu.Lock()
					errsByIdx[i] = err.Error()
					mu.Unlock()
					return nil
				}
				mu.Lock()
				results[i] = out
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}

		return ParallelOutput{Results: results, Errors: errsByIdx}, nil
	}

	return &Node{Name: cfg.Name, Kind: KindParallel, execute: exec}
}

// CustomNodeConfig configures an arbitrary node.
type CustomNodeConfig struct {
	Name         string
	Execute      func(ctx context.Context, wctx *Context) (any, error)
	InputSchema  func(any) bool
	OutputSchema func(any) bool
}

// NewCustomNode builds a node around an arbitrary execute function,
// optionally enforcing input/output schemas.
func NewCustomNode(cfg CustomNodeConfig) *Node {
	exec := func(ctx context.Context, wctx *Context, _ func(string) bool) (any, error) {
		if cfg.InputSchema != nil && !cfg.InputSchema(wctx.InitialInput()) {
			return nil, fmt.Errorf("input failed schema validation")
		}
		out, err := cfg.Execute(ctx, wctx)
		if err != nil {
			return nil, err
		}
		if cfg.OutputSchema != nil && !cfg.OutputSchema(out) {
			return nil, fmt.Errorf("output failed schema validation")
		}
		return out, nil
	}
	return &Node{Name: cfg.Name, Kind: KindCustom, execute: exec, inputSchema: cfg.InputSchema, outputSchema: cfg.OutputSchema}
}
