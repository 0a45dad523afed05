// Package workflow implements a typed node graph executor: llm, tool,
// condition, switch, parallel, custom, and loop nodes wired by named edges,
// topologically scheduled, with per-node context propagation and a
// streaming event vocabulary.
package workflow

import (
	"context"
	"sync"
)

// NodeKind discriminates the Node sum type.
type NodeKind string

const (
	KindLLM       NodeKind = "llm"
	KindTool      NodeKind = "tool"
	KindCondition NodeKind = "condition"
	KindSwitch    NodeKind = "switch"
	KindParallel  NodeKind = "parallel"
	KindCustom    NodeKind = "custom"
	KindLoop      NodeKind = "loop"
)

// execFunc is a node's unit of work. onToken, when non-nil, receives
// content deltas as they stream (LLM nodes only; other kinds ignore it) and
// reports, like a range-over-func yield, whether the caller should keep
// streaming — false means the consumer stopped early and the node must
// return promptly without calling onToken (or anything downstream of it)
// again.
type execFunc func(ctx context.Context, wctx *Context, onToken func(string) bool) (any, error)

// Node is a unit of executable work within a workflow, keyed by a name
// unique across the whole graph.
type Node struct {
	Name string
	Kind NodeKind

	execute execFunc

	// branch, set only on condition/switch nodes, maps a node's own output
	// to the subset of successor names selected for this execution. Nodes
	// reachable only through unselected edges are pruned.
	branch func(output any) []string

	inputSchema  func(any) bool
	outputSchema func(any) bool
}

// Edge connects two nodes by name; Label is informational only.
type Edge struct {
	From, To string
	Label    string
}

// LoopState describes the current position of a forEach/reduce/loop
// iteration, visible to the iteration's node via Context.
type LoopState struct {
	Index       int
	Iteration   int
	IsFirst     bool
	IsLast      bool
	Item        any
	Accumulator any
}

// Context is the view a node sees during its own execution: the workflow's
// initial input, every completed node's output keyed by name, optional loop
// state, and metadata. Mutation is confined to the executor via the
// unexported façade methods below; nodes only ever read through the public
// accessors, which is what makes concurrent (parallel) siblings safe to
// share a single snapshot.
type Context struct {
	mu          sync.RWMutex
	initial     any
	nodeOutputs map[string]any
	loopState   *LoopState
	metadata    map[string]any
}

func newContext(initial any) *Context {
	return &Context{initial: initial, nodeOutputs: make(map[string]any), metadata: make(map[string]any)}
}

// InitialInput returns the value the workflow was invoked with.
func (c *Context) InitialInput() any { return c.initial }

// NodeOutput returns a previously completed node's output.
func (c *Context) NodeOutput(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.nodeOutputs[name]
	return v, ok
}

// LoopState returns the loop iteration state, or nil outside a loop body.
func (c *Context) LoopState() *LoopState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loopState
}

// Metadata returns a metadata value by key.
func (c *Context) Metadata(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.metadata[key]
	return v, ok
}

// snapshot returns a point-in-time copy safe for a concurrent node to read
// without observing later writes from sibling nodes (parallel isolation).
func (c *Context) snapshot() *Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	outputs := make(map[string]any, len(c.nodeOutputs))
	for k, v := range c.nodeOutputs {
		outputs[k] = v
	}
	meta := make(map[string]any, len(c.metadata))
	for k, v := range c.metadata {
		meta[k] = v
	}
	return &Context{initial: c.initial, nodeOutputs: outputs, loopState: c.loopState, metadata: meta}
}

func (c *Context) withLoopState(ls *LoopState) *Context {
	cp := c.snapshot()
	cp.loopState = ls
	return cp
}

func (c *Context) setOutput(name string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodeOutputs[name] = v
}

// EventKind discriminates the workflow stream's wire-shape events.
type EventKind string

const (
	EventWorkflowStart    EventKind = "workflow_start"
	EventNodeStart        EventKind = "node_start"
	EventLLMToken         EventKind = "llm_token"
	EventNodeComplete     EventKind = "node_complete"
	EventWorkflowComplete EventKind = "workflow_complete"
	EventNodeError        EventKind = "node_error"
	EventWorkflowError    EventKind = "workflow_error"
)

// Event is one element of a workflow's streamed execution.
type Event struct {
	Kind     EventKind
	NodeName string
	Delta    string
	Err      error
	Result   *ExecutionResult
}

// ExecutionResult is the sealed outcome of a completed (or aborted)
// workflow run.
type ExecutionResult struct {
	NodeOutputs map[string]any
	DurationMS  int64
	Error       string
}
