package workflow

import (
	"context"
	"iter"
	"time"
)

// Execute runs the graph to completion and returns the sealed result.
func (g *Graph) Execute(ctx context.Context, input any) (*ExecutionResult, error) {
	var result *ExecutionResult
	for ev, err := range g.Stream(ctx, input) {
		if err != nil {
			return nil, err
		}
		if ev.Kind == EventWorkflowComplete || ev.Kind == EventWorkflowError {
			result = ev.Result
		}
	}
	return result, nil
}

// Stream runs the graph, emitting workflow_start, node_start, llm_token,
// node_complete/node_error, and a terminal workflow_complete or
// workflow_error in order.
func (g *Graph) Stream(ctx context.Context, input any) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		start := time.Now()
		wctx := newContext(input)

		// emit forwards an event and reports whether to keep streaming. Once
		// yield returns false the consumer has stopped ranging over this
		// sequence, and calling yield again is a panic ("range function
		// continued iteration after loop body returned false") — every call
		// site below must check emit's return and stop immediately.
		emit := func(e Event) bool { return yield(e, nil) }

		if !emit(Event{Kind: EventWorkflowStart}) {
			return
		}

		skipped := make(map[string]bool, len(g.order))
		selected := make(map[string][]string, len(g.order))

		for _, name := range g.order {
			if ctx.Err() != nil {
				res := &ExecutionResult{NodeOutputs: snapshotOutputs(wctx), DurationMS: time.Since(start).Milliseconds(), Error: ctx.Err().Error()}
				emit(Event{Kind: EventWorkflowError, Err: ctx.Err(), Result: res})
				return
			}

			n := g.nodes[name]

			if name != g.start {
				if !g.runnable(name, skipped, selected) {
					skipped[name] = true
					continue
				}
			}

			if !emit(Event{Kind: EventNodeStart, NodeName: name}) {
				return
			}

			stopped := false
			onToken := func(delta string) bool {
				if !emit(Event{Kind: EventLLMToken, NodeName: name, Delta: delta}) {
					stopped = true
					return false
				}
				return true
			}

			out, err := n.execute(ctx, wctx.snapshot(), onToken)
			if stopped {
				return
			}
			if err != nil {
				if !emit(Event{Kind: EventNodeError, NodeName: name, Err: err}) {
					return
				}
				res := &ExecutionResult{NodeOutputs: snapshotOutputs(wctx), DurationMS: time.Since(start).Milliseconds(), Error: err.Error()}
				emit(Event{Kind: EventWorkflowError, Err: err, Result: res})
				return
			}

			wctx.setOutput(name, out)
			if n.branch != nil {
				selected[name] = n.branch(out)
			}

			if !emit(Event{Kind: EventNodeComplete, NodeName: name}) {
				return
			}
		}

		res := &ExecutionResult{NodeOutputs: snapshotOutputs(wctx), DurationMS: time.Since(start).Milliseconds()}
		emit(Event{Kind: EventWorkflowComplete, Result: res})
	}
}

// runnable reports whether name's predecessors have all completed (none
// skipped) and, for any predecessor that branches, that it selected name as
// one of its live successors.
func (g *Graph) runnable(name string, skipped map[string]bool, selected map[string][]string) bool {
	preds := g.pred[name]
	if len(preds) == 0 {
		return false // unreachable from start
	}
	for _, p := range preds {
		if skipped[p] {
			return false
		}
		if sel, branched := selected[p]; branched && !contains(sel, name) {
			return false
		}
	}
	return true
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func snapshotOutputs(wctx *Context) map[string]any {
	cp := wctx.snapshot()
	return cp.nodeOutputs
}
