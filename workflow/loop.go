package workflow

import (
	"context"
	"errors"
)

// breakSignal and continueSignal let a loop body's node control iteration
// by returning one from its Execute, rather than threading a separate
// control channel through every node kind.
type breakSignal struct{ value any }

func (breakSignal) Error() string { return "workflow: loop break" }

type continueSignal struct{}

func (continueSignal) Error() string { return "workflow: loop continue" }

// Break terminates the enclosing loop node, optionally appending value as a
// final result.
func Break(value any) error { return breakSignal{value: value} }

// Continue skips the remainder of the current iteration and advances the
// loop.
func Continue() error { return continueSignal{} }

// LoopMode selects the iteration strategy of a loop node.
type LoopMode string

const (
	LoopWhile   LoopMode = "while"
	LoopUntil   LoopMode = "until"
	LoopTimes   LoopMode = "times"
	LoopForEach LoopMode = "forEach"
	LoopReduce  LoopMode = "reduce"
)

// LoopOutput is the output value a loop node installs into the workflow
// context: one entry per completed iteration, in order, plus the final
// value passed to Break (if any) and, for reduce loops, the final
// accumulator.
type LoopOutput struct {
	Results     []any
	BrokeWith   any
	Broke       bool
	Accumulator any
}

// LoopNodeConfig configures a loop node. Body runs once per iteration.
//
//   - While/Until: Body runs until the predicate flips, bounded by
//     MaxIterations (default 100).
//   - Times: Body runs exactly Times times (still bounded by MaxIterations).
//   - ForEach: Items produces a slice up front; Body runs once per item,
//     serially unless Concurrency > 1, in which case it reuses the parallel
//     node's bounded fan-out with ordered results.
//   - Reduce: strictly serial; the accumulator threads through
//     Context.LoopState().Accumulator, seeded from Initial, and the node's
//     Body return value becomes the next accumulator.
type LoopNodeConfig struct {
	Name          string
	Mode          LoopMode
	Body          *Node
	While         func(wctx *Context, iteration int) bool
	Until         func(wctx *Context, iteration int) bool
	Times         int
	MaxIterations int
	Items         func(wctx *Context) []any
	Initial       any
	Concurrency   int
}

// NewLoopNode builds a loop node per cfg.Mode.
func NewLoopNode(cfg LoopNodeConfig) *Node {
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 100
	}

	var exec execFunc
	switch cfg.Mode {
	case LoopReduce:
		exec = reduceExec(cfg)
	case LoopForEach:
		exec = forEachExec(cfg, maxIter)
	default:
		exec = predicateExec(cfg, maxIter)
	}

	return &Node{Name: cfg.Name, Kind: KindLoop, execute: exec}
}

func predicateExec(cfg LoopNodeConfig, maxIter int) execFunc {
	return func(ctx context.Context, wctx *Context, onToken func(string) bool) (any, error) {
		var results []any
		out := LoopOutput{}

		for i := 0; i < maxIter; i++ {
			if cfg.Mode == LoopWhile && cfg.While != nil && !cfg.While(wctx, i) {
				break
			}
			if cfg.Mode == LoopUntil && cfg.Until != nil && cfg.Until(wctx, i) {
				break
			}
			if cfg.Mode == LoopTimes && i >= cfg.Times {
				break
			}

			ls := &LoopState{Index: i, Iteration: i, IsFirst: i == 0}
			val, err := cfg.Body.execute(ctx, wctx.withLoopState(ls), onToken)
			if err != nil {
				var brk breakSignal
				if errors.As(err, &brk) {
					out.Broke = true
					out.BrokeWith = brk.value
					if brk.value != nil {
						results = append(results, brk.value)
					}
					out.Results = results
					return out, nil
				}
				var cont continueSignal
				if errors.As(err, &cont) {
					continue
				}
				return nil, err
			}
			results = append(results, val)
		}

		out.Results = results
		return out, nil
	}
}

func forEachExec(cfg LoopNodeConfig, maxIter int) execFunc {
	return func(ctx context.Context, wctx *Context, onToken func(string) bool) (any, error) {
		items := cfg.Items(wctx)
		if len(items) > maxIter {
			items = items[:maxIter]
		}

		if cfg.Concurrency > 1 {
			pn := NewParallelNode(ParallelNodeConfig{
				Name:           cfg.Name + ".foreach",
				ForEach:        func(*Context) []any { return items },
				Item:           cfg.Body,
				MaxConcurrency: cfg.Concurrency,
				Failure:        FailAll,
			})
			out, err := pn.execute(ctx, wctx, onToken)
			if err != nil {
				return nil, err
			}
			return LoopOutput{Results: out.(ParallelOutput).Results}, nil
		}

		var results []any
		for i, item := range items {
			ls := &LoopState{Index: i, Iteration: i, IsFirst: i == 0, IsLast: i == len(items)-1, Item: item}
			val, err := cfg.Body.execute(ctx, wctx.withLoopState(ls), onToken)
			if err != nil {
				var brk breakSignal
				if errors.As(err, &brk) {
					if brk.value != nil {
						results = append(results, brk.value)
					}
					return LoopOutput{Results: results, Broke: true, BrokeWith: brk.value}, nil
				}
				var cont continueSignal
				if errors.As(err, &cont) {
					continue
				}
				return nil, err
			}
			results = append(results, val)
		}
		return LoopOutput{Results: results}, nil
	}
}

func reduceExec(cfg LoopNodeConfig) execFunc {
	return func(ctx context.Context, wctx *Context, onToken func(string) bool) (any, error) {
		items := cfg.Items(wctx)
		acc := cfg.Initial

		for i, item := range items {
			ls := &LoopState{Index: i, Iteration: i, IsFirst: i == 0, IsLast: i == len(items)-1, Item: item, Accumulator: acc}
			val, err := cfg.Body.execute(ctx, wctx.withLoopState(ls), onToken)
			if err != nil {
				var brk breakSignal
				if errors.As(err, &brk) {
					return LoopOutput{Accumulator: acc, Broke: true, BrokeWith: brk.value}, nil
				}
				var cont continueSignal
				if errors.As(err, &cont) {
					continue
				}
				return nil, err
			}
			acc = val
		}
		return LoopOutput{Accumulator: acc}, nil
	}
}
