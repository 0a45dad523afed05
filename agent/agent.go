// Package agent implements the bounded reasoning-acting-observing loop: an
// LLM adapter plus a tool registry, driven to completion or an iteration
// cap, with a streaming chunk vocabulary for callers that want partial
// progress.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/weaveai/weave/agent/message"
	"github.com/weaveai/weave/errs"
	"github.com/weaveai/weave/internal/retry"
	"github.com/weaveai/weave/llm"
	"github.com/weaveai/weave/tool"
)

// Config configures an Agent. Model and SystemPrompt are fixed for the
// agent's lifetime; Tools is read at construction and never mutated
// thereafter.
type Config struct {
	SystemPrompt  string
	Model         llm.Adapter
	Tools         []tool.Tool
	MaxIterations int
	Temperature   float64

	// OutputSchema, when set, validates the best-effort structured value
	// coerced from final content (§4.3.2). Leave nil to skip coercion.
	OutputSchema func(any) bool

	// Retry overrides the default adapter-call retry policy.
	Retry retry.Config
}

// Agent runs the bounded ReAct loop against a configured adapter and tool
// registry.
type Agent struct {
	systemPrompt  string
	model         llm.Adapter
	registry      *tool.Registry
	maxIterations int
	temperature   float64
	outputSchema  func(any) bool
	retry         retry.Config
}

// New validates cfg and builds an Agent. A duplicate tool name is a
// CONFIG_ERROR, always fatal at construction.
func New(cfg Config) (*Agent, error) {
	if cfg.Model == nil {
		return nil, errs.New(errs.ConfigError, "agent.New", fmt.Errorf("model adapter is required"))
	}

	registry, err := tool.NewRegistry(cfg.Tools)
	if err != nil {
		return nil, errs.New(errs.ConfigError, "agent.New", err)
	}

	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 5
	}

	r := cfg.Retry
	if r.MaxAttempts == 0 {
		r = retry.Default()
	}

	return &Agent{
		systemPrompt:  cfg.SystemPrompt,
		model:         cfg.Model,
		registry:      registry,
		maxIterations: maxIter,
		temperature:   cfg.Temperature,
		outputSchema:  cfg.OutputSchema,
		retry:         r,
	}, nil
}

// Run drives the loop to completion and returns the sealed result.
func (a *Agent) Run(ctx context.Context, input string) (*RunResult, error) {
	var result *RunResult
	for chunk, err := range a.Chat(ctx, []message.Message{message.NewUser(input)}) {
		if err != nil {
			return nil, err
		}
		if chunk.Kind == ChunkFinish {
			result = chunk.Finish
		}
	}
	return result, nil
}

// Stream runs the loop seeded by a single user input.
func (a *Agent) Stream(ctx context.Context, input string) iter.Seq2[StreamChunk, error] {
	return a.Chat(ctx, []message.Message{message.NewUser(input)})
}

// Chat runs the loop against a caller-supplied message history.
func (a *Agent) Chat(ctx context.Context, history []message.Message) iter.Seq2[StreamChunk, error] {
	return func(yield func(StreamChunk, error) bool) {
		start := time.Now()
		conversation := append([]message.Message(nil), history...)

		var (
			usage      message.TokenUsage
			records    []message.ToolCallRecord
			finishR    FinishReason
			finalErr   string
			finalText  string
			iterations int
		)

		// emit forwards a chunk to the consumer and reports whether it should
		// keep streaming. Once yield returns false the consumer has stopped
		// ranging over this sequence, and calling yield again is a panic
		// ("range function continued iteration after loop body returned
		// false") — every call site below must check emit's return and stop
		// immediately, without producing any further chunks.
		emit := func(c StreamChunk) bool { return yield(c, nil) }

	loop:
		for iterations = 1; iterations <= a.maxIterations; iterations++ {
			if ctx.Err() != nil {
				finishR = FinishError
				finalErr = ctx.Err().Error()
				if !emit(StreamChunk{Kind: ChunkError, Err: ctx.Err()}) {
					return
				}
				break loop
			}

			req := llm.Request{
				Messages:     conversation,
				SystemPrompt: a.systemPrompt,
				Tools:        a.registry.Schemas(),
				Temperature:  a.temperature,
			}

			assistantContent, calls, stepUsage, stopped, err := a.step(ctx, req, emit)
			usage = usage.Add(stepUsage)
			if stopped {
				return
			}
			if err != nil {
				finishR = FinishError
				finalErr = err.Error()
				if !emit(StreamChunk{Kind: ChunkError, Err: err}) {
					return
				}
				break loop
			}

			if len(calls) == 0 {
				finalText = assistantContent
				finishR = FinishStop
				break loop
			}

			conversation = append(conversation, message.NewAssistant(assistantContent, calls))

			results := a.dispatchAll(ctx, calls)
			for i, call := range calls {
				res := results[i]
				tr := message.ToolResult{
					ToolCallID: call.ID,
					Success:    res.Success,
					Data:       res.Data,
					Error:      res.Error,
					Duration:   int64(res.Duration),
				}
				conversation = append(conversation, message.NewToolResult(call.ID, call.Name, tool.FormatObservation(res)))
				records = append(records, message.ToolCallRecord{ToolCall: call, ToolResult: tr})
				if !emit(StreamChunk{Kind: ChunkToolResult, ToolCallID: call.ID, ToolCallName: call.Name, Args: call.Arguments, Result: &tr}) {
					return
				}
			}
		}

		if finishR == "" {
			finishR = FinishMaxIterations
			iterations = a.maxIterations
		}

		var structured any
		if finishR != FinishError && a.outputSchema != nil {
			structured = coerceStructured(finalText, a.outputSchema)
		}

		result := &RunResult{
			Content:      finalText,
			Structured:   structured,
			ToolCalls:    records,
			Usage:        usage,
			DurationNS:   int64(time.Since(start)),
			FinishReason: finishR,
			Error:        finalErr,
			Iterations:   iterations,
		}
		emit(StreamChunk{Kind: ChunkFinish, Finish: result})
	}
}

// step performs one model call with retry, consuming the chunk stream and
// forwarding content/tool-call chunks to emit. stopped reports that the
// consumer stopped ranging over the stream (emit returned false) mid-step;
// callers must not emit anything further once stopped is true.
func (a *Agent) step(ctx context.Context, req llm.Request, emit func(StreamChunk) bool) (content string, calls []message.ToolCall, usage message.TokenUsage, stopped bool, err error) {
	err = retry.Do(ctx, a.retry, func() error {
		content, calls, usage = "", nil, message.TokenUsage{}

		ch, cerr := a.model.Chat(ctx, req)
		if cerr != nil {
			return errs.New(errs.LLMError, "adapter.Chat", cerr)
		}

		byID := map[string]int{}
		for chunk := range ch {
			switch chunk.Kind {
			case llm.ChunkContent:
				content += chunk.Delta
				if !emit(StreamChunk{Kind: ChunkContent, Delta: chunk.Delta}) {
					stopped = true
					return nil
				}
			case llm.ChunkToolCall:
				if !emit(StreamChunk{Kind: ChunkToolCallStart, ToolCallID: chunk.ToolCallID, ToolCallName: chunk.ToolCallName}) {
					stopped = true
					return nil
				}
				if !emit(StreamChunk{Kind: ChunkToolCallArgs, ToolCallID: chunk.ToolCallID, ToolCallName: chunk.ToolCallName, ArgsJSON: chunk.ArgumentsRaw}) {
					stopped = true
					return nil
				}
				args := decodeArgs(chunk.ArgumentsRaw)
				if !emit(StreamChunk{Kind: ChunkToolCallEnd, ToolCallID: chunk.ToolCallID, ToolCallName: chunk.ToolCallName, Args: args}) {
					stopped = true
					return nil
				}
				if idx, ok := byID[chunk.ToolCallID]; ok {
					calls[idx].Arguments = args
				} else {
					byID[chunk.ToolCallID] = len(calls)
					calls = append(calls, message.ToolCall{ID: chunk.ToolCallID, Name: chunk.ToolCallName, Arguments: args})
				}
			case llm.ChunkDone:
				usage = chunk.Usage
			case llm.ChunkError:
				return errs.New(errs.LLMError, "adapter.Chat", chunk.Err)
			}
		}
		return nil
	})

	return content, calls, usage, stopped, err
}

// dispatchAll runs tool calls concurrently and returns results aligned to
// calls' index, preserving call-id registration order regardless of
// completion order (§4.3.1).
func (a *Agent) dispatchAll(ctx context.Context, calls []message.ToolCall) []tool.Result {
	results := make([]tool.Result, len(calls))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			t, ok := a.registry.Get(call.Name)
			if !ok {
				mu.Lock()
				results[i] = tool.Result{Success: false, Error: fmt.Sprintf("unknown tool %q", call.Name)}
				mu.Unlock()
				return nil
			}

			toolCtx := tool.Context{ExecutionID: call.ID, Signal: gctx}
			if !t.Validate(call.Arguments) {
				mu.Lock()
				results[i] = tool.Result{Success: false, Error: "arguments failed schema validation"}
				mu.Unlock()
				return nil
			}

			res := t.Execute(toolCtx, call.Arguments)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Warn("agent: tool dispatch group error", "err", err)
	}
	return results
}

func decodeArgs(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return map[string]any{}
	}
	return m
}
