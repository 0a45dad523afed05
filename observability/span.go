// Package observability implements the tracing/metrics spine: a span tree
// rooted at each agent or workflow run, wrapping agent/tool/llm calls with
// attributes, exported via OpenTelemetry (console or OTLP-over-HTTP), plus
// token/cost counters via Prometheus.
//
// Grounded structurally on the teacher's pkg/observability — this module
// wires the real go.opentelemetry.io/otel SDK directly (as the teacher
// does) rather than reimplementing span propagation, since spec §4.7
// describes exactly the shape OpenTelemetry already provides.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanType classifies what a span represents, per spec §3's TraceSpan.
type SpanType string

const (
	SpanLLM      SpanType = "llm"
	SpanTool     SpanType = "tool"
	SpanAgent    SpanType = "agent"
	SpanWorkflow SpanType = "workflow"
	SpanCustom   SpanType = "custom"
)

// Span wraps an otel trace.Span with the typed attribute helpers spec §4.7
// calls for, so call sites don't construct attribute.KeyValue by hand.
type Span struct {
	otel  trace.Span
	kind  SpanType
	start time.Time
}

// Tracer is the thin factory agent/workflow/tool call sites use to open
// spans; it is just otel's Tracer plus the typed Start* helpers.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer wraps an otel Tracer obtained from a configured TracerProvider
// (see Init).
func NewTracer(name string, provider trace.TracerProvider) *Tracer {
	return &Tracer{tracer: provider.Tracer(name)}
}

// StartAgentSpan opens a span for one agent run.
func (t *Tracer) StartAgentSpan(ctx context.Context, agentName string) (context.Context, *Span) {
	ctx, s := t.tracer.Start(ctx, "agent.run", trace.WithAttributes(
		attribute.String("agent.name", agentName),
	))
	return ctx, &Span{otel: s, kind: SpanAgent, start: time.Now()}
}

// StartToolSpan opens a span for one tool invocation.
func (t *Tracer) StartToolSpan(ctx context.Context, toolName string) (context.Context, *Span) {
	ctx, s := t.tracer.Start(ctx, "tool.call", trace.WithAttributes(
		attribute.String("tool.name", toolName),
	))
	return ctx, &Span{otel: s, kind: SpanTool, start: time.Now()}
}

// StartLLMSpan opens a span for one adapter call.
func (t *Tracer) StartLLMSpan(ctx context.Context, model string) (context.Context, *Span) {
	ctx, s := t.tracer.Start(ctx, "llm.chat", trace.WithAttributes(
		attribute.String("llm.model", model),
	))
	return ctx, &Span{otel: s, kind: SpanLLM, start: time.Now()}
}

// StartWorkflowSpan opens a span for one workflow execution.
func (t *Tracer) StartWorkflowSpan(ctx context.Context, workflowName string) (context.Context, *Span) {
	ctx, s := t.tracer.Start(ctx, "workflow.execute", trace.WithAttributes(
		attribute.String("workflow.name", workflowName),
	))
	return ctx, &Span{otel: s, kind: SpanWorkflow, start: time.Now()}
}

// SetUsage records prompt/completion/total token counts on an LLM span.
func (s *Span) SetUsage(prompt, completion, total int) {
	s.otel.SetAttributes(
		attribute.Int("llm.tokens.prompt", prompt),
		attribute.Int("llm.tokens.completion", completion),
		attribute.Int("llm.tokens.total", total),
	)
}

// SetAttribute records an arbitrary string attribute.
func (s *Span) SetAttribute(key, value string) {
	s.otel.SetAttributes(attribute.String(key, value))
}

// Duration returns elapsed time since the span started.
func (s *Span) Duration() time.Duration { return time.Since(s.start) }

// RecordError marks the span as failed and attaches err as an event.
func (s *Span) RecordError(err error) {
	if err == nil {
		return
	}
	s.otel.RecordError(err)
	s.otel.SetStatus(codes.Error, err.Error())
}

// End seals the span, recording its duration_ms attribute. Status is set
// only by RecordError.
func (s *Span) End() {
	s.otel.SetAttributes(attribute.Int64("duration_ms", s.Duration().Milliseconds()))
	s.otel.End()
}
