package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weaveai/weave/agent/message"
)

func TestTracer_AgentSpanStartsAndEnds(t *testing.T) {
	tp, err := Init(context.Background(), TracerConfig{Exporter: ExporterNone})
	require.NoError(t, err)

	tracer := NewTracer("weave-test", tp)
	ctx, span := tracer.StartAgentSpan(context.Background(), "researcher")
	assert.NotNil(t, ctx)
	span.SetUsage(10, 5, 15)
	span.End()
}

func TestCostModel_KnownAndUnknownModel(t *testing.T) {
	cm := DefaultCostModel()

	cost := cm.Cost("gpt-4o-mini", message.TokenUsage{Prompt: 1_000_000, Completion: 1_000_000})
	assert.InDelta(t, 0.15+0.6, cost, 1e-9)

	assert.Equal(t, 0.0, cm.Cost("unknown-model", message.TokenUsage{Prompt: 100}))
}

func TestMetrics_RecordAndGather(t *testing.T) {
	m := NewMetrics()
	cm := DefaultCostModel()
	m.RecordUsage("gpt-4o", message.TokenUsage{Prompt: 1000, Completion: 500, Total: 1500}, cm)
	m.RecordLLMCall("gpt-4o", "ok", 0.42)
	m.RecordToolCall("search", "ok", 0.01)
	m.RecordAgentRun("researcher", "stop", 1.2)

	mfs, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}
