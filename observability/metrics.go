package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/weaveai/weave/agent/message"
)

// Metrics holds the Prometheus counters/histograms spec §4.7's "token/cost
// accounting" phrase asks for. Grounded on the teacher's
// pkg/observability/metrics.go CounterVec/HistogramVec shape, narrowed to
// LLM token/cost counters plus call-count and latency families for LLM
// calls, tool calls, and agent runs (the teacher's HTTP/session/RAG metric
// families are specific to its own server, not part of this runtime).
type Metrics struct {
	registry *prometheus.Registry

	tokensTotal   *prometheus.CounterVec
	costTotal     *prometheus.CounterVec
	llmCalls      *prometheus.CounterVec
	llmDuration   *prometheus.HistogramVec
	toolCalls     *prometheus.CounterVec
	toolDuration  *prometheus.HistogramVec
	agentRuns     *prometheus.CounterVec
	agentDuration *prometheus.HistogramVec
}

// NewMetrics registers the runtime's counters against a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		tokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weave_llm_tokens_total",
			Help: "Cumulative prompt/completion tokens consumed.",
		}, []string{"model", "kind"}),
		costTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weave_llm_cost_usd_total",
			Help: "Cumulative estimated USD cost of LLM calls.",
		}, []string{"model"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weave_llm_calls_total",
			Help: "Adapter calls made, by model and outcome.",
		}, []string{"model", "outcome"}),
		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "weave_llm_call_duration_seconds",
			Help: "Adapter call latency.",
		}, []string{"model"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weave_tool_calls_total",
			Help: "Tool invocations, by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "weave_tool_call_duration_seconds",
			Help: "Tool execution latency.",
		}, []string{"tool"}),
		agentRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weave_agent_runs_total",
			Help: "Agent runs completed, by finish reason.",
		}, []string{"agent", "finish_reason"}),
		agentDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "weave_agent_run_duration_seconds",
			Help: "Agent run latency.",
		}, []string{"agent"}),
	}
	reg.MustRegister(m.tokensTotal, m.costTotal, m.llmCalls, m.llmDuration,
		m.toolCalls, m.toolDuration, m.agentRuns, m.agentDuration)
	return m
}

// Registry exposes the underlying registry for an HTTP /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RecordUsage accumulates token counts and estimated cost for one LLM call.
func (m *Metrics) RecordUsage(model string, usage message.TokenUsage, costModel CostModel) {
	m.tokensTotal.WithLabelValues(model, "prompt").Add(float64(usage.Prompt))
	m.tokensTotal.WithLabelValues(model, "completion").Add(float64(usage.Completion))
	m.costTotal.WithLabelValues(model).Add(costModel.Cost(model, usage))
}

// RecordLLMCall records one adapter call's outcome and latency.
func (m *Metrics) RecordLLMCall(model, outcome string, seconds float64) {
	m.llmCalls.WithLabelValues(model, outcome).Inc()
	m.llmDuration.WithLabelValues(model).Observe(seconds)
}

// RecordToolCall records one tool invocation's outcome and latency.
func (m *Metrics) RecordToolCall(tool, outcome string, seconds float64) {
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(seconds)
}

// RecordAgentRun records one agent run's finish reason and latency.
func (m *Metrics) RecordAgentRun(agent, finishReason string, seconds float64) {
	m.agentRuns.WithLabelValues(agent, finishReason).Inc()
	m.agentDuration.WithLabelValues(agent).Observe(seconds)
}
