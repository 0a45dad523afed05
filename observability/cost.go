package observability

import "github.com/weaveai/weave/agent/message"

// ModelPricing is the per-million-token USD rate for one model.
type ModelPricing struct {
	PromptPerMillion     float64
	CompletionPerMillion float64
}

// CostModel turns a TokenUsage into an estimated dollar cost. It is a plain
// lookup table, not a billing system — spec §4.7 names "token/cost
// accounting" without specifying a pricing source, so this ships a small
// default table for the two wired adapters and falls back to zero cost for
// unknown models rather than guessing.
type CostModel struct {
	Pricing map[string]ModelPricing
}

// DefaultCostModel ships rough, clearly-approximate rates for the adapters
// this module wires (llm/anthropic, llm/openai); callers running other
// models should supply their own table.
func DefaultCostModel() CostModel {
	return CostModel{Pricing: map[string]ModelPricing{
		"claude-opus-4":    {PromptPerMillion: 15, CompletionPerMillion: 75},
		"claude-sonnet-4":  {PromptPerMillion: 3, CompletionPerMillion: 15},
		"claude-haiku-3.5": {PromptPerMillion: 0.8, CompletionPerMillion: 4},
		"gpt-4o":           {PromptPerMillion: 2.5, CompletionPerMillion: 10},
		"gpt-4o-mini":      {PromptPerMillion: 0.15, CompletionPerMillion: 0.6},
	}}
}

// Cost estimates the USD cost of usage against model's pricing row. Unknown
// models cost 0 rather than panicking or guessing a rate.
func (c CostModel) Cost(model string, usage message.TokenUsage) float64 {
	p, ok := c.Pricing[model]
	if !ok {
		return 0
	}
	return float64(usage.Prompt)/1_000_000*p.PromptPerMillion +
		float64(usage.Completion)/1_000_000*p.CompletionPerMillion
}
