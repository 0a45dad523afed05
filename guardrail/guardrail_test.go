package guardrail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_BlockStopsChain(t *testing.T) {
	var ran bool
	blocker := NewMaxLengthRule(5, PhaseInput)
	marker := &fnRule{name: "marker", phase: PhaseInput, action: ActionWarn, fn: func(string) (bool, []Violation, *string) {
		ran = true
		return true, nil, nil
	}}

	p := New(blocker, marker)
	result := p.Run(PhaseInput, "way too long for the limit")

	assert.False(t, result.Passed)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, "max_length", result.Violations[0].Rule)
	assert.False(t, ran, "rule after a block must not run")
}

func TestPipeline_RedactPropagatesToNextRule(t *testing.T) {
	banned := NewBannedTermsRule([]string{"secret"}, "***", PhaseInput)
	var seen string
	observer := &fnRule{name: "observer", phase: PhaseInput, action: ActionWarn, fn: func(c string) (bool, []Violation, *string) {
		seen = c
		return true, nil, nil
	}}

	p := New(banned, observer)
	result := p.Run(PhaseInput, "the secret plan")

	assert.True(t, result.Passed)
	assert.Equal(t, "the *** plan", result.Content)
	assert.Equal(t, "the *** plan", seen)
	require.Len(t, result.Violations, 1)
}

func TestPipeline_PhaseFiltering(t *testing.T) {
	inputOnly := NewMaxLengthRule(1, PhaseInput)
	p := New(inputOnly)

	result := p.Run(PhaseOutput, "plenty long content")
	assert.True(t, result.Passed)
	assert.Empty(t, result.Violations)
}

type fnRule struct {
	name   string
	phase  Phase
	action Action
	fn     func(string) (bool, []Violation, *string)
}

func (r *fnRule) Name() string   { return r.name }
func (r *fnRule) Phase() Phase   { return r.phase }
func (r *fnRule) Action() Action { return r.action }
func (r *fnRule) Check(content string) (bool, []Violation, *string) {
	return r.fn(content)
}
