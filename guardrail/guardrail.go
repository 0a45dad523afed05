// Package guardrail implements the input/output rule pipeline: an ordered
// chain of content rules that can pass, block, or transform text before it
// reaches the model (input) or before it reaches the caller (output).
//
// The rules' bodies are not this package's concern (spec §1 scopes "security
// rule bodies" out) — only the chain shape: ordered evaluation, transform
// propagation, and the pass/block/violations result.
package guardrail

// Severity classifies how serious a Violation is. It does not itself decide
// pipeline behavior — that is the rule's Action.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityBlock   Severity = "block"
)

// Violation is one rule's structured complaint about content.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
}

// Action is what a rule does when it finds something worth flagging.
type Action string

const (
	// ActionBlock stops the pipeline at this rule: passed=false, no further
	// rules run, and the transformed content (if any) is discarded.
	ActionBlock Action = "block"
	// ActionWarn records violations but lets the pipeline continue with
	// content unchanged.
	ActionWarn Action = "warn"
	// ActionRedact transforms the content; later rules see the transformed
	// text.
	ActionRedact Action = "redact"
)

// Phase says whether a Rule runs over model input, model output, or both.
type Phase string

const (
	PhaseInput  Phase = "input"
	PhaseOutput Phase = "output"
	PhaseBoth   Phase = "both"
)

// Rule is one pipeline stage. Check inspects content and reports whether it
// passes, any violations found, and an optional rewritten version of content
// (non-nil only when the rule's Action is ActionRedact and it changed
// something).
type Rule interface {
	Name() string
	Phase() Phase
	Action() Action
	Check(content string) (passed bool, violations []Violation, transformed *string)
}

// Result is a pipeline run's merged outcome.
type Result struct {
	Passed     bool
	Violations []Violation
	Content    string
}

// Pipeline runs an ordered chain of Rules against content, filtering to the
// rules applicable to phase.
//
// Grounded on spec §4.6's rule-chain contract: each rule runs in declared
// order; a transformedContent result is visible to subsequent rules; the
// merged result carries the union of violations and the final content.
// ActionBlock on a failing check halts the chain immediately, matching
// §4.6's "block stops the pipeline at the first hard failure".
type Pipeline struct {
	rules []Rule
}

// New builds a pipeline from rules, in the order they'll run.
func New(rules ...Rule) *Pipeline {
	return &Pipeline{rules: rules}
}

// Run evaluates content against every rule applicable to phase, in order.
func (p *Pipeline) Run(phase Phase, content string) Result {
	result := Result{Passed: true, Content: content}

	for _, r := range p.rules {
		if r.Phase() != phase && r.Phase() != PhaseBoth {
			continue
		}

		passed, violations, transformed := r.Check(result.Content)
		result.Violations = append(result.Violations, violations...)

		if !passed {
			switch r.Action() {
			case ActionBlock:
				result.Passed = false
				return result
			case ActionWarn:
				// Violations already recorded; content passes through.
			case ActionRedact:
				if transformed != nil {
					result.Content = *transformed
				}
			}
			continue
		}

		if transformed != nil {
			result.Content = *transformed
		}
	}

	return result
}
