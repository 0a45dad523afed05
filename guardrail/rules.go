package guardrail

import (
	"fmt"
	"strings"
)

// MaxLengthRule blocks content longer than Limit runes. A reference
// implementation (spec §4.8 EXPANSION) — not a policy surface.
type MaxLengthRule struct {
	Limit int
	phase Phase
}

// NewMaxLengthRule builds a blocking length check for the given phase.
func NewMaxLengthRule(limit int, phase Phase) *MaxLengthRule {
	return &MaxLengthRule{Limit: limit, phase: phase}
}

func (r *MaxLengthRule) Name() string   { return "max_length" }
func (r *MaxLengthRule) Phase() Phase   { return r.phase }
func (r *MaxLengthRule) Action() Action { return ActionBlock }

func (r *MaxLengthRule) Check(content string) (bool, []Violation, *string) {
	n := len([]rune(content))
	if n <= r.Limit {
		return true, nil, nil
	}
	return false, []Violation{{
		Rule:     r.Name(),
		Severity: SeverityBlock,
		Message:  fmt.Sprintf("content length %d exceeds limit %d", n, r.Limit),
	}}, nil
}

// BannedTermsRule redacts a fixed list of terms, replacing each with a mask
// string. Matching is case-insensitive. Grounded on the teacher's
// pkg/rag/sanitize.go sanitizeInput (same find-and-strip shape, generalized
// from a hardcoded pattern list to a caller-supplied term list and plugged
// into the rule-chain contract instead of being called inline).
type BannedTermsRule struct {
	Terms []string
	Mask  string
	phase Phase
}

// NewBannedTermsRule builds a redacting rule over terms, masking matches
// with mask (default "[REDACTED]" if empty).
func NewBannedTermsRule(terms []string, mask string, phase Phase) *BannedTermsRule {
	if mask == "" {
		mask = "[REDACTED]"
	}
	return &BannedTermsRule{Terms: terms, Mask: mask, phase: phase}
}

func (r *BannedTermsRule) Name() string   { return "banned_terms" }
func (r *BannedTermsRule) Phase() Phase   { return r.phase }
func (r *BannedTermsRule) Action() Action { return ActionRedact }

func (r *BannedTermsRule) Check(content string) (bool, []Violation, *string) {
	var violations []Violation
	out := content
	for _, term := range r.Terms {
		if term == "" {
			continue
		}
		idx := strings.Index(strings.ToLower(out), strings.ToLower(term))
		if idx < 0 {
			continue
		}
		violations = append(violations, Violation{
			Rule:     r.Name(),
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("banned term %q found", term),
		})
		out = replaceFold(out, term, r.Mask)
	}
	if len(violations) == 0 {
		return true, nil, nil
	}
	return false, violations, &out
}

// replaceFold replaces every case-insensitive occurrence of old in s with
// new, preserving the rest of s byte-for-byte.
func replaceFold(s, old, new string) string {
	lowerS := strings.ToLower(s)
	lowerOld := strings.ToLower(old)
	var b strings.Builder
	for {
		idx := strings.Index(lowerS, lowerOld)
		if idx < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:idx])
		b.WriteString(new)
		s = s[idx+len(old):]
		lowerS = lowerS[idx+len(old):]
	}
	return b.String()
}
