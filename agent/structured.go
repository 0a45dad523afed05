package agent

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)```")

// coerceStructured attempts to extract and validate structured data from
// content: a fenced JSON block first, then the first balanced-brace region.
// Best-effort and non-fatal — on any failure it returns nil, never an error
// that would fail the run.
func coerceStructured(content string, validate func(any) bool) any {
	if content == "" {
		return nil
	}

	if m := fencedJSON.FindStringSubmatch(content); m != nil {
		if v, ok := tryParse(strings.TrimSpace(m[1]), validate); ok {
			return v
		}
	}

	if region, ok := firstBalancedBraces(content); ok {
		if v, ok := tryParse(region, validate); ok {
			return v
		}
	}

	return nil
}

func tryParse(candidate string, validate func(any) bool) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return nil, false
	}
	if validate != nil && !validate(v) {
		return nil, false
	}
	return v, true
}

// firstBalancedBraces locates the first top-level {...} region, respecting
// string literals so braces inside quoted text don't unbalance the count.
func firstBalancedBraces(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
