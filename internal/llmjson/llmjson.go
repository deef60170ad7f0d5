// Package llmjson recovers a JSON payload from model output that may be
// wrapped in code fences or surrounded by prose.
package llmjson

import (
	"errors"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNoJSON is returned when no candidate in the fallback chain is valid JSON
// of the requested shape.
var ErrNoJSON = errors.New("no JSON payload found in model output")

var fenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)\\s*```")

// Object returns the raw JSON text of the first recoverable object in raw.
func Object(raw string) (string, error) {
	return extract(raw, '{', '}')
}

// Array returns the raw JSON text of the first recoverable array in raw.
func Array(raw string) (string, error) {
	return extract(raw, '[', ']')
}

// extract tries, in order: the whole text, the contents of a code fence,
// the first balanced open..close span, and the first-open..last-close slice.
func extract(raw string, open, close byte) (string, error) {
	candidates := []string{strings.TrimSpace(raw)}
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	stripped := stripFences(raw)
	if span, ok := balanced(stripped, open, close); ok {
		candidates = append(candidates, span)
	}
	if i, j := strings.IndexByte(stripped, open), strings.LastIndexByte(stripped, close); i >= 0 && j > i {
		candidates = append(candidates, stripped[i:j+1])
	}

	for _, c := range candidates {
		if c == "" || c[0] != open || !gjson.Valid(c) {
			continue
		}
		return c, nil
	}
	return "", ErrNoJSON
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	return strings.ReplaceAll(s, "```", "")
}

// balanced finds the first open delimiter and returns the span up to its
// matching close, skipping delimiters inside string literals.
func balanced(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
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
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
