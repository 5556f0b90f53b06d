// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oracle

import "strings"

// StripFences removes a surrounding Markdown code fence, with or without a
// language tag. Models frequently fence JSON replies even when told not to.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 && !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// FirstJSONObject returns the first balanced brace-delimited substring of s.
func FirstJSONObject(s string) (string, bool) {
	return firstBalanced(s, '{', '}')
}

// FirstJSONArray returns the first balanced bracket-delimited substring of s.
func FirstJSONArray(s string) (string, bool) {
	return firstBalanced(s, '[', ']')
}

func firstBalanced(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
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
