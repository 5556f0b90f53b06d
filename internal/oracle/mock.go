// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oracle

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Payload markers delimit the document excerpt inside a prompt. The mock
// backend relies on them to recover the payload; the Claude backend treats
// them as plain text.
const (
	PayloadOpen  = "<<<"
	PayloadClose = ">>>"
)

// Mock is a deterministic offline stand-in for the judgment oracle. It
// inspects the prompt to determine the task and derives fixed, reproducible
// outputs from the payload, so the full pipeline (including the real prompt
// construction and response parsers) can run without network access.
type Mock struct{}

// mockTopics maps a trigger word found in the excerpt to a canned category
// path. First match in alphabetical trigger order wins.
var mockTopics = map[string][3]string{
	"invoice": {"Work", "Finance", "Invoices"},
	"meeting": {"Work", "Meetings", "Notes"},
	"python":  {"Technology", "Programming Language", "Python"},
	"recipe":  {"Life", "Cooking", "Recipes"},
}

// Complete dispatches on the task phrasing of the prompt.
func (m *Mock) Complete(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "three-level category"):
		return m.classify(prompt), nil
	case strings.Contains(prompt, "related document IDs"):
		return m.relate(prompt), nil
	case strings.Contains(prompt, "Key points"):
		return m.facts(prompt), nil
	default:
		return "", fmt.Errorf("mock oracle: unrecognized prompt")
	}
}

func (m *Mock) classify(prompt string) string {
	excerpt := strings.ToLower(payload(prompt))

	var triggers []string
	for t := range mockTopics {
		triggers = append(triggers, t)
	}
	sort.Strings(triggers)

	path := [3]string{"General", "Reference", "Notes"}
	for _, t := range triggers {
		if strings.Contains(excerpt, t) {
			path = mockTopics[t]
			break
		}
	}

	// Fenced output mirrors real model behavior and exercises the caller's
	// fence stripping.
	return fmt.Sprintf("```json\n{\"level1\": %q, \"level2\": %q, \"level3\": %q}\n```",
		path[0], path[1], path[2])
}

func (m *Mock) facts(prompt string) string {
	excerpt := payload(prompt)

	points := sentences(excerpt, 3)
	words := frequentWords(excerpt, 6)

	var sb strings.Builder
	sb.WriteString("{\"key_points\": [")
	for i, p := range points {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", p)
	}
	sb.WriteString("], \"keywords\": [")
	for i, w := range words {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", w)
	}
	sb.WriteString("]}")
	return sb.String()
}

// relate reads the current document's keywords and the processed-document
// summary lines from the prompt and returns the IDs whose keyword sets
// intersect the current set. Two passes, so the sections may appear in any
// order in the prompt.
func (m *Mock) relate(prompt string) string {
	lines := strings.Split(prompt, "\n")

	current := map[string]bool{}
	for _, line := range lines {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), "Current document keywords:")
		if !ok {
			continue
		}
		for _, kw := range strings.Split(rest, ",") {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				current[kw] = true
			}
		}
	}

	var ids []string
	for _, line := range lines {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), "- id: ")
		if !ok {
			continue
		}
		id, kwPart, ok := strings.Cut(rest, " keywords: ")
		if !ok {
			continue
		}
		id = strings.TrimSpace(strings.TrimSuffix(strings.Fields(id)[0], ","))
		for _, kw := range strings.Split(kwPart, ",") {
			if current[strings.ToLower(strings.TrimSpace(kw))] {
				ids = append(ids, id)
				break
			}
		}
	}

	sort.Strings(ids)
	var sb strings.Builder
	sb.WriteString("[")
	for i, id := range ids {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", id)
	}
	sb.WriteString("]")
	return sb.String()
}

// payload returns the text between the payload markers, or the whole prompt
// when the markers are absent.
func payload(prompt string) string {
	_, after, ok := strings.Cut(prompt, PayloadOpen)
	if !ok {
		return prompt
	}
	inner, _, ok := strings.Cut(after, PayloadClose)
	if !ok {
		return after
	}
	return strings.TrimSpace(inner)
}

// sentences splits text on sentence terminators and returns up to n
// non-empty sentences, each clipped to 120 characters.
func sentences(text string, n int) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	var out []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if len(f) > 120 {
			f = f[:120]
		}
		out = append(out, f)
		if len(out) == n {
			break
		}
	}
	return out
}

// mockStopwords excludes common function words from keyword derivation.
var mockStopwords = map[string]bool{
	"about": true, "after": true, "also": true, "because": true,
	"been": true, "before": true, "being": true, "between": true,
	"from": true, "have": true, "into": true, "over": true,
	"that": true, "their": true, "them": true, "then": true,
	"these": true, "they": true, "this": true, "using": true,
	"very": true, "what": true, "when": true, "which": true,
	"will": true, "with": true, "your": true,
}

// frequentWords returns the n most frequent words of length >= 4, lowercased,
// ties broken alphabetically.
func frequentWords(text string, n int) []string {
	counts := map[string]int{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?()[]{}\"'")
		if len(w) < 4 || mockStopwords[w] {
			continue
		}
		counts[w]++
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > n {
		words = words[:n]
	}
	return words
}
