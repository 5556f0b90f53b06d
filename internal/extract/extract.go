// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract distills a document's excerpt into key points, keywords,
// and unvalidated relation candidates via the judgment oracle.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/oracle"
)

// Cardinality bounds for extracted facts. Out-of-range oracle output is
// truncated; undersized output is accepted as-is and never an error.
const (
	MinKeyPoints = 3
	MaxKeyPoints = 5
	MinKeywords  = 5
	MaxKeywords  = 8
)

// ErrOracle marks a total oracle failure. Partial or unparsable fact
// payloads degrade to empty fields instead.
var ErrOracle = errors.New("extraction oracle unavailable")

// Facts is the extractor's proposal for one document. Relation candidates
// are loose mentions (oracle-suggested IDs plus the document's own
// keywords), not yet validated against the store.
type Facts struct {
	KeyPoints          []string
	Keywords           []string
	RelationCandidates []string
}

// DocSummary describes an already-ingested record for the relation prompt.
type DocSummary struct {
	ID         string
	SourcePath string
	Keywords   []string
}

var factsPromptTmpl = template.Must(template.New("facts").Parse(
	`You are a document analysis assistant. Extract from the document below:
1. Key points ({{.MinPoints}}-{{.MaxPoints}} concise statements)
2. Keywords ({{.MinWords}}-{{.MaxWords}} short terms, lowercase)

Respond with only a JSON object in this exact shape:
{"key_points": ["point 1", "point 2"], "keywords": ["keyword 1", "keyword 2"]}

Document excerpt:
` + oracle.PayloadOpen + `
{{.Excerpt}}
` + oracle.PayloadClose + `
`))

var relatePromptTmpl = template.Must(template.New("relate").Funcs(template.FuncMap{
	"join": func(ss []string) string { return strings.Join(ss, ", ") },
}).Parse(relatePromptText))

const relatePromptText = `Decide which of the processed documents below are topically related to the current document, judging by keyword and topic overlap.

Current document keywords: {{.Keywords}}
Processed documents:
{{range .Docs}}- id: {{.ID}}, file: {{.SourcePath}}, keywords: {{join .Keywords}}
{{end}}
Respond with only a JSON array of related document IDs, e.g. ["doc_0001", "doc_0003"]. Respond with [] if none are related.
`

// Extract asks the oracle for key points and keywords, then, when prior
// records exist, for related-document suggestions. The second call is
// best-effort: its failure only costs relation candidates.
func Extract(ctx context.Context, o oracle.Oracle, excerpt string, known []DocSummary, maxRetries int) (Facts, error) {
	var buf bytes.Buffer
	err := factsPromptTmpl.Execute(&buf, struct {
		MinPoints, MaxPoints, MinWords, MaxWords int
		Excerpt                                  string
	}{MinKeyPoints, MaxKeyPoints, MinKeywords, MaxKeywords, excerpt})
	if err != nil {
		return Facts{}, fmt.Errorf("rendering facts prompt: %w", err)
	}

	resp, err := oracle.Call(ctx, o, buf.String(), maxRetries)
	if err != nil {
		return Facts{}, fmt.Errorf("%w: %v", ErrOracle, err)
	}

	facts := parseFacts(resp)
	facts.RelationCandidates = append(facts.RelationCandidates, facts.Keywords...)

	if len(known) > 0 {
		ids, err := suggestRelations(ctx, o, facts.Keywords, known, maxRetries)
		if err == nil {
			facts.RelationCandidates = append(ids, facts.RelationCandidates...)
		}
	}

	return facts, nil
}

// parseFacts reads the facts payload leniently: an unparsable reply yields
// empty fields, recorded as-is, rather than an error.
func parseFacts(resp string) Facts {
	type payload struct {
		KeyPoints []string `json:"key_points"`
		Keywords  []string `json:"keywords"`
	}

	cleaned := oracle.StripFences(resp)
	var p payload
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		obj, ok := oracle.FirstJSONObject(cleaned)
		if !ok {
			return Facts{}
		}
		if err := json.Unmarshal([]byte(obj), &p); err != nil {
			return Facts{}
		}
	}

	return Facts{
		KeyPoints: clampPoints(p.KeyPoints),
		Keywords:  NormalizeKeywords(p.Keywords),
	}
}

// clampPoints trims and truncates key points to the upper bound.
func clampPoints(points []string) []string {
	var out []string
	for _, p := range points {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		out = append(out, p)
		if len(out) == MaxKeyPoints {
			break
		}
	}
	return out
}

// NormalizeKeywords lowercases, trims, deduplicates, and truncates keywords
// to the upper bound, preserving first-seen order.
func NormalizeKeywords(words []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) == MaxKeywords {
			break
		}
	}
	return out
}

// suggestRelations asks the oracle which known documents relate to the
// current one.
func suggestRelations(ctx context.Context, o oracle.Oracle, keywords []string, known []DocSummary, maxRetries int) ([]string, error) {
	var buf bytes.Buffer
	err := relatePromptTmpl.Execute(&buf, struct {
		Keywords string
		Docs     []DocSummary
	}{strings.Join(keywords, ", "), known})
	if err != nil {
		return nil, fmt.Errorf("rendering relation prompt: %w", err)
	}

	resp, err := oracle.Call(ctx, o, buf.String(), maxRetries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracle, err)
	}

	cleaned := oracle.StripFences(resp)
	var ids []string
	if err := json.Unmarshal([]byte(cleaned), &ids); err != nil {
		arr, ok := oracle.FirstJSONArray(cleaned)
		if !ok {
			return nil, fmt.Errorf("unparsable relation response: %v", err)
		}
		if err := json.Unmarshal([]byte(arr), &ids); err != nil {
			return nil, fmt.Errorf("unparsable relation response: %v", err)
		}
	}
	return ids, nil
}
