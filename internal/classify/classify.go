// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify assigns each document a three-level category path by
// consulting the judgment oracle, biased by the user's historical choices.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/oracle"
	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/pkg/types"
)

// ErrOracle marks an oracle that could not be reached after retries.
var ErrOracle = errors.New("classification oracle unavailable")

// ErrMalformed marks an oracle response that could not be parsed into a
// complete three-level path. The caller skips the document (or applies the
// Uncategorized fallback); a wrong category is never silently assigned.
var ErrMalformed = errors.New("unparsable classification response")

// classifyPromptTmpl asks the oracle for a three-level category path as a
// bare JSON object. The bias section lists the user's historically frequent
// paths as soft guidance; the oracle may override it.
var classifyPromptTmpl = template.Must(template.New("classify").Parse(
	`You are a document filing assistant. Assign the document below a three-level category path, from broad to specific, and respond with only a JSON object in this exact shape:
{"level1": "Technology", "level2": "Programming Language", "level3": "Python"}

All three levels are required and must be non-empty English labels.
{{if .Bias}}
The user's most common categories so far, most frequent first. Prefer these when they fit:
{{range .Bias}}- {{.}}
{{end}}{{end}}
Document filename: {{.Filename}}
Document excerpt:
` + oracle.PayloadOpen + `
{{.Excerpt}}
` + oracle.PayloadClose + `
`))

type promptData struct {
	Excerpt  string
	Filename string
	Bias     []string
}

// Classify asks the oracle for a category path for the given excerpt. The
// bias hint is drawn from mem; on success the chosen path is recorded back
// into mem.
func Classify(ctx context.Context, o oracle.Oracle, excerpt, filename string, mem *types.PreferenceMemory, biasTopN, maxRetries int) (types.CategoryPath, error) {
	var buf bytes.Buffer
	err := classifyPromptTmpl.Execute(&buf, promptData{
		Excerpt:  excerpt,
		Filename: filename,
		Bias:     mem.BiasHint(biasTopN),
	})
	if err != nil {
		return types.CategoryPath{}, fmt.Errorf("rendering classification prompt: %w", err)
	}

	resp, err := oracle.Call(ctx, o, buf.String(), maxRetries)
	if err != nil {
		return types.CategoryPath{}, fmt.Errorf("%w: %v", ErrOracle, err)
	}

	path, err := ParseResponse(resp)
	if err != nil {
		return types.CategoryPath{}, err
	}

	mem.RecordChoice(path)
	return path, nil
}

// ParseResponse extracts a complete category path from the oracle's reply.
// Markdown code fences are stripped first; if the whole reply is not valid
// JSON, the first brace-delimited object is tried before giving up.
func ParseResponse(resp string) (types.CategoryPath, error) {
	cleaned := oracle.StripFences(resp)

	var path types.CategoryPath
	if err := json.Unmarshal([]byte(cleaned), &path); err != nil {
		obj, ok := oracle.FirstJSONObject(cleaned)
		if !ok {
			return types.CategoryPath{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if err := json.Unmarshal([]byte(obj), &path); err != nil {
			return types.CategoryPath{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	path.Level1 = strings.TrimSpace(path.Level1)
	path.Level2 = strings.TrimSpace(path.Level2)
	path.Level3 = strings.TrimSpace(path.Level3)
	if !path.IsComplete() {
		return types.CategoryPath{}, fmt.Errorf("%w: missing level in %q", ErrMalformed, resp)
	}
	return path, nil
}
