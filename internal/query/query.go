// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query answers read-only searches over a loaded knowledge base by
// category, keyword, or relation. It never mutates the store.
package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/pkg/types"
)

// Kind selects the search dimension.
type Kind string

const (
	KindCategory Kind = "category"
	KindKeyword  Kind = "keyword"
	KindRelated  Kind = "related"
)

// previewLen caps the key-point preview in match summaries.
const previewLen = 80

// Match is one search hit.
type Match struct {
	// ID is the matching record's identifier.
	ID string `json:"id" yaml:"id"`

	// SourcePath is the origin file of the record.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// Category is the record's full three-level path.
	Category types.CategoryPath `json:"category" yaml:"category"`

	// Preview is the record's first key point, clipped for display.
	Preview string `json:"preview" yaml:"preview"`
}

// Search returns the records matching value under the given kind, ordered by
// record ID. An empty result is a normal outcome; an unknown kind or empty
// value is an error.
func Search(kb *types.KnowledgeBase, kind Kind, value string) ([]Match, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("empty search value")
	}

	var pred func(*types.DocumentRecord) bool
	switch kind {
	case KindCategory:
		pred = func(r *types.DocumentRecord) bool { return matchesCategory(r.Category, value) }
	case KindKeyword:
		pred = func(r *types.DocumentRecord) bool { return r.HasKeyword(value) }
	case KindRelated:
		pred = func(r *types.DocumentRecord) bool { return r.RelatedTo(value) }
	default:
		return nil, fmt.Errorf("unsupported search kind %q: use category, keyword, or related", kind)
	}

	var matches []Match
	for _, rec := range kb.Records {
		if !pred(rec) {
			continue
		}
		matches = append(matches, Match{
			ID:         rec.ID,
			SourcePath: rec.SourcePath,
			Category:   rec.Category,
			Preview:    preview(rec.KeyPoints),
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches, nil
}

// matchesCategory reports whether value equals any of the three path
// segments, case-insensitively. Segment equality, not substring match:
// searching "Java" must not return "JavaScript" records.
func matchesCategory(c types.CategoryPath, value string) bool {
	for _, seg := range c.Segments() {
		if strings.EqualFold(seg, value) {
			return true
		}
	}
	return false
}

func preview(keyPoints []string) string {
	if len(keyPoints) == 0 {
		return ""
	}
	runes := []rune(keyPoints[0])
	if len(runes) <= previewLen {
		return keyPoints[0]
	}
	return string(runes[:previewLen-3]) + "..."
}
