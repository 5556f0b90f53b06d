// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
	"time"
)

// CategoryPath is the ordered three-level classification label assigned to a
// document. All three levels are required; Level3 may be a leaf label with no
// further children.
type CategoryPath struct {
	// Level1 is the broadest category (e.g. "Technology").
	Level1 string `json:"level1" yaml:"level1"`

	// Level2 narrows Level1 (e.g. "Programming Language").
	Level2 string `json:"level2" yaml:"level2"`

	// Level3 is the most specific label (e.g. "Python").
	Level3 string `json:"level3" yaml:"level3"`
}

// Segments returns the three levels in order.
func (c CategoryPath) Segments() [3]string {
	return [3]string{c.Level1, c.Level2, c.Level3}
}

// Key returns the slash-joined form used as a map key ("L1/L2/L3").
func (c CategoryPath) Key() string {
	return c.Level1 + "/" + c.Level2 + "/" + c.Level3
}

// Prefixes returns the path and its partial prefixes, shortest first:
// "L1", "L1/L2", "L1/L2/L3".
func (c CategoryPath) Prefixes() []string {
	return []string{
		c.Level1,
		c.Level1 + "/" + c.Level2,
		c.Key(),
	}
}

// IsComplete reports whether all three levels are non-empty.
func (c CategoryPath) IsComplete() bool {
	return c.Level1 != "" && c.Level2 != "" && c.Level3 != ""
}

// String renders the path for user-facing output.
func (c CategoryPath) String() string {
	return fmt.Sprintf("%s → %s → %s", c.Level1, c.Level2, c.Level3)
}

// Uncategorized is the fallback path applied when classification fails and
// the caller opts into fallback rather than skipping the document.
var Uncategorized = CategoryPath{
	Level1: "Uncategorized",
	Level2: "Uncategorized",
	Level3: "Uncategorized",
}

// DocumentRecord is one persisted unit per source file.
type DocumentRecord struct {
	// ID is assigned once by the store on first ingestion and never
	// reassigned (sequential: "doc_0001", "doc_0002", ...).
	ID string `json:"id" yaml:"id"`

	// SourcePath is the origin file path and the identity key for dedup:
	// re-ingesting the same path is a no-op against an existing record.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// Excerpt is the truncated text actually analyzed. Truncation to the
	// configured character cap is declared behavior, not incidental.
	Excerpt string `json:"excerpt" yaml:"excerpt"`

	// Category is the three-level classification path.
	Category CategoryPath `json:"category" yaml:"category"`

	// KeyPoints holds 3-5 short statements in extraction order.
	KeyPoints []string `json:"key_points" yaml:"key_points"`

	// Keywords holds 5-8 lowercase, deduplicated terms.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// RelatedDocIDs references other records in the same store. The
	// relation is symmetric and never contains the record's own ID.
	// Kept sorted.
	RelatedDocIDs []string `json:"related_doc_ids" yaml:"related_doc_ids"`

	// ProcessedAt is the ingestion timestamp.
	ProcessedAt time.Time `json:"processed_at" yaml:"processed_at"`
}

// HasKeyword reports whether kw is an exact member of the record's keyword
// set, case-insensitively.
func (d *DocumentRecord) HasKeyword(kw string) bool {
	kw = strings.ToLower(strings.TrimSpace(kw))
	for _, k := range d.Keywords {
		if strings.ToLower(k) == kw {
			return true
		}
	}
	return false
}

// RelatedTo reports whether id is in the record's relation set.
func (d *DocumentRecord) RelatedTo(id string) bool {
	for _, r := range d.RelatedDocIDs {
		if r == id {
			return true
		}
	}
	return false
}

// KnowledgeBase is the full persisted collection: every document record plus
// the preference memory, serialized as a single human-readable document with
// whole-file overwrite semantics.
type KnowledgeBase struct {
	// Records maps record ID to the record.
	Records map[string]*DocumentRecord `json:"records" yaml:"records"`

	// Preferences is the accumulated classification preference memory.
	Preferences PreferenceMemory `json:"preferences" yaml:"preferences"`
}
