// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "sort"

// SessionSummary records progress of the most recent processing run. It is
// user-facing reporting state only and carries no correctness weight.
type SessionSummary struct {
	// RunID identifies the run that last touched the store.
	RunID string `json:"run_id,omitempty" yaml:"run_id,omitempty"`

	// LastProcessed is the name of the last document ingested.
	LastProcessed string `json:"last_processed" yaml:"last_processed"`

	// TotalProcessed counts documents ingested across all runs.
	TotalProcessed int `json:"total_processed" yaml:"total_processed"`
}

// PreferenceMemory is the persistent record of classification choices. Counts
// accumulate across every classification ever made and are never reset except
// by deleting the store file; they bias future classification toward the
// user's historically chosen categories.
type PreferenceMemory struct {
	// CategoryCounts maps a category path or partial prefix
	// ("Technology", "Technology/Programming Language", ...) to its
	// occurrence count.
	CategoryCounts map[string]int `json:"category_counts" yaml:"category_counts"`

	// LastSession summarizes the most recent run.
	LastSession SessionSummary `json:"last_session" yaml:"last_session"`
}

// RecordChoice increments the count for the full path and each of its
// prefixes.
func (m *PreferenceMemory) RecordChoice(path CategoryPath) {
	if m.CategoryCounts == nil {
		m.CategoryCounts = make(map[string]int)
	}
	for _, p := range path.Prefixes() {
		m.CategoryCounts[p]++
	}
}

// BiasHint returns the up-to-n most frequent full category paths as soft
// guidance for the classifier. Ties break on the path key so the hint is
// deterministic for a given memory state. Prefix entries are excluded: only
// complete three-level paths are useful as suggestions.
func (m *PreferenceMemory) BiasHint(n int) []string {
	if n <= 0 || len(m.CategoryCounts) == 0 {
		return nil
	}

	type entry struct {
		key   string
		count int
	}
	var entries []entry
	for k, c := range m.CategoryCounts {
		if countSlashes(k) != 2 {
			continue
		}
		entries = append(entries, entry{k, c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	hints := make([]string, len(entries))
	for i, e := range entries {
		hints[i] = e.key
	}
	return hints
}

// TotalCount sums all counts, prefixes included.
func (m *PreferenceMemory) TotalCount() int {
	total := 0
	for _, c := range m.CategoryCounts {
		total += c
	}
	return total
}

// Observe updates the session summary after a document is ingested.
func (m *PreferenceMemory) Observe(doc string) {
	m.LastSession.LastProcessed = doc
	m.LastSession.TotalProcessed++
}

func countSlashes(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			n++
		}
	}
	return n
}
