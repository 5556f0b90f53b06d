// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relate validates relation candidates against the knowledge store
// and is the sole writer of the symmetric relation sets on both ends of a
// link.
package relate

import (
	"strings"

	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/store"
	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/pkg/types"
)

// Resolve matches each candidate against the existing records and links the
// new record to every resolved target, symmetrically. A candidate matches a
// record when it equals the record's ID or is an exact member of its keyword
// set (case-insensitive). Records are visited in ID order, so resolution is
// deterministic for a given store state. Unmatched candidates are dropped
// silently: they may be forward references to documents not yet ingested.
func Resolve(s *store.Store, rec *types.DocumentRecord, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := map[string]bool{}
	terms := map[string]bool{}
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		ids[c] = true
		terms[strings.ToLower(c)] = true
	}

	var linked []string
	for _, target := range s.Records() {
		if target.ID == rec.ID || rec.RelatedTo(target.ID) {
			continue
		}
		if !matches(target, ids, terms) {
			continue
		}
		if err := s.Link(rec.ID, target.ID); err != nil {
			return linked, err
		}
		linked = append(linked, target.ID)
	}
	return linked, nil
}

func matches(target *types.DocumentRecord, ids, terms map[string]bool) bool {
	if ids[target.ID] {
		return true
	}
	for _, kw := range target.Keywords {
		if terms[strings.ToLower(kw)] {
			return true
		}
	}
	return false
}
