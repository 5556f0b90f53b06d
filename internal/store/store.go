// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists the knowledge base: every document record plus the
// preference memory, in one human-readable YAML file with whole-file
// overwrite semantics. The store is the sole owner of record identity
// assignment and source-path uniqueness.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/pkg/types"
)

// ErrCorrupt marks an unreadable or internally inconsistent store file.
// Fatal for the run: the prior file is never overwritten.
var ErrCorrupt = errors.New("knowledge store corrupt")

// ErrDuplicateSource marks an append whose source path already exists. The
// dedup pre-check makes this unreachable in normal operation; hitting it is
// an internal invariant violation and aborts the run.
var ErrDuplicateSource = errors.New("duplicate source path")

// Store is the in-memory knowledge base bound to its file path.
type Store struct {
	path    string
	kb      *types.KnowledgeBase
	nextSeq int
}

// Load reads the store at path. A missing file yields a fresh empty store;
// an unparsable or inconsistent file fails with ErrCorrupt.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Store{
				path:    path,
				kb:      &types.KnowledgeBase{Records: map[string]*types.DocumentRecord{}},
				nextSeq: 1,
			}, nil
		}
		return nil, fmt.Errorf("reading store %s: %w", path, err)
	}

	var kb types.KnowledgeBase
	if err := yaml.Unmarshal(data, &kb); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrCorrupt, path, err)
	}
	if kb.Records == nil {
		kb.Records = map[string]*types.DocumentRecord{}
	}

	s := &Store{path: path, kb: &kb, nextSeq: 1}
	if err := s.validate(); err != nil {
		return nil, err
	}

	for id := range kb.Records {
		if seq, ok := parseSeq(id); ok && seq >= s.nextSeq {
			s.nextSeq = seq + 1
		}
	}
	return s, nil
}

// validate checks the invariants a well-formed store file must satisfy:
// keys match record IDs, source paths are unique, relations reference
// existing records and never the record itself.
func (s *Store) validate() error {
	sources := make(map[string]string, len(s.kb.Records))
	for id, rec := range s.kb.Records {
		if rec == nil || rec.ID != id {
			return fmt.Errorf("%w: record key %q does not match its ID", ErrCorrupt, id)
		}
		if prev, ok := sources[rec.SourcePath]; ok {
			return fmt.Errorf("%w: source path %q appears in both %s and %s",
				ErrCorrupt, rec.SourcePath, prev, id)
		}
		sources[rec.SourcePath] = id

		for _, rel := range rec.RelatedDocIDs {
			if rel == id {
				return fmt.Errorf("%w: record %s relates to itself", ErrCorrupt, id)
			}
			if _, ok := s.kb.Records[rel]; !ok {
				return fmt.Errorf("%w: record %s relates to unknown ID %s", ErrCorrupt, id, rel)
			}
		}
	}
	return nil
}

// parseSeq extracts the sequence number from a "doc_NNNN" identifier.
func parseSeq(id string) (int, bool) {
	var seq int
	if _, err := fmt.Sscanf(id, "doc_%d", &seq); err != nil {
		return 0, false
	}
	return seq, true
}

// Path returns the file path the store was loaded from.
func (s *Store) Path() string { return s.path }

// Len returns the number of records.
func (s *Store) Len() int { return len(s.kb.Records) }

// Preferences returns the mutable preference memory.
func (s *Store) Preferences() *types.PreferenceMemory { return &s.kb.Preferences }

// Base returns the underlying knowledge base for read-only consumers.
func (s *Store) Base() *types.KnowledgeBase { return s.kb }

// HasSource reports whether a record with the given source path exists.
// Checked before any processing of a file begins.
func (s *Store) HasSource(sourcePath string) bool {
	return s.FindBySource(sourcePath) != nil
}

// FindBySource returns the record ingested from sourcePath, or nil.
func (s *Store) FindBySource(sourcePath string) *types.DocumentRecord {
	for _, rec := range s.kb.Records {
		if rec.SourcePath == sourcePath {
			return rec
		}
	}
	return nil
}

// Get returns the record with the given ID.
func (s *Store) Get(id string) (*types.DocumentRecord, bool) {
	rec, ok := s.kb.Records[id]
	return rec, ok
}

// Records returns all records sorted by ID.
func (s *Store) Records() []*types.DocumentRecord {
	recs := make([]*types.DocumentRecord, 0, len(s.kb.Records))
	for _, rec := range s.kb.Records {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	return recs
}

// Append assigns the next sequential ID to rec and inserts it. The source
// path must be unique across the store.
func (s *Store) Append(rec *types.DocumentRecord) error {
	if s.HasSource(rec.SourcePath) {
		return fmt.Errorf("%w: %s", ErrDuplicateSource, rec.SourcePath)
	}

	rec.ID = fmt.Sprintf("doc_%04d", s.nextSeq)
	s.nextSeq++
	s.kb.Records[rec.ID] = rec
	return nil
}

// Link records the symmetric relation between records a and b. Self-links
// are rejected; linking an unknown ID is an error. Relation sets stay
// sorted and deduplicated.
func (s *Store) Link(a, b string) error {
	if a == b {
		return fmt.Errorf("record %s cannot relate to itself", a)
	}
	ra, ok := s.kb.Records[a]
	if !ok {
		return fmt.Errorf("linking unknown record %s", a)
	}
	rb, ok := s.kb.Records[b]
	if !ok {
		return fmt.Errorf("linking unknown record %s", b)
	}

	ra.RelatedDocIDs = insertSorted(ra.RelatedDocIDs, b)
	rb.RelatedDocIDs = insertSorted(rb.RelatedDocIDs, a)
	return nil
}

func insertSorted(ids []string, id string) []string {
	i := sort.SearchStrings(ids, id)
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

// Save serializes the whole store atomically: marshal to a temporary file in
// the same directory, then rename over the previous file, so a crash
// mid-write never corrupts the last good state.
func (s *Store) Save() error {
	data, err := yaml.Marshal(s.kb)
	if err != nil {
		return fmt.Errorf("marshaling store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating store directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp store file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp store file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing store file %s: %w", s.path, err)
	}
	return nil
}
