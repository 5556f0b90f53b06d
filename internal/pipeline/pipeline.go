// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives the batch: for each unprocessed file in the input
// folder it runs text extraction, classification, fact extraction, and
// relation resolution, then appends to the knowledge store and persists the
// whole store once. Documents are processed strictly sequentially in
// directory-listing order, so preference bias evolves deterministically
// within a run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/classify"
	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/extract"
	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/oracle"
	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/parse"
	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/relate"
	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/store"
	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/pkg/types"
)

// Summary holds counts from one ingestion run.
type Summary struct {
	Processed int // newly ingested documents
	Skipped   int // already present in the store
	Failed    int // per-document failures, named in the output
}

// Total returns the number of files considered.
func (s Summary) Total() int {
	return s.Processed + s.Skipped + s.Failed
}

// Run ingests every unprocessed file from the configured input folder into
// the store. Per-document failures are reported on w and never abort the
// batch; only store-level integrity failures do. The store file is written
// once, atomically, at the end of the run.
func Run(ctx context.Context, p parse.Parser, o oracle.Oracle, cfg types.PipelineConfig, w io.Writer) (Summary, error) {
	var summary Summary

	s, err := store.Load(cfg.Store.Path)
	if err != nil {
		return summary, err
	}

	entries, err := os.ReadDir(cfg.Parser.InputDir)
	if err != nil {
		return summary, fmt.Errorf("reading input directory %s: %w", cfg.Parser.InputDir, err)
	}

	runID := uuid.New().String()
	prefs := s.Preferences()

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		name := entry.Name()
		srcPath := filepath.Join(cfg.Parser.InputDir, name)

		if s.HasSource(srcPath) {
			fmt.Fprintf(w, "skipped %s (already processed)\n", name)
			summary.Skipped++
			continue
		}

		rec, err := processOne(ctx, p, o, s, srcPath, name, cfg)
		if err != nil {
			if errors.Is(err, store.ErrDuplicateSource) {
				return summary, err
			}
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		if summary.Processed == 0 {
			prefs.LastSession.RunID = runID
		}
		prefs.Observe(name)
		summary.Processed++
		fmt.Fprintf(w, "processed %s → %s (%s)\n", name, rec.ID, rec.Category)
	}

	if err := s.Save(); err != nil {
		return summary, err
	}

	fmt.Fprintf(w, "\nprocessed: %d, skipped: %d, failed: %d\n",
		summary.Processed, summary.Skipped, summary.Failed)
	return summary, nil
}

// processOne runs the per-document stages. All oracle work for the document
// shares one timeout; on expiry the document fails and the batch continues.
func processOne(ctx context.Context, p parse.Parser, o oracle.Oracle, s *store.Store, srcPath, name string, cfg types.PipelineConfig) (*types.DocumentRecord, error) {
	text, err := p.Parse(srcPath)
	if err != nil {
		return nil, err
	}
	excerpt := parse.Truncate(text, cfg.Parser.MaxExcerptChars)

	docCtx, cancel := context.WithTimeout(ctx, cfg.AI.Timeout)
	defer cancel()

	category, err := classify.Classify(docCtx, o, excerpt, name, s.Preferences(), cfg.Classifier.BiasTopN, cfg.AI.MaxRetries)
	if err != nil {
		if !cfg.Classifier.FallbackUncategorized {
			return nil, err
		}
		category = types.Uncategorized
	}

	facts, err := extract.Extract(docCtx, o, excerpt, summaries(s), cfg.AI.MaxRetries)
	if err != nil {
		return nil, err
	}

	rec := &types.DocumentRecord{
		SourcePath:  srcPath,
		Excerpt:     excerpt,
		Category:    category,
		KeyPoints:   facts.KeyPoints,
		Keywords:    facts.Keywords,
		ProcessedAt: time.Now().UTC(),
	}
	if err := s.Append(rec); err != nil {
		return nil, err
	}

	if _, err := relate.Resolve(s, rec, facts.RelationCandidates); err != nil {
		return nil, err
	}
	return rec, nil
}

// summaries snapshots the existing records for the relation prompt.
func summaries(s *store.Store) []extract.DocSummary {
	recs := s.Records()
	out := make([]extract.DocSummary, len(recs))
	for i, r := range recs {
		out[i] = extract.DocSummary{
			ID:         r.ID,
			SourcePath: r.SourcePath,
			Keywords:   r.Keywords,
		}
	}
	return out
}

// Reclassify re-parses one already-ingested document and replaces its
// category with a fresh classification under the current bias. Key points,
// keywords, and relations are untouched.
func Reclassify(ctx context.Context, p parse.Parser, o oracle.Oracle, cfg types.PipelineConfig, filename string, w io.Writer) (types.CategoryPath, error) {
	s, err := store.Load(cfg.Store.Path)
	if err != nil {
		return types.CategoryPath{}, err
	}

	rec := findByName(s, filename)
	if rec == nil {
		return types.CategoryPath{}, fmt.Errorf("no record for %q in %s", filename, cfg.Store.Path)
	}

	text, err := p.Parse(rec.SourcePath)
	if err != nil {
		return types.CategoryPath{}, err
	}
	excerpt := parse.Truncate(text, cfg.Parser.MaxExcerptChars)

	docCtx, cancel := context.WithTimeout(ctx, cfg.AI.Timeout)
	defer cancel()

	category, err := classify.Classify(docCtx, o, excerpt, filename, s.Preferences(), cfg.Classifier.BiasTopN, cfg.AI.MaxRetries)
	if err != nil {
		return types.CategoryPath{}, err
	}

	rec.Category = category
	rec.ProcessedAt = time.Now().UTC()

	if err := s.Save(); err != nil {
		return types.CategoryPath{}, err
	}

	fmt.Fprintf(w, "reclassified %s → %s\n", filename, category)
	return category, nil
}

// findByName matches a record by full source path or by base filename.
func findByName(s *store.Store, filename string) *types.DocumentRecord {
	if rec := s.FindBySource(filename); rec != nil {
		return rec
	}
	for _, rec := range s.Records() {
		if filepath.Base(rec.SourcePath) == filename {
			return rec
		}
	}
	return nil
}
