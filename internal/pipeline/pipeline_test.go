// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/oracle"
	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/parse"
	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/store"
	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/pkg/types"
)

// testConfig builds a mock-oracle configuration over temp directories.
func testConfig(t *testing.T) types.PipelineConfig {
	t.Helper()
	cfg := types.PipelineConfig{
		AI:     types.AIConfig{Mode: types.OracleMock},
		Parser: types.ParserConfig{InputDir: t.TempDir()},
		Store:  types.StoreConfig{Path: filepath.Join(t.TempDir(), "knowledge_base.yaml")},
	}
	cfg.ApplyDefaults()
	return cfg
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func runPipeline(t *testing.T, cfg types.PipelineConfig) (Summary, string) {
	t.Helper()
	var out bytes.Buffer
	summary, err := Run(context.Background(), parse.FileParser{}, &oracle.Mock{}, cfg, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return summary, out.String()
}

func TestRunIngestsDocuments(t *testing.T) {
	cfg := testConfig(t)
	writeDoc(t, cfg.Parser.InputDir, "a_python.txt",
		"Python tutorial. Python pandas dataframes explained. Use pandas for tables.")
	writeDoc(t, cfg.Parser.InputDir, "b_recipe.txt",
		"A recipe for chocolate cake. Mix flour and sugar. Bake slowly.")

	summary, out := runPipeline(t, cfg)
	if summary.Processed != 2 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Fatalf("summary = %+v, want 2 processed", summary)
	}
	if !strings.Contains(out, "a_python.txt") || !strings.Contains(out, "b_recipe.txt") {
		t.Errorf("output missing per-document lines:\n%s", out)
	}

	s, err := store.Load(cfg.Store.Path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Fatalf("store has %d records, want 2", s.Len())
	}

	recA, _ := s.Get("doc_0001")
	want := types.CategoryPath{Level1: "Technology", Level2: "Programming Language", Level3: "Python"}
	if recA.Category != want {
		t.Errorf("category = %v, want %v", recA.Category, want)
	}
	if len(recA.Keywords) == 0 || len(recA.KeyPoints) == 0 {
		t.Errorf("record missing extracted facts: %+v", recA)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	writeDoc(t, cfg.Parser.InputDir, "a_python.txt", "Python notes. Python basics.")
	writeDoc(t, cfg.Parser.InputDir, "b_meeting.txt", "Meeting minutes from Monday. Action items listed.")

	if summary, _ := runPipeline(t, cfg); summary.Processed != 2 {
		t.Fatalf("first run processed %d, want 2", summary.Processed)
	}
	firstBytes, err := os.ReadFile(cfg.Store.Path)
	if err != nil {
		t.Fatal(err)
	}

	summary, out := runPipeline(t, cfg)
	if summary.Processed != 0 || summary.Skipped != 2 || summary.Failed != 0 {
		t.Fatalf("second run summary = %+v, want all skipped", summary)
	}
	if !strings.Contains(out, "already processed") {
		t.Errorf("output missing skip reason:\n%s", out)
	}

	secondBytes, err := os.ReadFile(cfg.Store.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(firstBytes, secondBytes) {
		t.Error("store file changed on a run with no new documents")
	}
}

func TestRunLinksRelatedDocuments(t *testing.T) {
	cfg := testConfig(t)
	writeDoc(t, cfg.Parser.InputDir, "a_frames.txt",
		"Python tutorial. Python pandas dataframes explained. Use pandas for tables.")
	writeDoc(t, cfg.Parser.InputDir, "b_cake.txt",
		"A recipe for chocolate cake. Mix flour and sugar carefully.")
	writeDoc(t, cfg.Parser.InputDir, "c_tricks.txt",
		"More pandas tricks. Advanced pandas indexing.")

	if summary, _ := runPipeline(t, cfg); summary.Processed != 3 {
		t.Fatalf("processed %d, want 3", summary.Processed)
	}

	s, err := store.Load(cfg.Store.Path)
	if err != nil {
		t.Fatal(err)
	}
	recA, _ := s.Get("doc_0001")
	recC, _ := s.Get("doc_0003")

	// a and c share the "pandas" keyword; the link is symmetric.
	if !recC.RelatedTo(recA.ID) {
		t.Errorf("doc_0003 relations = %v, want doc_0001", recC.RelatedDocIDs)
	}
	if !recA.RelatedTo(recC.ID) {
		t.Errorf("doc_0001 relations = %v, want doc_0003", recA.RelatedDocIDs)
	}

	// The cake document shares nothing with the other two.
	recB, _ := s.Get("doc_0002")
	if len(recB.RelatedDocIDs) != 0 {
		t.Errorf("doc_0002 relations = %v, want none", recB.RelatedDocIDs)
	}
}

func TestRunSkipsFailedDocuments(t *testing.T) {
	cfg := testConfig(t)
	writeDoc(t, cfg.Parser.InputDir, "good.txt", "Ordinary text document with content.")
	writeDoc(t, cfg.Parser.InputDir, "scan.png", "not really an image")

	summary, out := runPipeline(t, cfg)
	if summary.Processed != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v, want 1 processed and 1 failed", summary)
	}
	if !strings.Contains(out, "scan.png") || !strings.Contains(out, "failed") {
		t.Errorf("output missing failure line:\n%s", out)
	}

	s, err := store.Load(cfg.Store.Path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Errorf("store has %d records, want 1", s.Len())
	}
}

// stallingOracle hangs on prompts carrying the trigger text until the
// per-document deadline expires, and otherwise behaves like the mock.
type stallingOracle struct {
	mock    oracle.Mock
	stallOn string
}

func (o *stallingOracle) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, o.stallOn) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return o.mock.Complete(ctx, prompt)
}

func TestRunTimedOutDocumentIsSkipped(t *testing.T) {
	cfg := testConfig(t)
	cfg.AI.Timeout = 50 * time.Millisecond
	writeDoc(t, cfg.Parser.InputDir, "a_python.txt", "Python notes on iterators.")
	writeDoc(t, cfg.Parser.InputDir, "b_slow.txt", "A glacier moves slowly across the valley.")
	writeDoc(t, cfg.Parser.InputDir, "c_recipe.txt", "A recipe for bread. Flour and water.")

	var out bytes.Buffer
	summary, err := Run(context.Background(), parse.FileParser{},
		&stallingOracle{stallOn: "glacier"}, cfg, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 2 || summary.Failed != 1 {
		t.Fatalf("summary = %+v, want 2 processed and 1 failed", summary)
	}
	if !strings.Contains(out.String(), "failed  b_slow.txt") {
		t.Errorf("output does not name the timed-out document:\n%s", out.String())
	}

	s, err := store.Load(cfg.Store.Path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Errorf("store has %d records, want 2", s.Len())
	}
	if s.HasSource(filepath.Join(cfg.Parser.InputDir, "b_slow.txt")) {
		t.Error("timed-out document was ingested")
	}
}

func TestRunAbortsOnCorruptStore(t *testing.T) {
	cfg := testConfig(t)
	writeDoc(t, cfg.Parser.InputDir, "a.txt", "content")

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		t.Fatal(err)
	}
	corrupt := []byte("{{{ not yaml :::")
	if err := os.WriteFile(cfg.Store.Path, corrupt, 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	_, err := Run(context.Background(), parse.FileParser{}, &oracle.Mock{}, cfg, &out)
	if !errors.Is(err, store.ErrCorrupt) {
		t.Fatalf("Run() error = %v, want ErrCorrupt", err)
	}

	data, err := os.ReadFile(cfg.Store.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, corrupt) {
		t.Error("corrupt store file was overwritten")
	}
}

func TestRunTruncatesExcerpt(t *testing.T) {
	cfg := testConfig(t)
	cfg.Parser.MaxExcerptChars = 20
	writeDoc(t, cfg.Parser.InputDir, "long.txt", strings.Repeat("word ", 100))

	if summary, _ := runPipeline(t, cfg); summary.Processed != 1 {
		t.Fatal("document not processed")
	}

	s, err := store.Load(cfg.Store.Path)
	if err != nil {
		t.Fatal(err)
	}
	rec, _ := s.Get("doc_0001")
	if n := utf8.RuneCountInString(rec.Excerpt); n > 20 {
		t.Errorf("excerpt length = %d runes, want <= 20", n)
	}
}

func TestRunAccumulatesPreferences(t *testing.T) {
	cfg := testConfig(t)
	writeDoc(t, cfg.Parser.InputDir, "a_python.txt", "Python decorators explained.")
	writeDoc(t, cfg.Parser.InputDir, "b_python.txt", "Python type hints in practice.")

	runPipeline(t, cfg)

	s, err := store.Load(cfg.Store.Path)
	if err != nil {
		t.Fatal(err)
	}
	prefs := s.Preferences()
	if got := prefs.CategoryCounts["Technology/Programming Language/Python"]; got != 2 {
		t.Errorf("full path count = %d, want 2", got)
	}
	if got := prefs.CategoryCounts["Technology"]; got != 2 {
		t.Errorf("prefix count = %d, want 2", got)
	}
	if prefs.LastSession.TotalProcessed != 2 {
		t.Errorf("TotalProcessed = %d, want 2", prefs.LastSession.TotalProcessed)
	}
	if prefs.LastSession.RunID == "" {
		t.Error("RunID not recorded for a run that processed documents")
	}
	if prefs.LastSession.LastProcessed != "b_python.txt" {
		t.Errorf("LastProcessed = %q, want b_python.txt", prefs.LastSession.LastProcessed)
	}
}

func TestRunEmptyInputDir(t *testing.T) {
	cfg := testConfig(t)

	summary, _ := runPipeline(t, cfg)
	if summary.Total() != 0 {
		t.Errorf("summary = %+v, want empty", summary)
	}

	s, err := store.Load(cfg.Store.Path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Preferences().LastSession.RunID != "" {
		t.Error("RunID recorded although nothing was processed")
	}
}

func TestReclassify(t *testing.T) {
	cfg := testConfig(t)
	writeDoc(t, cfg.Parser.InputDir, "notes.txt", "Notes about a python meetup.")
	runPipeline(t, cfg)

	var out bytes.Buffer
	got, err := Reclassify(context.Background(), parse.FileParser{}, &oracle.Mock{}, cfg, "notes.txt", &out)
	if err != nil {
		t.Fatalf("Reclassify: %v", err)
	}
	want := types.CategoryPath{Level1: "Technology", Level2: "Programming Language", Level3: "Python"}
	if got != want {
		t.Errorf("category = %v, want %v", got, want)
	}
	if !strings.Contains(out.String(), "reclassified notes.txt") {
		t.Errorf("output = %q", out.String())
	}

	s, err := store.Load(cfg.Store.Path)
	if err != nil {
		t.Fatal(err)
	}
	rec, _ := s.Get("doc_0001")
	if rec.Category != want {
		t.Errorf("persisted category = %v, want %v", rec.Category, want)
	}
}

func TestReclassifyUnknownDocument(t *testing.T) {
	cfg := testConfig(t)
	runPipeline(t, cfg)

	var out bytes.Buffer
	_, err := Reclassify(context.Background(), parse.FileParser{}, &oracle.Mock{}, cfg, "ghost.txt", &out)
	if err == nil {
		t.Error("Reclassify succeeded for a document not in the store")
	}
}
