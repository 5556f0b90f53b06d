// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse turns heterogeneous source documents (plain text, Word, PDF)
// into cleaned plain text. The rest of the pipeline only ever sees the
// possibly-truncated output of this package.
package parse

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported marks a file format no adapter handles. Scanned or
// image-only documents are unsupported by declaration, not best-effort.
var ErrUnsupported = errors.New("unsupported file format")

// Parser extracts plain text from a source file.
type Parser interface {
	Parse(path string) (string, error)
}

// FileParser dispatches on file extension to the matching format adapter.
type FileParser struct{}

// Parse reads the file at path and returns its cleaned plain text.
func (FileParser) Parse(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return parsePlainText(path)
	case ".docx":
		return parseDocx(path)
	case ".pdf":
		return parsePDF(path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
}

func parsePlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return Clean(string(data)), nil
}

// Clean collapses runs of whitespace into single spaces and trims the ends.
// Long documents are dominated by layout artifacts from format conversion;
// the downstream excerpt cap makes every surviving character count.
func Clean(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Truncate returns at most limit characters of text. Content past the cap is
// invisible to all downstream analysis.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
