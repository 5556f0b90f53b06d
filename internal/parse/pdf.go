// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"bytes"
	"fmt"
	"os/exec"
)

// pdfTextBin is the external text extractor for PDFs. Package-level var for
// test substitution.
var pdfTextBin = "pdftotext"

// parsePDF pipes the PDF through pdftotext. PDFs with no text layer produce
// empty output and are reported as failures rather than ingested blank.
func parsePDF(path string) (string, error) {
	if _, err := exec.LookPath(pdfTextBin); err != nil {
		return "", fmt.Errorf("%s not found on PATH: %w", pdfTextBin, err)
	}

	var out bytes.Buffer
	cmd := exec.Command(pdfTextBin, path, "-")
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("converting %s with %s: %w", path, pdfTextBin, err)
	}

	text := Clean(out.String())
	if text == "" {
		return "", fmt.Errorf("%s produced no text for %s (image-only PDFs are unsupported)", pdfTextBin, path)
	}
	return text, nil
}
