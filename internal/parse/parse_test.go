// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParsePlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	content := "First line.\n\n\tSecond   line with   gaps.\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := FileParser{}.Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := "First line. Second line with gaps."
	if got != want {
		t.Errorf("Parse() = %q, want %q", got, want)
	}
}

func TestParseMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.MD")
	if err := os.WriteFile(path, []byte("# Title\n\nBody text."), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := FileParser{}.Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != "# Title Body text." {
		t.Errorf("Parse() = %q", got)
	}
}

func TestParseUnsupportedExtension(t *testing.T) {
	for _, name := range []string{"photo.png", "archive.tar.gz", "noextension"} {
		_, err := FileParser{}.Parse(filepath.Join(t.TempDir(), name))
		if !errors.Is(err, ErrUnsupported) {
			t.Errorf("Parse(%s) error = %v, want ErrUnsupported", name, err)
		}
	}
}

func TestParseDocx(t *testing.T) {
	const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> world</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	path := filepath.Join(t.TempDir(), "doc.docx")
	writeDocx(t, path, documentXML)

	got, err := FileParser{}.Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := "Hello world Second paragraph."
	if got != want {
		t.Errorf("Parse() = %q, want %q", got, want)
	}
}

func TestParseDocxMissingDocumentXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/styles.xml")
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte("<styles/>"))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if _, err := (FileParser{}).Parse(path); err == nil {
		t.Error("Parse() succeeded on docx without document body")
	}
}

func TestParsePDFMissingBinary(t *testing.T) {
	prev := pdfTextBin
	pdfTextBin = "definitely-not-a-real-binary-name"
	t.Cleanup(func() { pdfTextBin = prev })

	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := FileParser{}.Parse(path)
	if err == nil || !strings.Contains(err.Error(), "not found on PATH") {
		t.Errorf("Parse() error = %v, want missing binary error", err)
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "a\t\tb\n\nc   d", "a b c d"},
		{"trims ends", "  padded  ", "padded"},
		{"empty", "", ""},
		{"only whitespace", " \n\t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("Truncate below limit = %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello" {
		t.Errorf("Truncate at limit = %q", got)
	}
	if got := Truncate("hello", 0); got != "hello" {
		t.Errorf("Truncate with zero limit = %q", got)
	}
}

func TestTruncateCountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("ü", 100)
	got := Truncate(text, 10)
	if n := utf8.RuneCountInString(got); n != 10 {
		t.Errorf("rune count = %d, want 10", n)
	}
	if !utf8.ValidString(got) {
		t.Error("Truncate produced invalid UTF-8")
	}
}

// writeDocx builds a minimal DOCX archive containing the given document body.
func writeDocx(t *testing.T, path, documentXML string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}
