package services

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeExtractedText(t *testing.T) {
	in := "  Title  \r\n\r\n\r\n\n line one \rline two\n\n"
	expected := "Title\n\nline one\nline two"
	if got := normalizeExtractedText(in); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestExtract_TXT(t *testing.T) {
	s := NewFileExtractService()
	data := []byte("Apuntes de biología\n\n\n\nLa célula")
	got, err := s.Extract("notes.TXT", bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "Apuntes de biología\n\nLa célula" {
		t.Errorf("Unexpected text %q", got)
	}
}

func TestExtract_TXTLatin1(t *testing.T) {
	s := NewFileExtractService()
	data := []byte{'c', 'a', 'f', 0xe9}
	got, err := s.Extract("menu.txt", bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "café" {
		t.Errorf("Expected Windows-1252 decoding, got %q", got)
	}
}

func TestExtract_DOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/document.xml")
	w.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>Hello &amp; welcome</w:t></w:r></w:p><w:p><w:r><w:t>Second</w:t><w:br/><w:t>line</w:t></w:r></w:p></w:body></w:document>`))
	zw.Close()

	s := NewFileExtractService()
	got, err := s.Extract("lesson.docx", bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "Hello & welcome\nSecond\nline" {
		t.Errorf("Unexpected text %q", got)
	}
}

func TestExtract_Errors(t *testing.T) {
	s := NewFileExtractService()

	if _, err := s.Extract("slides.pptx", bytes.NewReader(nil), 0); !errors.Is(err, ErrUnsupportedFileType) {
		t.Errorf("Expected ErrUnsupportedFileType, got %v", err)
	}
	if _, err := s.Extract("empty.txt", bytes.NewReader([]byte("  \n ")), 4); err == nil {
		t.Error("Expected error for empty text file")
	}
	if _, err := s.Extract("broken.pdf", bytes.NewReader([]byte("not a pdf")), 9); err == nil {
		t.Error("Expected error for invalid pdf")
	}
}

func TestExtractTextFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("Photosynthesis"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := NewFileExtractService().ExtractTextFromPath(path)
	if err != nil || got != "Photosynthesis" {
		t.Errorf("Unexpected result %q, %v", got, err)
	}
}

func TestSupportedExtension(t *testing.T) {
	for name, expected := range map[string]bool{"a.pdf": true, "b.DOCX": true, "c.txt": true, "d.png": false, "e": false} {
		if got := SupportedExtension(name); got != expected {
			t.Errorf("SupportedExtension(%q) = %v", name, got)
		}
	}
}

func TestExtract_EmptyFileIsNoText(t *testing.T) {
	_, err := NewFileExtractService().Extract("blank.txt", bytes.NewReader([]byte("\n\n")), 2)
	if !errors.Is(err, ErrNoText) {
		t.Errorf("Expected ErrNoText, got %v", err)
	}
}

func TestExtract_DOCXWithoutDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/styles.xml")
	w.Write([]byte(`<styles/>`))
	zw.Close()

	if _, err := NewFileExtractService().Extract("x.docx", bytes.NewReader(buf.Bytes()), int64(buf.Len())); err == nil {
		t.Error("Expected error for docx without document.xml")
	}
}
