package services

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var (
	// ErrUnsupportedFileType is returned for uploads that are not pdf, txt or docx.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrNoText means the file parsed but held no readable text.
	ErrNoText = errors.New("no extractable text")
)

type extractFunc func(r io.ReaderAt, size int64) (string, error)

var extractors = map[string]extractFunc{
	".txt":  extractTXT,
	".pdf":  extractPDF,
	".docx": extractDOCX,
}

// FileExtractService turns uploaded study material into plain text. PDF pages
// are separated by "--- Page N ---" markers so a reader can cite page numbers.
type FileExtractService struct{}

func NewFileExtractService() *FileExtractService {
	return &FileExtractService{}
}

// SupportedExtension reports whether name has an extension Extract handles.
func SupportedExtension(name string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(name))]
	return ok
}

func (s *FileExtractService) ExtractTextFromPath(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	return s.Extract(filepath.Base(path), f, info.Size())
}

// Extract reads the file named name from r. The extension decides the format.
func (s *FileExtractService) Extract(name string, r io.ReaderAt, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	extract, ok := extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}
	raw, err := extract(r, size)
	if err != nil {
		return "", err
	}
	text := normalizeExtractedText(raw)
	if text == "" {
		return "", fmt.Errorf("%s: %w", strings.TrimPrefix(ext, "."), ErrNoText)
	}
	return text, nil
}

func extractTXT(r io.ReaderAt, size int64) (string, error) {
	b, err := io.ReadAll(io.NewSectionReader(r, 0, size))
	if err != nil {
		return "", err
	}
	// Files saved by older Windows editors are often Latin-1.
	if !utf8.Valid(b) {
		if decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), b); err == nil {
			b = decoded
		}
	}
	return string(b), nil
}

func extractPDF(r io.ReaderAt, size int64) (string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for n := 1; n <= reader.NumPage(); n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}
		// A page that fails to decode is skipped rather than failing the file.
		content, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(content) == "" {
			continue
		}
		fmt.Fprintf(&b, "--- Page %d ---\n%s\n\n", n, content)
	}
	return b.String(), nil
}

func extractDOCX(r io.ReaderAt, size int64) (string, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return docxText(rc)
	}
	return "", errors.New("docx has no word/document.xml")
}

// docxText walks WordprocessingML and keeps run text, tabs and breaks.
func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("parse docx: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
}

// normalizeExtractedText trims every line and collapses runs of blank lines.
func normalizeExtractedText(s string) string {
	s = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(s)
	var out []string
	for line := range strings.Lines(s) {
		line = strings.TrimSpace(line)
		if line == "" && (len(out) == 0 || out[len(out)-1] == "") {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
