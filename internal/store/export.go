package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"prisma-backend/internal/models"
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatHTML     Format = "html"
)

// ParseFormat accepts the canonical names plus md and txt.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown export format %q (want json, markdown, text or html)", s)
}

// Extension is the file extension conventionally used for f.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatText:
		return ".txt"
	}
	return "." + string(f)
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func Export(b *models.ExportBundle, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return json.MarshalIndent(b, "", "  ")
	case FormatMarkdown:
		return []byte(renderMarkdown(b)), nil
	case FormatText:
		return []byte(renderText(b)), nil
	case FormatHTML:
		return renderHTML(b)
	}
	return nil, fmt.Errorf("unknown export format %q", f)
}

func renderMarkdown(b *models.ExportBundle) string {
	var w strings.Builder
	fmt.Fprintf(&w, "# %s\n\n", b.DocumentName)
	fmt.Fprintf(&w, "_Exported %s_\n\n", b.ExportedAt)

	if s := b.Summary; s != nil {
		w.WriteString("## Summary\n\n")
		fmt.Fprintf(&w, "%s\n\n", s.BriefSummary)
		if len(s.KeyTakeaways) > 0 {
			w.WriteString("### Key takeaways\n\n")
			for _, k := range s.KeyTakeaways {
				fmt.Fprintf(&w, "- %s\n", k)
			}
			w.WriteString("\n")
		}
		if s.DetailedSummary != "" {
			fmt.Fprintf(&w, "### Detailed summary\n\n%s\n\n", s.DetailedSummary)
		}
	}

	if b.MindMap != "" {
		fmt.Fprintf(&w, "## Mind map\n\n```mermaid\n%s\n```\n\n", strings.TrimSpace(b.MindMap))
	}

	if len(b.Flashcards) > 0 {
		w.WriteString("## Flashcards\n\n")
		for i, c := range b.Flashcards {
			fmt.Fprintf(&w, "### %d. %s\n\n> %s\n\n", i+1, c.Front, c.Back)
		}
	}

	if len(b.ExamQuestions) > 0 {
		w.WriteString("## Exam\n\n")
		for i, q := range b.ExamQuestions {
			fmt.Fprintf(&w, "### %d. %s\n\n", i+1, q.Question)
			for _, k := range models.OptionKeys {
				opt, _ := q.Options.Get(k)
				fmt.Fprintf(&w, "- [ ] %s) %s\n", k, opt)
			}
			fmt.Fprintf(&w, "\n**Correct answer:** %s\n\n", q.CorrectAnswer)
			if q.Explanation != "" {
				fmt.Fprintf(&w, "_%s_\n\n", q.Explanation)
			}
		}
	}

	if b.PodcastScript != "" {
		fmt.Fprintf(&w, "## Podcast script\n\n%s\n\n", b.PodcastScript)
	}

	if len(b.Notes) > 0 {
		w.WriteString("## Notes\n\n")
		for _, n := range b.Notes {
			fmt.Fprintf(&w, "- **%s**", noteDate(n))
			if n.PageNumber != nil {
				fmt.Fprintf(&w, " (page %d)", *n.PageNumber)
			}
			fmt.Fprintf(&w, ": %s\n", n.Content)
		}
	}
	return strings.TrimRight(w.String(), "\n") + "\n"
}

func renderText(b *models.ExportBundle) string {
	var w strings.Builder
	fmt.Fprintf(&w, "# %s\n\n", b.DocumentName)

	if s := b.Summary; s != nil {
		fmt.Fprintf(&w, "## Summary\n\n%s\n\n", s.BriefSummary)
		for _, k := range s.KeyTakeaways {
			fmt.Fprintf(&w, "* %s\n", k)
		}
		if s.DetailedSummary != "" {
			fmt.Fprintf(&w, "\n%s\n", s.DetailedSummary)
		}
		w.WriteString("\n")
	}

	if b.MindMap != "" {
		fmt.Fprintf(&w, "## Mind map\n\n%s\n\n", strings.TrimSpace(b.MindMap))
	}

	if len(b.Flashcards) > 0 {
		w.WriteString("## Flashcards\n\n")
		for i, c := range b.Flashcards {
			fmt.Fprintf(&w, "%d. **%s**\n   %s\n\n", i+1, c.Front, c.Back)
		}
	}

	if len(b.ExamQuestions) > 0 {
		w.WriteString("## Exam\n\n")
		for i, q := range b.ExamQuestions {
			fmt.Fprintf(&w, "%d. %s\n", i+1, q.Question)
			for _, k := range models.OptionKeys {
				opt, _ := q.Options.Get(k)
				fmt.Fprintf(&w, "   %s) %s\n", k, opt)
			}
			fmt.Fprintf(&w, "   Answer: %s\n\n", q.CorrectAnswer)
		}
	}

	if b.PodcastScript != "" {
		fmt.Fprintf(&w, "## Podcast script\n\n%s\n\n", b.PodcastScript)
	}

	if len(b.Notes) > 0 {
		w.WriteString("## Notes\n\n")
		for _, n := range b.Notes {
			fmt.Fprintf(&w, "[%s] %s\n", noteDate(n), n.Content)
		}
	}
	return strings.TrimRight(w.String(), "\n") + "\n"
}

func renderHTML(b *models.ExportBundle) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(renderMarkdown(b)), &body); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>%s</title>\n", html.EscapeString(b.DocumentName))
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}

func noteDate(n models.Note) string {
	return time.UnixMilli(n.Timestamp).UTC().Format("2006-01-02 15:04")
}

// Import creates a new document from a JSON export. Notes are restored under
// the new document id. The import does not count as an upload.
func (l *Library) Import(ctx context.Context, data []byte) (*models.Document, error) {
	var b models.ExportBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}

	doc := l.Documents.newDocument(b.DocumentName, "")
	doc.Summary = b.Summary
	doc.PodcastScript = b.PodcastScript
	if b.MindMap != "" || len(b.Flashcards) > 0 {
		doc.Artifacts = &models.StudyAidsResult{MindMap: b.MindMap, Flashcards: b.Flashcards}
		if doc.Artifacts.Flashcards == nil {
			doc.Artifacts.Flashcards = []models.Flashcard{}
		}
	}
	if len(b.ExamQuestions) > 0 {
		doc.ExamQuestions = b.ExamQuestions
	}

	if err := l.Documents.insert(ctx, doc); err != nil {
		return nil, err
	}
	if len(b.Notes) > 0 {
		if err := l.Notes.replace(ctx, doc.ID, b.Notes); err != nil {
			return nil, err
		}
	}
	return &doc, nil
}
