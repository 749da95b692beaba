package store

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"

	"prisma-backend/internal/logger"
	"prisma-backend/internal/models"
)

const (
	maxSearchResults = 20
	snippetBefore    = 50
	snippetAfter     = 100
	noSubjectLabel   = "No subject"
)

// Library bundles the stores that share one KV backend.
type Library struct {
	KV          KV
	Documents   *Documents
	Notes       *Notes
	Annotations *Annotations
	Subjects    *Subjects
	Usage       *Usage

	now func() time.Time
}

func NewLibrary(kv KV, log *logger.Logger, opts ...UsageOption) *Library {
	usage := NewUsage(kv, log, opts...)
	docs := NewDocuments(kv, usage, log)

	notes := NewNotes(kv)
	notes.now = usage.now
	ann := NewAnnotations(kv)
	ann.now = usage.now
	subjects := NewSubjects(kv, docs)
	subjects.now = usage.now

	return &Library{
		KV:          kv,
		Documents:   docs,
		Notes:       notes,
		Annotations: ann,
		Subjects:    subjects,
		Usage:       usage,
		now:         usage.now,
	}
}

type MatchType string

const (
	MatchTitle   MatchType = "title"
	MatchContent MatchType = "content"
	MatchNote    MatchType = "note"
)

type SearchResult struct {
	DocumentID   string    `json:"documentId"`
	DocumentName string    `json:"documentName"`
	SubjectName  string    `json:"subjectName"`
	MatchType    MatchType `json:"matchType"`
	Snippet      string    `json:"snippet"`
}

// Search finds query in document titles, extracted text and notes. Matching
// is case-insensitive. Title hits sort first.
func (l *Library) Search(ctx context.Context, query string) ([]SearchResult, error) {
	q := []rune(strings.TrimSpace(query))
	if len(q) == 0 {
		return []SearchResult{}, nil
	}

	docs, err := l.Documents.List(ctx)
	if err != nil {
		return nil, err
	}
	subjects, err := l.Subjects.names(ctx)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, doc := range docs {
		subject := subjects[doc.SubjectID]
		if subject == "" {
			subject = noSubjectLabel
		}
		hit := func(kind MatchType, snippet string) {
			results = append(results, SearchResult{
				DocumentID:   doc.ID,
				DocumentName: doc.Name,
				SubjectName:  subject,
				MatchType:    kind,
				Snippet:      snippet,
			})
		}

		if indexFold([]rune(doc.Name), q) >= 0 {
			hit(MatchTitle, doc.Name)
		}
		if s, ok := snippet(doc.Text, q); ok {
			hit(MatchContent, s)
		}
		notes, err := l.Notes.List(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		for _, n := range notes {
			if s, ok := snippet(n.Content, q); ok {
				hit(MatchNote, s)
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchType == MatchTitle && results[j].MatchType != MatchTitle
	})
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}
	if results == nil {
		results = []SearchResult{}
	}
	return results, nil
}

func snippet(text string, q []rune) (string, bool) {
	r := []rune(text)
	i := indexFold(r, q)
	if i < 0 {
		return "", false
	}
	start := max(0, i-snippetBefore)
	end := min(len(r), i+len(q)+snippetAfter)

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(strings.Join(strings.Fields(string(r[start:end])), " "))
	if end < len(r) {
		b.WriteString("...")
	}
	return b.String(), true
}

// indexFold is a rune-indexed, case-insensitive strings.Index.
func indexFold(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, n := range needle {
			if unicode.ToLower(haystack[i+j]) != unicode.ToLower(n) {
				continue outer
			}
		}
		return i
	}
	return -1
}

// Bundle collects a document's study material for export.
func (l *Library) Bundle(ctx context.Context, docID string) (*models.ExportBundle, error) {
	doc, err := l.Documents.Peek(ctx, docID)
	if err != nil {
		return nil, err
	}
	notes, err := l.Notes.List(ctx, docID)
	if err != nil {
		return nil, err
	}

	b := &models.ExportBundle{
		DocumentName:  doc.Name,
		ExportedAt:    l.now().UTC().Format(time.RFC3339),
		Summary:       doc.Summary,
		ExamQuestions: doc.ExamQuestions,
		PodcastScript: doc.PodcastScript,
		Notes:         notes,
	}
	if doc.Artifacts != nil {
		b.MindMap = doc.Artifacts.MindMap
		b.Flashcards = doc.Artifacts.Flashcards
	}
	if len(b.ExamQuestions) == 0 {
		b.ExamQuestions = nil
	}
	if len(b.Notes) == 0 {
		b.Notes = nil
	}
	return b, nil
}
