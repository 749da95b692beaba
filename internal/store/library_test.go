package store

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prisma-backend/internal/models"
)

func seedStudyDocument(t *testing.T, lib *Library) *models.Document {
	t.Helper()
	ctx := context.Background()

	doc, err := lib.Documents.Create(ctx, "Cellular Respiration", "Glycolysis splits glucose. The Krebs cycle runs in the mitochondria.", "")
	require.NoError(t, err)

	require.NoError(t, lib.Documents.Persist(ctx, doc.ID, models.Artifact{
		Kind:    models.KindSummary,
		Summary: &models.SummaryResult{BriefSummary: "How cells make ATP.", KeyTakeaways: []string{"Glycolysis", "Krebs"}, DetailedSummary: "Longer text."},
	}))
	require.NoError(t, lib.Documents.Persist(ctx, doc.ID, models.Artifact{
		Kind: models.KindStudyAids,
		StudyAids: &models.StudyAidsResult{
			MindMap: "graph TD\nA[Respiration]-->B[Glycolysis]",
			Flashcards: []models.Flashcard{
				{Front: "Where does the Krebs cycle run?", Back: "In the mitochondrial matrix."},
				{Front: "Glycolysis output?", Back: "2 pyruvate, 2 ATP, 2 NADH (net)."},
			},
		},
	}))
	require.NoError(t, lib.Documents.Persist(ctx, doc.ID, models.Artifact{
		Kind: models.KindExam,
		Exam: &models.ExamResult{Questions: []models.ExamQuestion{{
			Question:      "Which organelle hosts the Krebs cycle?",
			Options:       models.ExamOptions{A: "Nucleus", B: "Mitochondrion", C: "Ribosome", D: "Golgi"},
			CorrectAnswer: "B",
			Explanation:   "The matrix of the mitochondrion.",
		}}},
	}))
	page := 2
	_, err = lib.Notes.Add(ctx, doc.ID, "Review the electron transport chain", &page)
	require.NoError(t, err)

	out, err := lib.Documents.Peek(ctx, doc.ID)
	require.NoError(t, err)
	return out
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(newTestClock())
	doc := seedStudyDocument(t, lib)

	bio, err := lib.Subjects.Create(ctx, "Biology", "", "")
	require.NoError(t, err)
	other, err := lib.Documents.Create(ctx, "Krebs notes", "nothing relevant", bio.ID)
	require.NoError(t, err)

	results, err := lib.Search(ctx, "KREBS")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, MatchTitle, results[0].MatchType)
	assert.Equal(t, other.ID, results[0].DocumentID)
	assert.Equal(t, "Biology", results[0].SubjectName)

	assert.Equal(t, MatchContent, results[1].MatchType)
	assert.Equal(t, doc.ID, results[1].DocumentID)
	assert.Equal(t, "No subject", results[1].SubjectName)
	assert.Contains(t, results[1].Snippet, "Krebs cycle")

	notes, err := lib.Search(ctx, "electron transport")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, MatchNote, notes[0].MatchType)

	empty, err := lib.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSearch_SnippetWindowAndLimit(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(newTestClock())

	text := strings.Repeat("a", 80) + "needle" + strings.Repeat("b", 150)
	for i := 0; i < 25; i++ {
		_, err := lib.Documents.Create(ctx, "doc", text, "")
		require.NoError(t, err)
	}

	results, err := lib.Search(ctx, "needle")
	require.NoError(t, err)
	require.Len(t, results, 20)

	want := "..." + strings.Repeat("a", 50) + "needle" + strings.Repeat("b", 100) + "..."
	assert.Equal(t, want, results[0].Snippet)
}

func TestExport_ImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(newTestClock())
	doc := seedStudyDocument(t, lib)

	bundle, err := lib.Bundle(ctx, doc.ID)
	require.NoError(t, err)
	exported, err := Export(bundle, FormatJSON)
	require.NoError(t, err)

	imported, err := lib.Import(ctx, exported)
	require.NoError(t, err)
	assert.NotEqual(t, doc.ID, imported.ID)

	rebundle, err := lib.Bundle(ctx, imported.ID)
	require.NoError(t, err)
	reexported, err := Export(rebundle, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, string(exported), string(reexported))

	var a, b map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(exported, &a))
	require.NoError(t, json.Unmarshal(reexported, &b))
	assert.Equal(t, string(a["flashcards"]), string(b["flashcards"]))
	assert.Equal(t, string(a["examQuestions"]), string(b["examQuestions"]))

	stats, err := lib.Usage.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentsUploaded, "import is not an upload")
}

func TestImport_RejectsGarbage(t *testing.T) {
	lib := newTestLibrary(newTestClock())
	_, err := lib.Import(context.Background(), []byte("{not json"))
	assert.Error(t, err)
}

func TestExport_Formats(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(newTestClock())
	doc := seedStudyDocument(t, lib)
	bundle, err := lib.Bundle(ctx, doc.ID)
	require.NoError(t, err)

	md, err := Export(bundle, FormatMarkdown)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md), "# Cellular Respiration\n"))
	assert.Contains(t, string(md), "```mermaid\ngraph TD\nA[Respiration]-->B[Glycolysis]\n```")
	assert.Contains(t, string(md), "### 1. Where does the Krebs cycle run?\n\n> In the mitochondrial matrix.")
	assert.Contains(t, string(md), "- [ ] B) Mitochondrion")
	assert.Contains(t, string(md), "**Correct answer:** B")
	assert.Contains(t, string(md), "(page 2): Review the electron transport chain")

	txt, err := Export(bundle, FormatText)
	require.NoError(t, err)
	assert.Contains(t, string(txt), "1. **Where does the Krebs cycle run?**")
	assert.Contains(t, string(txt), "   Answer: B")
	assert.NotContains(t, string(txt), "```")

	page, err := Export(bundle, FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>Cellular Respiration</title>")
	assert.Contains(t, string(page), "<h1>Cellular Respiration</h1>")
	assert.Contains(t, string(page), `<input disabled="" type="checkbox"`)
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"json": FormatJSON, "md": FormatMarkdown, "Markdown": FormatMarkdown, "txt": FormatText, "html": FormatHTML}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
	assert.Equal(t, ".md", FormatMarkdown.Extension())
	assert.Equal(t, ".json", FormatJSON.Extension())
}
