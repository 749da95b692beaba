package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"prisma-backend/internal/logger"
	"prisma-backend/internal/models"
)

const defaultDocumentName = "Untitled document"

var ErrEmptyLesson = errors.New("a lesson needs at least one chat message")

// storedDocument reads records written by any version, including the
// pre-versioned layout that kept extracted text under "pdfText".
type storedDocument struct {
	models.Document
	PDFText string `json:"pdfText,omitempty"`
}

// normalize applies the read-time defaults. It reports false for records that
// cannot be addressed and must be dropped.
func normalize(d *storedDocument) (models.Document, bool) {
	doc := d.Document
	if strings.TrimSpace(doc.ID) == "" {
		return doc, false
	}
	if doc.Version == 0 {
		doc.Version = models.DocumentVersion
	}
	if strings.TrimSpace(doc.Name) == "" {
		doc.Name = defaultDocumentName
	}
	if doc.LastAccessed == 0 {
		doc.LastAccessed = doc.UploadedAt
	}
	if doc.Text == "" && d.PDFText != "" {
		doc.Text = d.PDFText
	}
	if doc.ExamQuestions == nil {
		doc.ExamQuestions = []models.ExamQuestion{}
	}
	if doc.ChatHistory == nil {
		doc.ChatHistory = []models.ChatMessage{}
	}
	if doc.Artifacts != nil && doc.Artifacts.Flashcards == nil {
		doc.Artifacts.Flashcards = []models.Flashcard{}
	}
	return doc, true
}

// Documents is the local document library. Writes are serialised within a
// process; two processes sharing one store can still overwrite each other.
type Documents struct {
	mu    sync.Mutex
	kv    KV
	usage *Usage
	now   func() time.Time
	log   *logger.Logger
}

func NewDocuments(kv KV, usage *Usage, log *logger.Logger) *Documents {
	if log == nil {
		log = logger.Nop()
	}
	now := time.Now
	if usage != nil {
		now = usage.now
	}
	return &Documents{kv: kv, usage: usage, now: now, log: log}
}

func (d *Documents) load(ctx context.Context) ([]models.Document, error) {
	raw, ok, err := d.kv.Get(ctx, KeyDocuments)
	if err != nil || !ok {
		return []models.Document{}, err
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyDocuments, err)
	}

	docs := make([]models.Document, 0, len(records))
	for i, rec := range records {
		var sd storedDocument
		if err := json.Unmarshal(rec, &sd); err != nil {
			d.log.Warn("skipping unreadable document record", "index", i, "error", err.Error())
			continue
		}
		doc, ok := normalize(&sd)
		if !ok {
			d.log.Warn("skipping document record without id", "index", i)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (d *Documents) save(ctx context.Context, docs []models.Document) error {
	return setJSON(ctx, d.kv, KeyDocuments, docs)
}

// List returns every document, most recently used first.
func (d *Documents) List(ctx context.Context) ([]models.Document, error) {
	docs, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].LastAccessed > docs[j].LastAccessed })
	return docs, nil
}

// Get returns a document and marks it as accessed.
func (d *Documents) Get(ctx context.Context, id string) (*models.Document, error) {
	var out models.Document
	err := d.update(ctx, id, func(doc *models.Document) error {
		doc.LastAccessed = d.now().UnixMilli()
		out = *doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Peek returns a document without touching it.
func (d *Documents) Peek(ctx context.Context, id string) (*models.Document, error) {
	docs, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if docs[i].ID == id {
			return &docs[i], nil
		}
	}
	return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
}

func (d *Documents) insert(ctx context.Context, doc models.Document) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	docs, err := d.load(ctx)
	if err != nil {
		return err
	}
	return d.save(ctx, append([]models.Document{doc}, docs...))
}

func (d *Documents) newDocument(name, subjectID string) models.Document {
	now := d.now().UnixMilli()
	if strings.TrimSpace(name) == "" {
		name = defaultDocumentName
	}
	return models.Document{
		Version:       models.DocumentVersion,
		ID:            uuid.NewString(),
		Name:          name,
		SubjectID:     subjectID,
		UploadedAt:    now,
		LastAccessed:  now,
		ExamQuestions: []models.ExamQuestion{},
		ChatHistory:   []models.ChatMessage{},
	}
}

// Create stores an uploaded document and counts the upload.
func (d *Documents) Create(ctx context.Context, name, text, subjectID string) (*models.Document, error) {
	doc := d.newDocument(name, subjectID)
	doc.Text = text
	if err := d.insert(ctx, doc); err != nil {
		return nil, err
	}
	d.record(ctx, ActionUpload)
	return &doc, nil
}

// SaveChatAsLesson turns a free chat into a document whose context is the
// conversation transcript.
func (d *Documents) SaveChatAsLesson(ctx context.Context, name string, history []models.ChatMessage, subjectID string) (*models.Document, error) {
	if len(history) == 0 {
		return nil, ErrEmptyLesson
	}
	if strings.TrimSpace(name) == "" {
		name = "Chat lesson " + d.now().Format("2006-01-02 15:04")
	}
	doc := d.newDocument(name, subjectID)
	doc.ChatHistory = append([]models.ChatMessage(nil), history...)
	if err := d.insert(ctx, doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// AppendChat adds turns to a document's conversation. Each user turn counts
// as a chat message.
func (d *Documents) AppendChat(ctx context.Context, id string, msgs ...models.ChatMessage) error {
	err := d.update(ctx, id, func(doc *models.Document) error {
		doc.ChatHistory = append(doc.ChatHistory, msgs...)
		doc.LastAccessed = d.now().UnixMilli()
		return nil
	})
	if err != nil {
		return err
	}
	for _, m := range msgs {
		if m.Role == models.RoleUser {
			d.record(ctx, ActionChatMessage)
		}
	}
	return nil
}

// Persist merges a generated artifact into the document (last write wins) and
// then bumps the matching usage counter. The counter write is separate and
// best effort.
func (d *Documents) Persist(ctx context.Context, id string, artifact models.Artifact) error {
	err := d.update(ctx, id, func(doc *models.Document) error {
		return mergeArtifact(doc, artifact)
	})
	if err != nil {
		return err
	}
	if action, ok := ActionForKind(artifact.Kind); ok {
		d.record(ctx, action)
	}
	return nil
}

func mergeArtifact(doc *models.Document, a models.Artifact) error {
	switch a.Kind {
	case models.KindSummary:
		if a.Summary == nil {
			return fmt.Errorf("summary artifact has no payload")
		}
		doc.Summary = a.Summary
	case models.KindStudyAids:
		if a.StudyAids == nil {
			return fmt.Errorf("study aids artifact has no payload")
		}
		doc.Artifacts = a.StudyAids
	case models.KindExam:
		if a.Exam == nil {
			return fmt.Errorf("exam artifact has no payload")
		}
		doc.ExamQuestions = a.Exam.Questions
	case models.KindPodcast:
		if a.Podcast == nil {
			return fmt.Errorf("podcast artifact has no payload")
		}
		doc.PodcastScript = a.Podcast.Script
	case models.KindEssay:
		doc.LastEssay = a.Essay
	case models.KindTranslation:
		if a.Translation == nil {
			return fmt.Errorf("translation artifact has no payload")
		}
		doc.LastTranslation = a.Translation
	default:
		return fmt.Errorf("cannot persist artifact kind %q", a.Kind)
	}
	return nil
}

// Move files a document under another subject.
func (d *Documents) Move(ctx context.Context, id, subjectID string) error {
	return d.update(ctx, id, func(doc *models.Document) error {
		doc.SubjectID = subjectID
		return nil
	})
}

// Delete removes a document together with its notes and annotations.
func (d *Documents) Delete(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	docs, err := d.load(ctx)
	if err != nil {
		return err
	}
	kept := docs[:0]
	found := false
	for _, doc := range docs {
		if doc.ID == id {
			found = true
			continue
		}
		kept = append(kept, doc)
	}
	if !found {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err := d.save(ctx, kept); err != nil {
		return err
	}
	if err := d.kv.Delete(ctx, notesKey(id)); err != nil {
		return err
	}
	return d.kv.Delete(ctx, annotationsKey(id))
}

// DeleteBySubject removes every document filed under subjectID.
func (d *Documents) DeleteBySubject(ctx context.Context, subjectID string) (int, error) {
	docs, err := d.load(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, doc := range docs {
		if doc.SubjectID != subjectID {
			continue
		}
		if err := d.Delete(ctx, doc.ID); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (d *Documents) update(ctx context.Context, id string, fn func(*models.Document) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	docs, err := d.load(ctx)
	if err != nil {
		return err
	}
	for i := range docs {
		if docs[i].ID != id {
			continue
		}
		if err := fn(&docs[i]); err != nil {
			return err
		}
		return d.save(ctx, docs)
	}
	return fmt.Errorf("document %s: %w", id, ErrNotFound)
}

func (d *Documents) record(ctx context.Context, action Action) {
	if d.usage == nil {
		return
	}
	if err := d.usage.Record(ctx, action); err != nil {
		d.log.Warn("failed to update usage counters", "action", string(action), "error", err.Error())
	}
}
