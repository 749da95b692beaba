package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"prisma-backend/internal/models"
)

var ErrEmptyNote = errors.New("note content is required")

// Notes keeps free-form notes per document, newest first.
type Notes struct {
	kv  KV
	now func() time.Time
}

func NewNotes(kv KV) *Notes {
	return &Notes{kv: kv, now: time.Now}
}

func (n *Notes) List(ctx context.Context, docID string) ([]models.Note, error) {
	notes := []models.Note{}
	if _, err := getJSON(ctx, n.kv, notesKey(docID), &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// Add prepends a note. page is optional.
func (n *Notes) Add(ctx context.Context, docID, content string, page *int) (*models.Note, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyNote
	}
	notes, err := n.List(ctx, docID)
	if err != nil {
		return nil, err
	}
	note := models.Note{
		ID:         uuid.NewString(),
		Content:    content,
		Timestamp:  n.now().UnixMilli(),
		PageNumber: page,
	}
	if err := setJSON(ctx, n.kv, notesKey(docID), append([]models.Note{note}, notes...)); err != nil {
		return nil, err
	}
	return &note, nil
}

func (n *Notes) Update(ctx context.Context, docID, noteID, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyNote
	}
	notes, err := n.List(ctx, docID)
	if err != nil {
		return err
	}
	for i := range notes {
		if notes[i].ID == noteID {
			notes[i].Content = content
			notes[i].Timestamp = n.now().UnixMilli()
			return setJSON(ctx, n.kv, notesKey(docID), notes)
		}
	}
	return fmt.Errorf("note %s: %w", noteID, ErrNotFound)
}

func (n *Notes) Delete(ctx context.Context, docID, noteID string) error {
	notes, err := n.List(ctx, docID)
	if err != nil {
		return err
	}
	kept := notes[:0]
	for _, note := range notes {
		if note.ID != noteID {
			kept = append(kept, note)
		}
	}
	if len(kept) == len(notes) {
		return fmt.Errorf("note %s: %w", noteID, ErrNotFound)
	}
	return setJSON(ctx, n.kv, notesKey(docID), kept)
}

// replace overwrites the whole list. Used by import.
func (n *Notes) replace(ctx context.Context, docID string, notes []models.Note) error {
	return setJSON(ctx, n.kv, notesKey(docID), notes)
}
