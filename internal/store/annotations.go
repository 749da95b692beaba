package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"prisma-backend/internal/models"
)

var highlightColors = map[string]bool{"yellow": true, "green": true, "blue": true, "pink": true}

// DefaultHighlightColor is used when a highlight is created without a color.
const DefaultHighlightColor = "yellow"

// ValidColor reports whether c is one of the highlight palette colors.
func ValidColor(c string) bool { return highlightColors[c] }

// Annotations keeps PDF highlights per document in page order of creation.
type Annotations struct {
	kv  KV
	now func() time.Time
}

func NewAnnotations(kv KV) *Annotations {
	return &Annotations{kv: kv, now: time.Now}
}

func (a *Annotations) List(ctx context.Context, docID string) ([]models.Annotation, error) {
	out := []models.Annotation{}
	if _, err := getJSON(ctx, a.kv, annotationsKey(docID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ForPage returns the highlights on one page.
func (a *Annotations) ForPage(ctx context.Context, docID string, page int) ([]models.Annotation, error) {
	all, err := a.List(ctx, docID)
	if err != nil {
		return nil, err
	}
	var out []models.Annotation
	for _, ann := range all {
		if ann.PageNumber == page {
			out = append(out, ann)
		}
	}
	return out, nil
}

func (a *Annotations) Add(ctx context.Context, docID string, ann models.Annotation) (*models.Annotation, error) {
	if ann.Color == "" {
		ann.Color = DefaultHighlightColor
	}
	if !ValidColor(ann.Color) {
		return nil, fmt.Errorf("unknown highlight color %q", ann.Color)
	}
	if ann.PageNumber < 1 {
		return nil, fmt.Errorf("page number must be positive, got %d", ann.PageNumber)
	}
	all, err := a.List(ctx, docID)
	if err != nil {
		return nil, err
	}
	ann.ID = uuid.NewString()
	ann.CreatedAt = a.now().UTC().Format(time.RFC3339)
	if err := setJSON(ctx, a.kv, annotationsKey(docID), append(all, ann)); err != nil {
		return nil, err
	}
	return &ann, nil
}

// SetNote attaches a note to an existing highlight.
func (a *Annotations) SetNote(ctx context.Context, docID, annID, note string) error {
	all, err := a.List(ctx, docID)
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].ID == annID {
			all[i].Note = note
			return setJSON(ctx, a.kv, annotationsKey(docID), all)
		}
	}
	return fmt.Errorf("annotation %s: %w", annID, ErrNotFound)
}

func (a *Annotations) Delete(ctx context.Context, docID, annID string) error {
	all, err := a.List(ctx, docID)
	if err != nil {
		return err
	}
	kept := all[:0]
	for _, ann := range all {
		if ann.ID != annID {
			kept = append(kept, ann)
		}
	}
	if len(kept) == len(all) {
		return fmt.Errorf("annotation %s: %w", annID, ErrNotFound)
	}
	return setJSON(ctx, a.kv, annotationsKey(docID), kept)
}
