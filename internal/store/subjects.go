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

var ErrEmptySubjectName = errors.New("subject name is required")

const (
	defaultSubjectColor = "#6366f1"
	defaultSubjectIcon  = "📘"
)

// Subjects groups documents. Deleting a subject deletes its documents.
type Subjects struct {
	kv   KV
	docs *Documents
	now  func() time.Time
}

func NewSubjects(kv KV, docs *Documents) *Subjects {
	return &Subjects{kv: kv, docs: docs, now: time.Now}
}

func (s *Subjects) List(ctx context.Context) ([]models.Subject, error) {
	out := []models.Subject{}
	if _, err := getJSON(ctx, s.kv, KeySubjects, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Subjects) Get(ctx context.Context, id string) (*models.Subject, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("subject %s: %w", id, ErrNotFound)
}

func (s *Subjects) Create(ctx context.Context, name, color, icon string) (*models.Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptySubjectName
	}
	if color == "" {
		color = defaultSubjectColor
	}
	if icon == "" {
		icon = defaultSubjectIcon
	}
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	sub := models.Subject{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     color,
		Icon:      icon,
		CreatedAt: s.now().UnixMilli(),
	}
	if err := setJSON(ctx, s.kv, KeySubjects, append(all, sub)); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Subjects) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptySubjectName
	}
	all, err := s.List(ctx)
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].ID == id {
			all[i].Name = name
			return setJSON(ctx, s.kv, KeySubjects, all)
		}
	}
	return fmt.Errorf("subject %s: %w", id, ErrNotFound)
}

// Delete removes the subject and every document filed under it. It returns
// the number of documents removed.
func (s *Subjects) Delete(ctx context.Context, id string) (int, error) {
	all, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	kept := all[:0]
	for _, sub := range all {
		if sub.ID != id {
			kept = append(kept, sub)
		}
	}
	if len(kept) == len(all) {
		return 0, fmt.Errorf("subject %s: %w", id, ErrNotFound)
	}
	if err := setJSON(ctx, s.kv, KeySubjects, kept); err != nil {
		return 0, err
	}
	if s.docs == nil {
		return 0, nil
	}
	return s.docs.DeleteBySubject(ctx, id)
}

// names maps subject ids to display names.
func (s *Subjects) names(ctx context.Context) (map[string]string, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(all))
	for _, sub := range all {
		out[sub.ID] = sub.Name
	}
	return out, nil
}
