package store

import (
	"context"

	"prisma-backend/internal/models"
)

// KeyFreeChat holds the conversation held without a document.
const KeyFreeChat = "prisma-free-chat"

func (l *Library) FreeChat(ctx context.Context) ([]models.ChatMessage, error) {
	msgs := []models.ChatMessage{}
	if _, err := getJSON(ctx, l.KV, KeyFreeChat, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (l *Library) AppendFreeChat(ctx context.Context, msgs ...models.ChatMessage) error {
	history, err := l.FreeChat(ctx)
	if err != nil {
		return err
	}
	if err := setJSON(ctx, l.KV, KeyFreeChat, append(history, msgs...)); err != nil {
		return err
	}
	for _, m := range msgs {
		if m.Role == models.RoleUser {
			l.Documents.record(ctx, ActionChatMessage)
		}
	}
	return nil
}

// SaveFreeChatAsLesson files the free conversation as a document and starts a
// new one.
func (l *Library) SaveFreeChatAsLesson(ctx context.Context, name, subjectID string) (*models.Document, error) {
	history, err := l.FreeChat(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := l.Documents.SaveChatAsLesson(ctx, name, history, subjectID)
	if err != nil {
		return nil, err
	}
	if err := l.KV.Delete(ctx, KeyFreeChat); err != nil {
		return nil, err
	}
	return doc, nil
}
