package cli

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"prisma-backend/internal/models"
	"prisma-backend/internal/services"
	"prisma-backend/internal/stream"
)

// streamTo copies s to w and returns the full text.
func streamTo(w io.Writer, s *stream.TextStream) (string, error) {
	defer s.Close()
	var b strings.Builder
	for s.Next() {
		b.WriteString(s.Text())
		io.WriteString(w, s.Text())
	}
	return b.String(), s.Err()
}

func imageAttachment(path string) (models.Attachment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Attachment{}, err
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if !strings.HasPrefix(mimeType, "image/") {
		return models.Attachment{}, fmt.Errorf("%s is not an image", filepath.Base(path))
	}
	return models.Attachment{
		Type:     "image",
		Image:    base64.StdEncoding.EncodeToString(raw),
		MimeType: mimeType,
	}, nil
}

func (r *root) chatCmd() *cobra.Command {
	var docID, image string
	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask the tutor a question, about a document or in free chat",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lib := r.app.Library
			question := models.ChatMessage{Role: models.RoleUser, Content: strings.Join(args, " ")}

			var history []models.ChatMessage
			var docContext string
			if docID != "" {
				doc, err := lib.Documents.Get(ctx, docID)
				if err != nil {
					return err
				}
				history, docContext = doc.ChatHistory, doc.Text
			} else {
				var err error
				if history, err = lib.FreeChat(ctx); err != nil {
					return err
				}
			}

			req := models.ChatRequest{Messages: append(history, question), Context: docContext}
			if image != "" {
				att, err := imageAttachment(image)
				if err != nil {
					return err
				}
				req.Data = []models.Attachment{att}
			}

			s, err := r.app.Remote.Chat(ctx, req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			reply, err := streamTo(out, s)
			fmt.Fprintln(out)
			if err != nil {
				// The partial reply is dropped; the question can simply be asked again.
				return err
			}

			answer := models.ChatMessage{Role: models.RoleAssistant, Content: reply}
			if docID != "" {
				return lib.Documents.AppendChat(ctx, docID, question, answer)
			}
			return lib.AppendFreeChat(ctx, question, answer)
		},
	}
	cmd.Flags().StringVar(&docID, "doc", "", "Document to ask about (free chat when empty)")
	cmd.Flags().StringVar(&image, "image", "", "Attach an image file to the question")
	return cmd
}

func (r *root) saveLessonCmd() *cobra.Command {
	var name, subject string
	cmd := &cobra.Command{
		Use:   "save-lesson",
		Short: "Save the free chat as a lesson document and start a new conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := r.app.Library.SaveFreeChatAsLesson(cmd.Context(), name, subject)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %q as %s (%d messages)\n", doc.Name, doc.ID, len(doc.ChatHistory))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Lesson name")
	cmd.Flags().StringVar(&subject, "subject", "", "Subject id to file the lesson under")
	return cmd
}

func (r *root) essayCmd() *cobra.Command {
	var docID, essayType string
	var words int
	cmd := &cobra.Command{
		Use:   "essay <topic>",
		Short: "Write an essay, optionally grounded in a document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			req := models.EssayRequest{Topic: strings.Join(args, " "), EssayType: essayType, WordCount: words}
			if docID != "" {
				doc, err := r.app.Library.Documents.Get(ctx, docID)
				if err != nil {
					return err
				}
				req.Context = services.ResolveContext(doc)
			}

			s, err := r.app.Remote.Essay(ctx, req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			essay, err := streamTo(out, s)
			fmt.Fprintln(out)
			if err != nil {
				return err
			}
			if docID == "" {
				return nil
			}
			return r.app.Library.Documents.Persist(ctx, docID, models.Artifact{Kind: models.KindEssay, Essay: essay})
		},
	}
	cmd.Flags().StringVar(&docID, "doc", "", "Document to draw on")
	cmd.Flags().StringVar(&essayType, "type", services.DefaultEssayType, "argumentative, expository, narrative or descriptive")
	cmd.Flags().IntVar(&words, "words", services.DefaultWordCount, "Target word count")
	return cmd
}

func (r *root) translateCmd() *cobra.Command {
	var docID, to, from string
	cmd := &cobra.Command{
		Use:   "translate [text]",
		Short: "Translate text, or a document's text with --doc",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text := strings.Join(args, " ")
			if docID != "" {
				doc, err := r.app.Library.Documents.Get(ctx, docID)
				if err != nil {
					return err
				}
				text = services.ResolveContext(doc)
			}

			res, err := r.app.Remote.Translate(ctx, models.TranslateRequest{Text: text, TargetLanguage: to, SourceLanguage: from})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", res.Translation)
			if docID == "" {
				return nil
			}
			return r.app.Library.Documents.Persist(ctx, docID, models.Artifact{Kind: models.KindTranslation, Translation: res})
		},
	}
	cmd.Flags().StringVar(&docID, "doc", "", "Translate this document's text")
	cmd.Flags().StringVar(&to, "to", "", "Target language")
	cmd.Flags().StringVar(&from, "from", "auto", "Source language code, or auto")
	return cmd
}
