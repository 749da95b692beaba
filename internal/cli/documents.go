package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"prisma-backend/internal/diagram"
	"prisma-backend/internal/models"
	"prisma-backend/internal/services"
)

func (r *root) uploadCmd() *cobra.Command {
	var name, subject string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Add a PDF, DOCX or TXT file to your library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !services.SupportedExtension(path) {
				return fmt.Errorf("%s: only .pdf, .docx and .txt files are supported", filepath.Base(path))
			}
			text, err := r.app.Extractor.ExtractTextFromPath(path)
			if err != nil {
				return fmt.Errorf("extract text from %s: %w", filepath.Base(path), err)
			}
			if name == "" {
				name = filepath.Base(path)
			}
			doc, err := r.app.Library.Documents.Create(cmd.Context(), name, text, subject)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q (%d characters) as %s\n", doc.Name, len([]rune(text)), doc.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the file name)")
	cmd.Flags().StringVar(&subject, "subject", "", "Subject id to file the document under")
	return cmd
}

func (r *root) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List documents, most recently used first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := r.app.Library.Documents.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				fmt.Fprintln(out, "No documents yet. Add one with `prisma upload <file>`.")
				return nil
			}
			subjects, err := r.app.Library.Subjects.List(cmd.Context())
			if err != nil {
				return err
			}
			names := map[string]string{}
			for _, s := range subjects {
				names[s.ID] = s.Name
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSUBJECT\tLAST OPENED\tARTIFACTS")
			for _, d := range docs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Name, names[d.SubjectID],
					time.UnixMilli(d.LastAccessed).Local().Format("2006-01-02 15:04"), artifactFlags(d))
			}
			return tw.Flush()
		},
	}
}

func artifactFlags(d models.Document) string {
	var have []string
	if d.Summary != nil {
		have = append(have, "summary")
	}
	if d.Artifacts != nil {
		have = append(have, "studyaids")
	}
	if len(d.ExamQuestions) > 0 {
		have = append(have, "exam")
	}
	if d.PodcastScript != "" {
		have = append(have, "podcast")
	}
	if len(d.ChatHistory) > 0 {
		have = append(have, "chat")
	}
	if len(have) == 0 {
		return "-"
	}
	return strings.Join(have, ",")
}

func (r *root) showCmd() *cobra.Command {
	var section string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a document's study material",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := r.app.Library.Documents.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			want := func(s string) bool { return section == "" || section == s }

			fmt.Fprintf(out, "%s\n%s\n", doc.Name, strings.Repeat("─", 60))
			if want("summary") && doc.Summary != nil {
				fmt.Fprintf(out, "\nSummary\n\n%s\n\n", doc.Summary.BriefSummary)
				for _, k := range doc.Summary.KeyTakeaways {
					fmt.Fprintf(out, "  • %s\n", k)
				}
				if doc.Summary.DetailedSummary != "" {
					fmt.Fprintf(out, "\n%s\n", doc.Summary.DetailedSummary)
				}
			}
			if want("mindmap") && doc.Artifacts != nil && doc.Artifacts.MindMap != "" {
				fmt.Fprintf(out, "\nMind map\n\n%s\n", diagram.Render(doc.Artifacts.MindMap))
			}
			if want("flashcards") && doc.Artifacts != nil {
				fmt.Fprintf(out, "\nFlashcards (%d)\n\n", len(doc.Artifacts.Flashcards))
				for i, c := range doc.Artifacts.Flashcards {
					fmt.Fprintf(out, "%2d. %s\n    %s\n", i+1, c.Front, c.Back)
				}
			}
			if want("exam") && len(doc.ExamQuestions) > 0 {
				fmt.Fprintf(out, "\nExam (%d questions)\n\n", len(doc.ExamQuestions))
				for i, q := range doc.ExamQuestions {
					fmt.Fprintf(out, "%2d. %s\n", i+1, q.Question)
					for _, k := range models.OptionKeys {
						opt, _ := q.Options.Get(k)
						fmt.Fprintf(out, "    %s) %s\n", k, opt)
					}
					fmt.Fprintf(out, "    Answer: %s. %s\n", q.CorrectAnswer, q.Explanation)
				}
			}
			if want("podcast") && doc.PodcastScript != "" {
				fmt.Fprintf(out, "\nPodcast script (~%d min)\n\n%s\n", services.EstimateDuration(doc.PodcastScript), doc.PodcastScript)
			}
			if want("chat") && len(doc.ChatHistory) > 0 {
				fmt.Fprintf(out, "\nConversation\n\n%s\n", services.Transcript(doc.ChatHistory))
			}
			if want("text") && doc.Text != "" {
				fmt.Fprintf(out, "\nText\n\n%s\n", doc.Text)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&section, "only", "", "Show one section: summary, mindmap, flashcards, exam, podcast, chat or text")
	return cmd
}

func (r *root) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document with its notes and highlights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := r.app.Library.Documents.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func (r *root) moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <subject-id>",
		Short: "File a document under a subject (use \"\" to unfile)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if args[1] != "" {
				if _, err := r.app.Library.Subjects.Get(ctx, args[1]); err != nil {
					return err
				}
			}
			if err := r.app.Library.Documents.Move(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Moved.")
			return nil
		},
	}
}

func (r *root) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search titles, document text and notes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := r.app.Library.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No matches.")
				return nil
			}
			for _, res := range results {
				fmt.Fprintf(out, "[%s] %s (%s) %s\n    %s\n", res.MatchType, res.DocumentName, res.SubjectName, res.DocumentID, res.Snippet)
			}
			return nil
		},
	}
}

// readFileArg reads a path argument, or stdin for "-".
func readFileArg(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
