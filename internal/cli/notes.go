package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"prisma-backend/internal/models"
)

func (r *root) noteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Keep notes on a document",
	}

	var page int
	add := &cobra.Command{
		Use:   "add <doc-id> <text>",
		Short: "Add a note",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := r.app.Library.Documents.Peek(ctx, args[0]); err != nil {
				return err
			}
			var p *int
			if cmd.Flags().Changed("page") {
				p = &page
			}
			note, err := r.app.Library.Notes.Add(ctx, args[0], strings.Join(args[1:], " "), p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added note %s\n", note.ID)
			return nil
		},
	}
	add.Flags().IntVar(&page, "page", 0, "Page the note refers to")

	list := &cobra.Command{
		Use:   "list <doc-id>",
		Short: "List notes, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, err := r.app.Library.Notes.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(notes) == 0 {
				fmt.Fprintln(out, "No notes.")
				return nil
			}
			for _, n := range notes {
				when := time.UnixMilli(n.Timestamp).Local().Format("2006-01-02 15:04")
				if n.PageNumber != nil {
					when += fmt.Sprintf(", page %d", *n.PageNumber)
				}
				fmt.Fprintf(out, "%s (%s)\n    %s\n", n.ID, when, n.Content)
			}
			return nil
		},
	}

	edit := &cobra.Command{
		Use:   "edit <doc-id> <note-id> <text>",
		Short: "Replace a note's text",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Library.Notes.Update(cmd.Context(), args[0], args[1], strings.Join(args[2:], " "))
		},
	}

	del := &cobra.Command{
		Use:   "delete <doc-id> <note-id>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Library.Notes.Delete(cmd.Context(), args[0], args[1])
		},
	}

	cmd.AddCommand(add, list, edit, del)
	return cmd
}

func (r *root) highlightCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "highlight",
		Short: "Manage highlights on a document's pages",
	}

	var ann models.Annotation
	var rect []float64
	add := &cobra.Command{
		Use:   "add <doc-id>",
		Short: "Highlight a passage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := r.app.Library.Documents.Peek(ctx, args[0]); err != nil {
				return err
			}
			if len(rect) > 0 {
				if len(rect) != 4 {
					return fmt.Errorf("--rect takes x,y,width,height")
				}
				ann.Rect = models.Rect{X: rect[0], Y: rect[1], Width: rect[2], Height: rect[3]}
			}
			saved, err := r.app.Library.Annotations.Add(ctx, args[0], ann)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s highlight %s on page %d\n", saved.Color, saved.ID, saved.PageNumber)
			return nil
		},
	}
	add.Flags().IntVar(&ann.PageNumber, "page", 1, "Page number")
	add.Flags().StringVar(&ann.SelectedText, "text", "", "Highlighted text")
	add.Flags().StringVar(&ann.Color, "color", "", "yellow, green, blue or pink")
	add.Flags().StringVar(&ann.Note, "note", "", "Note to attach")
	add.Flags().Float64SliceVar(&rect, "rect", nil, "Position on the page as x,y,width,height")

	var page int
	list := &cobra.Command{
		Use:   "list <doc-id>",
		Short: "List highlights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var anns []models.Annotation
			var err error
			if page > 0 {
				anns, err = r.app.Library.Annotations.ForPage(ctx, args[0], page)
			} else {
				anns, err = r.app.Library.Annotations.List(ctx, args[0])
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(anns) == 0 {
				fmt.Fprintln(out, "No highlights.")
				return nil
			}
			for _, a := range anns {
				fmt.Fprintf(out, "%s p.%d [%s] %q\n", a.ID, a.PageNumber, a.Color, a.SelectedText)
				if a.Note != "" {
					fmt.Fprintf(out, "    %s\n", a.Note)
				}
			}
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 0, "Only this page")

	note := &cobra.Command{
		Use:   "note <doc-id> <highlight-id> <text>",
		Short: "Attach a note to a highlight",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Library.Annotations.SetNote(cmd.Context(), args[0], args[1], strings.Join(args[2:], " "))
		},
	}

	del := &cobra.Command{
		Use:   "delete <doc-id> <highlight-id>",
		Short: "Delete a highlight",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Library.Annotations.Delete(cmd.Context(), args[0], args[1])
		},
	}

	cmd.AddCommand(add, list, note, del)
	return cmd
}
