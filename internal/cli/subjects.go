package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (r *root) subjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subject",
		Short: "Organise documents into subjects",
	}

	var color, icon string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a subject",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := r.app.Library.Subjects.Create(cmd.Context(), strings.Join(args, " "), color, icon)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", sub.Icon, sub.Name, sub.ID)
			return nil
		},
	}
	add.Flags().StringVar(&color, "color", "", "Hex color")
	add.Flags().StringVar(&icon, "icon", "", "Icon")

	list := &cobra.Command{
		Use:   "list",
		Short: "List subjects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			subjects, err := r.app.Library.Subjects.List(ctx)
			if err != nil {
				return err
			}
			docs, err := r.app.Library.Documents.List(ctx)
			if err != nil {
				return err
			}
			counts := map[string]int{}
			for _, d := range docs {
				counts[d.SubjectID]++
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSUBJECT\tDOCUMENTS")
			for _, s := range subjects {
				fmt.Fprintf(tw, "%s\t%s %s\t%d\n", s.ID, s.Icon, s.Name, counts[s.ID])
			}
			if n := counts[""]; n > 0 {
				fmt.Fprintf(tw, "-\tNo subject\t%d\n", n)
			}
			return tw.Flush()
		},
	}

	rename := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a subject",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Library.Subjects.Rename(cmd.Context(), args[0], strings.Join(args[1:], " "))
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a subject and every document filed under it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := r.app.Library.Subjects.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted subject and %d documents\n", n)
			return nil
		},
	}

	cmd.AddCommand(add, list, rename, del)
	return cmd
}
