package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"prisma-backend/internal/store"
)

func (r *root) exportCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export <doc-id>",
		Short: "Export a document's study material as JSON, Markdown, text or HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := store.ParseFormat(format)
			if err != nil {
				return err
			}
			bundle, err := r.app.Library.Bundle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := store.Export(bundle, f)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(store.FormatMarkdown), "json, markdown, text or html")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func (r *root) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON export as a new document (\"-\" reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readFileArg(cmd, args[0])
			if err != nil {
				return err
			}
			doc, err := r.app.Library.Import(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %q as %s\n", doc.Name, doc.ID)
			return nil
		},
	}
}
