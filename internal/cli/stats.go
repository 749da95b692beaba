package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func (r *root) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show usage counters, level and achievements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			stats, err := r.app.Library.Usage.Stats(ctx)
			if err != nil {
				return err
			}
			game, err := r.app.Library.Usage.Gamification(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Level %d  ·  %d points  ·  %d-day streak\n\n", game.Level, game.Points, game.Streak)

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			rows := []struct {
				label string
				n     int
			}{
				{"Documents uploaded", stats.DocumentsUploaded},
				{"Chat messages", stats.ChatMessages},
				{"Summaries", stats.SummariesGenerated},
				{"Flashcard sets", stats.FlashcardsCreated},
				{"Exams", stats.ExamsCompleted},
				{"Podcasts", stats.PodcastsCreated},
				{"Essays", stats.EssaysGenerated},
				{"Translations", stats.TranslationsCreated},
				{"Study minutes", stats.StudyTime},
			}
			for _, row := range rows {
				fmt.Fprintf(tw, "%s\t%d\n", row.label, row.n)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintln(out, "\nAchievements")
			for _, a := range game.Achievements {
				mark := "  "
				if a.Unlocked {
					mark = "✓ "
				}
				line := fmt.Sprintf("%s%s %s: %s", mark, a.Icon, a.Title, a.Description)
				if a.Unlocked && a.UnlockedAt > 0 {
					line += " (" + time.UnixMilli(a.UnlockedAt).Local().Format("2006-01-02") + ")"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func (r *root) studyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "study <minutes>",
		Short: "Log time spent studying",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			minutes, err := strconv.Atoi(args[0])
			if err != nil || minutes <= 0 {
				return fmt.Errorf("minutes must be a positive number, got %q", args[0])
			}
			if err := r.app.Library.Usage.AddStudyTime(cmd.Context(), minutes); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %d minutes.\n", minutes)
			return nil
		},
	}
}
