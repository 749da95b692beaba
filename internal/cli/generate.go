package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"prisma-backend/internal/models"
	"prisma-backend/internal/services"
)

// ErrNoStudyMaterial means a document has neither text nor a conversation.
var ErrNoStudyMaterial = errors.New("this document has no text or conversation to study from")

var documentKinds = []models.ArtifactKind{models.KindSummary, models.KindStudyAids, models.KindExam, models.KindPodcast}

func parseDocumentKind(s string) (models.ArtifactKind, error) {
	switch strings.ToLower(s) {
	case "summary":
		return models.KindSummary, nil
	case "studyaids", "flashcards", "mindmap":
		return models.KindStudyAids, nil
	case "exam":
		return models.KindExam, nil
	case "podcast":
		return models.KindPodcast, nil
	}
	return "", fmt.Errorf("unknown artifact %q (want summary, studyaids, exam, podcast or all)", s)
}

func (r *root) generateCmd() *cobra.Command {
	var questions int
	cmd := &cobra.Command{
		Use:   "generate <id> summary|studyaids|exam|podcast|all",
		Short: "Generate study material for a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := r.app.Library.Documents.Get(ctx, args[0])
			if err != nil {
				return err
			}
			source := services.ResolveContext(doc)
			if source == "" {
				return ErrNoStudyMaterial
			}

			kinds := documentKinds
			if strings.ToLower(args[1]) != "all" {
				kind, err := parseDocumentKind(args[1])
				if err != nil {
					return err
				}
				kinds = []models.ArtifactKind{kind}
			}

			var mu sync.Mutex
			out := cmd.OutOrStdout()
			report := func(format string, a ...any) {
				mu.Lock()
				defer mu.Unlock()
				fmt.Fprintf(out, format, a...)
			}

			// Each artifact is persisted as soon as it arrives; one failure does
			// not cancel the others.
			var g errgroup.Group
			for _, kind := range kinds {
				g.Go(func() error {
					artifact, err := r.generate(ctx, kind, source, questions)
					if err == nil {
						err = r.app.Library.Documents.Persist(ctx, doc.ID, artifact)
					}
					if err != nil {
						report("✗ %s: %s\n", kind, Explain(err))
						return fmt.Errorf("%s: %w", kind, err)
					}
					report("✓ %s\n", describe(artifact))
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			if len(kinds) == 1 {
				fmt.Fprintf(out, "Run `prisma show %s --only %s` to read it.\n", doc.ID, showSection(kinds[0]))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&questions, "questions", services.DefaultNumQuestions, "Number of exam questions (1-50)")
	return cmd
}

func (r *root) generate(ctx context.Context, kind models.ArtifactKind, source string, questions int) (models.Artifact, error) {
	a := models.Artifact{Kind: kind}
	var err error
	switch kind {
	case models.KindSummary:
		a.Summary, err = r.app.Remote.Summary(ctx, models.SummaryRequest{Context: source})
	case models.KindStudyAids:
		a.StudyAids, err = r.app.Remote.StudyAids(ctx, models.StudyAidsRequest{Context: source})
	case models.KindExam:
		a.Exam, err = r.app.Remote.Exam(ctx, models.ExamRequest{Context: source, NumQuestions: questions})
	case models.KindPodcast:
		a.Podcast, err = r.app.Remote.Podcast(ctx, models.PodcastRequest{Context: source})
	default:
		err = fmt.Errorf("%s is not a document artifact", kind)
	}
	return a, err
}

func describe(a models.Artifact) string {
	switch a.Kind {
	case models.KindSummary:
		return fmt.Sprintf("summary (%d key takeaways)", len(a.Summary.KeyTakeaways))
	case models.KindStudyAids:
		return fmt.Sprintf("mind map and %d flashcards", len(a.StudyAids.Flashcards))
	case models.KindExam:
		return fmt.Sprintf("exam with %d questions", len(a.Exam.Questions))
	case models.KindPodcast:
		return fmt.Sprintf("podcast script (~%d min)", a.Podcast.EstimatedDuration)
	}
	return string(a.Kind)
}

func showSection(kind models.ArtifactKind) string {
	if kind == models.KindStudyAids {
		return "flashcards"
	}
	return string(kind)
}
