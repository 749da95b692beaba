// Package cli implements the prisma command: the local study client that owns
// the per-device document store and asks the relay server for artifacts.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"prisma-backend/internal/client"
	"prisma-backend/internal/config"
	"prisma-backend/internal/logger"
	"prisma-backend/internal/models"
	"prisma-backend/internal/services"
	"prisma-backend/internal/store"
	"prisma-backend/internal/stream"
)

// Remote produces artifacts. *client.Client talks to the relay server;
// *services.Generator satisfies it directly.
type Remote interface {
	Summary(ctx context.Context, req models.SummaryRequest) (*models.SummaryResult, error)
	StudyAids(ctx context.Context, req models.StudyAidsRequest) (*models.StudyAidsResult, error)
	Exam(ctx context.Context, req models.ExamRequest) (*models.ExamResult, error)
	Podcast(ctx context.Context, req models.PodcastRequest) (*models.PodcastResult, error)
	Translate(ctx context.Context, req models.TranslateRequest) (*models.TranslationResult, error)
	Essay(ctx context.Context, req models.EssayRequest) (*stream.TextStream, error)
	Chat(ctx context.Context, req models.ChatRequest) (*stream.TextStream, error)
}

// App is everything a command needs.
type App struct {
	Library   *store.Library
	Remote    Remote
	Extractor *services.FileExtractService
	Log       *logger.Logger

	closers []io.Closer
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Factory builds the App once flags are parsed.
type Factory func(ctx context.Context, storeTarget, serverURL string) (*App, error)

// DefaultFactory opens the configured store and points at the relay server.
func DefaultFactory(log *logger.Logger) Factory {
	return func(ctx context.Context, storeTarget, serverURL string) (*App, error) {
		kv, err := store.Open(ctx, storeTarget)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		app := &App{
			Library:   store.NewLibrary(kv, log),
			Remote:    client.New(serverURL),
			Extractor: services.NewFileExtractService(),
			Log:       log,
		}
		if c, ok := kv.(io.Closer); ok {
			app.closers = append(app.closers, c)
		}
		return app, nil
	}
}

type root struct {
	factory Factory
	app     *App

	storeTarget string
	serverURL   string
}

// NewRootCommand wires every subcommand. cfg supplies flag defaults.
func NewRootCommand(cfg *config.Config, factory Factory) *cobra.Command {
	r := &root{factory: factory}

	cmd := &cobra.Command{
		Use:           "prisma",
		Short:         "AI study assistant",
		Long:          "PRISMA keeps your study documents on this device and asks the PRISMA server for summaries, flashcards, exams, podcasts, essays and translations.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.factory(cmd.Context(), r.storeTarget, r.serverURL)
			if err != nil {
				return err
			}
			r.app = app
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if r.app == nil {
				return nil
			}
			return r.app.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&r.serverURL, "server", cfg.ServerURL, "PRISMA server URL (overrides PRISMA_SERVER_URL)")
	cmd.PersistentFlags().StringVar(&r.storeTarget, "store", cfg.StorePath, "Store file path or redis:// URL (overrides PRISMA_STORE)")

	cmd.AddCommand(
		r.uploadCmd(),
		r.listCmd(),
		r.showCmd(),
		r.deleteCmd(),
		r.moveCmd(),
		r.searchCmd(),
		r.generateCmd(),
		r.chatCmd(),
		r.saveLessonCmd(),
		r.essayCmd(),
		r.translateCmd(),
		r.noteCmd(),
		r.highlightCmd(),
		r.subjectCmd(),
		r.exportCmd(),
		r.importCmd(),
		r.statsCmd(),
		r.studyCmd(),
	)
	return cmd
}

// Explain turns an error into the line shown to the student.
func Explain(err error) string {
	var missing *services.MissingInputError
	var cfgErr *services.ConfigurationError
	var limited *services.RateLimitedError
	var failed *services.GenerationError

	switch {
	case errors.As(err, &missing):
		return missing.Message
	case errors.As(err, &cfgErr):
		return cfgErr.Message + ". Ask whoever runs the server to set GEMINI_API_KEY."
	case errors.As(err, &limited):
		return limited.Message + " The AI provider is busy; wait a minute before retrying."
	case errors.As(err, &failed):
		msg := failed.Message
		if failed.Details != "" {
			msg += " (" + failed.Details + ")"
		}
		return msg + " You can retry right away."
	case errors.Is(err, store.ErrNotFound):
		return err.Error() + ". Run `prisma list` to see your documents."
	default:
		return err.Error()
	}
}
