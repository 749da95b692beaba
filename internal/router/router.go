package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"prisma-backend/internal/handlers"
	"prisma-backend/internal/logger"
	"prisma-backend/internal/middleware"
	"prisma-backend/internal/websocket"
)

func New(
	artifactHandler *handlers.ArtifactHandler,
	contentHandler *handlers.ContentHandler,
	wsHub *websocket.Hub,
	frontendURL string,
	requestTimeout time.Duration,
	log *logger.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(middleware.CORS(frontendURL))

	r.Get("/health", handlers.Health)

	r.Route("/api", func(r chi.Router) {
		// The websocket lives outside the platform deadline; its streams end
		// when the peer goes away.
		r.Get("/ws", wsHub.HandleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(requestTimeout))

			r.Post("/chat", artifactHandler.Chat)
			r.Post("/generate", artifactHandler.StudyAids)
			r.Post("/generate-summary", artifactHandler.Summary)
			r.Post("/generate-exam", artifactHandler.Exam)
			r.Post("/generate-podcast", artifactHandler.Podcast)
			r.Post("/generate-essay", artifactHandler.Essay)
			r.Post("/translate", artifactHandler.Translate)

			r.Post("/extract-text", contentHandler.ExtractText)
			r.Get("/supported-formats", contentHandler.SupportedFormats)
		})
	})

	return r
}
