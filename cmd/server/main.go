package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"prisma-backend/internal/config"
	"prisma-backend/internal/handlers"
	"prisma-backend/internal/logger"
	"prisma-backend/internal/router"
	"prisma-backend/internal/services"
	"prisma-backend/internal/websocket"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(fmt.Sprintf("init logger: %v", err))
	}
	defer log.Sync()
	log.Info("starting PRISMA server", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: Initialize Gemini Client ────
	// Without a key the server still boots and every generation request
	// answers with a configuration error.
	var model services.ModelClient
	if cfg.HasModelCredential() {
		gemini, err := services.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiConcurrentReqs, log)
		if err != nil {
			log.Fatal("Gemini client initialization failed", "error", err)
		}
		defer gemini.Close()
		model = gemini
		log.Info("Gemini client initialized", "model", cfg.GeminiModel, "concurrency", cfg.GeminiConcurrentReqs)
	} else {
		log.Warn("GEMINI_API_KEY is not set; generation requests will fail")
	}

	// ──── Step 3: Initialize Services and Handlers ────
	generator := services.NewGenerator(model, log)
	artifactHandler := handlers.NewArtifactHandler(generator, log)
	contentHandler := handlers.NewContentHandler(services.NewFileExtractService(), cfg.MaxUploadMB, log)
	wsHub := websocket.NewHub(generator, cfg.FrontendURL, log)

	// ──── Step 4: Start HTTP Server ────
	r := router.New(artifactHandler, contentHandler, wsHub, cfg.FrontendURL, cfg.RequestTimeout, log)

	// No WriteTimeout: streamed responses are bounded by the router timeout.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		log.Fatal("listen failed", "addr", server.Addr, "error", err)
	}
	log.Info("PRISMA server ready", "addr", "http://localhost:"+cfg.Port, "ws", "ws://localhost:"+cfg.Port+"/api/ws")
	if err := serve(ctx, server, ln, shutdownTimeout, wsHub.Shutdown, log); err != nil {
		log.Fatal("server error", "error", err)
	}
	log.Info("server stopped")
}

const shutdownTimeout = 30 * time.Second

// serve runs server on ln until ctx is cancelled, then drains in-flight
// requests for up to drain. It returns once the drain has finished.
func serve(ctx context.Context, server *http.Server, ln net.Listener, drain time.Duration, onShutdown func(), log *logger.Logger) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		log.Info("shutting down")
		if onShutdown != nil {
			onShutdown()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	}()

	if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
