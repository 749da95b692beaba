package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"prisma-backend/internal/cli"
	"prisma-backend/internal/config"
	"prisma-backend/internal/logger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("cli")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(cfg, cli.DefaultFactory(log)).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", cli.Explain(err))
		stop()
		log.Sync()
		os.Exit(1)
	}
}
