package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/perfil/internal/seed"
	"github.com/okian/perfil/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := seed.NewCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
