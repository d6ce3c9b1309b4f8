package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/ArnarValur/therpy-journal-sub000/internal/app"
	"github.com/ArnarValur/therpy-journal-sub000/internal/auth"
	"github.com/ArnarValur/therpy-journal-sub000/internal/config"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	provider := auth.NewTokenProvider([]byte(cfg.SessionSecret))

	a, err := app.NewApp(ctx, cfg, provider)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer func() { _ = a.Close() }()

	a.Logger().Info(ctx, "journaling core ready", "driver", cfg.StoreDriver)

	<-ctx.Done()
}
