package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cpusched/domain"
	"cpusched/service"

	"go.uber.org/zap"
)

func main() {
	cfg, err := domain.LoadConfig(".env", "")
	if err != nil {
		log, _ := zap.NewDevelopment()
		log.Fatal("Error loading configuration", zap.Error(err))
	}

	log, err := service.NewLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = service.NewService(cfg, log, os.Stdin, os.Stdout).Start(ctx); err != nil {
		log.Fatal("cpusched stopped", zap.Error(err))
	}
}
