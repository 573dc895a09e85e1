package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/futig/rag-assistant/internal/builder"
	"go.uber.org/zap"
)

func main() {
	bot, logger, err := builder.BuildTelegramBot()
	if err != nil {
		log.Fatal("Failed to build telegram bot:", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bot.Start(ctx); err != nil {
		logger.Error("failed to start telegram bot", zap.Error(err))
		_ = bot.Stop()
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	if err := bot.Stop(); err != nil {
		logger.Error("error stopping telegram bot", zap.Error(err))
		return
	}
	logger.Info("telegram bot stopped gracefully")
}
