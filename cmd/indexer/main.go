package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ainative-textbook/chatbot-service/internal/bootstrap"
	"github.com/ainative-textbook/chatbot-service/internal/config"
	"github.com/ainative-textbook/chatbot-service/internal/core/domain"
	"github.com/ainative-textbook/chatbot-service/internal/observability/logging"
)

func main() {
	contentDir := flag.String("content-dir", "./docs", "directory holding the chapter markdown files")
	language := flag.String("language", "en", "content language to index (en or ur)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.NewJSONLogger("chatbot-indexer", cfg.LogLevel)
	slog.SetDefault(logger)

	lang := domain.Language(*language)
	if lang != domain.LanguageEnglish && lang != domain.LanguageUrdu {
		slog.Error("invalid language flag", "language", *language)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	written, err := app.IndexUC.IndexDirectory(ctx, *contentDir, lang)
	if err != nil {
		slog.Error("indexing failed", "error", err, "written", written)
		os.Exit(1)
	}
	slog.Info("indexing_complete", "language", lang, "passages", written)
}
