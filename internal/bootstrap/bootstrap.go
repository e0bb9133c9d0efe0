package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/ainative-textbook/chatbot-service/internal/config"
	"github.com/ainative-textbook/chatbot-service/internal/core/ports"
	"github.com/ainative-textbook/chatbot-service/internal/core/usecase"
	"github.com/ainative-textbook/chatbot-service/internal/infrastructure/chunking"
	"github.com/ainative-textbook/chatbot-service/internal/infrastructure/content"
	"github.com/ainative-textbook/chatbot-service/internal/infrastructure/embedding/cohere"
	"github.com/ainative-textbook/chatbot-service/internal/infrastructure/llm/groq"
	"github.com/ainative-textbook/chatbot-service/internal/infrastructure/repository/postgres"
	"github.com/ainative-textbook/chatbot-service/internal/infrastructure/resilience"
	"github.com/ainative-textbook/chatbot-service/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	VectorDB *qdrant.Client
	ChatUC   ports.ChatService
	IndexUC  ports.ContentIndexer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	embedder := cohere.New("", cfg.CohereAPIKey, cfg.CohereEmbedModel)
	generator := groq.New("", cfg.GroqAPIKey, cfg.GroqModel)

	var fallback ports.AnswerGenerator
	if cfg.GroqFallbackModel != "" && cfg.GroqFallbackModel != cfg.GroqModel {
		fallback = groq.New("", cfg.GroqAPIKey, cfg.GroqFallbackModel)
	}

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.QdrantCollectionEN, cfg.QdrantCollectionUR)

	// History is optional: no DSN means the service runs stateless.
	var history ports.ChatHistoryStore
	closeFn := func() {}
	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewHistoryRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		history = repo
		closeFn = func() { _ = db.Close() }
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	chatUC := usecase.NewAnswerUseCase(embedder, vectorDB, generator, fallback, history, executor, usecase.AnswerConfig{
		TopK:            cfg.ChatTopK,
		MinScore:        cfg.ChatMinScore,
		MaxPromptChars:  cfg.ChatMaxPromptChars,
		MaxAnswerTokens: cfg.ChatMaxAnswerTokens,
		Timeout:         time.Duration(cfg.ChatTimeoutSeconds) * time.Second,
	})

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	indexUC := usecase.NewIndexContentUseCase(content.NewLoader(), chunker, embedder, vectorDB, cohere.EmbeddingDimension)

	return &App{
		Config:   cfg,
		VectorDB: vectorDB,
		ChatUC:   chatUC,
		IndexUC:  indexUC,
		closeFn:  closeFn,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
