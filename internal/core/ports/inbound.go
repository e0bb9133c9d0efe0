package ports

import (
	"context"

	"github.com/ainative-textbook/chatbot-service/internal/core/domain"
)

// ChatService is the inbound contract for retrieval-augmented answering.
type ChatService interface {
	Answer(ctx context.Context, req domain.ChatRequest) (*domain.Answer, error)
}

// ContentIndexer is the inbound contract for the offline indexing pass.
type ContentIndexer interface {
	IndexDirectory(ctx context.Context, contentDir string, language domain.Language) (int, error)
}
