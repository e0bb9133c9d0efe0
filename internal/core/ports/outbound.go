package ports

import (
	"context"

	"github.com/ainative-textbook/chatbot-service/internal/core/domain"
)

// Embedder builds vectors for passages and query text. Implementations do
// not retry internally; the orchestrator owns the retry policy.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedPassages(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorSearcher performs nearest-neighbor search over one language's
// collection. Results arrive relevance-ranked descending; the payload carries
// enough metadata to build citations without a second lookup.
type VectorSearcher interface {
	Search(ctx context.Context, language domain.Language, queryVector []float32, topK int, minScore float64) ([]domain.RetrievedPassage, error)
}

// VectorIndexer writes passages into a language's collection. Used only by
// the offline indexer; the chat path never mutates the index.
type VectorIndexer interface {
	EnsureCollection(ctx context.Context, language domain.Language, vectorSize int) error
	UpsertPassages(ctx context.Context, language domain.Language, passages []domain.RetrievedPassage, vectors [][]float32) error
}

// AnswerGenerator produces the final answer text from an assembled grounding
// prompt. The prompt is already bounded by the orchestrator.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt domain.Prompt) (string, error)
}

// ChatHistoryStore appends completed queries, best-effort.
type ChatHistoryStore interface {
	Append(ctx context.Context, record domain.ChatRecord) error
}

// ChapterLoader reads the textbook content tree for indexing.
type ChapterLoader interface {
	LoadChapters(contentDir string) ([]domain.Chapter, error)
}

// Chunker splits section text into embeddable passages.
type Chunker interface {
	Split(text string) []string
}
