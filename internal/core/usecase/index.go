package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ainative-textbook/chatbot-service/internal/core/domain"
	"github.com/ainative-textbook/chatbot-service/internal/core/ports"
)

// Chunks shorter than this carry no searchable signal and are skipped.
const minChunkChars = 50

// Passages are embedded in batches to stay under the provider's per-call
// text limit.
const embedBatchSize = 20

// IndexContentUseCase rebuilds one language's collection from the textbook
// markdown tree. Content is re-indexed wholesale; there is no incremental
// patching.
type IndexContentUseCase struct {
	loader   ports.ChapterLoader
	chunker  ports.Chunker
	embedder ports.Embedder
	indexer  ports.VectorIndexer

	vectorSize int
}

func NewIndexContentUseCase(
	loader ports.ChapterLoader,
	chunker ports.Chunker,
	embedder ports.Embedder,
	indexer ports.VectorIndexer,
	vectorSize int,
) *IndexContentUseCase {
	return &IndexContentUseCase{
		loader:     loader,
		chunker:    chunker,
		embedder:   embedder,
		indexer:    indexer,
		vectorSize: vectorSize,
	}
}

// IndexDirectory indexes every markdown chapter under contentDir into the
// language's collection and returns the number of passages written.
func (uc *IndexContentUseCase) IndexDirectory(ctx context.Context, contentDir string, language domain.Language) (int, error) {
	chapters, err := uc.loader.LoadChapters(contentDir)
	if err != nil {
		return 0, fmt.Errorf("load chapters: %w", err)
	}

	var passages []domain.RetrievedPassage
	for _, chapter := range chapters {
		for _, section := range chapter.Sections {
			for _, chunk := range uc.chunker.Split(section.Body) {
				if len(chunk) < minChunkChars {
					continue
				}
				passages = append(passages, domain.RetrievedPassage{
					ChapterID:    chapter.ID,
					SectionID:    section.HeaderID,
					SectionTitle: section.Title,
					Content:      chunk,
					Language:     language,
				})
			}
		}
	}
	if len(passages) == 0 {
		return 0, fmt.Errorf("no indexable passages under %s", contentDir)
	}

	if err := uc.indexer.EnsureCollection(ctx, language, uc.vectorSize); err != nil {
		return 0, fmt.Errorf("ensure collection: %w", err)
	}

	written := 0
	for start := 0; start < len(passages); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(passages) {
			end = len(passages)
		}
		batch := passages[start:end]

		texts := make([]string, len(batch))
		for i, passage := range batch {
			texts[i] = passage.Content
		}

		vectors, err := uc.embedder.EmbedPassages(ctx, texts)
		if err != nil {
			return written, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if err := uc.indexer.UpsertPassages(ctx, language, batch, vectors); err != nil {
			return written, fmt.Errorf("upsert batch at %d: %w", start, err)
		}
		written += len(batch)
		slog.Info("indexed_batch", "language", language, "written", written, "total", len(passages))
	}

	return written, nil
}
