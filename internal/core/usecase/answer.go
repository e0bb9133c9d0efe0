package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ainative-textbook/chatbot-service/internal/core/domain"
	"github.com/ainative-textbook/chatbot-service/internal/core/ports"
	"github.com/ainative-textbook/chatbot-service/internal/infrastructure/resilience"
)

// AnswerConfig carries the orchestration knobs. MinScore is the relevance
// cutoff below which a query is treated as out of scope.
type AnswerConfig struct {
	TopK            int
	MinScore        float64
	MaxPromptChars  int
	MaxAnswerTokens int
	Timeout         time.Duration
}

func (c AnswerConfig) normalize() AnswerConfig {
	out := c
	if out.TopK <= 0 {
		out.TopK = 5
	}
	if out.MinScore <= 0 {
		out.MinScore = 0.5
	}
	if out.MaxPromptChars <= 0 {
		out.MaxPromptChars = 12000
	}
	if out.MaxAnswerTokens <= 0 {
		out.MaxAnswerTokens = 1000
	}
	if out.Timeout <= 0 {
		out.Timeout = 10 * time.Second
	}
	return out
}

// AnswerUseCase orchestrates one retrieval-augmented answer: language
// resolution, embedding, vector search, prompt assembly, generation and
// citation formatting. It holds no per-query state; concurrent calls share
// only the injected clients.
type AnswerUseCase struct {
	embedder  ports.Embedder
	searcher  ports.VectorSearcher
	generator ports.AnswerGenerator
	fallback  ports.AnswerGenerator
	history   ports.ChatHistoryStore
	executor  *resilience.Executor
	cfg       AnswerConfig
}

func NewAnswerUseCase(
	embedder ports.Embedder,
	searcher ports.VectorSearcher,
	generator ports.AnswerGenerator,
	fallback ports.AnswerGenerator,
	history ports.ChatHistoryStore,
	executor *resilience.Executor,
	cfg AnswerConfig,
) *AnswerUseCase {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &AnswerUseCase{
		embedder:  embedder,
		searcher:  searcher,
		generator: generator,
		fallback:  fallback,
		history:   history,
		executor:  executor,
		cfg:       cfg.normalize(),
	}
}

func (uc *AnswerUseCase) Answer(ctx context.Context, req domain.ChatRequest) (*domain.Answer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	language := domain.DetectLanguage(req.Question, req.Language)

	ctx, cancel := context.WithTimeout(ctx, uc.cfg.Timeout)
	defer cancel()

	passages, err := uc.retrieve(ctx, req, language)
	if err != nil {
		return nil, err
	}
	if len(passages) == 0 {
		answer := outOfScopeAnswer(language)
		uc.logHistory(ctx, req, answer.Text, language, domain.OutcomeOutOfScope, 0)
		return answer, nil
	}

	prompt, included := assembleGroundingPrompt(req.Question, language, passages, uc.cfg.MaxPromptChars, uc.cfg.MaxAnswerTokens)
	sources := buildSources(included, language, req.SelectedText != "")

	text, err := uc.generate(ctx, prompt)
	if err != nil {
		uc.logHistory(ctx, req, "", language, domain.OutcomeFailed, len(sources))
		return nil, &domain.GenerationError{
			Sources: sources,
			Err:     domain.WrapError(domain.ErrGenerationUnavailable, "generate answer", err),
		}
	}

	answer := &domain.Answer{
		Text:     text,
		Sources:  sources,
		Language: language,
	}
	uc.logHistory(ctx, req, text, language, domain.OutcomeAnswered, len(sources))
	return answer, nil
}

// retrieve resolves the grounding passages: the selected excerpt when the
// caller supplied one, otherwise a top-k vector search over the language's
// collection. The index is never queried in selected-text mode.
func (uc *AnswerUseCase) retrieve(ctx context.Context, req domain.ChatRequest, language domain.Language) ([]domain.RetrievedPassage, error) {
	if req.SelectedText != "" {
		return []domain.RetrievedPassage{{
			ChapterID:    "unknown",
			SectionID:    "selected",
			SectionTitle: "Selected Text",
			Content:      req.SelectedText,
			Language:     language,
			Score:        1.0,
		}}, nil
	}

	var queryVector []float32
	err := uc.executor.Execute(ctx, "embed query", func(ctx context.Context) error {
		var embedErr error
		queryVector, embedErr = uc.embedder.EmbedQuery(ctx, req.Question)
		return embedErr
	}, classifyTransient)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrievalUnavailable, "embed query", err)
	}

	var passages []domain.RetrievedPassage
	err = uc.executor.Execute(ctx, "search index", func(ctx context.Context) error {
		var searchErr error
		passages, searchErr = uc.searcher.Search(ctx, language, queryVector, uc.cfg.TopK, uc.cfg.MinScore)
		return searchErr
	}, classifyTransient)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrievalUnavailable, "search index", err)
	}
	return passages, nil
}

// generate invokes the answer generator with a single retry. When a fallback
// generator is configured the retry goes to it instead of the primary. A
// cancelled or expired caller context is never retried.
func (uc *AnswerUseCase) generate(ctx context.Context, prompt domain.Prompt) (string, error) {
	text, err := uc.generator.Generate(ctx, prompt)
	if err == nil {
		return text, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return "", err
	}

	retry := uc.generator
	if uc.fallback != nil {
		retry = uc.fallback
	}
	slog.Warn("generation_retry", "error", err, "fallback", uc.fallback != nil)
	return retry.Generate(ctx, prompt)
}

func (uc *AnswerUseCase) logHistory(
	ctx context.Context,
	req domain.ChatRequest,
	answerText string,
	language domain.Language,
	outcome domain.ChatOutcome,
	sourceCount int,
) {
	if uc.history == nil {
		return
	}
	// History must not block or fail the chat path, and a cancelled caller
	// must not lose the record.
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	err := uc.history.Append(logCtx, domain.ChatRecord{
		ID:          uuid.NewString(),
		Question:    req.Question,
		Answer:      answerText,
		Language:    language,
		Outcome:     outcome,
		SourceCount: sourceCount,
	})
	if err != nil {
		slog.Warn("chat_history_append_failed", "error", err)
	}
}

func classifyTransient(err error) resilience.ErrorClassification {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func outOfScopeAnswer(language domain.Language) *domain.Answer {
	text := "I couldn't find relevant information in the textbook to answer your question. Try rephrasing or browse the chapters directly."
	if language == domain.LanguageUrdu {
		text = "مجھے نصابی کتاب میں آپ کے سوال کا جواب دینے کے لیے متعلقہ معلومات نہیں ملیں۔ اپنا سوال دوبارہ لکھنے کی کوشش کریں یا براہ راست ابواب دیکھیں۔"
	}
	return &domain.Answer{
		Text:              text,
		Sources:           []domain.SourceReference{},
		Language:          language,
		OutOfScope:        true,
		SuggestedChapters: []string{"chapter-01-foundations"},
	}
}
