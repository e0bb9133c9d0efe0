package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ainative-textbook/chatbot-service/internal/core/domain"
	"github.com/ainative-textbook/chatbot-service/internal/infrastructure/resilience"
)

type embedderFake struct {
	calls int
	errs  []error
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if len(f.errs) >= f.calls && f.errs[f.calls-1] != nil {
		return nil, f.errs[f.calls-1]
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *embedderFake) EmbedPassages(context.Context, []string) ([][]float32, error) {
	return nil, nil
}

type searcherFake struct {
	calls    int
	language domain.Language
	topK     int
	minScore float64
	results  []domain.RetrievedPassage
	err      error
}

func (f *searcherFake) Search(_ context.Context, language domain.Language, _ []float32, topK int, minScore float64) ([]domain.RetrievedPassage, error) {
	f.calls++
	f.language = language
	f.topK = topK
	f.minScore = minScore
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type generatorFake struct {
	calls   int
	prompts []domain.Prompt
	errs    []error
	text    string
}

func (f *generatorFake) Generate(_ context.Context, prompt domain.Prompt) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if len(f.errs) >= f.calls && f.errs[f.calls-1] != nil {
		return "", f.errs[f.calls-1]
	}
	if f.text != "" {
		return f.text, nil
	}
	return "generated answer", nil
}

type historyFake struct {
	records []domain.ChatRecord
}

func (f *historyFake) Append(_ context.Context, record domain.ChatRecord) error {
	f.records = append(f.records, record)
	return nil
}

func fastExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		Multiplier:     1,
		BreakerEnabled: false,
	})
}

func gazeboPassages() []domain.RetrievedPassage {
	return []domain.RetrievedPassage{
		{
			ChapterID:    "chapter-03-gazebo",
			SectionID:    "what-is-a-digital-twin",
			SectionTitle: "What is a Digital Twin?",
			Content:      "A digital twin is a virtual replica of a physical system used for simulation.",
			Language:     domain.LanguageEnglish,
			Score:        0.87,
		},
		{
			ChapterID:    "chapter-03-gazebo",
			SectionID:    "simulation-in-gazebo",
			SectionTitle: "Simulation in Gazebo",
			Content:      "Gazebo simulates physics, sensors and actuators for robot models.",
			Language:     domain.LanguageEnglish,
			Score:        0.74,
		},
	}
}

func newAnswerUC(embedder *embedderFake, searcher *searcherFake, generator *generatorFake) *AnswerUseCase {
	return NewAnswerUseCase(embedder, searcher, generator, nil, nil, fastExecutor(), AnswerConfig{
		TopK:     5,
		MinScore: 0.5,
		Timeout:  5 * time.Second,
	})
}

func TestAnswerHappyPathResolvesEnglish(t *testing.T) {
	embedder := &embedderFake{}
	searcher := &searcherFake{results: gazeboPassages()}
	generator := &generatorFake{}
	uc := newAnswerUC(embedder, searcher, generator)

	answer, err := uc.Answer(context.Background(), domain.ChatRequest{Question: "What is a digital twin?"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer.Language != domain.LanguageEnglish {
		t.Fatalf("expected en, got %s", answer.Language)
	}
	if answer.OutOfScope {
		t.Fatalf("expected in-scope answer")
	}
	if searcher.language != domain.LanguageEnglish || searcher.topK != 5 || searcher.minScore != 0.5 {
		t.Fatalf("unexpected search parameters: %+v", searcher)
	}
	if len(answer.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(answer.Sources))
	}
	if answer.Sources[0].ChapterID != "chapter-03-gazebo" {
		t.Fatalf("expected chapter-03-gazebo citation, got %s", answer.Sources[0].ChapterID)
	}
	if answer.Sources[0].ChapterTitle != "Gazebo & Digital Twins" {
		t.Fatalf("unexpected chapter title %q", answer.Sources[0].ChapterTitle)
	}
	if answer.Sources[0].URL != "/en/docs/chapter-03-gazebo#what-is-a-digital-twin" {
		t.Fatalf("unexpected source url %q", answer.Sources[0].URL)
	}
}

func TestAnswerCitationsMatchPromptPassages(t *testing.T) {
	embedder := &embedderFake{}
	searcher := &searcherFake{results: gazeboPassages()}
	generator := &generatorFake{}
	uc := newAnswerUC(embedder, searcher, generator)

	answer, err := uc.Answer(context.Background(), domain.ChatRequest{Question: "What is a digital twin?"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if len(generator.prompts) != 1 {
		t.Fatalf("expected one generation call, got %d", len(generator.prompts))
	}
	prompt := generator.prompts[0].User
	for _, source := range answer.Sources {
		if !strings.Contains(prompt, source.SectionTitle) {
			t.Fatalf("citation %q not present in grounding prompt", source.SectionTitle)
		}
	}
}

func TestAnswerUrduQuestionSearchesUrduCollection(t *testing.T) {
	embedder := &embedderFake{}
	searcher := &searcherFake{}
	generator := &generatorFake{}
	uc := newAnswerUC(embedder, searcher, generator)

	answer, err := uc.Answer(context.Background(), domain.ChatRequest{Question: "پیانو کیسے بجاتے ہیں؟"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if searcher.language != domain.LanguageUrdu {
		t.Fatalf("expected ur collection, got %s", searcher.language)
	}
	if !answer.OutOfScope {
		t.Fatalf("expected out-of-scope answer for unrelated question")
	}
	if answer.Language != domain.LanguageUrdu {
		t.Fatalf("expected ur answer, got %s", answer.Language)
	}
	if generator.calls != 0 {
		t.Fatalf("out-of-scope must skip generation, got %d calls", generator.calls)
	}
	if len(answer.SuggestedChapters) == 0 {
		t.Fatalf("expected suggested chapters")
	}
}

func TestAnswerEmptyQuestionIsInvalidInput(t *testing.T) {
	uc := newAnswerUC(&embedderFake{}, &searcherFake{}, &generatorFake{})
	_, err := uc.Answer(context.Background(), domain.ChatRequest{Question: "   "})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAnswerSelectedTextSkipsRetrieval(t *testing.T) {
	embedder := &embedderFake{}
	searcher := &searcherFake{}
	generator := &generatorFake{}
	uc := newAnswerUC(embedder, searcher, generator)

	answer, err := uc.Answer(context.Background(), domain.ChatRequest{
		Question:     "Explain this paragraph",
		SelectedText: "A URDF file describes the robot's links and joints.",
	})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if embedder.calls != 0 {
		t.Fatalf("selected-text mode must not embed, got %d calls", embedder.calls)
	}
	if searcher.calls != 0 {
		t.Fatalf("selected-text mode must not query the index, got %d calls", searcher.calls)
	}
	if len(answer.Sources) != 1 {
		t.Fatalf("expected single selected-text citation, got %d", len(answer.Sources))
	}
	source := answer.Sources[0]
	if source.SectionTitle != "Selected Text" || source.SectionID != "selected" {
		t.Fatalf("citation must reference the selected text, got %+v", source)
	}
	if source.URL != "" {
		t.Fatalf("selected-text citation must not link to a chapter, got %q", source.URL)
	}
}

func TestAnswerEmbedderFailsTwiceSurfacesRetrievalUnavailable(t *testing.T) {
	transient := domain.WrapError(domain.ErrTemporary, "embed", errors.New("quota exceeded"))
	embedder := &embedderFake{errs: []error{transient, transient}}
	generator := &generatorFake{}
	uc := newAnswerUC(embedder, &searcherFake{results: gazeboPassages()}, generator)

	_, err := uc.Answer(context.Background(), domain.ChatRequest{Question: "What is ROS 2?"})
	if !domain.IsKind(err, domain.ErrRetrievalUnavailable) {
		t.Fatalf("expected ErrRetrievalUnavailable, got %v", err)
	}
	if embedder.calls != 2 {
		t.Fatalf("expected exactly 2 embed attempts, got %d", embedder.calls)
	}
	if generator.calls != 0 {
		t.Fatalf("generator must not be called after retrieval failure, got %d", generator.calls)
	}
}

func TestAnswerEmbedderRecoversOnRetry(t *testing.T) {
	transient := domain.WrapError(domain.ErrTemporary, "embed", errors.New("timeout"))
	embedder := &embedderFake{errs: []error{transient}}
	uc := newAnswerUC(embedder, &searcherFake{results: gazeboPassages()}, &generatorFake{})

	answer, err := uc.Answer(context.Background(), domain.ChatRequest{Question: "What is ROS 2?"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if embedder.calls != 2 {
		t.Fatalf("expected retry, got %d attempts", embedder.calls)
	}
	if answer.Text != "generated answer" {
		t.Fatalf("unexpected answer %q", answer.Text)
	}
}

func TestAnswerSearchFailureSurfacesRetrievalUnavailable(t *testing.T) {
	searcher := &searcherFake{err: domain.WrapError(domain.ErrTemporary, "search", errors.New("shard down"))}
	uc := newAnswerUC(&embedderFake{}, searcher, &generatorFake{})

	_, err := uc.Answer(context.Background(), domain.ChatRequest{Question: "What is ROS 2?"})
	if !domain.IsKind(err, domain.ErrRetrievalUnavailable) {
		t.Fatalf("expected ErrRetrievalUnavailable, got %v", err)
	}
	if searcher.calls != 2 {
		t.Fatalf("expected one retry on search, got %d attempts", searcher.calls)
	}
}

func TestAnswerGenerationFailureKeepsSources(t *testing.T) {
	genErr := errors.New("model overloaded")
	generator := &generatorFake{errs: []error{genErr, genErr}}
	uc := newAnswerUC(&embedderFake{}, &searcherFake{results: gazeboPassages()}, generator)

	_, err := uc.Answer(context.Background(), domain.ChatRequest{Question: "What is a digital twin?"})
	if !domain.IsKind(err, domain.ErrGenerationUnavailable) {
		t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
	}
	if generator.calls != 2 {
		t.Fatalf("expected exactly 2 generation attempts, got %d", generator.calls)
	}
	sources := domain.SourcesFromError(err)
	if len(sources) != 2 {
		t.Fatalf("expected retained sources on generation failure, got %d", len(sources))
	}
}

func TestAnswerGenerationRetriesAgainstFallback(t *testing.T) {
	primary := &generatorFake{errs: []error{errors.New("overloaded")}}
	fallback := &generatorFake{text: "fallback answer"}
	uc := NewAnswerUseCase(&embedderFake{}, &searcherFake{results: gazeboPassages()}, primary, fallback, nil, fastExecutor(), AnswerConfig{})

	answer, err := uc.Answer(context.Background(), domain.ChatRequest{Question: "What is a digital twin?"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Fatalf("expected fallback retry, got primary=%d fallback=%d", primary.calls, fallback.calls)
	}
	if answer.Text != "fallback answer" {
		t.Fatalf("unexpected answer %q", answer.Text)
	}
}

func TestAnswerIdenticalRequestsYieldIdenticalCitations(t *testing.T) {
	uc := newAnswerUC(&embedderFake{}, &searcherFake{results: gazeboPassages()}, &generatorFake{})

	req := domain.ChatRequest{Question: "What is a digital twin?"}
	first, err := uc.Answer(context.Background(), req)
	if err != nil {
		t.Fatalf("first Answer() error = %v", err)
	}
	second, err := uc.Answer(context.Background(), req)
	if err != nil {
		t.Fatalf("second Answer() error = %v", err)
	}
	if len(first.Sources) != len(second.Sources) {
		t.Fatalf("citation count differs: %d vs %d", len(first.Sources), len(second.Sources))
	}
	for i := range first.Sources {
		if first.Sources[i] != second.Sources[i] {
			t.Fatalf("citation %d differs: %+v vs %+v", i, first.Sources[i], second.Sources[i])
		}
	}
}

func TestAnswerLogsHistoryBestEffort(t *testing.T) {
	history := &historyFake{}
	uc := NewAnswerUseCase(&embedderFake{}, &searcherFake{results: gazeboPassages()}, &generatorFake{}, nil, history, fastExecutor(), AnswerConfig{})

	if _, err := uc.Answer(context.Background(), domain.ChatRequest{Question: "What is a digital twin?"}); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if len(history.records) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(history.records))
	}
	record := history.records[0]
	if record.Outcome != domain.OutcomeAnswered || record.SourceCount != 2 {
		t.Fatalf("unexpected record %+v", record)
	}
	if record.ID == "" {
		t.Fatalf("expected generated record id")
	}
}

func TestAnswerLanguageHintOverridesScript(t *testing.T) {
	searcher := &searcherFake{results: gazeboPassages()}
	uc := newAnswerUC(&embedderFake{}, searcher, &generatorFake{})

	answer, err := uc.Answer(context.Background(), domain.ChatRequest{
		Question: "What is a digital twin?",
		Language: domain.LanguageUrdu,
	})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if searcher.language != domain.LanguageUrdu {
		t.Fatalf("expected hint to pick ur collection, got %s", searcher.language)
	}
	if answer.Language != domain.LanguageUrdu {
		t.Fatalf("expected ur answer language, got %s", answer.Language)
	}
}
