package domain

import (
	"strings"
	"unicode/utf8"
)

// ChatRequest is one question submitted to the chatbot. It is built per call
// and never persisted.
type ChatRequest struct {
	Question     string   `json:"question"`
	SelectedText string   `json:"selected_text,omitempty"`
	Language     Language `json:"language,omitempty"`
}

const (
	// MaxQuestionLength bounds the trimmed question text.
	MaxQuestionLength = 2000
	// MaxSelectedTextLength bounds the optional selected-text excerpt.
	MaxSelectedTextLength = 5000
)

// Validate normalizes the request in place and reports whether it is
// acceptable for answering.
func (r *ChatRequest) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return WrapError(ErrInvalidInput, "validate request", errStr("question is required"))
	}
	// Bounds are in characters, not bytes; Urdu text is multi-byte.
	if utf8.RuneCountInString(r.Question) > MaxQuestionLength {
		return WrapError(ErrInvalidInput, "validate request", errStr("question exceeds maximum length"))
	}
	if utf8.RuneCountInString(r.SelectedText) > MaxSelectedTextLength {
		return WrapError(ErrInvalidInput, "validate request", errStr("selected text exceeds maximum length"))
	}
	if r.Language != "" && r.Language != LanguageEnglish && r.Language != LanguageUrdu {
		return WrapError(ErrInvalidInput, "validate request", errStr("language must be en or ur"))
	}
	return nil
}

// RetrievedPassage is one indexed textbook chunk returned by vector search,
// with its similarity score.
type RetrievedPassage struct {
	ChapterID    string   `json:"chapter_id"`
	SectionID    string   `json:"section_id"`
	SectionTitle string   `json:"section_title"`
	Content      string   `json:"content"`
	Language     Language `json:"language"`
	Score        float64  `json:"score"`
}

// SourceReference is a citation attached to an answer. Every reference maps
// 1:1 to a passage that was included in the grounding prompt.
type SourceReference struct {
	ChapterID    string `json:"chapter_id"`
	ChapterTitle string `json:"chapter_title"`
	SectionID    string `json:"section_id"`
	SectionTitle string `json:"section_title"`
	Excerpt      string `json:"excerpt"`
	URL          string `json:"url"`
}

// Answer is the terminal result of one chat query. OutOfScope answers carry
// no sources and suggest chapters to browse instead.
type Answer struct {
	Text              string            `json:"answer"`
	Sources           []SourceReference `json:"sources"`
	Language          Language          `json:"language"`
	OutOfScope        bool              `json:"out_of_scope"`
	SuggestedChapters []string          `json:"suggested_chapters,omitempty"`
}

// Prompt is an assembled grounding prompt, ready for the answer generator.
type Prompt struct {
	System    string
	User      string
	MaxTokens int
}

// ChatOutcome labels how a query terminated, for history and metrics.
type ChatOutcome string

const (
	OutcomeAnswered   ChatOutcome = "answered"
	OutcomeOutOfScope ChatOutcome = "out_of_scope"
	OutcomeFailed     ChatOutcome = "failed"
)

// ChatRecord is one logged query/answer pair. Persistence is best-effort;
// queries are anonymous unless the caller supplied an identity.
type ChatRecord struct {
	ID          string
	UserID      string
	Question    string
	Answer      string
	Language    Language
	Outcome     ChatOutcome
	SourceCount int
}
