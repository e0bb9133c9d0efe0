package domain

import (
	"strings"
	"testing"
)

func TestChatRequestValidateTrimsQuestion(t *testing.T) {
	req := ChatRequest{Question: "  What is ROS 2?  "}
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if req.Question != "What is ROS 2?" {
		t.Fatalf("expected trimmed question, got %q", req.Question)
	}
}

func TestChatRequestValidateRejectsEmpty(t *testing.T) {
	req := ChatRequest{Question: "   "}
	err := req.Validate()
	if !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestChatRequestValidateRejectsOversizedQuestion(t *testing.T) {
	req := ChatRequest{Question: strings.Repeat("a", MaxQuestionLength+1)}
	if err := req.Validate(); !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestChatRequestValidateCountsCharactersNotBytes(t *testing.T) {
	// 1200 Urdu characters encode to 2400 bytes; still well within bounds.
	req := ChatRequest{Question: strings.Repeat("ر", 1200)}
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	req = ChatRequest{Question: strings.Repeat("ر", MaxQuestionLength+1)}
	if err := req.Validate(); !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for oversized Urdu question, got %v", err)
	}

	req = ChatRequest{
		Question:     "یہ کیا ہے؟",
		SelectedText: strings.Repeat("و", MaxSelectedTextLength),
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestChatRequestValidateRejectsUnknownLanguage(t *testing.T) {
	req := ChatRequest{Question: "q", Language: "fr"}
	if err := req.Validate(); !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
