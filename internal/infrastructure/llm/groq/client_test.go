package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ainative-textbook/chatbot-service/internal/core/domain"
)

func completionResponse(text string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": text}},
		},
	}
}

func TestGenerateSendsSystemAndUserMessages(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(completionResponse("  A digital twin is a simulation.  "))
	}))
	defer server.Close()

	client := New(server.URL, "test-key", "llama-3.1-70b-versatile")
	text, err := client.Generate(context.Background(), domain.Prompt{
		System:    "You are an AI tutor.",
		User:      "Question: what is a digital twin?",
		MaxTokens: 500,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "A digital twin is a simulation." {
		t.Fatalf("expected trimmed completion, got %q", text)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Fatalf("expected system+user messages, got %+v", got.Messages)
	}
	if got.MaxTokens != 500 {
		t.Fatalf("expected max_tokens=500, got %d", got.MaxTokens)
	}
	if got.Temperature != answerTemperature {
		t.Fatalf("expected temperature %v, got %v", answerTemperature, got.Temperature)
	}
}

func TestGenerateEmptyCompletionIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(completionResponse("   "))
	}))
	defer server.Close()

	client := New(server.URL, "test-key", "")
	if _, err := client.Generate(context.Background(), domain.Prompt{User: "q"}); err == nil {
		t.Fatalf("expected error for empty completion")
	}
}

func TestGenerateRateLimitIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(server.URL, "test-key", "")
	_, err := client.Generate(context.Background(), domain.Prompt{User: "q"})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary classification for 429, got %v", err)
	}
}

func TestGenerateBadRequestIsNotTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "context length exceeded", http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(server.URL, "test-key", "")
	_, err := client.Generate(context.Background(), domain.Prompt{User: "q"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("4xx must not be classified temporary: %v", err)
	}
}
