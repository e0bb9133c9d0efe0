package groq

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ainative-textbook/chatbot-service/internal/core/domain"
)

const defaultMaxTokens = 1000

// Lower temperature keeps answers factual and close to the grounding text.
const answerTemperature = 0.3

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func New(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai"
	}
	if model == "" {
		model = "llama-3.1-70b-versatile"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Model() string { return c.model }

// Generate runs one chat completion over the assembled grounding prompt and
// returns the answer text. An empty completion is an error; the orchestrator
// decides whether to retry or fall back.
func (c *Client) Generate(ctx context.Context, prompt domain.Prompt) (string, error) {
	maxTokens := prompt.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	request := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": prompt.System},
			{"role": "user", "content": prompt.User},
		},
		"max_tokens":  maxTokens,
		"temperature": answerTemperature,
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.postJSON(ctx, "/v1/chat/completions", request, &response, "generate"); err != nil {
		return "", wrapTemporaryIfNeeded("generate", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("groq generate: empty choices")
	}
	text := strings.TrimSpace(response.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("groq generate: empty completion")
	}
	return text, nil
}
