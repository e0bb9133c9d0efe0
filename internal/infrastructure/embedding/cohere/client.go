package cohere

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// EmbeddingDimension is fixed by the embed-multilingual-v3.0 model. The same
// model embeds passages at indexing time and queries at chat time so the
// vector spaces stay comparable.
const EmbeddingDimension = 1024

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func New(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = "https://api.cohere.com"
	}
	if model == "" {
		model = "embed-multilingual-v3.0"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// EmbedQuery embeds a single question in search_query mode.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{text}, "search_query")
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("cohere embed: empty embedding result")
	}
	return vectors[0], nil
}

// EmbedPassages embeds indexed content in search_document mode.
func (c *Client) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return c.embed(ctx, texts, "search_document")
}

func (c *Client) embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	request := map[string]any{
		"texts":      texts,
		"model":      c.model,
		"input_type": inputType,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := c.postJSON(ctx, "/v1/embed", request, &response, "embed"); err != nil {
		return nil, wrapTemporaryIfNeeded("embed", err)
	}
	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("cohere embed: got %d embeddings for %d texts", len(response.Embeddings), len(texts))
	}
	return response.Embeddings, nil
}
