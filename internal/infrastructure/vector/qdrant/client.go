package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ainative-textbook/chatbot-service/internal/core/domain"
)

// Client talks to Qdrant over its REST API. Collections are partitioned by
// language; cross-language search is never performed.
type Client struct {
	baseURL     string
	apiKey      string
	collections map[domain.Language]string
	httpClient  *http.Client

	ensureMu sync.Mutex
	ensured  map[string]bool
}

func New(baseURL, apiKey, collectionEN, collectionUR string) *Client {
	if collectionEN == "" {
		collectionEN = "textbook_en"
	}
	if collectionUR == "" {
		collectionUR = "textbook_ur"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		collections: map[domain.Language]string{
			domain.LanguageEnglish: collectionEN,
			domain.LanguageUrdu:    collectionUR,
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		ensured:    make(map[string]bool),
	}
}

func (c *Client) collection(language domain.Language) (string, error) {
	name, ok := c.collections[language]
	if !ok {
		return "", fmt.Errorf("no collection for language %q", language)
	}
	return name, nil
}

// Search returns the top-k passages above minScore, relevance-ranked
// descending. The score threshold is applied server-side and re-checked here.
func (c *Client) Search(
	ctx context.Context,
	language domain.Language,
	queryVector []float32,
	topK int,
	minScore float64,
) ([]domain.RetrievedPassage, error) {
	collection, err := c.collection(language)
	if err != nil {
		return nil, err
	}

	reqBody := map[string]any{
		"vector":          queryVector,
		"limit":           topK,
		"score_threshold": minScore,
		"with_payload":    true,
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", collection)
	if err := c.do(ctx, http.MethodPost, path, reqBody, &searchResp, "search"); err != nil {
		return nil, wrapTemporaryIfNeeded("search", err)
	}

	out := make([]domain.RetrievedPassage, 0, len(searchResp.Result))
	for _, hit := range searchResp.Result {
		if hit.Score < minScore {
			continue
		}
		out = append(out, domain.RetrievedPassage{
			ChapterID:    payloadString(hit.Payload, "chapter_id"),
			SectionID:    payloadString(hit.Payload, "section_id"),
			SectionTitle: payloadString(hit.Payload, "section_title"),
			Content:      payloadString(hit.Payload, "content"),
			Language:     domain.Language(payloadString(hit.Payload, "language")),
			Score:        hit.Score,
		})
	}
	return out, nil
}

// EnsureCollection creates the language's collection when missing. Qdrant
// answers 409 when it already exists.
func (c *Client) EnsureCollection(ctx context.Context, language domain.Language, vectorSize int) error {
	collection, err := c.collection(language)
	if err != nil {
		return err
	}

	c.ensureMu.Lock()
	done := c.ensured[collection]
	c.ensureMu.Unlock()
	if done {
		return nil
	}

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	err = c.do(ctx, http.MethodPut, "/collections/"+collection, reqBody, nil, "ensure collection")
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict {
		err = nil
	}
	if err != nil {
		return wrapTemporaryIfNeeded("ensure collection", err)
	}

	c.ensureMu.Lock()
	c.ensured[collection] = true
	c.ensureMu.Unlock()
	return nil
}

// UpsertPassages writes indexed passages with their embedding vectors.
func (c *Client) UpsertPassages(
	ctx context.Context,
	language domain.Language,
	passages []domain.RetrievedPassage,
	vectors [][]float32,
) error {
	if len(passages) == 0 {
		return nil
	}
	if len(passages) != len(vectors) {
		return fmt.Errorf("passages/vectors mismatch: %d vs %d", len(passages), len(vectors))
	}
	collection, err := c.collection(language)
	if err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}
	points := make([]point, 0, len(passages))
	for i, passage := range passages {
		points = append(points, point{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Payload: map[string]any{
				"chapter_id":    passage.ChapterID,
				"section_id":    passage.SectionID,
				"section_title": passage.SectionTitle,
				"content":       passage.Content,
				"language":      string(language),
			},
		})
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", collection)
	if err := c.do(ctx, http.MethodPut, path, map[string]any{"points": points}, nil, "upsert"); err != nil {
		return wrapTemporaryIfNeeded("upsert", err)
	}
	return nil
}

// Healthy reports whether Qdrant answers its collections listing.
func (c *Client) Healthy(ctx context.Context) bool {
	return c.do(ctx, http.MethodGet, "/collections", nil, nil, "health") == nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any, operation string) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", operation, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
	}
	return nil
}

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "qdrant status error"
	}
	if e.Body == "" {
		return fmt.Sprintf("qdrant %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("qdrant %s status: %s: %s", e.Operation, e.Status, e.Body)
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return domain.WrapError(domain.ErrTemporary, operation, err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

func payloadString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
