package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ainative-textbook/chatbot-service/internal/core/domain"
	"github.com/ainative-textbook/chatbot-service/internal/core/ports"
	"github.com/ainative-textbook/chatbot-service/internal/observability/metrics"
)

const serviceName = "chatbot-api"

// HealthChecker reports whether a dependency is reachable. The vector index
// is the only hard dependency of the chat path.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

type Router struct {
	chat    ports.ChatService
	index   HealthChecker
	metrics *metrics.HTTPServerMetrics

	rateLimitRPS   float64
	rateLimitBurst int
	maxConcurrent  int
}

func NewRouter(chat ports.ChatService, index HealthChecker, m *metrics.HTTPServerMetrics, rps float64, burst, maxConcurrent int) *Router {
	return &Router{
		chat:           chat,
		index:          index,
		metrics:        m,
		rateLimitRPS:   rps,
		rateLimitBurst: burst,
		maxConcurrent:  maxConcurrent,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/chat/question", rt.askQuestion)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.maxConcurrent > 0 {
		handler = backpressureMiddleware(handler, rt.maxConcurrent, backpressureWait)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return observeMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "vector_index": "ok"}
	code := http.StatusOK
	if rt.index != nil && !rt.index.Healthy(r.Context()) {
		status["status"] = "degraded"
		status["vector_index"] = "unreachable"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (rt *Router) askQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
		return
	}

	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "request body is not valid json", nil)
		return
	}

	start := time.Now()
	answer, err := rt.chat.Answer(r.Context(), req)
	if err != nil {
		rt.recordChat(string(domain.DetectLanguage(req.Question, req.Language)), string(domain.OutcomeFailed), 0, time.Since(start))
		status, code := mapError(err)
		writeError(w, status, code, err.Error(), domain.SourcesFromError(err))
		return
	}

	outcome := domain.OutcomeAnswered
	if answer.OutOfScope {
		outcome = domain.OutcomeOutOfScope
	}
	rt.recordChat(string(answer.Language), string(outcome), len(answer.Sources), time.Since(start))
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) recordChat(language, outcome string, sourceCount int, duration time.Duration) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.RecordChatRequest(serviceName, language, outcome, sourceCount, duration)
}

type errorResponse struct {
	Error   errorBody                `json:"error"`
	Sources []domain.SourceReference `json:"sources,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string, sources []domain.SourceReference) {
	writeJSON(w, status, errorResponse{
		Error:   errorBody{Code: code, Message: message},
		Sources: sources,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
