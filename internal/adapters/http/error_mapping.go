package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/ainative-textbook/chatbot-service/internal/core/domain"
)

// mapError translates an orchestrator error into an HTTP status and a stable
// machine-readable code. Out-of-scope answers never reach here; they are
// successful responses.
func mapError(err error) (int, string) {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case domain.IsKind(err, domain.ErrRetrievalUnavailable):
		return http.StatusServiceUnavailable, "retrieval_unavailable"
	case domain.IsKind(err, domain.ErrGenerationUnavailable):
		return http.StatusServiceUnavailable, "generation_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
