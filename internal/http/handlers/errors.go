package handlers

import (
	"errors"
	"net/http"

	"github.com/mjoly/fete-invites/internal/domain"
	"github.com/mjoly/fete-invites/internal/http/response"
	"github.com/mjoly/fete-invites/pkg/logger"
)

// writeDomainError maps service errors onto the HTTP boundary. Unknown
// errors are logged with full detail and surfaced as a generic 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		response.BadRequest(w, ve.Msg)
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, "Not found")
	case errors.Is(err, domain.ErrDuplicateEmail):
		response.Conflict(w, domain.ErrDuplicateEmail.Error())
	case errors.Is(err, domain.ErrCodeExhausted):
		response.Conflict(w, domain.ErrCodeExhausted.Error())
	case errors.Is(err, domain.ErrPrecondition):
		response.BadRequest(w, "Guest has not confirmed attendance")
	case errors.Is(err, domain.ErrForbidden):
		response.Forbidden(w, "Access not authorized")
	default:
		logger.ErrorContext(r.Context(), "request failed", "error", err,
			"method", r.Method, "path", r.URL.Path)
		response.InternalError(w)
	}
}
