// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/molecula-pos/molecula-pos/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. Business
// rule failures keep their message; anything unrecognized is treated as a
// storage failure, logged, and surfaced without internal detail.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrSizeUnavailable),
		errors.Is(err, shared.ErrStockTooLow),
		errors.Is(err, shared.ErrCategoryNotEmpty),
		errors.Is(err, shared.ErrEmailTaken),
		errors.Is(err, shared.ErrSelfDelete):
		Problem(w, http.StatusConflict, "Business Rule Violated", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials),
		errors.Is(err, shared.ErrTokenInvalid):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	default:
		if logger != nil {
			logger.Error("internal error", slog.Any("error", err))
		}
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
