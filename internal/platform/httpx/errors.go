package httpx

import (
	"errors"
	"net/http"

	"github.com/meridianbank/meridian-core/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Unknown errors collapse to a bare 500 so internal details never leak.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidAmount):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrAccountNotFound), errors.Is(err, shared.ErrTransactionNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicateAccount):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrAccountNotActive),
		errors.Is(err, shared.ErrAccountNotEmpty),
		errors.Is(err, shared.ErrNotReversible),
		errors.Is(err, shared.ErrAlreadyReversed):
		Problem(w, http.StatusConflict, "State Conflict", err.Error())
	case errors.Is(err, shared.ErrInsufficientFunds):
		Problem(w, http.StatusUnprocessableEntity, "Insufficient Funds", err.Error())
	case errors.Is(err, shared.ErrTransferLimitExceeded), errors.Is(err, shared.ErrDailyLimitExceeded):
		Problem(w, http.StatusUnprocessableEntity, "Limit Exceeded", err.Error())
	case errors.Is(err, shared.ErrReversalWindowExpired):
		Problem(w, http.StatusUnprocessableEntity, "Window Expired", err.Error())
	case errors.Is(err, shared.ErrConcurrencyConflict):
		Problem(w, http.StatusConflict, "Conflict", "operation conflicted with a concurrent update, retry the request")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
