package httpx

import (
	"errors"
	"net/http"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Validation errors are the caller's fault (400), state errors are conflicts
// with the aggregate's lifecycle (409), anything else is a 500.
func RespondError(w http.ResponseWriter, err error) {
	var ve *shared.ValidationError
	var se *shared.StateError
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.As(err, &ve):
		Problem(w, http.StatusBadRequest, "Validation Failed", ve.Error())
	case errors.As(err, &se):
		Problem(w, http.StatusConflict, "Invalid State", se.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
