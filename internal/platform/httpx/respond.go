// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nivra-platform/nivra-core/internal/shared"
)

// ProblemDetail represents RFC7807 problem details. Fields carries the
// per-field breakdown of a validation failure so the UI can highlight the
// offending inputs without parsing free text.
type ProblemDetail struct {
	Type   string              `json:"type,omitempty"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Fields []shared.FieldError `json:"fields,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// DecodeJSON decodes the JSON request body into target, rejecting unknown fields.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return shared.NewValidationError("body", "malformed JSON body")
	}
	if dec.More() {
		return shared.NewValidationError("body", "unexpected trailing data")
	}
	return nil
}

// RespondError maps domain errors to HTTP problem responses.
func RespondError(w http.ResponseWriter, err error) {
	var validation *shared.ValidationError
	var notFound *shared.NotFoundError
	var conflict *shared.ConflictError

	switch {
	case errors.As(err, &validation):
		JSON(w, http.StatusBadRequest, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Detail: validation.Error(),
			Fields: validation.Fields,
		})
	case errors.As(err, &notFound):
		Problem(w, http.StatusNotFound, "Not Found", notFound.Error())
	case errors.As(err, &conflict):
		Problem(w, http.StatusConflict, "Conflict", conflict.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
