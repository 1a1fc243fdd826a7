// Package httpx provides HTTP response utilities following RFC7807 problem
// details, plus request helpers shared by the feature handlers.
package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
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

// DecodeJSON decodes the JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}

// Actor builds the acting editor from the X-Actor-Id header. Every mutating
// endpoint requires it; aggregates stamp their audit fields from it.
func Actor(r *http.Request) (shared.ActorContext, error) {
	raw := r.Header.Get("X-Actor-Id")
	if raw == "" {
		return shared.ActorContext{}, shared.NewValidationError("X-Actor-Id", "header required")
	}
	personID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return shared.ActorContext{}, shared.NewValidationError("X-Actor-Id", "must be an integer id")
	}
	return shared.NewActor(personID, time.Now().UTC())
}

// IDParam parses a positive integer path parameter.
func IDParam(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}
