// Package handlers is the JSON transport for the moderation workflow. It
// decodes requests, resolves the caller and maps workflow error kinds to
// HTTP status codes.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mentorhub/internal/middleware"
	"mentorhub/internal/moderation"

	"github.com/rs/zerolog/log"
)

// Handler contains all HTTP handler methods and their dependencies.
type Handler struct {
	engine *moderation.Engine
}

// NewHandler creates a Handler serving engine.
func NewHandler(engine *moderation.Engine) *Handler {
	return &Handler{engine: engine}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status  string `json:"status"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// statusFor maps a workflow error kind to an HTTP status.
func statusFor(kind moderation.Kind) int {
	switch kind {
	case moderation.KindValidation:
		return http.StatusBadRequest
	case moderation.KindForbidden:
		return http.StatusForbidden
	case moderation.KindNotFound:
		return http.StatusNotFound
	case moderation.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

// writeError writes err as an ErrorResponse. Persistence causes are logged
// here and never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := moderation.KindOf(err)
	msg := "operation failed, please try again"

	var merr *moderation.Error
	if errors.As(err, &merr) {
		msg = merr.Message
	}
	if kind == moderation.KindPersistence {
		log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("moderation: request failed")
	}
	writeJSON(w, statusFor(kind), ErrorResponse{Status: "error", Kind: string(kind), Message: msg}, "error")
}

// writeBadRequest rejects a request the transport could not parse.
func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Status:  "error",
		Kind:    string(moderation.KindValidation),
		Message: msg,
	}, "error")
}

// writeJSON encodes and writes a JSON response
func writeJSON(w http.ResponseWriter, status int, v any, entityName string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode " + entityName + " response")
	}
}

// isJSONRequest checks if the request Content-Type is JSON
func isJSONRequest(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// decodeBody decodes a JSON request body into target. On failure it writes
// the response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	if r.ContentLength != 0 && r.Header.Get("Content-Type") != "" && !isJSONRequest(r) {
		writeJSON(w, http.StatusUnsupportedMediaType, ErrorResponse{
			Status:  "error",
			Kind:    string(moderation.KindValidation),
			Message: "Content-Type must be application/json",
		}, "error")
		return false
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Status:  "error",
				Kind:    string(moderation.KindValidation),
				Message: "request body too large",
			}, "error")
			return false
		}
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// callerID returns the id the identity middleware attached to the request.
func callerID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// pageParams reads the cursor and limit query parameters.
func pageParams(r *http.Request) (cursor string, limit int, err error) {
	q := r.URL.Query()
	cursor = q.Get("cursor")
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return "", 0, errors.New("limit must be an integer")
		}
	}
	return cursor, limit, nil
}

// timeParam parses an RFC 3339 query parameter. Absent parameters yield nil.
func timeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, errors.New(name + " must be an RFC 3339 timestamp")
	}
	return &t, nil
}

// HandleHealth handles GET /healthz
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, "health")
}
