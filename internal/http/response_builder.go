// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses
// and the mapping from domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"maintrack/internal/auth"
	"maintrack/internal/core"
	"maintrack/internal/export"
	"maintrack/internal/log"
	"maintrack/internal/services"
)

var (
	errUnauthorized = errors.New("authentication required")
	errForbidden    = errors.New("not allowed for this role")
	errBadRequest   = errors.New("bad request")
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header sets a custom header on the response.
func (b *JSONResponseBuilder) Header(key, value string) *JSONResponseBuilder {
	b.headers[key] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Error sets an {"error": msg} body.
func (b *JSONResponseBuilder) Error(msg string) *JSONResponseBuilder {
	b.body = errorBody{Error: msg}
	return b
}

// Write sends the response. A nil body writes only the status line.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for k, v := range b.headers {
		w.Header().Set(k, v)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	NewJSONResponse().Status(code).Body(v).Write(w)
}

// writeError maps err to a status code and writes the error body. Server
// errors are logged and their details withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.LogError(r.Context(), "Request failed", err, log.ComponentHTTP, r.Method+" "+r.URL.Path, log.ErrorTypeInternal)
		msg = "internal error"
	}
	NewJSONResponse().Status(code).Error(msg).Write(w)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errUnauthorized), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, core.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTenantCapReached), errors.Is(err, core.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, errBadRequest), errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, errValidation), services.IsValidation(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
