// Package http provides HTTP utilities including chi-compatible error handling
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
)

// HandlerFunc defines a function that returns an error for clean error handling
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// HandleError wraps an error-returning HandlerFunc into a standard http.HandlerFunc
// This allows using clean error-returning handlers with any router (chi, http.ServeMux, etc.)
//
// Usage with chi:
//
//	r.Post("/register", http.HandleError(handler.register))
func HandleError(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			DefaultErrorHandler(w, err)
		}
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	ErrMsg  string `json:"error"`
	Kind    string `json:"kind"`
	Code    int    `json:"code"`
}

// DefaultErrorHandler handles errors returned from HTTP handlers. Errors that
// are not a ServiceError are reported as a general error without their text.
func DefaultErrorHandler(w http.ResponseWriter, err error) {
	var svcErr *apperrors.ServiceError
	if !errors.As(err, &svcErr) {
		svcErr = apperrors.GeneralError(err).(*apperrors.ServiceError)
	}

	kind := svcErr.Kind
	if kind == "" {
		kind = apperrors.KindInternal
	}
	writeError(w, svcErr.StatusCode(), svcErr.Message, kind)
}

func writeError(w http.ResponseWriter, status int, msg string, kind apperrors.Kind) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&errorResponse{
		ErrMsg: msg,
		Kind:   string(kind),
		Code:   status,
	})
}

type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// WriteJSON writes data inside the success envelope shared with error bodies.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(&successResponse{Success: true, Data: data})
}
