package service

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
	apphttp "github.com/chainsafe/custody-ledger/pkg/app/http"
	"github.com/chainsafe/custody-ledger/pkg/auth"
	"github.com/chainsafe/custody-ledger/pkg/user"
)

const maxBodySize = 1 << 20

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service  Service
	validate *validator.Validate
	logger   *zap.Logger
}

// RegisterRoutes registers the public sign-in endpoints on the given chi router
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := newHTTP(service, logger)

	r.Post("/auth/challenge", apphttp.HandleError(h.challenge))
	r.Post("/auth/verify", apphttp.HandleError(h.verify))
	r.Post("/auth/login", apphttp.HandleError(h.login))
}

// RegisterSessionRoutes registers the endpoints that need a session. r must
// already be behind auth.RequireSession.
func RegisterSessionRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := newHTTP(service, logger)

	r.Get("/me", apphttp.HandleError(h.profile))
	r.Put("/me/credentials", apphttp.HandleError(h.setCredentials))
}

func newHTTP(service Service, logger *zap.Logger) *HTTP {
	return &HTTP{service: service, validate: validator.New(), logger: logger}
}

func (h *HTTP) decode(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	if err := h.validate.Struct(dst); err != nil {
		return apperrors.BadRequestError(err, "missing or invalid fields")
	}
	return nil
}

func (h *HTTP) challenge(w http.ResponseWriter, r *http.Request) error {
	var req user.ChallengeRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	resp, err := h.service.IssueChallenge(r.Context(), &req)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) verify(w http.ResponseWriter, r *http.Request) error {
	var req user.VerifyRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	resp, err := h.service.VerifyChallenge(r.Context(), &req)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) login(w http.ResponseWriter, r *http.Request) error {
	var req user.LoginRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) profile(w http.ResponseWriter, r *http.Request) error {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return apperrors.UnAuthorizedError(nil, "missing session")
	}
	resp, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) setCredentials(w http.ResponseWriter, r *http.Request) error {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return apperrors.UnAuthorizedError(nil, "missing session")
	}
	var req user.CredentialsRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	if err := h.service.SetCredentials(r.Context(), userID, &req); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *HTTP) writeJSON(w http.ResponseWriter, status int, data any) {
	if err := apphttp.WriteJSON(w, status, data); err != nil {
		h.logger.Warn("Failed to write response", zap.Error(err))
	}
}
