package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
	apphttp "github.com/chainsafe/custody-ledger/pkg/app/http"
	"github.com/chainsafe/custody-ledger/pkg/auth"
)

const (
	maxBodySize = 1 << 20
	// selfAlias lets clients address their own wallet without knowing their id.
	selfAlias = "me"
)

// HTTP wraps the wallet and operator services to provide HTTP endpoints.
type HTTP struct {
	service  Service
	admin    Admin
	validate *validator.Validate
	logger   *zap.Logger
}

// RegisterRoutes registers the wallet endpoints. r must already be behind
// auth.RequireSession.
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{service: service, validate: validator.New(), logger: logger}

	r.Route("/wallet", func(r chi.Router) {
		r.Get("/", apphttp.HandleError(h.wallet))
		r.Get("/quote", apphttp.HandleError(h.quote))
		r.Get("/conversions", apphttp.HandleError(h.conversions))
		r.Get("/withdrawals", apphttp.HandleError(h.withdrawals))
		r.Get("/withdraw/{id}", apphttp.HandleError(h.withdrawal))
		r.Get("/journal", apphttp.HandleError(h.journal))
		r.Get("/{address}", apphttp.HandleError(h.walletByAddress))
		r.Post("/convert", apphttp.HandleError(h.convert))
		r.Post("/withdraw", apphttp.HandleError(h.withdraw))
		r.Post("/liquidity", apphttp.HandleError(h.liquidity))
	})
	r.Route("/games", func(r chi.Router) {
		r.Post("/bet", apphttp.HandleError(h.placeBet))
		r.Get("/history", apphttp.HandleError(h.bets))
	})
	r.Route("/deposit", func(r chi.Router) {
		r.Get("/address/{user}/{currency}", apphttp.HandleError(h.depositAddress))
		r.Post("/manual-verify", apphttp.HandleError(h.manualVerify))
		r.Get("/history", apphttp.HandleError(h.deposits))
	})
	r.Post("/savings/withdraw", apphttp.HandleError(h.releaseSavings))
}

// RegisterAdminRoutes registers the operator endpoints. r must already be
// behind auth.RequireAdmin.
func RegisterAdminRoutes(r chi.Router, admin Admin, logger *zap.Logger) {
	h := &HTTP{admin: admin, validate: validator.New(), logger: logger}

	r.Post("/adjust", apphttp.HandleError(h.adjust))
	r.Get("/pools", apphttp.HandleError(h.pools))
	r.Post("/pools/{currency}/replenish", apphttp.HandleError(h.replenish))
	r.Get("/audit", apphttp.HandleError(h.audit))
	r.Post("/withdrawals/{id}/retry", apphttp.HandleError(h.retryWithdrawal))
	r.Post("/bets/void-stale", apphttp.HandleError(h.voidStaleBets))
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
		return apperrors.InvalidInputError(err, "missing or invalid fields")
	}
	return nil
}

func (h *HTTP) writeJSON(w http.ResponseWriter, status int, data any) {
	if err := apphttp.WriteJSON(w, status, data); err != nil {
		h.logger.Warn("Failed to write response", zap.Error(err))
	}
}

func sessionUser(r *http.Request) (*auth.AuthInfo, error) {
	info := auth.AuthInfoFromContext(r.Context())
	if info.UserID == "" {
		return nil, apperrors.UnAuthorizedError(nil, "missing session")
	}
	return info, nil
}

// owner resolves a path segment naming a user to the session user. The
// segment may be "me", the user id or the wallet address that opened the
// session; anything else is someone else's wallet.
func owner(r *http.Request, param string) (string, error) {
	info, err := sessionUser(r)
	if err != nil {
		return "", err
	}
	switch v := chi.URLParam(r, param); v {
	case selfAlias, info.UserID:
		return info.UserID, nil
	case "":
		return "", apperrors.InvalidInputError(nil, param+" is required")
	default:
		if info.Wallet.Address != "" && v == info.Wallet.Address {
			return info.UserID, nil
		}
		return "", apperrors.ForbiddenError(nil, "cannot access another user's wallet")
	}
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperrors.InvalidInputError(err, name+" must be a non-negative integer")
	}
	return v, nil
}

func queryInt64(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil || v <= 0 {
		return 0, apperrors.InvalidInputError(err, name+" must be a positive integer")
	}
	return v, nil
}

func (h *HTTP) wallet(w http.ResponseWriter, r *http.Request) error {
	info, err := sessionUser(r)
	if err != nil {
		return err
	}
	resp, err := h.service.Wallet(r.Context(), info.UserID)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) walletByAddress(w http.ResponseWriter, r *http.Request) error {
	userID, err := owner(r, "address")
	if err != nil {
		return err
	}
	resp, err := h.service.Wallet(r.Context(), userID)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) quote(w http.ResponseWriter, r *http.Request) error {
	amount, err := queryInt64(r, "amount")
	if err != nil {
		return err
	}
	q := r.URL.Query()
	resp, err := h.service.Quote(r.Context(), &QuoteRequest{From: q.Get("from"), To: q.Get("to"), Amount: amount})
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) convert(w http.ResponseWriter, r *http.Request) error {
	info, err := sessionUser(r)
	if err != nil {
		return err
	}
	var req ConvertRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	resp, err := h.service.Convert(r.Context(), info.UserID, &req)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) conversions(w http.ResponseWriter, r *http.Request) error {
	info, err := sessionUser(r)
	if err != nil {
		return err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return err
	}
	resp, err := h.service.Conversions(r.Context(), info.UserID, limit)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) withdraw(w http.ResponseWriter, r *http.Request) error {
	info, err := sessionUser(r)
	if err != nil {
		return err
	}
	var req WithdrawRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	resp, err := h.service.Withdraw(r.Context(), info.UserID, &req)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusAccepted, resp)
	return nil
}

func (h *HTTP) withdrawal(w http.ResponseWriter, r *http.Request) error {
	info, err := sessionUser(r)
	if err != nil {
		return err
	}
	resp, err := h.service.Withdrawal(r.Context(), info.UserID, chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) withdrawals(w http.ResponseWriter, r *http.Request) error {
	info, err := sessionUser(r)
	if err != nil {
		return err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return err
	}
	resp, err := h.service.Withdrawals(r.Context(), info.UserID, limit)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) liquidity(w http.ResponseWriter, r *http.Request) error {
	info, err := sessionUser(r)
	if err != nil {
		return err
	}
	var req LiquidityRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	resp, err := h.service.Liquidity(r.Context(), info.UserID, &req)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) journal(w http.ResponseWriter, r *http.Request) error {
	info, err := sessionUser(r)
	if err != nil {
		return err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return err
	}
	resp, err := h.service.Journal(r.Context(), info.UserID, limit, r.URL.Query().Get("before"))
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) placeBet(w http.ResponseWriter, r *http.Request) error {
	info, err := sessionUser(r)
	if err != nil {
		return err
	}
	var req BetRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	resp, err := h.service.PlaceBet(r.Context(), info.UserID, &req)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) bets(w http.ResponseWriter, r *http.Request) error {
	info, err := sessionUser(r)
	if err != nil {
		return err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return err
	}
	resp, err := h.service.Bets(r.Context(), info.UserID, limit)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) depositAddress(w http.ResponseWriter, r *http.Request) error {
	userID, err := owner(r, "user")
	if err != nil {
		return err
	}
	resp, err := h.service.DepositAddress(r.Context(), userID, chi.URLParam(r, "currency"))
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) manualVerify(w http.ResponseWriter, r *http.Request) error {
	info, err := sessionUser(r)
	if err != nil {
		return err
	}
	var req ManualVerifyRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	resp, err := h.service.ManualVerify(r.Context(), info.UserID, &req)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) deposits(w http.ResponseWriter, r *http.Request) error {
	info, err := sessionUser(r)
	if err != nil {
		return err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return err
	}
	resp, err := h.service.Deposits(r.Context(), info.UserID, limit)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) releaseSavings(w http.ResponseWriter, r *http.Request) error {
	info, err := sessionUser(r)
	if err != nil {
		return err
	}
	var req SavingsRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	resp, err := h.service.ReleaseSavings(r.Context(), info.UserID, &req)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) adjust(w http.ResponseWriter, r *http.Request) error {
	var req AdjustRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	resp, err := h.admin.Adjust(r.Context(), &req)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) pools(w http.ResponseWriter, r *http.Request) error {
	resp, err := h.admin.Pools(r.Context())
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) replenish(w http.ResponseWriter, r *http.Request) error {
	var req ReplenishRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	resp, err := h.admin.Replenish(r.Context(), chi.URLParam(r, "currency"), req.Amount)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) audit(w http.ResponseWriter, r *http.Request) error {
	resp, err := h.admin.Audit(r.Context())
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) retryWithdrawal(w http.ResponseWriter, r *http.Request) error {
	resp, err := h.admin.RetryWithdrawal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusAccepted, resp)
	return nil
}

func (h *HTTP) voidStaleBets(w http.ResponseWriter, r *http.Request) error {
	resp, err := h.admin.VoidStaleBets(r.Context())
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}
