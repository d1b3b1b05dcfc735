package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
	apphttp "github.com/chainsafe/custody-ledger/pkg/app/http"
)

// AdminTokenHeader carries the operator token on admin routes.
const AdminTokenHeader = "X-Admin-Token"

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireSession rejects requests without a valid bearer session and puts the
// session's AuthInfo on the request context. Browsers cannot set headers on
// websocket upgrades, so the token query parameter is accepted too.
func RequireSession(sessions *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(nil, "missing session token"))
				return
			}
			claims, err := sessions.Parse(token)
			if err != nil {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(err, "invalid session token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAuthInfo(r.Context(), claims.AuthInfo())))
		})
	}
}

// RequireAdmin rejects requests whose X-Admin-Token header does not match token.
func RequireAdmin(token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(AdminTokenHeader))
			if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(nil, "invalid admin token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context())))
		})
	}
}
