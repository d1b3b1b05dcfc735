package auth

import (
	"context"
)

// Context keys for authentication data
type contextKey string

const (
	// ContextKeyUserID is the context key for the authenticated user's ID
	ContextKeyUserID contextKey = "user_id"
	// ContextKeyWallet is the context key for the wallet that opened the session
	ContextKeyWallet contextKey = "wallet"
	// ContextKeyAdmin marks requests authenticated with the operator token
	ContextKeyAdmin contextKey = "admin"
)

// WithUserID adds the user ID to the context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// UserIDFromContext retrieves the user ID from the context
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextKeyUserID).(string)
	return id, ok && id != ""
}

// Wallet identifies an external wallet by chain and address.
type Wallet struct {
	Chain   string
	Address string
}

// WithWallet adds the session wallet to the context
func WithWallet(ctx context.Context, w Wallet) context.Context {
	return context.WithValue(ctx, ContextKeyWallet, w)
}

// WalletFromContext retrieves the session wallet from the context
func WalletFromContext(ctx context.Context) (Wallet, bool) {
	w, ok := ctx.Value(ContextKeyWallet).(Wallet)
	return w, ok
}

// WithAdmin marks the context as operator-authenticated
func WithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextKeyAdmin, true)
}

// IsAdmin reports whether the request carried the operator token
func IsAdmin(ctx context.Context) bool {
	v, _ := ctx.Value(ContextKeyAdmin).(bool)
	return v
}

// AuthInfo contains all authentication information for a request
type AuthInfo struct {
	UserID string
	Wallet Wallet
}

// WithAuthInfo adds all authentication info to the context
func WithAuthInfo(ctx context.Context, info *AuthInfo) context.Context {
	ctx = WithUserID(ctx, info.UserID)
	if info.Wallet.Address != "" {
		ctx = WithWallet(ctx, info.Wallet)
	}
	return ctx
}

// AuthInfoFromContext retrieves all authentication info from the context
func AuthInfoFromContext(ctx context.Context) *AuthInfo {
	info := &AuthInfo{}
	info.UserID, _ = UserIDFromContext(ctx)
	info.Wallet, _ = WalletFromContext(ctx)
	return info
}
