package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
	"github.com/chainsafe/custody-ledger/pkg/auth"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/user"
	"github.com/chainsafe/custody-ledger/pkg/user/service/mocks"
	"github.com/chainsafe/custody-ledger/pkg/userstore"
)

const wallet = "SolWallet111"

type stubVerifier struct{}

func (stubVerifier) Verify(_, _, signature string) error {
	if signature != "good" {
		return auth.ErrSignatureMismatch
	}
	return nil
}

type addressCheck func(chain currency.Chain, address string) error

func (f addressCheck) ValidateAddress(chain currency.Chain, address string) error { return f(chain, address) }

func acceptAll(currency.Chain, string) error { return nil }

func newTestService(t *testing.T, store Store) (*accountService, *auth.Sessions) {
	t.Helper()
	sessions, err := auth.NewSessions("0123456789abcdef0123456789abcdef", "custody-ledger", time.Hour)
	if err != nil {
		t.Fatalf("NewSessions() failed: %v", err)
	}
	svc := NewService(
		store,
		auth.NewMemoryChallenges(nil),
		auth.Verifiers{currency.ChainSolana: stubVerifier{}},
		addressCheck(acceptAll),
		sessions,
		5*time.Minute,
		zap.NewNop(),
	).(*accountService)
	return svc, sessions
}

func challenge(t *testing.T, svc Service) *user.ChallengeResponse {
	t.Helper()
	c, err := svc.IssueChallenge(context.Background(), &user.ChallengeRequest{Chain: "Solana", Address: wallet})
	if err != nil {
		t.Fatalf("IssueChallenge() failed: %v", err)
	}
	return c
}

func TestVerifyChallenge_FirstSignInCreatesAccount(t *testing.T) {
	store := mocks.NewStore(t)
	svc, sessions := newTestService(t, store)

	store.EXPECT().GetUser(mock.Anything, mock.Anything).Return(nil, userstore.ErrUserNotFound).Once()
	var created *user.User
	store.EXPECT().CreateUser(mock.Anything, mock.AnythingOfType("*user.User")).
		Run(func(_ context.Context, usr *user.User) { created = usr }).
		Return(nil).Once()

	c := challenge(t, svc)
	resp, err := svc.VerifyChallenge(context.Background(), &user.VerifyRequest{ChallengeID: c.ChallengeID, Signature: "good"})
	if err != nil {
		t.Fatalf("VerifyChallenge() failed: %v", err)
	}
	if !resp.Created || resp.UserID != created.ID {
		t.Fatalf("expected a new account session, got %+v", resp)
	}
	if len(created.Wallets) != 1 || created.Wallets[0].Chain != currency.ChainSolana || created.Wallets[0].Address != wallet {
		t.Fatalf("unexpected linked wallets %+v", created.Wallets)
	}

	claims, err := sessions.Parse(resp.Token)
	if err != nil {
		t.Fatalf("session token rejected: %v", err)
	}
	if claims.Subject != created.ID || claims.Address != wallet {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifyChallenge_ExistingWallet(t *testing.T) {
	store := mocks.NewStore(t)
	svc, _ := newTestService(t, store)

	store.EXPECT().GetUser(mock.Anything, mock.Anything).
		Return(user.New("u-1", user.Wallet{Chain: currency.ChainSolana, Address: wallet}, time.Now()), nil).Once()

	c := challenge(t, svc)
	resp, err := svc.VerifyChallenge(context.Background(), &user.VerifyRequest{ChallengeID: c.ChallengeID, Signature: "good"})
	if err != nil {
		t.Fatalf("VerifyChallenge() failed: %v", err)
	}
	if resp.Created || resp.UserID != "u-1" {
		t.Fatalf("expected a session for u-1, got %+v", resp)
	}
}

func TestVerifyChallenge_ConcurrentFirstSignIn(t *testing.T) {
	store := mocks.NewStore(t)
	svc, _ := newTestService(t, store)

	store.EXPECT().GetUser(mock.Anything, mock.Anything).Return(nil, userstore.ErrUserNotFound).Once()
	store.EXPECT().CreateUser(mock.Anything, mock.Anything).Return(userstore.ErrWalletLinked).Once()
	store.EXPECT().GetUser(mock.Anything, mock.Anything).
		Return(&user.User{ID: "winner"}, nil).Once()

	c := challenge(t, svc)
	resp, err := svc.VerifyChallenge(context.Background(), &user.VerifyRequest{ChallengeID: c.ChallengeID, Signature: "good"})
	if err != nil {
		t.Fatalf("VerifyChallenge() failed: %v", err)
	}
	if resp.UserID != "winner" || resp.Created {
		t.Fatalf("expected the concurrently created account, got %+v", resp)
	}
}

func TestVerifyChallenge_Rejections(t *testing.T) {
	store := mocks.NewStore(t)
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	c := challenge(t, svc)
	if _, err := svc.VerifyChallenge(ctx, &user.VerifyRequest{ChallengeID: c.ChallengeID, Signature: "bad"}); !apperrors.IsKind(err, apperrors.KindUnauthorized) {
		t.Fatalf("expected Unauthorized for a bad signature, got %v", err)
	}
	// the failed attempt consumed the challenge
	if _, err := svc.VerifyChallenge(ctx, &user.VerifyRequest{ChallengeID: c.ChallengeID, Signature: "good"}); !apperrors.IsKind(err, apperrors.KindUnauthorized) {
		t.Fatalf("expected Unauthorized for a reused challenge, got %v", err)
	}
	if _, err := svc.VerifyChallenge(ctx, &user.VerifyRequest{ChallengeID: "unknown", Signature: "good"}); !apperrors.IsKind(err, apperrors.KindUnauthorized) {
		t.Fatalf("expected Unauthorized for an unknown challenge, got %v", err)
	}
}

func TestIssueChallenge_Validation(t *testing.T) {
	svc, _ := newTestService(t, mocks.NewStore(t))
	svc.addresses = addressCheck(func(currency.Chain, string) error { return errors.New("bad checksum") })

	if _, err := svc.IssueChallenge(context.Background(), &user.ChallengeRequest{Chain: "bitcoin", Address: "x"}); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("expected InvalidInput for an unknown chain, got %v", err)
	}
	if _, err := svc.IssueChallenge(context.Background(), &user.ChallengeRequest{Chain: "solana", Address: "x"}); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("expected InvalidInput for a bad address, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	store := mocks.NewStore(t)
	svc, _ := newTestService(t, store)
	hash, err := auth.HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}

	store.EXPECT().GetUser(mock.Anything, mock.Anything).
		Return(&user.User{ID: "u-1", Username: "alice", PasswordHash: hash}, nil).Twice()
	store.EXPECT().GetUser(mock.Anything, mock.Anything).Return(nil, userstore.ErrUserNotFound).Once()

	resp, err := svc.Login(context.Background(), &user.LoginRequest{Username: "Alice", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if resp.UserID != "u-1" || resp.Token == "" {
		t.Fatalf("unexpected session %+v", resp)
	}

	if _, err := svc.Login(context.Background(), &user.LoginRequest{Username: "alice", Password: "wrong-password"}); !apperrors.IsKind(err, apperrors.KindUnauthorized) {
		t.Fatalf("expected Unauthorized for a wrong password, got %v", err)
	}
	if _, err := svc.Login(context.Background(), &user.LoginRequest{Username: "bob", Password: "whatever1"}); !apperrors.IsKind(err, apperrors.KindUnauthorized) {
		t.Fatalf("expected Unauthorized for an unknown user, got %v", err)
	}
}

func TestSetCredentials(t *testing.T) {
	store := mocks.NewStore(t)
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	var savedHash string
	store.EXPECT().SetCredentials(mock.Anything, "u-1", "alice", mock.AnythingOfType("string")).
		Run(func(_ context.Context, _, _, hash string) { savedHash = hash }).
		Return(nil).Once()
	if err := svc.SetCredentials(ctx, "u-1", &user.CredentialsRequest{Username: " Alice ", Password: "hunter2hunter2"}); err != nil {
		t.Fatalf("SetCredentials() failed: %v", err)
	}
	if err := auth.CheckPassword(savedHash, "hunter2hunter2"); err != nil {
		t.Fatalf("stored hash does not match the password: %v", err)
	}

	store.EXPECT().SetCredentials(mock.Anything, "u-2", "alice", mock.Anything).Return(userstore.ErrUsernameTaken).Once()
	if err := svc.SetCredentials(ctx, "u-2", &user.CredentialsRequest{Username: "alice", Password: "hunter2hunter2"}); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("expected Conflict for a taken username, got %v", err)
	}

	if err := svc.SetCredentials(ctx, "u-1", &user.CredentialsRequest{Username: "a!", Password: "hunter2hunter2"}); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("expected InvalidInput for a bad username, got %v", err)
	}
	if err := svc.SetCredentials(ctx, "u-1", &user.CredentialsRequest{Username: "alice", Password: "short"}); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("expected InvalidInput for a short password, got %v", err)
	}
}
