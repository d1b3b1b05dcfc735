package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
	"github.com/chainsafe/custody-ledger/pkg/auth"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/user"
	"github.com/chainsafe/custody-ledger/pkg/userstore"
)

const challengeDomain = "custody-ledger"

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,32}$`)

// Store is the narrow data-access interface for the account service.
//
//go:generate mockery --name Store --output mocks --outpkg mocks --filename mock_store.go --with-expecter
type Store interface {
	CreateUser(ctx context.Context, usr *user.User) error
	GetUser(ctx context.Context, opts ...userstore.QueryOption) (*user.User, error)
	SetCredentials(ctx context.Context, userID, username, passwordHash string) error
}

// AddressValidator checks wallet address formats per chain.
type AddressValidator interface {
	ValidateAddress(chain currency.Chain, address string) error
}

// Service defines the account and sign-in business logic
//
//go:generate mockery --name Service --output mocks --outpkg mocks --filename mock_service.go --with-expecter
type Service interface {
	IssueChallenge(ctx context.Context, req *user.ChallengeRequest) (*user.ChallengeResponse, error)
	VerifyChallenge(ctx context.Context, req *user.VerifyRequest) (*user.SessionResponse, error)
	Login(ctx context.Context, req *user.LoginRequest) (*user.SessionResponse, error)
	SetCredentials(ctx context.Context, userID string, req *user.CredentialsRequest) error
	Profile(ctx context.Context, userID string) (*user.Profile, error)
}

type accountService struct {
	store        Store
	challenges   auth.ChallengeStore
	verifiers    auth.Verifiers
	addresses    AddressValidator
	sessions     *auth.Sessions
	challengeTTL time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewService creates a new account service
func NewService(
	store Store,
	challenges auth.ChallengeStore,
	verifiers auth.Verifiers,
	addresses AddressValidator,
	sessions *auth.Sessions,
	challengeTTL time.Duration,
	logger *zap.Logger,
) Service {
	return &accountService{
		store:        store,
		challenges:   challenges,
		verifiers:    verifiers,
		addresses:    addresses,
		sessions:     sessions,
		challengeTTL: challengeTTL,
		logger:       logger,
		now:          time.Now,
	}
}

// IssueChallenge creates a one-time sign-in message for the wallet.
func (s *accountService) IssueChallenge(ctx context.Context, req *user.ChallengeRequest) (*user.ChallengeResponse, error) {
	chain := currency.Chain(strings.ToLower(strings.TrimSpace(req.Chain)))
	if _, ok := s.verifiers[chain]; !ok {
		return nil, apperrors.InvalidInputError(nil, fmt.Sprintf("unsupported chain %q", req.Chain))
	}
	addr := strings.TrimSpace(req.Address)
	if err := s.addresses.ValidateAddress(chain, addr); err != nil {
		return nil, apperrors.InvalidInputError(err, "invalid wallet address")
	}

	c := auth.NewChallenge(challengeDomain, auth.Wallet{Chain: string(chain), Address: addr}, s.now(), s.challengeTTL)
	if err := s.challenges.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to store challenge: %w", err)
	}
	return &user.ChallengeResponse{ChallengeID: c.ID, Message: c.Message, ExpiresAt: c.ExpiresAt}, nil
}

// VerifyChallenge redeems a signed challenge. The first sign-in with a
// wallet creates the account.
func (s *accountService) VerifyChallenge(ctx context.Context, req *user.VerifyRequest) (*user.SessionResponse, error) {
	c, err := s.challenges.Take(ctx, req.ChallengeID)
	if errors.Is(err, auth.ErrChallengeNotFound) {
		return nil, apperrors.UnAuthorizedError(err, "challenge expired or already used")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}
	if c.Expired(s.now()) {
		return nil, apperrors.UnAuthorizedError(auth.ErrChallengeNotFound, "challenge expired or already used")
	}

	chain := currency.Chain(c.Chain)
	if err := s.verifiers.Verify(chain, c.Address, c.Message, req.Signature); err != nil {
		return nil, apperrors.UnAuthorizedError(err, "invalid signature")
	}

	usr, created, err := s.findOrCreate(ctx, chain, c.Address)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("Account created",
			zap.String("user_id", usr.ID),
			zap.String("chain", c.Chain),
			zap.String("address", c.Address))
	}
	resp, err := s.issue(usr.ID, auth.Wallet{Chain: c.Chain, Address: c.Address})
	if err != nil {
		return nil, err
	}
	resp.Created = created
	return resp, nil
}

func (s *accountService) findOrCreate(ctx context.Context, chain currency.Chain, addr string) (*user.User, bool, error) {
	usr, err := s.store.GetUser(ctx, userstore.WithWallet(chain, addr))
	if err == nil {
		return usr, false, nil
	}
	if !errors.Is(err, userstore.ErrUserNotFound) {
		return nil, false, fmt.Errorf("failed to look up wallet: %w", err)
	}

	usr = user.New(uuid.NewString(), user.Wallet{Chain: chain, Address: addr}, s.now())
	err = s.store.CreateUser(ctx, usr)
	if errors.Is(err, userstore.ErrWalletLinked) {
		// lost a race with a concurrent first sign-in
		usr, err = s.store.GetUser(ctx, userstore.WithWallet(chain, addr))
		if err != nil {
			return nil, false, fmt.Errorf("failed to look up wallet: %w", err)
		}
		return usr, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	return usr, true, nil
}

// Login authenticates with a username and password.
func (s *accountService) Login(ctx context.Context, req *user.LoginRequest) (*user.SessionResponse, error) {
	usr, err := s.store.GetUser(ctx, userstore.WithUsername(strings.ToLower(req.Username)))
	if errors.Is(err, userstore.ErrUserNotFound) {
		return nil, apperrors.UnAuthorizedError(err, "invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if err := auth.CheckPassword(usr.PasswordHash, req.Password); err != nil {
		return nil, apperrors.UnAuthorizedError(err, "invalid credentials")
	}
	return s.issue(usr.ID, auth.Wallet{})
}

// SetCredentials enables password logins for the user.
func (s *accountService) SetCredentials(ctx context.Context, userID string, req *user.CredentialsRequest) error {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if !usernamePattern.MatchString(username) {
		return apperrors.InvalidInputError(nil, "username must be 3-32 characters of a-z, 0-9 or _")
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return apperrors.InvalidInputError(err, err.Error())
	}
	err = s.store.SetCredentials(ctx, userID, username, hash)
	switch {
	case errors.Is(err, userstore.ErrUsernameTaken):
		return apperrors.ConflictError(err, "username taken")
	case errors.Is(err, userstore.ErrUserNotFound):
		return apperrors.ResourceNotFoundError(err, "user not found")
	case err != nil:
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// Profile returns the public view of the user.
func (s *accountService) Profile(ctx context.Context, userID string) (*user.Profile, error) {
	usr, err := s.store.GetUser(ctx, userstore.WithID(userID))
	if errors.Is(err, userstore.ErrUserNotFound) {
		return nil, apperrors.ResourceNotFoundError(err, "user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return usr.ToProfile(), nil
}

func (s *accountService) issue(userID string, w auth.Wallet) (*user.SessionResponse, error) {
	token, expires, err := s.sessions.Issue(userID, w)
	if err != nil {
		return nil, err
	}
	return &user.SessionResponse{Token: token, ExpiresAt: expires, UserID: userID}, nil
}
