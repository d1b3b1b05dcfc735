package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/custody-ledger/pkg/user"
)

const serviceName = "AccountService"

const signatureDisplaySize = 16

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the account Service.
// It logs method entry/exit, duration, errors, and sanitized request/response data.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) finish(method string, start time.Time, err error, fields ...zap.Field) {
	fields = append([]zap.Field{
		zap.String("service", serviceName),
		zap.String("method", method),
		zap.Duration("duration", time.Since(start)),
	}, fields...)
	if err != nil {
		ls.logger.Error(method+" failed", append(fields, zap.Error(err))...)
		return
	}
	ls.logger.Info(method+" completed", fields...)
}

// IssueChallenge wraps the service method with logging
func (ls *logService) IssueChallenge(ctx context.Context, req *user.ChallengeRequest) (resp *user.ChallengeResponse, err error) {
	start := time.Now()
	ls.logger.Info("IssueChallenge started",
		zap.String("service", serviceName),
		zap.String("method", "IssueChallenge"),
		zap.String("chain", req.Chain),
		zap.String("address", req.Address),
	)
	defer func() {
		if err != nil {
			ls.finish("IssueChallenge", start, err, zap.String("address", req.Address))
			return
		}
		ls.finish("IssueChallenge", start, nil, zap.String("challenge_id", resp.ChallengeID))
	}()

	return ls.svc.IssueChallenge(ctx, req)
}

// VerifyChallenge wraps the service method with logging
func (ls *logService) VerifyChallenge(ctx context.Context, req *user.VerifyRequest) (resp *user.SessionResponse, err error) {
	start := time.Now()
	ls.logger.Info("VerifyChallenge started",
		zap.String("service", serviceName),
		zap.String("method", "VerifyChallenge"),
		zap.String("challenge_id", req.ChallengeID),
		zap.String("signature", redactSignature(req.Signature)),
	)
	defer func() {
		if err != nil {
			ls.finish("VerifyChallenge", start, err, zap.String("challenge_id", req.ChallengeID))
			return
		}
		ls.finish("VerifyChallenge", start, nil,
			zap.String("user_id", resp.UserID),
			zap.Bool("created", resp.Created))
	}()

	return ls.svc.VerifyChallenge(ctx, req)
}

// Login wraps the service method with logging. The password is never logged.
func (ls *logService) Login(ctx context.Context, req *user.LoginRequest) (resp *user.SessionResponse, err error) {
	start := time.Now()
	ls.logger.Info("Login started",
		zap.String("service", serviceName),
		zap.String("method", "Login"),
		zap.String("username", req.Username),
	)
	defer func() {
		if err != nil {
			ls.finish("Login", start, err, zap.String("username", req.Username))
			return
		}
		ls.finish("Login", start, nil, zap.String("user_id", resp.UserID))
	}()

	return ls.svc.Login(ctx, req)
}

// SetCredentials wraps the service method with logging
func (ls *logService) SetCredentials(ctx context.Context, userID string, req *user.CredentialsRequest) (err error) {
	start := time.Now()
	ls.logger.Info("SetCredentials started",
		zap.String("service", serviceName),
		zap.String("method", "SetCredentials"),
		zap.String("user_id", userID),
		zap.String("username", req.Username),
	)
	defer func() {
		ls.finish("SetCredentials", start, err, zap.String("user_id", userID))
	}()

	return ls.svc.SetCredentials(ctx, userID, req)
}

func (ls *logService) Profile(ctx context.Context, userID string) (*user.Profile, error) {
	start := time.Now()
	p, err := ls.svc.Profile(ctx, userID)
	if err != nil {
		ls.finish("Profile", start, err, zap.String("user_id", userID))
	}
	return p, err
}

// redactSignature redacts signature data to show only metadata
// Signatures are sensitive and should not be logged in full
func redactSignature(sig string) string {
	if sig == "" {
		return "<empty>"
	}
	sigLen := len(sig)
	if sigLen > signatureDisplaySize {
		// Show first 8 and last 4 characters with length
		return fmt.Sprintf("%s...%s (%d bytes)", sig[:8], sig[sigLen-4:], sigLen)
	}
	return fmt.Sprintf("<%d bytes>", sigLen)
}
