package provider

import (
	"context"
	"errors"
	"fmt"
	"net"

	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
	"github.com/chainsafe/custody-ledger/pkg/currency"
)

// ErrorKind classifies adapter failures for retry decisions.
type ErrorKind int

const (
	// KindTransient covers rate limits, timeouts and unavailable nodes.
	KindTransient ErrorKind = iota + 1
	// KindPermanent covers malformed or schema-broken responses.
	KindPermanent
	// KindRejected means the chain refused the transaction itself.
	KindRejected
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Error is a classified adapter failure.
type Error struct {
	Kind  ErrorKind
	Chain currency.Chain
	Op    string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Chain, e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transient wraps err as a retryable failure.
func Transient(chain currency.Chain, op string, err error) error {
	return &Error{Kind: KindTransient, Chain: chain, Op: op, Err: err}
}

// Permanent wraps err as a non-retryable provider failure.
func Permanent(chain currency.Chain, op string, err error) error {
	return &Error{Kind: KindPermanent, Chain: chain, Op: op, Err: err}
}

// Rejected wraps err as a chain refusal of the transaction.
func Rejected(chain currency.Chain, op string, err error) error {
	return &Error{Kind: KindRejected, Chain: chain, Op: op, Err: err}
}

// KindOf classifies err. Deadlines and network timeouts count as transient;
// unclassified errors are permanent.
func KindOf(err error) ErrorKind {
	if err == nil {
		return 0
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTransient
	}
	return KindPermanent
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool { return KindOf(err) == KindTransient }

// IsRejected reports whether the chain refused the transaction.
func IsRejected(err error) bool { return KindOf(err) == KindRejected }

// ToServiceError converts err into a kind-tagged service error.
func ToServiceError(err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) == KindTransient {
		return apperrors.ProviderTransientError(err, "chain provider temporarily unavailable")
	}
	return apperrors.ProviderPermanentError(err, "chain provider error")
}
