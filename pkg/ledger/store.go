package ledger

import (
	"context"
	"errors"

	"github.com/chainsafe/custody-ledger/pkg/currency"
)

var (
	// ErrConflict is returned by a compare-and-set write that lost to a concurrent writer.
	ErrConflict = errors.New("version conflict")
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
)

// Store is the persistence the ledger needs. Every method called with a
// context returned by RunInTx participates in that transaction.
//
//go:generate mockery --name Store --output mocks --outpkg mocks --filename mock_store.go --with-expecter
type Store interface {
	// RunInTx runs fn in a transaction; a nested call joins the outer transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	// LockBalance loads the row for update, creating a zero row when missing.
	LockBalance(ctx context.Context, userID string, cur currency.Symbol) (*Balance, error)
	SaveBalance(ctx context.Context, b *Balance) error
	// GetPool loads the pool, creating an empty one when missing.
	GetPool(ctx context.Context, cur currency.Symbol) (*Pool, error)
	// UpdatePool writes p only if the stored version still equals prevVersion.
	UpdatePool(ctx context.Context, p *Pool, prevVersion int64) error
	AppendJournal(ctx context.Context, entries []*Entry) error
	ListBalances(ctx context.Context, userID string) ([]*Balance, error)
	ListPools(ctx context.Context) ([]*Pool, error)
}

// JournalTotal is the signed sum of every journal entry for one sub-balance.
type JournalTotal struct {
	UserID     string
	Currency   currency.Symbol
	SubBalance SubBalance
	Amount     int64
}

// Reader serves audits and history pages outside the write path.
type Reader interface {
	// ReadSnapshot runs fn against one consistent view of the ledger tables.
	ReadSnapshot(ctx context.Context, fn func(ctx context.Context) error) error
	AllBalances(ctx context.Context) ([]*Balance, error)
	JournalTotals(ctx context.Context) ([]JournalTotal, error)
	ListPools(ctx context.Context) ([]*Pool, error)
	// ListJournal returns userID's entries newest first. A non-empty before
	// returns only entries older than that entry id.
	ListJournal(ctx context.Context, userID string, limit int, before string) ([]*Entry, error)
}
