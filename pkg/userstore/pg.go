package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/chainsafe/custody-ledger/pkg/user"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the user store
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}

func (s *pgStore) CreateUser(ctx context.Context, usr *user.User) error {
	dao := toUserDao(usr)
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(dao).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return ErrUsernameTaken
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		if len(dao.Wallets) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&dao.Wallets).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return ErrWalletLinked
			}
			return fmt.Errorf("failed to link wallets: %w", err)
		}
		return nil
	})
}

func (s *pgStore) GetUser(ctx context.Context, opts ...QueryOption) (*user.User, error) {
	options := Apply(opts...)

	if options.Chain != nil && options.Address != nil {
		w := new(WalletDao)
		err := s.db.NewSelect().Model(w).
			Where("chain = ?", string(*options.Chain)).
			Where("address = ?", *options.Address).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up wallet: %w", err)
		}
		options.ID = &w.UserID
	}

	dao := new(UserDao)
	query := s.db.NewSelect().Model(dao).
		Relation("Wallets", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("linked_at ASC")
		})
	if options.ID != nil {
		query = query.Where("u.id = ?", *options.ID)
	}
	if options.Username != nil {
		query = query.Where("u.username = ?", *options.Username)
	}

	if err := query.Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toUser(dao), nil
}

func (s *pgStore) SetCredentials(ctx context.Context, userID, username, passwordHash string) error {
	res, err := s.db.NewUpdate().
		Model((*UserDao)(nil)).
		Set("username = ?", username).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to set credentials: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *pgStore) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.NewSelect().
		Model((*UserDao)(nil)).
		Column("id").
		Order("created_at ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return ids, nil
}
