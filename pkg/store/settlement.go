package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chainsafe/custody-ledger/pkg/conversion"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/settlement"
)

func (s *Store) CreateBet(ctx context.Context, b *settlement.Bet) error {
	if _, err := s.idb(ctx).NewInsert().Model(toBetDao(b)).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return settlement.ErrStateConflict
		}
		return fmt.Errorf("failed to create bet: %w", err)
	}
	return nil
}

func (s *Store) GetBet(ctx context.Context, id string) (*settlement.Bet, error) {
	dao := new(BetDao)
	err := s.idb(ctx).NewSelect().Model(dao).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, settlement.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	return fromBetDao(dao), nil
}

func (s *Store) SaveBet(ctx context.Context, b *settlement.Bet, expect settlement.State) error {
	res, err := s.idb(ctx).NewUpdate().
		Model(toBetDao(b)).
		Column("state", "outcome", "payout", "savings_share", "liquidity_share", "note", "settled_at").
		WherePK().
		Where("state = ?", string(expect)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save bet: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		if _, err := s.GetBet(ctx, b.ID); err != nil {
			return err
		}
		return settlement.ErrStateConflict
	}
	return nil
}

func (s *Store) ListBets(ctx context.Context, userID string, limit int) ([]*settlement.Bet, error) {
	var daos []*BetDao
	q := s.idb(ctx).NewSelect().Model(&daos).
		Where("user_id = ?", userID).
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}
	out := make([]*settlement.Bet, 0, len(daos))
	for _, d := range daos {
		out = append(out, fromBetDao(d))
	}
	return out, nil
}

func (s *Store) ListOpenBets(ctx context.Context, createdBefore time.Time, limit int) ([]*settlement.Bet, error) {
	var daos []*BetDao
	q := s.idb(ctx).NewSelect().Model(&daos).
		Where("state = ?", string(settlement.StateOpen)).
		Where("created_at < ?", createdBefore).
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list open bets: %w", err)
	}
	out := make([]*settlement.Bet, 0, len(daos))
	for _, d := range daos {
		out = append(out, fromBetDao(d))
	}
	return out, nil
}

func (s *Store) LastLossAt(ctx context.Context, userID string, cur currency.Symbol) (*time.Time, error) {
	var last sql.NullTime
	err := s.idb(ctx).NewSelect().
		Model((*BetDao)(nil)).
		ColumnExpr("MAX(settled_at)").
		Where("user_id = ?", userID).
		Where("currency = ?", string(cur)).
		Where("outcome = ?", string(settlement.OutcomeLoss)).
		Scan(ctx, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to read last loss: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}

func (s *Store) CreateConversion(ctx context.Context, r *conversion.Record) error {
	if _, err := s.idb(ctx).NewInsert().Model(toConversionDao(r)).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create conversion: %w", err)
	}
	return nil
}

func (s *Store) ListConversions(ctx context.Context, userID string, limit int) ([]*conversion.Record, error) {
	var daos []*ConversionDao
	q := s.idb(ctx).NewSelect().Model(&daos).
		Where("user_id = ?", userID).
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list conversions: %w", err)
	}
	out := make([]*conversion.Record, 0, len(daos))
	for _, d := range daos {
		out = append(out, fromConversionDao(d))
	}
	return out, nil
}

var (
	_ settlement.Store = (*Store)(nil)
	_ conversion.Store = (*Store)(nil)
)
