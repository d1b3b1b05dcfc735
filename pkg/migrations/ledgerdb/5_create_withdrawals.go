package ledgerdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	mghelper "github.com/chainsafe/custody-ledger/pkg/pgutil/migrations"
	"github.com/chainsafe/custody-ledger/pkg/store"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating withdrawals and withdrawal_transitions tables...")
		if err := mghelper.CreateSchema(ctx, db, &store.WithdrawalDao{}, &store.TransitionDao{}); err != nil {
			return err
		}
		if err := mghelper.CreateModelIndexes(ctx, db, &store.WithdrawalDao{}, "user_id", "state", "next_attempt_at"); err != nil {
			return err
		}
		if err := mghelper.CreateModelUniqueIndexes(ctx, db, &store.WithdrawalDao{}, "idempotency_key"); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &store.TransitionDao{}, "withdrawal_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping withdrawals and withdrawal_transitions tables...")
		return mghelper.DropTables(ctx, db, &store.TransitionDao{}, &store.WithdrawalDao{})
	})
}
