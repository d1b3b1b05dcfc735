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
		log.Println("creating balances, pools and journal tables...")
		if err := mghelper.CreateSchema(ctx, db, &store.BalanceDao{}, &store.PoolDao{}, &store.JournalDao{}); err != nil {
			return err
		}
		if err := mghelper.AddCheckConstraint(ctx, db, "balances", "balances_non_negative",
			"deposit >= 0 AND winnings >= 0 AND gaming >= 0 AND savings >= 0 AND liquidity >= 0"); err != nil {
			return err
		}
		if err := mghelper.AddCheckConstraint(ctx, db, "pools", "pools_non_negative",
			"escrow >= 0 AND paid_out >= 0 AND balance - escrow - paid_out >= 0"); err != nil {
			return err
		}
		if err := mghelper.CreateIndex(ctx, db, "journal", "idx_journal_user_currency", "user_id", "currency"); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &store.JournalDao{}, "ref")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping balances, pools and journal tables...")
		return mghelper.DropTables(ctx, db, &store.JournalDao{}, &store.PoolDao{}, &store.BalanceDao{})
	})
}
