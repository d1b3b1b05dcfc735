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
		log.Println("creating conversions and bets tables...")
		if err := mghelper.CreateSchema(ctx, db, &store.ConversionDao{}, &store.BetDao{}); err != nil {
			return err
		}
		if err := mghelper.CreateModelIndexes(ctx, db, &store.ConversionDao{}, "user_id"); err != nil {
			return err
		}
		return mghelper.CreateIndex(ctx, db, "bets", "idx_bets_user_currency_outcome", "user_id", "currency", "outcome")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping conversions and bets tables...")
		return mghelper.DropTables(ctx, db, &store.BetDao{}, &store.ConversionDao{})
	})
}
