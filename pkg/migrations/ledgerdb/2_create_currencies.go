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
		log.Println("creating currencies table...")
		return mghelper.CreateSchema(ctx, db, &store.CurrencyDao{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping currencies table...")
		return mghelper.DropTables(ctx, db, &store.CurrencyDao{})
	})
}
