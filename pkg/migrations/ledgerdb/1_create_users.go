package ledgerdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	mghelper "github.com/chainsafe/custody-ledger/pkg/pgutil/migrations"
	"github.com/chainsafe/custody-ledger/pkg/userstore"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating users and user_wallets tables...")
		if err := mghelper.CreateSchema(ctx, db, &userstore.UserDao{}, &userstore.WalletDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &userstore.WalletDao{}, "user_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping users and user_wallets tables...")
		return mghelper.DropTables(ctx, db, &userstore.WalletDao{}, &userstore.UserDao{})
	})
}
