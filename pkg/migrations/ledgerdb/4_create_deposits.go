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
		log.Println("creating receive_addresses, scan_cursors and deposits tables...")
		if err := mghelper.CreateSchema(ctx, db, &store.ReceiveAddressDao{}, &store.ScanCursorDao{}, &store.DepositDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &store.DepositDao{}, "user_id", "address", "state")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping receive_addresses, scan_cursors and deposits tables...")
		return mghelper.DropTables(ctx, db, &store.DepositDao{}, &store.ScanCursorDao{}, &store.ReceiveAddressDao{})
	})
}
