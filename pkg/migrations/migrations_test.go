package migrations

import (
	"context"
	"testing"

	"github.com/uptrace/bun/migrate"

	"github.com/chainsafe/custody-ledger/pkg/migrations/ledgerdb"
	"github.com/chainsafe/custody-ledger/pkg/pgutil"
)

var ledgerTables = []string{
	"users",
	"user_wallets",
	"currencies",
	"balances",
	"pools",
	"journal",
	"receive_addresses",
	"scan_cursors",
	"deposits",
	"withdrawals",
	"withdrawal_transitions",
	"conversions",
	"bets",
}

func TestLedgerDBMigrations_Apply(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, ledgerdb.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	if group.IsZero() {
		t.Fatal("expected migrations to run, but none were applied")
	}

	for _, table := range append(ledgerTables, "bun_migrations") {
		pgutil.AssertTableExists(t, db, table)
	}
	pgutil.AssertIndexExists(t, db, "idx_journal_user_currency")
	pgutil.AssertIndexExists(t, db, "idx_withdrawals_idempotency_key")
	pgutil.AssertIndexExists(t, db, "idx_bets_user_currency_outcome")

	again, err := migrator.Migrate(ctx)
	if err != nil {
		t.Fatalf("second Migrate() failed: %v", err)
	}
	if !again.IsZero() {
		t.Fatal("expected no new migrations on the second run")
	}
}

func TestLedgerDBMigrations_NonNegativeBalances(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, ledgerdb.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	if _, err := db.ExecContext(ctx,
		"INSERT INTO balances (user_id, currency, deposit, winnings, gaming, savings, liquidity, version) VALUES ('u1', 'CRT', -1, 0, 0, 0, 0, 0)"); err == nil {
		t.Fatal("expected the check constraint to reject a negative sub-balance")
	}
	if _, err := db.ExecContext(ctx,
		"INSERT INTO pools (currency, balance, escrow, paid_out, version) VALUES ('CRT', 10, 8, 5, 0)"); err == nil {
		t.Fatal("expected the check constraint to reject a negative available pool")
	}
	pgutil.AssertRowCount(t, db, "balances", 0)
	pgutil.AssertRowCount(t, db, "pools", 0)
}

func TestLedgerDBMigrations_Rollback(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, ledgerdb.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	group, err := migrator.Rollback(ctx)
	if err != nil {
		t.Fatalf("Rollback() failed: %v", err)
	}
	if group.IsZero() {
		t.Fatal("expected rollback to process a migration group")
	}
	for _, table := range ledgerTables {
		pgutil.AssertTableNotExists(t, db, table)
	}
}
