package migrations

import (
	"context"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"github.com/chainsafe/custody-ledger/pkg/config"
	"github.com/chainsafe/custody-ledger/pkg/pgutil"
)

type probeDao struct {
	bun.BaseModel `bun:"table:probe_entries"`
	ID            int64  `bun:",pk,autoincrement"`
	UserID        string `bun:",notnull,type:varchar(36)"`
	Currency      string `bun:",notnull,type:varchar(16)"`
	Ref           string `bun:",type:varchar(64)"`
}

func TestConnectDB_InvalidHost(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := pgutil.ConnectDB(ctx, &config.DatabaseConfig{
		Host:     "invalid-host-that-does-not-exist",
		Port:     5432,
		User:     "test",
		Password: "test",
		Database: "test",
		SSLMode:  "disable",
	})
	if err == nil {
		_ = db.Close()
		t.Fatal("ConnectDB() should fail with an invalid host")
	}
}

func TestCreateAndDropSchema(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	for range 2 {
		if err := CreateSchema(ctx, db, &probeDao{}); err != nil {
			t.Fatalf("CreateSchema() failed: %v", err)
		}
	}
	pgutil.AssertTableExists(t, db, "probe_entries")

	for range 2 {
		if err := DropTables(ctx, db, &probeDao{}); err != nil {
			t.Fatalf("DropTables() failed: %v", err)
		}
	}
	pgutil.AssertTableNotExists(t, db, "probe_entries")
}

func TestCreateIndexes(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if err := CreateSchema(ctx, db, &probeDao{}); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}
	if err := CreateIndex(ctx, db, "probe_entries", "idx_probe_user_currency", "user_id", "currency"); err != nil {
		t.Fatalf("CreateIndex() failed: %v", err)
	}
	if err := CreateModelIndexes(ctx, db, &probeDao{}, "currency"); err != nil {
		t.Fatalf("CreateModelIndexes() failed: %v", err)
	}
	if err := CreateModelUniqueIndexes(ctx, db, &probeDao{}, "ref"); err != nil {
		t.Fatalf("CreateModelUniqueIndexes() failed: %v", err)
	}

	pgutil.AssertIndexExists(t, db, "idx_probe_user_currency")
	pgutil.AssertIndexExists(t, db, "idx_probe_entries_currency")
	pgutil.AssertIndexExists(t, db, "idx_probe_entries_ref")

	if _, err := db.NewInsert().Model(&probeDao{UserID: "u1", Currency: "CRT", Ref: "r1"}).Exec(ctx); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := db.NewInsert().Model(&probeDao{UserID: "u2", Currency: "CRT", Ref: "r1"}).Exec(ctx); err == nil {
		t.Fatal("expected the unique index to reject a duplicate ref")
	}
}

type counterDao struct {
	bun.BaseModel `bun:"table:probe_counters"`
	ID            int64 `bun:",pk,autoincrement"`
	Amount        int64 `bun:",notnull"`
}

func TestAddCheckConstraint(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if err := CreateSchema(ctx, db, &counterDao{}); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}
	for range 2 {
		if err := AddCheckConstraint(ctx, db, "probe_counters", "probe_counters_non_negative", "amount >= 0"); err != nil {
			t.Fatalf("AddCheckConstraint() failed: %v", err)
		}
	}

	if _, err := db.NewInsert().Model(&counterDao{Amount: 5}).Exec(ctx); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := db.NewInsert().Model(&counterDao{Amount: -1}).Exec(ctx); err == nil {
		t.Fatal("expected the check constraint to reject a negative amount")
	}
}
