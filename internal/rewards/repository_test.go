package rewards

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Musty2002/sm-data-app-sub000/pkg/db/models"
)

func TestInsertEntryIsIdempotentPerReference(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	userID := uuid.New()
	entry := models.CashbackEntry{
		ID:         uuid.New(),
		UserID:     userID,
		Reference:  "smd-award-1",
		AmountKobo: 1000,
		PlanName:   "2GB Monthly",
		WholeGB:    2,
	}

	inserted, err := repo.InsertEntry(ctx, &entry)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !inserted {
		t.Fatal("first insert should succeed")
	}

	replay := models.CashbackEntry{
		ID:         uuid.New(),
		UserID:     userID,
		Reference:  "smd-award-1",
		AmountKobo: 1000,
		PlanName:   "2GB Monthly",
		WholeGB:    2,
	}
	inserted, err = repo.InsertEntry(ctx, &replay)
	if err != nil {
		t.Fatalf("replayed insert: %v", err)
	}
	if inserted {
		t.Fatal("replayed insert must report not inserted")
	}

	var count int64
	if err := db.Model(&models.CashbackEntry{}).Where("reference = ?", "smd-award-1").Count(&count).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one entry, got %d", count)
	}
}

func TestDebitBalanceConditional(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	userID := uuid.New()
	if err := repo.CreateBalance(ctx, &models.CashbackBalance{ID: uuid.New(), UserID: userID, BalanceKobo: 5000, TotalEarnedKobo: 5000}); err != nil {
		t.Fatalf("create balance: %v", err)
	}

	debited, err := repo.DebitBalance(ctx, userID, 6000)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if debited {
		t.Fatal("debit above the balance must not perform")
	}

	debited, err = repo.DebitBalance(ctx, userID, 5000)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if !debited {
		t.Fatal("debit of the exact balance should perform")
	}

	balance, err := repo.FindBalance(ctx, userID)
	if err != nil {
		t.Fatalf("find balance: %v", err)
	}
	if balance.BalanceKobo != 0 {
		t.Fatalf("expected zero balance, got %d", balance.BalanceKobo)
	}
}

func TestAddToBalanceRequiresRow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	if err := repo.AddToBalance(ctx, uuid.New(), 1000); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected record not found, got %v", err)
	}

	userID := uuid.New()
	if err := repo.CreateBalance(ctx, &models.CashbackBalance{ID: uuid.New(), UserID: userID}); err != nil {
		t.Fatalf("create balance: %v", err)
	}
	if err := repo.AddToBalance(ctx, userID, 1500); err != nil {
		t.Fatalf("add: %v", err)
	}

	balance, err := repo.FindBalance(ctx, userID)
	if err != nil {
		t.Fatalf("find balance: %v", err)
	}
	if balance.BalanceKobo != 1500 {
		t.Fatalf("expected 1500, got %d", balance.BalanceKobo)
	}
}

func TestBalanceTotalsStayConsistent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	userID := uuid.New()
	if err := repo.CreateBalance(ctx, &models.CashbackBalance{ID: uuid.New(), UserID: userID}); err != nil {
		t.Fatalf("create balance: %v", err)
	}

	if err := repo.AddToBalance(ctx, userID, 3000); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := repo.AddToBalance(ctx, userID, 1500); err != nil {
		t.Fatalf("add: %v", err)
	}
	debited, err := repo.DebitBalance(ctx, userID, 1000)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if !debited {
		t.Fatal("debit within the balance should perform")
	}

	balance, err := repo.FindBalance(ctx, userID)
	if err != nil {
		t.Fatalf("find balance: %v", err)
	}
	if balance.TotalEarnedKobo != 4500 {
		t.Fatalf("expected 4500 earned, got %d", balance.TotalEarnedKobo)
	}
	if balance.TotalWithdrawnKobo != 1000 {
		t.Fatalf("expected 1000 withdrawn, got %d", balance.TotalWithdrawnKobo)
	}
	if balance.BalanceKobo != balance.TotalEarnedKobo-balance.TotalWithdrawnKobo {
		t.Fatalf("balance %d does not equal earned %d minus withdrawn %d",
			balance.BalanceKobo, balance.TotalEarnedKobo, balance.TotalWithdrawnKobo)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:rewards_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	balances := `
CREATE TABLE IF NOT EXISTS cashback_balances (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  balance_kobo INTEGER NOT NULL DEFAULT 0,
  total_earned_kobo INTEGER NOT NULL DEFAULT 0,
  total_withdrawn_kobo INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	if err := db.Exec(balances).Error; err != nil {
		t.Fatalf("create cashback_balances table: %v", err)
	}

	entries := `
CREATE TABLE IF NOT EXISTS cashback_entries (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  reference TEXT NOT NULL UNIQUE,
  amount_kobo INTEGER NOT NULL,
  plan_name TEXT,
  whole_gb INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	if err := db.Exec(entries).Error; err != nil {
		t.Fatalf("create cashback_entries table: %v", err)
	}

	return db
}
