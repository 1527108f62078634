package wallet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Musty2002/sm-data-app-sub000/pkg/db/models"
	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
	pkgerrors "github.com/Musty2002/sm-data-app-sub000/pkg/errors"
)

func TestDebitConditionalOnBalance(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	wallet := models.Wallet{ID: uuid.New(), UserID: uuid.New(), BalanceKobo: 50000}
	if err := db.Create(&wallet).Error; err != nil {
		t.Fatalf("seed wallet: %v", err)
	}

	ok, err := repo.Debit(ctx, wallet.ID, 30000)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if !ok {
		t.Fatal("expected debit to succeed")
	}

	// remaining 20000 cannot cover another 30000
	ok, err = repo.Debit(ctx, wallet.ID, 30000)
	if err != nil {
		t.Fatalf("second debit: %v", err)
	}
	if ok {
		t.Fatal("expected debit to miss when balance is short")
	}

	var reloaded models.Wallet
	if err := db.First(&reloaded, "id = ?", wallet.ID).Error; err != nil {
		t.Fatalf("reload wallet: %v", err)
	}
	if reloaded.BalanceKobo != 20000 {
		t.Fatalf("unexpected balance %d", reloaded.BalanceKobo)
	}
}

func TestDebitExactBalance(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	wallet := models.Wallet{ID: uuid.New(), UserID: uuid.New(), BalanceKobo: 10000}
	if err := db.Create(&wallet).Error; err != nil {
		t.Fatalf("seed wallet: %v", err)
	}

	ok, err := repo.Debit(ctx, wallet.ID, 10000)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if !ok {
		t.Fatal("debit of the full balance should succeed")
	}

	var reloaded models.Wallet
	if err := db.First(&reloaded, "id = ?", wallet.ID).Error; err != nil {
		t.Fatalf("reload wallet: %v", err)
	}
	if reloaded.BalanceKobo != 0 {
		t.Fatalf("expected zero balance, got %d", reloaded.BalanceKobo)
	}
}

func TestServiceReserveAppendsEntry(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := NewService(NewRepository(db), nil)

	wallet := models.Wallet{ID: uuid.New(), UserID: uuid.New(), BalanceKobo: 100000}
	if err := db.Create(&wallet).Error; err != nil {
		t.Fatalf("seed wallet: %v", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Reserve(ctx, tx, wallet.ID, 40000, "smd-ref-1")
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	var entries []models.WalletEntry
	if err := db.Where("wallet_id = ?", wallet.ID).Find(&entries).Error; err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Type != enums.WalletEntryTypePurchaseDebit || entries[0].AmountKobo != -40000 {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
	if entries[0].Reference != "smd-ref-1" {
		t.Fatalf("unexpected reference %q", entries[0].Reference)
	}
}

func TestServiceReserveInsufficientFunds(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := NewService(NewRepository(db), nil)

	wallet := models.Wallet{ID: uuid.New(), UserID: uuid.New(), BalanceKobo: 5000}
	if err := db.Create(&wallet).Error; err != nil {
		t.Fatalf("seed wallet: %v", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Reserve(ctx, tx, wallet.ID, 40000, "smd-ref-2")
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientFunds {
		t.Fatalf("unexpected error: %v", err)
	}

	var reloaded models.Wallet
	if err := db.First(&reloaded, "id = ?", wallet.ID).Error; err != nil {
		t.Fatalf("reload wallet: %v", err)
	}
	if reloaded.BalanceKobo != 5000 {
		t.Fatalf("balance should be untouched, got %d", reloaded.BalanceKobo)
	}

	var count int64
	if err := db.Model(&models.WalletEntry{}).Where("wallet_id = ?", wallet.ID).Count(&count).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if count != 0 {
		t.Fatalf("no entry should be recorded on a missed reserve, got %d", count)
	}
}

func TestServiceCreditRefund(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := NewService(NewRepository(db), nil)

	wallet := models.Wallet{ID: uuid.New(), UserID: uuid.New(), BalanceKobo: 1000}
	if err := db.Create(&wallet).Error; err != nil {
		t.Fatalf("seed wallet: %v", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Credit(ctx, tx, wallet.ID, 40000, enums.WalletEntryTypeRefundCredit, "smd-ref-3")
	})
	if err != nil {
		t.Fatalf("credit: %v", err)
	}

	var reloaded models.Wallet
	if err := db.First(&reloaded, "id = ?", wallet.ID).Error; err != nil {
		t.Fatalf("reload wallet: %v", err)
	}
	if reloaded.BalanceKobo != 41000 {
		t.Fatalf("unexpected balance %d", reloaded.BalanceKobo)
	}

	var entry models.WalletEntry
	if err := db.First(&entry, "wallet_id = ?", wallet.ID).Error; err != nil {
		t.Fatalf("load entry: %v", err)
	}
	if entry.Type != enums.WalletEntryTypeRefundCredit || entry.AmountKobo != 40000 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestGetOrCreateIsStable(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := NewService(NewRepository(db), nil)
	userID := uuid.New()

	first, err := svc.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	second, err := svc.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same wallet, got %s and %s", first.ID, second.ID)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:wallet_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	wallets := `
CREATE TABLE IF NOT EXISTS wallets (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  balance_kobo INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	entries := `
CREATE TABLE IF NOT EXISTS wallet_entries (
  id TEXT PRIMARY KEY,
  wallet_id TEXT NOT NULL,
  type TEXT NOT NULL,
  amount_kobo INTEGER NOT NULL,
  reference TEXT NOT NULL,
  created_at DATETIME
);`
	if err := db.Exec(wallets).Error; err != nil {
		t.Fatalf("create wallets table: %v", err)
	}
	if err := db.Exec(entries).Error; err != nil {
		t.Fatalf("create wallet_entries table: %v", err)
	}
	return db
}
