package referrals

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Musty2002/sm-data-app-sub000/pkg/db/models"
	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
)

func TestCompleteFlipsOnce(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	referredUserID := uuid.New()
	seedReferral(t, repo, referredUserID)

	performed, err := repo.Complete(ctx, referredUserID, 20000, 10000)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !performed {
		t.Fatal("first complete should perform the flip")
	}

	performed, err = repo.Complete(ctx, referredUserID, 20000, 10000)
	if err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if performed {
		t.Fatal("second complete must not perform")
	}

	referral, err := repo.FindByReferredUser(ctx, referredUserID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if referral.Status != enums.ReferralStatusCompleted {
		t.Fatalf("unexpected status %s", referral.Status)
	}
	if referral.BonusKobo != 20000 || referral.RefereeBonusKobo != 10000 {
		t.Fatalf("bonus amounts not stamped: %+v", referral)
	}
	if referral.CompletedAt == nil {
		t.Fatal("completed_at should be stamped")
	}
}

func TestMarkBonusPaidRequiresCompleted(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	referredUserID := uuid.New()
	referral := seedReferral(t, repo, referredUserID)

	performed, err := repo.MarkBonusPaid(ctx, referral.ID)
	if err != nil {
		t.Fatalf("mark bonus paid: %v", err)
	}
	if performed {
		t.Fatal("pending link must not move straight to bonus_paid")
	}

	if _, err := repo.Complete(ctx, referredUserID, 20000, 10000); err != nil {
		t.Fatalf("complete: %v", err)
	}

	performed, err = repo.MarkBonusPaid(ctx, referral.ID)
	if err != nil {
		t.Fatalf("mark bonus paid: %v", err)
	}
	if !performed {
		t.Fatal("completed link should flip to bonus_paid")
	}

	reloaded, err := repo.FindByReferredUser(ctx, referredUserID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if reloaded.Status != enums.ReferralStatusBonusPaid {
		t.Fatalf("unexpected status %s", reloaded.Status)
	}
	if reloaded.BonusPaidAt == nil {
		t.Fatal("bonus_paid_at should be stamped")
	}
}

func TestCreateRejectsSecondLinkForSameUser(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	referredUserID := uuid.New()
	seedReferral(t, repo, referredUserID)

	err := repo.Create(ctx, &models.Referral{
		ID:             uuid.New(),
		ReferrerUserID: uuid.New(),
		ReferredUserID: referredUserID,
	})
	if err == nil {
		t.Fatal("expected unique violation for second link")
	}
}

func seedReferral(t *testing.T, repo Repository, referredUserID uuid.UUID) *models.Referral {
	t.Helper()
	referral := &models.Referral{
		ID:             uuid.New(),
		ReferrerUserID: uuid.New(),
		ReferredUserID: referredUserID,
		Status:         enums.ReferralStatusPending,
	}
	if err := repo.Create(context.Background(), referral); err != nil {
		t.Fatalf("seed referral: %v", err)
	}
	return referral
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:referrals_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	referrals := `
CREATE TABLE IF NOT EXISTS referrals (
  id TEXT PRIMARY KEY,
  referrer_user_id TEXT NOT NULL,
  referred_user_id TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'pending',
  bonus_kobo INTEGER NOT NULL DEFAULT 0,
  referee_bonus_kobo INTEGER NOT NULL DEFAULT 0,
  completed_at DATETIME,
  bonus_paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	if err := db.Exec(referrals).Error; err != nil {
		t.Fatalf("create referrals table: %v", err)
	}

	return db
}
