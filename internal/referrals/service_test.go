package referrals

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Musty2002/sm-data-app-sub000/pkg/config"
	"github.com/Musty2002/sm-data-app-sub000/pkg/db/models"
	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
	"github.com/Musty2002/sm-data-app-sub000/pkg/logger"
	"github.com/Musty2002/sm-data-app-sub000/pkg/outbox/payloads"
)

func TestQualifyingPurchasePaysBothParties(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	wallets := &stubWallets{}
	svc := newReferralService(t, repo, wallets)

	referredUserID := uuid.New()
	repo.add(referredUserID, enums.ReferralStatusPending)

	event := completedDataEvent(referredUserID, "2GB Monthly")
	if err := svc.HandleQualifyingPurchase(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(wallets.credits) != 2 {
		t.Fatalf("expected two wallet credits, got %d", len(wallets.credits))
	}
	if wallets.credits[0].amount != 20000 || wallets.credits[1].amount != 10000 {
		t.Fatalf("unexpected bonus amounts %+v", wallets.credits)
	}
	for _, credit := range wallets.credits {
		if credit.entryType != enums.WalletEntryTypeReferralBonus {
			t.Fatal("bonus credits should use referral_bonus entry type")
		}
	}
	if repo.byUser[referredUserID].Status != enums.ReferralStatusBonusPaid {
		t.Fatalf("unexpected status %s", repo.byUser[referredUserID].Status)
	}
}

func TestSubQualifyingPurchaseIsNoop(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	wallets := &stubWallets{}
	svc := newReferralService(t, repo, wallets)

	referredUserID := uuid.New()
	repo.add(referredUserID, enums.ReferralStatusPending)

	event := completedDataEvent(referredUserID, "500MB Daily")
	if err := svc.HandleQualifyingPurchase(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(wallets.credits) != 0 {
		t.Fatal("sub-1GB purchase must not unlock the bonus")
	}
	if repo.byUser[referredUserID].Status != enums.ReferralStatusPending {
		t.Fatal("status should remain pending")
	}
}

func TestAirtimePurchaseDoesNotQualify(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	wallets := &stubWallets{}
	svc := newReferralService(t, repo, wallets)

	referredUserID := uuid.New()
	repo.add(referredUserID, enums.ReferralStatusPending)

	event := completedDataEvent(referredUserID, "2GB")
	event.Category = enums.PurchaseCategoryAirtime
	if err := svc.HandleQualifyingPurchase(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(wallets.credits) != 0 {
		t.Fatal("airtime purchases must not unlock the bonus")
	}
}

func TestSecondQualifyingPurchasePaysNothing(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	wallets := &stubWallets{}
	svc := newReferralService(t, repo, wallets)

	referredUserID := uuid.New()
	repo.add(referredUserID, enums.ReferralStatusPending)

	event := completedDataEvent(referredUserID, "2GB Monthly")
	if err := svc.HandleQualifyingPurchase(context.Background(), event); err != nil {
		t.Fatalf("first handle: %v", err)
	}
	if err := svc.HandleQualifyingPurchase(context.Background(), completedDataEvent(referredUserID, "5GB Monthly")); err != nil {
		t.Fatalf("second handle: %v", err)
	}

	if len(wallets.credits) != 2 {
		t.Fatalf("bonus must pay at most once, got %d credits", len(wallets.credits))
	}
}

func TestUserWithoutReferralIsNoop(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	wallets := &stubWallets{}
	svc := newReferralService(t, repo, wallets)

	event := completedDataEvent(uuid.New(), "2GB Monthly")
	if err := svc.HandleQualifyingPurchase(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(wallets.credits) != 0 {
		t.Fatal("no credits expected")
	}
}

func completedDataEvent(userID uuid.UUID, planName string) payloads.PurchaseCompletedEvent {
	return payloads.PurchaseCompletedEvent{
		PurchaseID: uuid.New(),
		UserID:     userID,
		Reference:  "smd-" + uuid.NewString(),
		Category:   enums.PurchaseCategoryData,
		Vendor:     enums.VendorVTPass,
		AmountKobo: 50000,
		PlanName:   planName,
	}
}

func newReferralService(t *testing.T, repo Repository, wallets walletService) *Service {
	t.Helper()
	cfg := config.ReferralsConfig{
		ReferrerBonusKobo: 20000,
		RefereeBonusKobo:  10000,
		MinQualifyingGB:   1,
		Enabled:           true,
	}
	svc, err := NewService(stubTxRunner{}, repo, wallets, cfg, logger.New(logger.Options{ServiceName: "referrals-test"}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubRepo struct {
	byUser map[uuid.UUID]*models.Referral
}

func newStubRepo() *stubRepo {
	return &stubRepo{byUser: map[uuid.UUID]*models.Referral{}}
}

func (s *stubRepo) add(referredUserID uuid.UUID, status enums.ReferralStatus) *models.Referral {
	referral := &models.Referral{
		ID:             uuid.New(),
		ReferrerUserID: uuid.New(),
		ReferredUserID: referredUserID,
		Status:         status,
	}
	s.byUser[referredUserID] = referral
	return referral
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, referral *models.Referral) error {
	s.byUser[referral.ReferredUserID] = referral
	return nil
}

func (s *stubRepo) FindByReferredUser(ctx context.Context, referredUserID uuid.UUID) (*models.Referral, error) {
	return s.byUser[referredUserID], nil
}

func (s *stubRepo) ListByReferrer(ctx context.Context, referrerUserID uuid.UUID, limit int) ([]models.Referral, error) {
	return nil, nil
}

func (s *stubRepo) Complete(ctx context.Context, referredUserID uuid.UUID, bonusKobo, refereeBonusKobo int64) (bool, error) {
	referral, ok := s.byUser[referredUserID]
	if !ok || referral.Status != enums.ReferralStatusPending {
		return false, nil
	}
	referral.Status = enums.ReferralStatusCompleted
	referral.BonusKobo = bonusKobo
	referral.RefereeBonusKobo = refereeBonusKobo
	return true, nil
}

func (s *stubRepo) MarkBonusPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	for _, referral := range s.byUser {
		if referral.ID == id && referral.Status == enums.ReferralStatusCompleted {
			referral.Status = enums.ReferralStatusBonusPaid
			return true, nil
		}
	}
	return false, nil
}

type creditCall struct {
	amount    int64
	entryType enums.WalletEntryType
}

type stubWallets struct {
	credits []creditCall
}

func (s *stubWallets) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return &models.Wallet{ID: uuid.New(), UserID: userID}, nil
}

func (s *stubWallets) Credit(ctx context.Context, tx *gorm.DB, walletID uuid.UUID, amountKobo int64, entryType enums.WalletEntryType, reference string) error {
	s.credits = append(s.credits, creditCall{amount: amountKobo, entryType: entryType})
	return nil
}
