package purchase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Musty2002/sm-data-app-sub000/internal/ledger"
	"github.com/Musty2002/sm-data-app-sub000/internal/vendors"
	"github.com/Musty2002/sm-data-app-sub000/pkg/db/models"
	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
	pkgerrors "github.com/Musty2002/sm-data-app-sub000/pkg/errors"
	"github.com/Musty2002/sm-data-app-sub000/pkg/outbox"
)

func TestSubmitCompletesOnVendorSuccess(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.adapter.outcome = vendors.Outcome{Status: vendors.OutcomeSuccess, VendorRef: "vt-1"}

	result, err := env.svc.Submit(context.Background(), validInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Status != enums.PurchaseStatusCompleted {
		t.Fatalf("expected completed, got %s", result.Status)
	}
	if result.VendorRef != "vt-1" {
		t.Fatalf("unexpected vendor ref %q", result.VendorRef)
	}
	if len(env.wallets.reserves) != 1 || env.wallets.reserves[0] != 50000 {
		t.Fatalf("expected one reserve of 50000, got %v", env.wallets.reserves)
	}
	if len(env.wallets.credits) != 0 {
		t.Fatalf("no refund expected on success, got %v", env.wallets.credits)
	}
	if got := env.emitter.typesEmitted(); len(got) != 1 || got[0] != enums.EventPurchaseCompleted {
		t.Fatalf("expected one completed event, got %v", got)
	}
}

func TestSubmitCompensatesOnVendorRejection(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.adapter.outcome = vendors.Outcome{Status: vendors.OutcomeFailure, Message: "insufficient vendor float"}

	result, err := env.svc.Submit(context.Background(), validInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Status != enums.PurchaseStatusFailed {
		t.Fatalf("expected failed, got %s", result.Status)
	}
	if result.Message != "insufficient vendor float" {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if len(env.wallets.credits) != 1 || env.wallets.credits[0].amount != 50000 {
		t.Fatalf("expected one refund of 50000, got %+v", env.wallets.credits)
	}
	if env.wallets.credits[0].entryType != enums.WalletEntryTypeRefundCredit {
		t.Fatalf("refund should use refund_credit entry type")
	}
	got := env.emitter.typesEmitted()
	if len(got) != 2 || got[0] != enums.EventPurchaseFailed || got[1] != enums.EventPurchaseRefunded {
		t.Fatalf("expected failed then refunded events, got %v", got)
	}
}

func TestSubmitLeavesAmbiguousPending(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.adapter.outcome = vendors.Outcome{Status: vendors.OutcomeAmbiguous, VendorRef: "vt-9", Message: "timeout"}

	result, err := env.svc.Submit(context.Background(), validInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Status != enums.PurchaseStatusPending {
		t.Fatalf("ambiguous outcome must stay pending, got %s", result.Status)
	}
	if len(env.wallets.credits) != 0 {
		t.Fatal("ambiguous outcome must never refund")
	}
	if len(env.emitter.events) != 0 {
		t.Fatalf("no events expected while pending, got %d", len(env.emitter.events))
	}
	if env.ledger.vendorRefs[result.PurchaseID] != "vt-9" {
		t.Fatal("vendor ref should be recorded for reconciliation")
	}
}

func TestSubmitInsufficientFundsSkipsVendor(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.wallets.reserveErr = pkgerrors.New(pkgerrors.CodeInsufficientFunds, "wallet balance below purchase amount")

	_, err := env.svc.Submit(context.Background(), validInput())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientFunds {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.adapter.calls != 0 {
		t.Fatal("vendor must not be called when the reserve fails")
	}
	if len(env.emitter.events) != 0 {
		t.Fatal("no events expected")
	}
}

func TestSubmitValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	tests := []struct {
		name string
		mut  func(*SubmitInput)
	}{
		{name: "missing user", mut: func(in *SubmitInput) { in.UserID = uuid.Nil }},
		{name: "bad category", mut: func(in *SubmitInput) { in.Category = "loans" }},
		{name: "zero amount", mut: func(in *SubmitInput) { in.AmountKobo = 0 }},
		{name: "missing recipient", mut: func(in *SubmitInput) { in.Recipient = "" }},
		{name: "data without plan", mut: func(in *SubmitInput) { in.PlanCode = "" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			input := validInput()
			tt.mut(&input)
			_, err := env.svc.Submit(context.Background(), input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSubmitRejectsUnsupportedVendorCategory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.adapter.supports = false

	input := validInput()
	input.Vendor = enums.VendorVTPass
	_, err := env.svc.Submit(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSettleReplayDoesNotDoubleEmit(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.ledger.closeMisses = true

	purchase := &models.Purchase{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		WalletID:  uuid.New(),
		Reference: "smd-replay",
		Status:    enums.PurchaseStatusCompleted,
	}
	env.ledger.byID[purchase.ID] = purchase

	if _, err := env.svc.Settle(context.Background(), purchase, vendors.Outcome{Status: vendors.OutcomeSuccess, VendorRef: "vt-2"}); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if len(env.emitter.events) != 0 {
		t.Fatalf("replayed close must not emit again, got %d events", len(env.emitter.events))
	}
}

func TestCompensateNeverRefundsCompletedPurchase(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.ledger.closeMisses = true

	purchase := &models.Purchase{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		WalletID:  uuid.New(),
		Reference: "smd-done",
		Status:    enums.PurchaseStatusCompleted,
	}
	env.ledger.byID[purchase.ID] = purchase

	if err := env.svc.Compensate(context.Background(), purchase, "late failure"); err != nil {
		t.Fatalf("compensate: %v", err)
	}
	if len(env.wallets.credits) != 0 {
		t.Fatal("completed purchase must not be refunded")
	}
}

func validInput() SubmitInput {
	return SubmitInput{
		UserID:     uuid.New(),
		Category:   enums.PurchaseCategoryData,
		AmountKobo: 50000,
		PlanCode:   "mtn-2gb",
		PlanName:   "2.5GB Monthly",
		Recipient:  "08030000000",
		Network:    "mtn",
	}
}

type testEnv struct {
	svc     *Service
	wallets *stubWallets
	ledger  *stubLedger
	adapter *stubAdapter
	emitter *stubEmitter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	wallets := &stubWallets{wallet: &models.Wallet{ID: uuid.New(), UserID: uuid.New(), BalanceKobo: 1000000}}
	ledg := &stubLedger{byID: map[uuid.UUID]*models.Purchase{}, vendorRefs: map[uuid.UUID]string{}}
	adapter := &stubAdapter{name: enums.VendorVTPass, supports: true}
	emitter := &stubEmitter{}

	svc, err := NewService(Options{
		Tx:          stubTx{},
		Wallets:     wallets,
		Ledger:      ledg,
		Vendors:     &stubResolver{adapter: adapter},
		Events:      emitter,
		CallTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &testEnv{svc: svc, wallets: wallets, ledger: ledg, adapter: adapter, emitter: emitter}
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type creditCall struct {
	amount    int64
	entryType enums.WalletEntryType
}

type stubWallets struct {
	wallet     *models.Wallet
	reserveErr error
	reserves   []int64
	credits    []creditCall
}

func (s *stubWallets) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return s.wallet, nil
}

func (s *stubWallets) Reserve(ctx context.Context, tx *gorm.DB, walletID uuid.UUID, amountKobo int64, reference string) error {
	if s.reserveErr != nil {
		return s.reserveErr
	}
	s.reserves = append(s.reserves, amountKobo)
	return nil
}

func (s *stubWallets) Credit(ctx context.Context, tx *gorm.DB, walletID uuid.UUID, amountKobo int64, entryType enums.WalletEntryType, reference string) error {
	s.credits = append(s.credits, creditCall{amount: amountKobo, entryType: entryType})
	return nil
}

type stubLedger struct {
	byID        map[uuid.UUID]*models.Purchase
	vendorRefs  map[uuid.UUID]string
	closeMisses bool
}

func (s *stubLedger) Open(ctx context.Context, tx *gorm.DB, input ledger.OpenPurchaseInput) (*models.Purchase, error) {
	purchase := &models.Purchase{
		ID:         uuid.New(),
		UserID:     input.UserID,
		WalletID:   input.WalletID,
		Reference:  input.Reference,
		Category:   input.Category,
		Vendor:     input.Vendor,
		Status:     enums.PurchaseStatusPending,
		AmountKobo: input.AmountKobo,
		PlanCode:   input.PlanCode,
		PlanName:   input.PlanName,
		Recipient:  input.Recipient,
		Network:    input.Network,
		CreatedAt:  time.Now(),
	}
	s.byID[purchase.ID] = purchase
	return purchase, nil
}

func (s *stubLedger) Close(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.PurchaseStatus, vendorRef, failureReason string) (bool, error) {
	if s.closeMisses {
		return false, nil
	}
	if purchase, ok := s.byID[id]; ok {
		purchase.Status = status
		purchase.VendorRef = vendorRef
		purchase.FailureReason = failureReason
	}
	return true, nil
}

func (s *stubLedger) MarkRefunded(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	purchase, ok := s.byID[id]
	if !ok {
		return true, nil
	}
	if purchase.RefundedAt != nil {
		return false, nil
	}
	now := time.Now()
	purchase.RefundedAt = &now
	return true, nil
}

func (s *stubLedger) SetVendorRef(ctx context.Context, id uuid.UUID, vendorRef string) error {
	s.vendorRefs[id] = vendorRef
	return nil
}

func (s *stubLedger) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	return s.byID[id], nil
}

func (s *stubLedger) FindByReference(ctx context.Context, reference string) (*models.Purchase, error) {
	for _, purchase := range s.byID {
		if purchase.Reference == reference {
			return purchase, nil
		}
	}
	return nil, nil
}

func (s *stubLedger) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Purchase, error) {
	return nil, nil
}

func (s *stubLedger) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Purchase, error) {
	return nil, nil
}

type stubAdapter struct {
	name     enums.Vendor
	supports bool
	outcome  vendors.Outcome
	execErr  error
	calls    int
}

func (s *stubAdapter) Name() enums.Vendor { return s.name }

func (s *stubAdapter) Supports(category enums.PurchaseCategory) bool { return s.supports }

func (s *stubAdapter) Execute(ctx context.Context, req vendors.Request) (vendors.Outcome, error) {
	s.calls++
	if s.execErr != nil {
		return vendors.Outcome{}, s.execErr
	}
	return s.outcome, nil
}

func (s *stubAdapter) Query(ctx context.Context, reference string) (vendors.Outcome, error) {
	return s.outcome, nil
}

type stubResolver struct {
	adapter *stubAdapter
}

func (s *stubResolver) ByName(vendor enums.Vendor) (vendors.Adapter, error) {
	return s.adapter, nil
}

func (s *stubResolver) ForCategory(category enums.PurchaseCategory) (vendors.Adapter, error) {
	return s.adapter, nil
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubEmitter) typesEmitted() []enums.OutboxEventType {
	types := make([]enums.OutboxEventType, 0, len(s.events))
	for _, event := range s.events {
		types = append(types, event.EventType)
	}
	return types
}
