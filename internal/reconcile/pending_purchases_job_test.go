package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/Musty2002/sm-data-app-sub000/internal/purchase"
	"github.com/Musty2002/sm-data-app-sub000/internal/vendors"
	"github.com/Musty2002/sm-data-app-sub000/pkg/db/models"
	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
	"github.com/Musty2002/sm-data-app-sub000/pkg/logger"
)

func TestPendingPurchasesJobSettlesDecidedOutcomes(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ledger := &fakeStaleLister{rows: []models.Purchase{
		stalePurchase("smd-a"),
		stalePurchase("smd-b"),
	}}
	resolver := &fakeResolver{outcomes: map[string]vendors.Outcome{
		"smd-a": {Status: vendors.OutcomeSuccess, VendorRef: "vt-a"},
		"smd-b": {Status: vendors.OutcomeAmbiguous},
	}}
	settled := &fakeSettler{}

	job := newPendingJob(t, ledger, resolver, settled)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expectedCutoff := now.UTC().Add(-defaultPendingAfter)
	if !ledger.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, ledger.lastCutoff)
	}
	if len(settled.calls) != 1 {
		t.Fatalf("expected one settle call, got %d", len(settled.calls))
	}
	if settled.calls[0].reference != "smd-a" {
		t.Fatalf("expected smd-a settled, got %s", settled.calls[0].reference)
	}
	if settled.calls[0].outcome.Status != vendors.OutcomeSuccess {
		t.Fatal("decided outcome should be passed through")
	}
}

func TestPendingPurchasesJobLeavesAmbiguousAlone(t *testing.T) {
	ledger := &fakeStaleLister{rows: []models.Purchase{stalePurchase("smd-x")}}
	resolver := &fakeResolver{outcomes: map[string]vendors.Outcome{
		"smd-x": {Status: vendors.OutcomeAmbiguous},
	}}
	settled := &fakeSettler{}

	job := newPendingJob(t, ledger, resolver, settled)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(settled.calls) != 0 {
		t.Fatal("still-ambiguous purchases must not be settled")
	}
}

func TestPendingPurchasesJobReportsQueryFailures(t *testing.T) {
	ledger := &fakeStaleLister{rows: []models.Purchase{stalePurchase("smd-y")}}
	resolver := &fakeResolver{err: errors.New("vendor unreachable")}
	settled := &fakeSettler{}

	job := newPendingJob(t, ledger, resolver, settled)
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error when every query fails")
	}
	if len(settled.calls) != 0 {
		t.Fatal("failed queries must not settle anything")
	}
}

func TestPendingPurchasesJobCollectsEveryFailure(t *testing.T) {
	ledger := &fakeStaleLister{rows: []models.Purchase{
		stalePurchase("smd-p"),
		stalePurchase("smd-q"),
	}}
	resolver := &fakeResolver{err: errors.New("vendor unreachable")}
	settled := &fakeSettler{}

	job := newPendingJob(t, ledger, resolver, settled)
	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	causes := multierr.Errors(err)
	if len(causes) != 2 {
		t.Fatalf("expected a cause per failed purchase, got %d: %v", len(causes), err)
	}
	for i, ref := range []string{"smd-p", "smd-q"} {
		if !strings.Contains(causes[i].Error(), ref) {
			t.Fatalf("cause %d should name %s, got %q", i, ref, causes[i].Error())
		}
	}
}

func TestPendingPurchasesJobEmptyBatchIsNoop(t *testing.T) {
	ledger := &fakeStaleLister{}
	settled := &fakeSettler{}

	job := newPendingJob(t, ledger, &fakeResolver{}, settled)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(settled.calls) != 0 {
		t.Fatal("no settle calls expected")
	}
}

func newPendingJob(t *testing.T, ledger *fakeStaleLister, resolver *fakeResolver, settled *fakeSettler) *pendingPurchasesJob {
	t.Helper()
	jobIface, err := NewPendingPurchasesJob(PendingPurchasesJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Ledger:  ledger,
		Vendors: resolver,
		Settler: settled,
	})
	if err != nil {
		t.Fatalf("NewPendingPurchasesJob: %v", err)
	}
	job, ok := jobIface.(*pendingPurchasesJob)
	if !ok {
		t.Fatalf("expected pendingPurchasesJob, got %T", jobIface)
	}
	return job
}

func stalePurchase(reference string) models.Purchase {
	return models.Purchase{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		WalletID:   uuid.New(),
		Reference:  reference,
		Category:   enums.PurchaseCategoryData,
		Vendor:     enums.VendorVTPass,
		Status:     enums.PurchaseStatusPending,
		AmountKobo: 50000,
	}
}

type fakeStaleLister struct {
	rows       []models.Purchase
	lastCutoff time.Time
}

func (f *fakeStaleLister) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Purchase, error) {
	f.lastCutoff = olderThan
	return f.rows, nil
}

type fakeResolver struct {
	outcomes map[string]vendors.Outcome
	err      error
}

func (f *fakeResolver) ByName(vendor enums.Vendor) (vendors.Adapter, error) {
	return &fakeAdapter{resolver: f}, nil
}

type fakeAdapter struct {
	resolver *fakeResolver
}

func (a *fakeAdapter) Name() enums.Vendor { return enums.VendorVTPass }

func (a *fakeAdapter) Supports(category enums.PurchaseCategory) bool { return true }

func (a *fakeAdapter) Execute(ctx context.Context, req vendors.Request) (vendors.Outcome, error) {
	return vendors.Outcome{}, errors.New("not used")
}

func (a *fakeAdapter) Query(ctx context.Context, reference string) (vendors.Outcome, error) {
	if a.resolver.err != nil {
		return vendors.Outcome{}, a.resolver.err
	}
	return a.resolver.outcomes[reference], nil
}

type settleCall struct {
	reference string
	outcome   vendors.Outcome
}

type fakeSettler struct {
	calls []settleCall
}

func (f *fakeSettler) Settle(ctx context.Context, row *models.Purchase, outcome vendors.Outcome) (*purchase.Result, error) {
	f.calls = append(f.calls, settleCall{reference: row.Reference, outcome: outcome})
	return &purchase.Result{Reference: row.Reference}, nil
}
