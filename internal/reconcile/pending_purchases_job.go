package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"

	"github.com/Musty2002/sm-data-app-sub000/internal/purchase"
	"github.com/Musty2002/sm-data-app-sub000/internal/vendors"
	"github.com/Musty2002/sm-data-app-sub000/pkg/db/models"
	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
	"github.com/Musty2002/sm-data-app-sub000/pkg/logger"
)

const (
	defaultPendingAfter = 10 * time.Minute
	defaultBatchSize    = 100
	queryRetryAttempts  = 3
	queryRetryBase      = 500 * time.Millisecond
)

type stalePendingLister interface {
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Purchase, error)
}

type adapterResolver interface {
	ByName(vendor enums.Vendor) (vendors.Adapter, error)
}

type settler interface {
	Settle(ctx context.Context, row *models.Purchase, outcome vendors.Outcome) (*purchase.Result, error)
}

// PendingPurchasesJobParams configure the pending purchase reconciliation.
type PendingPurchasesJobParams struct {
	Logger       *logger.Logger
	Ledger       stalePendingLister
	Vendors      adapterResolver
	Settler      settler
	PendingAfter time.Duration
	BatchSize    int
}

// NewPendingPurchasesJob builds the job that resolves purchases stuck in
// pending after an ambiguous vendor outcome.
func NewPendingPurchasesJob(params PendingPurchasesJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Vendors == nil {
		return nil, fmt.Errorf("vendor registry required")
	}
	if params.Settler == nil {
		return nil, fmt.Errorf("settler required")
	}
	pendingAfter := params.PendingAfter
	if pendingAfter <= 0 {
		pendingAfter = defaultPendingAfter
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &pendingPurchasesJob{
		logg:         params.Logger,
		ledger:       params.Ledger,
		vendors:      params.Vendors,
		settler:      params.Settler,
		pendingAfter: pendingAfter,
		batchSize:    batchSize,
		now:          time.Now,
	}, nil
}

type pendingPurchasesJob struct {
	logg         *logger.Logger
	ledger       stalePendingLister
	vendors      adapterResolver
	settler      settler
	pendingAfter time.Duration
	batchSize    int
	now          func() time.Time
}

func (j *pendingPurchasesJob) Name() string { return "pending-purchases" }

// Run queries the vendor for every stale pending purchase and settles the
// ones the vendor can now confirm either way. Purchases the vendor still
// cannot decide stay pending for the next cycle.
func (j *pendingPurchasesJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.pendingAfter)
	stale, err := j.ledger.ListStalePending(ctx, cutoff, j.batchSize)
	if err != nil {
		return fmt.Errorf("listing stale pending purchases: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	logCtx := j.logg.WithField(ctx, "stale_count", len(stale))
	j.logg.Info(logCtx, "reconciling stale pending purchases")

	var errs error
	settled := 0
	for i := range stale {
		if err := j.reconcileOne(ctx, &stale[i]); err != nil {
			refCtx := j.logg.WithReference(ctx, stale[i].Reference)
			j.logg.Error(refCtx, "failed to reconcile purchase", err)
			errs = multierr.Append(errs, fmt.Errorf("reconcile %s: %w", stale[i].Reference, err))
			continue
		}
		settled++
	}

	reportCtx := j.logg.WithFields(ctx, map[string]any{
		"stale_count":   len(stale),
		"settled_count": settled,
	})
	j.logg.Info(reportCtx, "stale pending reconciliation pass complete")
	return errs
}

func (j *pendingPurchasesJob) reconcileOne(ctx context.Context, stalePurchase *models.Purchase) error {
	adapter, err := j.vendors.ByName(stalePurchase.Vendor)
	if err != nil {
		return fmt.Errorf("resolving vendor %s: %w", stalePurchase.Vendor, err)
	}

	var outcome vendors.Outcome
	backoff := retry.WithMaxRetries(queryRetryAttempts, retry.NewExponential(queryRetryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		queried, err := adapter.Query(ctx, stalePurchase.Reference)
		if err != nil {
			return retry.RetryableError(err)
		}
		outcome = queried
		return nil
	})
	if err != nil {
		return fmt.Errorf("querying vendor: %w", err)
	}

	if outcome.Status == vendors.OutcomeAmbiguous {
		return nil
	}

	_, err = j.settler.Settle(ctx, stalePurchase, outcome)
	return err
}
