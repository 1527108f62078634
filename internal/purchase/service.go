package purchase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Musty2002/sm-data-app-sub000/internal/ledger"
	"github.com/Musty2002/sm-data-app-sub000/internal/vendors"
	"github.com/Musty2002/sm-data-app-sub000/pkg/db/models"
	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
	pkgerrors "github.com/Musty2002/sm-data-app-sub000/pkg/errors"
	"github.com/Musty2002/sm-data-app-sub000/pkg/logger"
	"github.com/Musty2002/sm-data-app-sub000/pkg/metrics"
	"github.com/Musty2002/sm-data-app-sub000/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type walletService interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Reserve(ctx context.Context, tx *gorm.DB, walletID uuid.UUID, amountKobo int64, reference string) error
	Credit(ctx context.Context, tx *gorm.DB, walletID uuid.UUID, amountKobo int64, entryType enums.WalletEntryType, reference string) error
}

type adapterResolver interface {
	ByName(vendor enums.Vendor) (vendors.Adapter, error)
	ForCategory(category enums.PurchaseCategory) (vendors.Adapter, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service orchestrates the purchase flow: reserve funds and open the ledger
// row in one transaction, call the vendor outside any transaction, then close
// and settle based on the outcome. Ambiguous outcomes leave the row pending
// for the reconciler; money is never refunded on an ambiguous outcome.
type Service struct {
	tx          txRunner
	wallets     walletService
	ledger      ledger.Service
	vendors     adapterResolver
	events      eventEmitter
	vendorStats *metrics.VendorMetrics
	logg        *logger.Logger
	callTimeout time.Duration
}

// Options collects the orchestrator dependencies.
type Options struct {
	Tx            txRunner
	Wallets       walletService
	Ledger        ledger.Service
	Vendors       adapterResolver
	Events        eventEmitter
	VendorMetrics *metrics.VendorMetrics
	Logger        *logger.Logger
	CallTimeout   time.Duration
}

// NewService validates and wires the orchestrator.
func NewService(opts Options) (*Service, error) {
	if opts.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if opts.Wallets == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if opts.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if opts.Vendors == nil {
		return nil, fmt.Errorf("vendor registry required")
	}
	if opts.Events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 30 * time.Second
	}
	return &Service{
		tx:          opts.Tx,
		wallets:     opts.Wallets,
		ledger:      opts.Ledger,
		vendors:     opts.Vendors,
		events:      opts.Events,
		vendorStats: opts.VendorMetrics,
		logg:        opts.Logger,
		callTimeout: opts.CallTimeout,
	}, nil
}

// Submit runs the full purchase saga for one request.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*Result, error) {
	if err := validateSubmit(input); err != nil {
		return nil, err
	}

	adapter, err := s.resolveAdapter(input)
	if err != nil {
		return nil, err
	}

	wallet, err := s.wallets.GetOrCreate(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	reference := "smd-" + uuid.NewString()
	ctx = s.withLog(ctx, reference, adapter.Name())

	var purchase *models.Purchase
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.wallets.Reserve(ctx, tx, wallet.ID, input.AmountKobo, reference); err != nil {
			return err
		}
		opened, err := s.ledger.Open(ctx, tx, ledger.OpenPurchaseInput{
			UserID:     input.UserID,
			WalletID:   wallet.ID,
			Reference:  reference,
			Category:   input.Category,
			Vendor:     adapter.Name(),
			AmountKobo: input.AmountKobo,
			PlanCode:   input.PlanCode,
			PlanName:   input.PlanName,
			Recipient:  input.Recipient,
			Network:    input.Network,
		})
		if err != nil {
			return err
		}
		purchase = opened
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome := s.callVendor(ctx, adapter, vendors.Request{
		Reference:  reference,
		Category:   input.Category,
		AmountKobo: input.AmountKobo,
		Recipient:  input.Recipient,
		Network:    input.Network,
		PlanCode:   input.PlanCode,
	})

	return s.settle(ctx, purchase, outcome)
}

// Settle applies a vendor outcome to a pending purchase. Submit and the
// reconciler both land here, so replays are safe: every state flip is
// conditional and side effects fire only when the flip performed.
func (s *Service) Settle(ctx context.Context, purchase *models.Purchase, outcome vendors.Outcome) (*Result, error) {
	return s.settle(ctx, purchase, outcome)
}

func (s *Service) settle(ctx context.Context, purchase *models.Purchase, outcome vendors.Outcome) (*Result, error) {
	switch outcome.Status {
	case vendors.OutcomeSuccess:
		if err := s.complete(ctx, purchase, outcome.VendorRef); err != nil {
			return nil, err
		}
		purchase.Status = enums.PurchaseStatusCompleted
		purchase.VendorRef = outcome.VendorRef
		return resultFrom(purchase, ""), nil

	case vendors.OutcomeFailure:
		if err := s.Compensate(ctx, purchase, outcome.Message); err != nil {
			return nil, err
		}
		purchase.Status = enums.PurchaseStatusFailed
		purchase.VendorRef = outcome.VendorRef
		return resultFrom(purchase, outcome.Message), nil

	default:
		// Ambiguous: the vendor may still deliver. Record what we know and
		// leave the row pending; the reconciler owns the final decision.
		if outcome.VendorRef != "" {
			if err := s.ledger.SetVendorRef(ctx, purchase.ID, outcome.VendorRef); err != nil && s.logg != nil {
				s.logg.Warn(ctx, "failed to record vendor ref on pending purchase")
			}
			purchase.VendorRef = outcome.VendorRef
		}
		if s.logg != nil {
			s.logg.Warn(ctx, "vendor outcome ambiguous, purchase left pending")
		}
		return resultFrom(purchase, "awaiting vendor confirmation"), nil
	}
}

func (s *Service) callVendor(ctx context.Context, adapter vendors.Adapter, req vendors.Request) vendors.Outcome {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	started := time.Now()
	outcome, err := adapter.Execute(callCtx, req)
	if err != nil {
		// adapter misconfiguration; nothing reached the provider
		outcome = vendors.Outcome{Status: vendors.OutcomeFailure, Message: err.Error()}
	}
	if s.vendorStats != nil {
		s.vendorStats.ObserveCall(adapter.Name().String(), string(outcome.Status), time.Since(started))
	}
	return outcome
}

func (s *Service) complete(ctx context.Context, purchase *models.Purchase, vendorRef string) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		performed, err := s.ledger.Close(ctx, tx, purchase.ID, enums.PurchaseStatusCompleted, vendorRef, "")
		if err != nil {
			return err
		}
		if !performed {
			return nil
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseCompleted,
			AggregateType: enums.AggregatePurchase,
			AggregateID:   purchase.ID,
			Actor:         &outbox.ActorRef{UserID: purchase.UserID},
			Version:       1,
			Data:          payloadsPurchaseCompleted(purchase, vendorRef, time.Now()),
		})
	})
}

func (s *Service) resolveAdapter(input SubmitInput) (vendors.Adapter, error) {
	if input.Vendor != "" {
		adapter, err := s.vendors.ByName(input.Vendor)
		if err != nil {
			return nil, err
		}
		if !adapter.Supports(input.Category) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("vendor %s does not support %s", input.Vendor, input.Category))
		}
		return adapter, nil
	}
	return s.vendors.ForCategory(input.Category)
}

func (s *Service) withLog(ctx context.Context, reference string, vendor enums.Vendor) context.Context {
	if s.logg == nil {
		return ctx
	}
	ctx = s.logg.WithReference(ctx, reference)
	return s.logg.WithVendor(ctx, vendor.String())
}

func validateSubmit(input SubmitInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid category %q", input.Category))
	}
	if input.Vendor != "" && !input.Vendor.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid vendor %q", input.Vendor))
	}
	if input.AmountKobo <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.Recipient == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient is required")
	}
	if input.Category == enums.PurchaseCategoryData && input.PlanCode == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "plan code is required for data purchases")
	}
	return nil
}
