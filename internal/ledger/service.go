package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Musty2002/sm-data-app-sub000/pkg/db/models"
	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
	pkgerrors "github.com/Musty2002/sm-data-app-sub000/pkg/errors"
)

// Service defines operations that record purchase ledger rows.
type Service interface {
	Open(ctx context.Context, tx *gorm.DB, input OpenPurchaseInput) (*models.Purchase, error)
	// Close flips the row to a terminal status exactly once. The bool reports
	// whether this call performed the close; callers gate side effects on it.
	Close(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.PurchaseStatus, vendorRef, failureReason string) (bool, error)
	MarkRefunded(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	SetVendorRef(ctx context.Context, id uuid.UUID, vendorRef string) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	FindByReference(ctx context.Context, reference string) (*models.Purchase, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Purchase, error)
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Purchase, error)
}

// OpenPurchaseInput captures the immutable data a purchase row requires.
type OpenPurchaseInput struct {
	UserID     uuid.UUID
	WalletID   uuid.UUID
	Reference  string
	Category   enums.PurchaseCategory
	Vendor     enums.Vendor
	AmountKobo int64
	PlanCode   string
	PlanName   string
	Recipient  string
	Network    string
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Open(ctx context.Context, tx *gorm.DB, input OpenPurchaseInput) (*models.Purchase, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required to open a purchase")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.WalletID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet id is required")
	}
	if input.Reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid purchase category %q", input.Category))
	}
	if !input.Vendor.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid vendor %q", input.Vendor))
	}
	if input.AmountKobo <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.Recipient == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient is required")
	}

	purchase := &models.Purchase{
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
	}
	if err := s.repo.WithTx(tx).Create(ctx, purchase); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "opening purchase")
	}
	return purchase, nil
}

func (s *service) Close(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.PurchaseStatus, vendorRef, failureReason string) (bool, error) {
	if id == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "purchase id is required")
	}
	if !status.IsTerminal() {
		return false, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot close to %q", status))
	}
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	performed, err := repo.CloseIfPending(ctx, id, status, vendorRef, failureReason)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "closing purchase")
	}
	return performed, nil
}

func (s *service) MarkRefunded(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "purchase id is required")
	}
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	performed, err := repo.MarkRefunded(ctx, id)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking purchase refunded")
	}
	return performed, nil
}

func (s *service) SetVendorRef(ctx context.Context, id uuid.UUID, vendorRef string) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "purchase id is required")
	}
	if err := s.repo.SetVendorRef(ctx, id, vendorRef); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording vendor ref")
	}
	return nil
}

func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) FindByReference(ctx context.Context, reference string) (*models.Purchase, error) {
	return s.repo.FindByReference(ctx, reference)
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Purchase, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *service) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Purchase, error) {
	return s.repo.ListStalePending(ctx, olderThan, limit)
}
