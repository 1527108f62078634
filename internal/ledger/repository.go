package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Musty2002/sm-data-app-sub000/pkg/db/models"
	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
)

// Repository persists purchase rows. Terminal rows are never rewritten; the
// close and refund updates are conditional so replays fall through harmlessly.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, purchase *models.Purchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	FindByReference(ctx context.Context, reference string) (*models.Purchase, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Purchase, error)
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Purchase, error)
	// CloseIfPending flips a pending row to the given terminal status and
	// reports whether this call performed the flip.
	CloseIfPending(ctx context.Context, id uuid.UUID, status enums.PurchaseStatus, vendorRef, failureReason string) (bool, error)
	// MarkRefunded stamps refunded_at once; later calls report false.
	MarkRefunded(ctx context.Context, id uuid.UUID) (bool, error)
	// SetVendorRef records the provider transaction id on a still-pending row
	// so reconciliation can requery by it.
	SetVendorRef(ctx context.Context, id uuid.UUID, vendorRef string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a purchase repository backed by the provided DB handle.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, purchase *models.Purchase) error {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(purchase).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Purchase, error) {
	if limit <= 0 {
		limit = 20
	}
	var purchases []models.Purchase
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&purchases).Error
	return purchases, err
}

func (r *repository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Purchase, error) {
	if limit <= 0 {
		limit = 100
	}
	var purchases []models.Purchase
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.PurchaseStatusPending, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&purchases).Error
	return purchases, err
}

func (r *repository) CloseIfPending(ctx context.Context, id uuid.UUID, status enums.PurchaseStatus, vendorRef, failureReason string) (bool, error) {
	if !status.IsTerminal() {
		return false, errors.New("close requires a terminal status")
	}
	updates := map[string]any{
		"status":     status,
		"closed_at":  time.Now(),
		"updated_at": time.Now(),
	}
	if vendorRef != "" {
		updates["vendor_ref"] = vendorRef
	}
	if failureReason != "" {
		updates["failure_reason"] = failureReason
	}
	res := r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("id = ? AND status = ?", id, enums.PurchaseStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) SetVendorRef(ctx context.Context, id uuid.UUID, vendorRef string) error {
	if vendorRef == "" {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("id = ? AND status = ?", id, enums.PurchaseStatusPending).
		Updates(map[string]any{
			"vendor_ref": vendorRef,
			"updated_at": time.Now(),
		}).Error
}

func (r *repository) MarkRefunded(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("id = ? AND refunded_at IS NULL", id).
		Updates(map[string]any{
			"refunded_at": time.Now(),
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
