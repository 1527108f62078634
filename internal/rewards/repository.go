package rewards

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Musty2002/sm-data-app-sub000/pkg/db"
	"github.com/Musty2002/sm-data-app-sub000/pkg/db/models"
)

// Repository persists cashback balances and award entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindBalance(ctx context.Context, userID uuid.UUID) (*models.CashbackBalance, error)
	CreateBalance(ctx context.Context, balance *models.CashbackBalance) error
	// InsertEntry writes the award entry and reports whether the row was
	// inserted. A unique violation on the reference means the award was
	// already applied by a previous delivery.
	InsertEntry(ctx context.Context, entry *models.CashbackEntry) (bool, error)
	AddToBalance(ctx context.Context, userID uuid.UUID, amountKobo int64) error
	// DebitBalance atomically decrements the balance when it covers the
	// amount and reports whether the row was updated.
	DebitBalance(ctx context.Context, userID uuid.UUID, amountKobo int64) (bool, error)
	ListEntries(ctx context.Context, userID uuid.UUID, limit int) ([]models.CashbackEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cashback repository backed by the provided DB handle.
func NewRepository(conn *gorm.DB) Repository {
	if conn == nil {
		return nil
	}
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindBalance(ctx context.Context, userID uuid.UUID) (*models.CashbackBalance, error) {
	var balance models.CashbackBalance
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}

func (r *repository) CreateBalance(ctx context.Context, balance *models.CashbackBalance) error {
	if balance.ID == uuid.Nil {
		balance.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(balance).Error
}

func (r *repository) InsertEntry(ctx context.Context, entry *models.CashbackEntry) (bool, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Create(entry).Error
	if err != nil {
		if db.IsUniqueViolation(err, "ux_cashback_entries_reference") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repository) AddToBalance(ctx context.Context, userID uuid.UUID, amountKobo int64) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE cashback_balances
		SET balance_kobo = balance_kobo + ?,
			total_earned_kobo = total_earned_kobo + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, amountKobo, amountKobo, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) DebitBalance(ctx context.Context, userID uuid.UUID, amountKobo int64) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE cashback_balances
		SET balance_kobo = balance_kobo - ?,
			total_withdrawn_kobo = total_withdrawn_kobo + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND balance_kobo >= ?
	`, amountKobo, amountKobo, userID, amountKobo)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListEntries(ctx context.Context, userID uuid.UUID, limit int) ([]models.CashbackEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.CashbackEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
