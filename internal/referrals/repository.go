package referrals

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Musty2002/sm-data-app-sub000/pkg/db/models"
	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
)

// Repository persists referral links. Status moves forward only, through
// atomic conditional flips.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, referral *models.Referral) error
	FindByReferredUser(ctx context.Context, referredUserID uuid.UUID) (*models.Referral, error)
	ListByReferrer(ctx context.Context, referrerUserID uuid.UUID, limit int) ([]models.Referral, error)
	// Complete flips the link from pending to completed and stamps the bonus
	// amounts. Reports whether this call performed the flip; concurrent
	// qualifying purchases race on the row guard, so only one caller wins.
	Complete(ctx context.Context, referredUserID uuid.UUID, bonusKobo, refereeBonusKobo int64) (bool, error)
	// MarkBonusPaid flips completed to bonus_paid after the wallet credits
	// land.
	MarkBonusPaid(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a referral repository backed by the provided DB handle.
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

func (r *repository) Create(ctx context.Context, referral *models.Referral) error {
	if referral.ID == uuid.Nil {
		referral.ID = uuid.New()
	}
	if referral.Status == "" {
		referral.Status = enums.ReferralStatusPending
	}
	return r.db.WithContext(ctx).Create(referral).Error
}

func (r *repository) FindByReferredUser(ctx context.Context, referredUserID uuid.UUID) (*models.Referral, error) {
	var referral models.Referral
	err := r.db.WithContext(ctx).Where("referred_user_id = ?", referredUserID).First(&referral).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &referral, nil
}

func (r *repository) ListByReferrer(ctx context.Context, referrerUserID uuid.UUID, limit int) ([]models.Referral, error) {
	if limit <= 0 {
		limit = 50
	}
	var referrals []models.Referral
	err := r.db.WithContext(ctx).
		Where("referrer_user_id = ?", referrerUserID).
		Order("created_at DESC").
		Limit(limit).
		Find(&referrals).Error
	return referrals, err
}

func (r *repository) Complete(ctx context.Context, referredUserID uuid.UUID, bonusKobo, refereeBonusKobo int64) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE referrals
		SET status = ?,
			bonus_kobo = ?,
			referee_bonus_kobo = ?,
			completed_at = CURRENT_TIMESTAMP,
			updated_at = CURRENT_TIMESTAMP
		WHERE referred_user_id = ? AND status = ?
	`, enums.ReferralStatusCompleted, bonusKobo, refereeBonusKobo, referredUserID, enums.ReferralStatusPending)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) MarkBonusPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE referrals
		SET status = ?,
			bonus_paid_at = CURRENT_TIMESTAMP,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`, enums.ReferralStatusBonusPaid, id, enums.ReferralStatusCompleted)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
