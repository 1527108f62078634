package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
)

// Referral links a referred user back to their referrer. Status only moves
// forward: pending -> completed -> bonus_paid. The bonus payout races on an
// atomic status flip so it can never pay twice.
type Referral struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReferrerUserID   uuid.UUID            `gorm:"column:referrer_user_id;type:uuid;not null;index"`
	ReferredUserID   uuid.UUID            `gorm:"column:referred_user_id;type:uuid;not null;uniqueIndex"`
	Status           enums.ReferralStatus `gorm:"column:status;not null"`
	BonusKobo        int64                `gorm:"column:bonus_kobo;not null;default:0"`
	RefereeBonusKobo int64                `gorm:"column:referee_bonus_kobo;not null;default:0"`
	CompletedAt      *time.Time           `gorm:"column:completed_at"`
	BonusPaidAt      *time.Time           `gorm:"column:bonus_paid_at"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
