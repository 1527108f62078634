package models

import (
	"time"

	"github.com/google/uuid"
)

// CashbackBalance accumulates earned cashback per user, separate from the
// spendable wallet until the user withdraws it. The cumulative totals only
// ever grow, so balance_kobo = total_earned_kobo - total_withdrawn_kobo
// holds at all times.
type CashbackBalance struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	BalanceKobo        int64     `gorm:"column:balance_kobo;not null;default:0"`
	TotalEarnedKobo    int64     `gorm:"column:total_earned_kobo;not null;default:0"`
	TotalWithdrawnKobo int64     `gorm:"column:total_withdrawn_kobo;not null;default:0"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// CashbackEntry records a single cashback award. The unique reference makes
// the award idempotent across event redeliveries.
type CashbackEntry struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Reference  string    `gorm:"column:reference;not null;uniqueIndex"`
	AmountKobo int64     `gorm:"column:amount_kobo;not null"`
	PlanName   string    `gorm:"column:plan_name"`
	WholeGB    int       `gorm:"column:whole_gb;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (CashbackEntry) TableName() string {
	return "cashback_entries"
}
