package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a user's spendable balance in kobo.
//
// The balance is only ever mutated through atomic conditional updates; no
// code path reads the balance and writes it back.
type Wallet struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	BalanceKobo int64     `gorm:"column:balance_kobo;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
