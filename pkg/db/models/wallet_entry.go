package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
)

// WalletEntry is an append-only record of a single balance mutation.
// Every debit and credit against a wallet writes one of these in the
// same transaction as the balance change.
type WalletEntry struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID   uuid.UUID             `gorm:"column:wallet_id;type:uuid;not null;index"`
	Type       enums.WalletEntryType `gorm:"column:type;not null"`
	AmountKobo int64                 `gorm:"column:amount_kobo;not null"`
	Reference  string                `gorm:"column:reference;not null;index"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (WalletEntry) TableName() string {
	return "wallet_entries"
}
