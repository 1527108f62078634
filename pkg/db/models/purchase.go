package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
)

// Purchase is the ledger row for a single fulfillment attempt. Rows are
// append-only: a purchase is opened as pending and closed exactly once to
// completed or failed. Nothing ever flips a terminal row back.
type Purchase struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	WalletID  uuid.UUID              `gorm:"column:wallet_id;type:uuid;not null"`
	Reference string                 `gorm:"column:reference;not null;uniqueIndex"`
	Category  enums.PurchaseCategory `gorm:"column:category;not null"`
	Vendor    enums.Vendor           `gorm:"column:vendor;not null"`
	Status    enums.PurchaseStatus   `gorm:"column:status;not null;index"`

	AmountKobo int64  `gorm:"column:amount_kobo;not null"`
	PlanCode   string `gorm:"column:plan_code"`
	PlanName   string `gorm:"column:plan_name"`
	Recipient  string `gorm:"column:recipient;not null"`
	Network    string `gorm:"column:network"`

	// VendorRef is the provider-side transaction id, recorded when the
	// vendor call returns one even on ambiguous outcomes so reconciliation
	// can query by it later.
	VendorRef     string `gorm:"column:vendor_ref"`
	FailureReason string `gorm:"column:failure_reason"`

	RefundedAt *time.Time `gorm:"column:refunded_at"`
	ClosedAt   *time.Time `gorm:"column:closed_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
