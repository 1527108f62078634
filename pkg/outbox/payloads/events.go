package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
)

// PurchaseCompletedEvent is emitted when a vendor confirms fulfillment and the
// purchase closes as completed. Rewards and referral consumers key off it.
type PurchaseCompletedEvent struct {
	PurchaseID uuid.UUID              `json:"purchase_id"`
	UserID     uuid.UUID              `json:"user_id"`
	Reference  string                 `json:"reference"`
	Category   enums.PurchaseCategory `json:"category"`
	Vendor     enums.Vendor           `json:"vendor"`
	AmountKobo int64                  `json:"amount_kobo"`
	PlanName   string                 `json:"plan_name,omitempty"`
	Network    string                 `json:"network,omitempty"`
	ClosedAt   time.Time              `json:"closed_at"`
}

// PurchaseFailedEvent is emitted when a purchase closes as failed after a
// definitive vendor rejection.
type PurchaseFailedEvent struct {
	PurchaseID    uuid.UUID              `json:"purchase_id"`
	UserID        uuid.UUID              `json:"user_id"`
	Reference     string                 `json:"reference"`
	Category      enums.PurchaseCategory `json:"category"`
	Vendor        enums.Vendor           `json:"vendor"`
	AmountKobo    int64                  `json:"amount_kobo"`
	FailureReason string                 `json:"failure_reason,omitempty"`
	ClosedAt      time.Time              `json:"closed_at"`
}

// PurchaseRefundedEvent records that the reserved amount was returned to the
// buyer's wallet after a failed purchase.
type PurchaseRefundedEvent struct {
	PurchaseID uuid.UUID `json:"purchase_id"`
	UserID     uuid.UUID `json:"user_id"`
	Reference  string    `json:"reference"`
	AmountKobo int64     `json:"amount_kobo"`
	RefundedAt time.Time `json:"refunded_at"`
}
