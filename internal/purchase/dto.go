package purchase

import (
	"time"

	"github.com/google/uuid"

	"github.com/Musty2002/sm-data-app-sub000/pkg/db/models"
	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
)

// SubmitInput captures a purchase request after transport-level validation.
type SubmitInput struct {
	UserID     uuid.UUID
	Category   enums.PurchaseCategory
	Vendor     enums.Vendor // optional; empty means pick by category
	AmountKobo int64
	PlanCode   string
	PlanName   string
	Recipient  string
	Network    string
}

// Result is the caller-facing view of a purchase after Submit returns.
type Result struct {
	PurchaseID uuid.UUID            `json:"purchase_id"`
	Reference  string               `json:"reference"`
	Status     enums.PurchaseStatus `json:"status"`
	Vendor     enums.Vendor         `json:"vendor"`
	VendorRef  string               `json:"vendor_ref,omitempty"`
	AmountKobo int64                `json:"amount_kobo"`
	Message    string               `json:"message,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

func resultFrom(purchase *models.Purchase, message string) *Result {
	return &Result{
		PurchaseID: purchase.ID,
		Reference:  purchase.Reference,
		Status:     purchase.Status,
		Vendor:     purchase.Vendor,
		VendorRef:  purchase.VendorRef,
		AmountKobo: purchase.AmountKobo,
		Message:    message,
		CreatedAt:  purchase.CreatedAt,
	}
}
