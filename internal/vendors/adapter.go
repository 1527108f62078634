package vendors

import (
	"context"

	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
)

// OutcomeStatus is the normalized result of a vendor call.
type OutcomeStatus string

const (
	// OutcomeSuccess means the vendor confirmed delivery.
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeFailure means the vendor definitively rejected the request.
	OutcomeFailure OutcomeStatus = "failure"
	// OutcomeAmbiguous means the call timed out or returned an unreadable
	// response. The vendor may still have delivered, so the purchase must
	// stay pending until reconciliation decides it.
	OutcomeAmbiguous OutcomeStatus = "ambiguous"
)

// Outcome carries the normalized vendor response.
type Outcome struct {
	Status    OutcomeStatus
	VendorRef string
	Message   string
}

// Request describes a single fulfillment attempt sent to a provider. The
// purchase reference doubles as the provider-side request id so replays of
// the same purchase cannot double-deliver.
type Request struct {
	Reference  string
	Category   enums.PurchaseCategory
	AmountKobo int64
	Recipient  string
	Network    string
	PlanCode   string
}

// Adapter normalizes one external VTU provider behind a common surface.
type Adapter interface {
	Name() enums.Vendor
	Supports(category enums.PurchaseCategory) bool
	Execute(ctx context.Context, req Request) (Outcome, error)
	// Query checks the provider-side state of a previously submitted request.
	Query(ctx context.Context, reference string) (Outcome, error)
}
