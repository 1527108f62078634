package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Musty2002/sm-data-app-sub000/api/middleware"
	"github.com/Musty2002/sm-data-app-sub000/api/responses"
	"github.com/Musty2002/sm-data-app-sub000/api/validators"
	"github.com/Musty2002/sm-data-app-sub000/internal/ledger"
	purchasesvc "github.com/Musty2002/sm-data-app-sub000/internal/purchase"
	"github.com/Musty2002/sm-data-app-sub000/pkg/db/models"
	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
	pkgerrors "github.com/Musty2002/sm-data-app-sub000/pkg/errors"
	"github.com/Musty2002/sm-data-app-sub000/pkg/logger"
)

type purchaseRequest struct {
	Category   string `json:"category" validate:"required,oneof=data airtime electricity tv"`
	Vendor     string `json:"vendor,omitempty" validate:"omitempty,oneof=vtpass clubkonnect payscribe"`
	AmountKobo int64  `json:"amount_kobo" validate:"required,gt=0"`
	PlanCode   string `json:"plan_code,omitempty"`
	PlanName   string `json:"plan_name,omitempty"`
	Recipient  string `json:"recipient" validate:"required,min=4,max=32"`
	Network    string `json:"network,omitempty" validate:"omitempty,max=20"`
}

type purchaseResponse struct {
	PurchaseID    uuid.UUID              `json:"purchase_id"`
	Reference     string                 `json:"reference"`
	Category      enums.PurchaseCategory `json:"category"`
	Vendor        enums.Vendor           `json:"vendor"`
	Status        enums.PurchaseStatus   `json:"status"`
	AmountKobo    int64                  `json:"amount_kobo"`
	PlanCode      string                 `json:"plan_code,omitempty"`
	PlanName      string                 `json:"plan_name,omitempty"`
	Recipient     string                 `json:"recipient"`
	Network       string                 `json:"network,omitempty"`
	VendorRef     string                 `json:"vendor_ref,omitempty"`
	FailureReason string                 `json:"failure_reason,omitempty"`
	RefundedAt    *time.Time             `json:"refunded_at,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

func newPurchaseResponse(row *models.Purchase) purchaseResponse {
	return purchaseResponse{
		PurchaseID:    row.ID,
		Reference:     row.Reference,
		Category:      row.Category,
		Vendor:        row.Vendor,
		Status:        row.Status,
		AmountKobo:    row.AmountKobo,
		PlanCode:      row.PlanCode,
		PlanName:      row.PlanName,
		Recipient:     row.Recipient,
		Network:       row.Network,
		VendorRef:     row.VendorRef,
		FailureReason: row.FailureReason,
		RefundedAt:    row.RefundedAt,
		CreatedAt:     row.CreatedAt,
	}
}

type purchaseSubmitter interface {
	Submit(ctx context.Context, input purchasesvc.SubmitInput) (*purchasesvc.Result, error)
}

// SubmitPurchase runs the purchase saga for the authenticated user.
func SubmitPurchase(svc purchaseSubmitter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload purchaseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), purchasesvc.SubmitInput{
			UserID:     userID,
			Category:   enums.PurchaseCategory(payload.Category),
			Vendor:     enums.Vendor(payload.Vendor),
			AmountKobo: payload.AmountKobo,
			PlanCode:   payload.PlanCode,
			PlanName:   payload.PlanName,
			Recipient:  payload.Recipient,
			Network:    payload.Network,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		switch result.Status {
		case enums.PurchaseStatusFailed:
			failure := pkgerrors.New(pkgerrors.CodeVendorFailure, result.Message)
			responses.WriteError(r.Context(), logg, w, failure.WithDetails(purchaseOutcomeDetails(result)))
		case enums.PurchaseStatusPending:
			ambiguous := pkgerrors.New(pkgerrors.CodeVendorAmbiguous, result.Message)
			responses.WriteError(r.Context(), logg, w, ambiguous.WithDetails(purchaseOutcomeDetails(result)))
		default:
			responses.WriteSuccessStatus(w, http.StatusCreated, result)
		}
	}
}

// purchaseOutcomeDetails keeps the reference in the error payload so the
// caller can poll the purchase after a failed or undecided vendor call.
func purchaseOutcomeDetails(result *purchasesvc.Result) map[string]any {
	return map[string]any{
		"reference":   result.Reference,
		"status":      result.Status,
		"amount_kobo": result.AmountKobo,
	}
}

// PurchaseDetail returns one purchase by its reference, scoped to the caller.
func PurchaseDetail(ledgerSvc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledgerSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reference := chi.URLParam(r, "reference")
		row, err := ledgerSvc.FindByReference(r.Context(), reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if row == nil || row.UserID != userID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found"))
			return
		}

		responses.WriteSuccess(w, newPurchaseResponse(row))
	}
}

// PurchaseList returns the caller's purchases, newest first.
func PurchaseList(ledgerSvc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledgerSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit := queryInt(r, "limit", 50)
		offset := queryInt(r, "offset", 0)

		rows, err := ledgerSvc.ListByUser(r.Context(), userID, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]purchaseResponse, 0, len(rows))
		for i := range rows {
			out = append(out, newPurchaseResponse(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func userIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return userID, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
