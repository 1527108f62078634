package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Musty2002/sm-data-app-sub000/api/responses"
	"github.com/Musty2002/sm-data-app-sub000/api/validators"
	"github.com/Musty2002/sm-data-app-sub000/internal/rewards"
	"github.com/Musty2002/sm-data-app-sub000/pkg/db/models"
	pkgerrors "github.com/Musty2002/sm-data-app-sub000/pkg/errors"
	"github.com/Musty2002/sm-data-app-sub000/pkg/logger"
)

type cashbackBalanceResponse struct {
	UserID             uuid.UUID `json:"user_id"`
	BalanceKobo        int64     `json:"balance_kobo"`
	TotalEarnedKobo    int64     `json:"total_earned_kobo"`
	TotalWithdrawnKobo int64     `json:"total_withdrawn_kobo"`
}

func newCashbackBalanceResponse(balance *models.CashbackBalance) cashbackBalanceResponse {
	return cashbackBalanceResponse{
		UserID:             balance.UserID,
		BalanceKobo:        balance.BalanceKobo,
		TotalEarnedKobo:    balance.TotalEarnedKobo,
		TotalWithdrawnKobo: balance.TotalWithdrawnKobo,
	}
}

type cashbackEntryResponse struct {
	ID         uuid.UUID `json:"id"`
	Reference  string    `json:"reference"`
	AmountKobo int64     `json:"amount_kobo"`
	PlanName   string    `json:"plan_name,omitempty"`
	WholeGB    int       `json:"whole_gb"`
	CreatedAt  time.Time `json:"created_at"`
}

type cashbackWithdrawRequest struct {
	AmountKobo int64 `json:"amount_kobo" validate:"required,gt=0"`
}

// CashbackFetch returns the caller's cashback balance.
func CashbackFetch(svc *rewards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.Balance(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCashbackBalanceResponse(balance))
	}
}

// CashbackHistory returns the caller's cashback awards, newest first.
func CashbackHistory(svc *rewards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit := queryInt(r, "limit", 50)
		entries, err := svc.History(r.Context(), userID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]cashbackEntryResponse, 0, len(entries))
		for _, entry := range entries {
			out = append(out, cashbackEntryResponse{
				ID:         entry.ID,
				Reference:  entry.Reference,
				AmountKobo: entry.AmountKobo,
				PlanName:   entry.PlanName,
				WholeGB:    entry.WholeGB,
				CreatedAt:  entry.CreatedAt,
			})
		}
		responses.WriteSuccess(w, out)
	}
}

// CashbackWithdraw moves cashback into the caller's spendable wallet.
func CashbackWithdraw(svc *rewards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cashbackWithdrawRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Withdraw(r.Context(), userID, payload.AmountKobo); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.Balance(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCashbackBalanceResponse(balance))
	}
}
