package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Musty2002/sm-data-app-sub000/api/responses"
	"github.com/Musty2002/sm-data-app-sub000/internal/wallet"
	pkgerrors "github.com/Musty2002/sm-data-app-sub000/pkg/errors"
	"github.com/Musty2002/sm-data-app-sub000/pkg/logger"
)

type walletResponse struct {
	WalletID    uuid.UUID `json:"wallet_id"`
	BalanceKobo int64     `json:"balance_kobo"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type walletEntryResponse struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	AmountKobo int64     `json:"amount_kobo"`
	Reference  string    `json:"reference"`
	CreatedAt  time.Time `json:"created_at"`
}

// WalletFetch returns the caller's wallet, creating it on first access.
func WalletFetch(svc *wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.GetOrCreate(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, walletResponse{
			WalletID:    row.ID,
			BalanceKobo: row.BalanceKobo,
			UpdatedAt:   row.UpdatedAt,
		})
	}
}

// WalletHistory returns the caller's wallet entries, newest first.
func WalletHistory(svc *wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.GetOrCreate(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit := queryInt(r, "limit", 50)
		entries, err := svc.History(r.Context(), row.ID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]walletEntryResponse, 0, len(entries))
		for _, entry := range entries {
			out = append(out, walletEntryResponse{
				ID:         entry.ID,
				Type:       string(entry.Type),
				AmountKobo: entry.AmountKobo,
				Reference:  entry.Reference,
				CreatedAt:  entry.CreatedAt,
			})
		}
		responses.WriteSuccess(w, out)
	}
}
