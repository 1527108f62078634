package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Musty2002/sm-data-app-sub000/api/responses"
	"github.com/Musty2002/sm-data-app-sub000/api/validators"
	"github.com/Musty2002/sm-data-app-sub000/internal/referrals"
	"github.com/Musty2002/sm-data-app-sub000/pkg/db/models"
	pkgerrors "github.com/Musty2002/sm-data-app-sub000/pkg/errors"
	"github.com/Musty2002/sm-data-app-sub000/pkg/logger"
)

type referralRequest struct {
	ReferredUserID string `json:"referred_user_id" validate:"required,uuid"`
}

type referralResponse struct {
	ID               uuid.UUID  `json:"id"`
	ReferrerUserID   uuid.UUID  `json:"referrer_user_id"`
	ReferredUserID   uuid.UUID  `json:"referred_user_id"`
	Status           string     `json:"status"`
	BonusKobo        int64      `json:"bonus_kobo"`
	RefereeBonusKobo int64      `json:"referee_bonus_kobo"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	BonusPaidAt      *time.Time `json:"bonus_paid_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func newReferralResponse(row *models.Referral) referralResponse {
	return referralResponse{
		ID:               row.ID,
		ReferrerUserID:   row.ReferrerUserID,
		ReferredUserID:   row.ReferredUserID,
		Status:           string(row.Status),
		BonusKobo:        row.BonusKobo,
		RefereeBonusKobo: row.RefereeBonusKobo,
		CompletedAt:      row.CompletedAt,
		BonusPaidAt:      row.BonusPaidAt,
		CreatedAt:        row.CreatedAt,
	}
}

// ReferralCreate links a new user to the caller as their referrer.
func ReferralCreate(svc *referrals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "referrals service unavailable"))
			return
		}

		referrerID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload referralRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		referredID, err := uuid.Parse(payload.ReferredUserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid referred_user_id"))
			return
		}

		row, err := svc.Register(r.Context(), referrerID, referredID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newReferralResponse(row))
	}
}

// ReferralList returns the referrals the caller has made, newest first.
func ReferralList(svc *referrals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "referrals service unavailable"))
			return
		}

		referrerID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit := queryInt(r, "limit", 50)
		rows, err := svc.ListByReferrer(r.Context(), referrerID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]referralResponse, 0, len(rows))
		for i := range rows {
			out = append(out, newReferralResponse(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
