package purchase

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Musty2002/sm-data-app-sub000/pkg/db/models"
	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
	"github.com/Musty2002/sm-data-app-sub000/pkg/outbox"
	"github.com/Musty2002/sm-data-app-sub000/pkg/outbox/payloads"
)

// Compensate closes the purchase as failed and returns the reserved amount to
// the wallet. Everything runs in one transaction and every step is guarded,
// so a crash-and-retry cannot refund twice or flip a completed purchase.
func (s *Service) Compensate(ctx context.Context, purchase *models.Purchase, reason string) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		closePerformed, err := s.ledger.Close(ctx, tx, purchase.ID, enums.PurchaseStatusFailed, "", reason)
		if err != nil {
			return err
		}
		// Terminal row that is not failed: a concurrent path completed it.
		// Refunding now would hand out free credit, so stop here.
		if !closePerformed {
			current, err := s.ledger.FindByID(ctx, purchase.ID)
			if err != nil {
				return err
			}
			if current == nil || current.Status != enums.PurchaseStatusFailed {
				return nil
			}
		}

		refundPerformed, err := s.ledger.MarkRefunded(ctx, tx, purchase.ID)
		if err != nil {
			return err
		}

		if closePerformed {
			if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPurchaseFailed,
				AggregateType: enums.AggregatePurchase,
				AggregateID:   purchase.ID,
				Actor:         &outbox.ActorRef{UserID: purchase.UserID},
				Version:       1,
				Data: &payloads.PurchaseFailedEvent{
					PurchaseID:    purchase.ID,
					UserID:        purchase.UserID,
					Reference:     purchase.Reference,
					Category:      purchase.Category,
					Vendor:        purchase.Vendor,
					AmountKobo:    purchase.AmountKobo,
					FailureReason: reason,
					ClosedAt:      time.Now(),
				},
			}); err != nil {
				return err
			}
		}

		if !refundPerformed {
			return nil
		}

		if err := s.wallets.Credit(ctx, tx, purchase.WalletID, purchase.AmountKobo, enums.WalletEntryTypeRefundCredit, purchase.Reference); err != nil {
			return err
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseRefunded,
			AggregateType: enums.AggregatePurchase,
			AggregateID:   purchase.ID,
			Actor:         &outbox.ActorRef{UserID: purchase.UserID},
			Version:       1,
			Data: &payloads.PurchaseRefundedEvent{
				PurchaseID: purchase.ID,
				UserID:     purchase.UserID,
				Reference:  purchase.Reference,
				AmountKobo: purchase.AmountKobo,
				RefundedAt: time.Now(),
			},
		})
	})
}

func payloadsPurchaseCompleted(purchase *models.Purchase, vendorRef string, closedAt time.Time) *payloads.PurchaseCompletedEvent {
	return &payloads.PurchaseCompletedEvent{
		PurchaseID: purchase.ID,
		UserID:     purchase.UserID,
		Reference:  purchase.Reference,
		Category:   purchase.Category,
		Vendor:     purchase.Vendor,
		AmountKobo: purchase.AmountKobo,
		PlanName:   purchase.PlanName,
		Network:    purchase.Network,
		ClosedAt:   closedAt,
	}
}
