package referrals

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Musty2002/sm-data-app-sub000/internal/rewards"
	"github.com/Musty2002/sm-data-app-sub000/pkg/config"
	"github.com/Musty2002/sm-data-app-sub000/pkg/db"
	"github.com/Musty2002/sm-data-app-sub000/pkg/db/models"
	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
	pkgerrors "github.com/Musty2002/sm-data-app-sub000/pkg/errors"
	"github.com/Musty2002/sm-data-app-sub000/pkg/logger"
	"github.com/Musty2002/sm-data-app-sub000/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type walletService interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Credit(ctx context.Context, tx *gorm.DB, walletID uuid.UUID, amountKobo int64, entryType enums.WalletEntryType, reference string) error
}

// Service pays the one-time referral bonus when the referred user's first
// qualifying purchase clears. The payout is guarded by an atomic status flip,
// so two concurrent qualifying purchases pay at most once.
type Service struct {
	tx      txRunner
	repo    Repository
	wallets walletService
	cfg     config.ReferralsConfig
	logg    *logger.Logger
}

// NewService wires the referral service.
func NewService(tx txRunner, repo Repository, wallets walletService, cfg config.ReferralsConfig, logg *logger.Logger) (*Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("repository required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{tx: tx, repo: repo, wallets: wallets, cfg: cfg, logg: logg}, nil
}

// Register records a referral link at signup. A user can be referred at most
// once.
func (s *Service) Register(ctx context.Context, referrerUserID, referredUserID uuid.UUID) (*models.Referral, error) {
	if referrerUserID == uuid.Nil || referredUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "referrer and referred user ids are required")
	}
	if referrerUserID == referredUserID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a user cannot refer themselves")
	}

	referral := &models.Referral{
		ReferrerUserID: referrerUserID,
		ReferredUserID: referredUserID,
		Status:         enums.ReferralStatusPending,
	}
	if err := s.repo.Create(ctx, referral); err != nil {
		if db.IsUniqueViolation(err, "ux_referrals_referred_user_id") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "user already has a referral link")
		}
		return nil, fmt.Errorf("creating referral: %w", err)
	}
	return referral, nil
}

// ListByReferrer returns the referrer's links, newest first.
func (s *Service) ListByReferrer(ctx context.Context, referrerUserID uuid.UUID, limit int) ([]models.Referral, error) {
	return s.repo.ListByReferrer(ctx, referrerUserID, limit)
}

// HandleQualifyingPurchase unlocks the referral bonus when the completed
// purchase qualifies. Non-qualifying purchases and users without a pending
// link are no-ops.
func (s *Service) HandleQualifyingPurchase(ctx context.Context, event payloads.PurchaseCompletedEvent) error {
	if !s.cfg.Enabled {
		return nil
	}
	if !s.qualifies(event) {
		return nil
	}

	referral, err := s.repo.FindByReferredUser(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("finding referral: %w", err)
	}
	if referral == nil || referral.Status != enums.ReferralStatusPending {
		return nil
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"referral_id": referral.ID,
		"reference":   event.Reference,
	})

	referrerWallet, err := s.wallets.GetOrCreate(ctx, referral.ReferrerUserID)
	if err != nil {
		return err
	}
	refereeWallet, err := s.wallets.GetOrCreate(ctx, referral.ReferredUserID)
	if err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		performed, err := repo.Complete(ctx, referral.ReferredUserID, s.cfg.ReferrerBonusKobo, s.cfg.RefereeBonusKobo)
		if err != nil {
			return fmt.Errorf("completing referral: %w", err)
		}
		if !performed {
			s.logg.Info(logCtx, "referral already completed")
			return nil
		}

		reference := "smd-ref-" + referral.ID.String()
		if s.cfg.ReferrerBonusKobo > 0 {
			if err := s.wallets.Credit(ctx, tx, referrerWallet.ID, s.cfg.ReferrerBonusKobo, enums.WalletEntryTypeReferralBonus, reference); err != nil {
				return fmt.Errorf("crediting referrer: %w", err)
			}
		}
		if s.cfg.RefereeBonusKobo > 0 {
			if err := s.wallets.Credit(ctx, tx, refereeWallet.ID, s.cfg.RefereeBonusKobo, enums.WalletEntryTypeReferralBonus, reference); err != nil {
				return fmt.Errorf("crediting referee: %w", err)
			}
		}

		if _, err := repo.MarkBonusPaid(ctx, referral.ID); err != nil {
			return fmt.Errorf("marking bonus paid: %w", err)
		}

		s.logg.Info(logCtx, "referral bonus paid")
		return nil
	})
}

func (s *Service) qualifies(event payloads.PurchaseCompletedEvent) bool {
	if event.Category != enums.PurchaseCategoryData {
		return false
	}
	return rewards.WholeGB(event.PlanName) >= s.cfg.MinQualifyingGB
}
