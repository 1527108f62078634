package rewards

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Musty2002/sm-data-app-sub000/pkg/config"
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

// Service computes cashback from completed purchases and manages the cashback
// balance. Awards are keyed by purchase reference so a redelivered event never
// credits twice.
type Service struct {
	tx      txRunner
	repo    Repository
	wallets walletService
	cfg     config.RewardsConfig
	logg    *logger.Logger
}

// NewService wires the cashback service.
func NewService(tx txRunner, repo Repository, wallets walletService, cfg config.RewardsConfig, logg *logger.Logger) (*Service, error) {
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

// Award credits cashback for a completed purchase. A zero computed amount is
// a no-op. The award entry's unique reference makes replays harmless.
func (s *Service) Award(ctx context.Context, event payloads.PurchaseCompletedEvent) error {
	if !s.cfg.CashbackEnabled {
		return nil
	}

	wholeGB, amount := s.computeAward(event)
	if amount <= 0 {
		return nil
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"reference":     event.Reference,
		"user_id":       event.UserID,
		"cashback_kobo": amount,
	})

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := s.ensureBalance(ctx, repo, event.UserID); err != nil {
			return err
		}

		inserted, err := repo.InsertEntry(ctx, &models.CashbackEntry{
			UserID:     event.UserID,
			Reference:  event.Reference,
			AmountKobo: amount,
			PlanName:   event.PlanName,
			WholeGB:    wholeGB,
		})
		if err != nil {
			return fmt.Errorf("inserting cashback entry: %w", err)
		}
		if !inserted {
			s.logg.Info(logCtx, "cashback already awarded for reference")
			return nil
		}

		if err := repo.AddToBalance(ctx, event.UserID, amount); err != nil {
			return fmt.Errorf("crediting cashback balance: %w", err)
		}

		s.logg.Info(logCtx, "cashback awarded")
		return nil
	})
}

// Balance returns the user's cashback balance, zero-valued when the user has
// never earned cashback.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (*models.CashbackBalance, error) {
	balance, err := s.repo.FindBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("finding cashback balance: %w", err)
	}
	if balance == nil {
		return &models.CashbackBalance{UserID: userID}, nil
	}
	return balance, nil
}

// History lists recent cashback awards for the user.
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.CashbackEntry, error) {
	return s.repo.ListEntries(ctx, userID, limit)
}

// Withdraw moves earned cashback into the spendable wallet. The cashback
// debit is a conditional decrement, so concurrent withdrawals cannot
// overdraw the cashback balance.
func (s *Service) Withdraw(ctx context.Context, userID uuid.UUID, amountKobo int64) error {
	if amountKobo <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "withdrawal amount must be positive")
	}
	if amountKobo < s.cfg.MinWithdrawalKobo {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("minimum withdrawal is %d kobo", s.cfg.MinWithdrawalKobo))
	}

	wallet, err := s.wallets.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}

	reference := "smd-cbw-" + uuid.NewString()
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"reference":   reference,
		"user_id":     userID,
		"amount_kobo": amountKobo,
	})

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		debited, err := s.repo.WithTx(tx).DebitBalance(ctx, userID, amountKobo)
		if err != nil {
			return fmt.Errorf("debiting cashback balance: %w", err)
		}
		if !debited {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "cashback balance below withdrawal amount")
		}
		return s.wallets.Credit(ctx, tx, wallet.ID, amountKobo, enums.WalletEntryTypeCashbackCredit, reference)
	})
	if err != nil {
		return err
	}

	s.logg.Info(logCtx, "cashback withdrawn to wallet")
	return nil
}

func (s *Service) computeAward(event payloads.PurchaseCompletedEvent) (int, int64) {
	switch event.Category {
	case enums.PurchaseCategoryData:
		wholeGB := WholeGB(event.PlanName)
		return wholeGB, int64(wholeGB) * s.cfg.CashbackPerGBKobo
	case enums.PurchaseCategoryAirtime:
		if s.cfg.DataCategoryOnlyAward || s.cfg.AirtimeUnitKobo <= 0 {
			return 0, 0
		}
		units := event.AmountKobo / s.cfg.AirtimeUnitKobo
		return 0, units * s.cfg.AirtimePerUnitKobo
	default:
		return 0, 0
	}
}

func (s *Service) ensureBalance(ctx context.Context, repo Repository, userID uuid.UUID) error {
	balance, err := repo.FindBalance(ctx, userID)
	if err != nil {
		return fmt.Errorf("finding cashback balance: %w", err)
	}
	if balance != nil {
		return nil
	}
	return repo.CreateBalance(ctx, &models.CashbackBalance{UserID: userID})
}
