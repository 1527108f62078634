package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Musty2002/sm-data-app-sub000/pkg/db/models"
	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
	pkgerrors "github.com/Musty2002/sm-data-app-sub000/pkg/errors"
	"github.com/Musty2002/sm-data-app-sub000/pkg/logger"
)

// Service owns wallet balance mutations. Every mutation appends a wallet
// entry in the same transaction, so the entries replay to the balance.
type Service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// GetOrCreate returns the user's wallet, creating an empty one on first use.
func (s *Service) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	wallet, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading wallet")
	}
	if wallet != nil {
		return wallet, nil
	}
	wallet = &models.Wallet{UserID: userID}
	if err := s.repo.Create(ctx, wallet); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating wallet")
	}
	return wallet, nil
}

// Reserve debits the purchase amount inside the supplied transaction. The
// decrement is conditional on sufficient balance; a miss surfaces as
// INSUFFICIENT_FUNDS without mutating anything.
func (s *Service) Reserve(ctx context.Context, tx *gorm.DB, walletID uuid.UUID, amountKobo int64, reference string) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for wallet reserve")
	}
	if amountKobo <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reserve amount must be positive")
	}

	repo := s.repo.WithTx(tx)
	debited, err := repo.Debit(ctx, walletID, amountKobo)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserving wallet balance")
	}
	if !debited {
		return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "wallet balance below purchase amount").
			WithDetails(map[string]any{"amount_kobo": amountKobo})
	}

	entry := &models.WalletEntry{
		WalletID:   walletID,
		Type:       enums.WalletEntryTypePurchaseDebit,
		AmountKobo: -amountKobo,
		Reference:  reference,
	}
	if err := repo.AppendEntry(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording debit entry")
	}
	return nil
}

// Credit returns funds to the wallet inside the supplied transaction and
// appends the matching entry.
func (s *Service) Credit(ctx context.Context, tx *gorm.DB, walletID uuid.UUID, amountKobo int64, entryType enums.WalletEntryType, reference string) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for wallet credit")
	}
	if amountKobo <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "credit amount must be positive")
	}
	if !entryType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown wallet entry type %q", entryType))
	}

	repo := s.repo.WithTx(tx)
	if err := repo.Credit(ctx, walletID, amountKobo); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "crediting wallet balance")
	}

	entry := &models.WalletEntry{
		WalletID:   walletID,
		Type:       entryType,
		AmountKobo: amountKobo,
		Reference:  reference,
	}
	if err := repo.AppendEntry(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording credit entry")
	}
	return nil
}

// History returns the most recent wallet entries for the given wallet.
func (s *Service) History(ctx context.Context, walletID uuid.UUID, limit int) ([]models.WalletEntry, error) {
	if walletID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet id is required")
	}
	entries, err := s.repo.ListEntries(ctx, walletID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing wallet entries")
	}
	return entries, nil
}
