package service

import (
	"context"

	"starwheel/internal/model"
	"starwheel/internal/repository"

	"gorm.io/gorm"
)

// AccountService serves read paths (profile, history, leaderboard feeds)
// and the soft-deactivate admin action. All balance mutations live in
// LedgerService.
type AccountService struct {
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
	spinRepo        *repository.SpinRepository
	referralRepo    *repository.ReferralRepository
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{
		accountRepo:     repository.NewAccountRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		spinRepo:        repository.NewSpinRepository(db),
		referralRepo:    repository.NewReferralRepository(db),
	}
}

func (s *AccountService) GetAccount(ctx context.Context, userID int64) (*model.Account, error) {
	return s.accountRepo.GetOrCreate(ctx, userID)
}

func (s *AccountService) Deactivate(ctx context.Context, userID int64) error {
	return s.accountRepo.Deactivate(ctx, userID)
}

func (s *AccountService) ListTransactions(ctx context.Context, userID int64, page, pageSize int) ([]*model.StarTransaction, int64, error) {
	return s.transactionRepo.ListByUserID(ctx, userID, page, pageSize)
}

func (s *AccountService) ListSpins(ctx context.Context, userID int64, page, pageSize int) ([]*model.SpinRecord, int64, error) {
	return s.spinRepo.ListByUserID(ctx, userID, page, pageSize)
}

func (s *AccountService) ListReferrals(ctx context.Context, referrerID int64, page, pageSize int) ([]*model.ReferralEdge, int64, error) {
	return s.referralRepo.ListByReferrer(ctx, referrerID, page, pageSize)
}
