package service

import (
	"context"
	"errors"

	"starwheel/internal/model"
	"starwheel/internal/repository"
	"starwheel/pkg/idgen"

	"gorm.io/gorm"
)

// LedgerService is the single authority over star balances. Every mutation
// goes through Debit or Credit, and every mutation appends exactly one
// StarTransaction row carrying the post-mutation balance. Nothing else in
// the codebase writes to account.balance.
type LedgerService struct {
	runner       TxRunner
	accounts     AccountStore
	transactions TransactionStore
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{
		runner:       db,
		accounts:     repository.NewAccountRepository(db),
		transactions: repository.NewTransactionRepository(db),
	}
}

// newLedgerService wires explicit dependencies, for tests.
func newLedgerService(runner TxRunner, accounts AccountStore, transactions TransactionStore) *LedgerService {
	return &LedgerService{runner: runner, accounts: accounts, transactions: transactions}
}

// Debit subtracts amount inside the caller's transaction. The balance
// check and subtraction are one conditional UPDATE at the storage layer;
// repository.ErrInsufficientFunds means the update matched zero rows.
// Returns the post-debit balance.
func (s *LedgerService) Debit(ctx context.Context, tx *gorm.DB, userID int64, amount int64, transactionType, remark string) (int64, error) {
	if amount <= 0 {
		return 0, errors.New("debit amount must be positive")
	}

	newBalance, err := s.accounts.Debit(ctx, tx, userID, amount)
	if err != nil {
		return 0, err
	}

	trans := &model.StarTransaction{
		TransactionNo: idgen.GenerateTransactionNo(),
		UserID:        userID,
		Amount:        -amount,
		Type:          transactionType,
		BalanceBefore: newBalance + amount,
		BalanceAfter:  newBalance,
		Remark:        remark,
	}
	if err := s.transactions.Create(ctx, tx, trans); err != nil {
		return 0, err
	}

	return newBalance, nil
}

// Credit adds amount inside the caller's transaction. Earned transaction
// types also raise lifetime_earned. Returns the post-credit balance.
func (s *LedgerService) Credit(ctx context.Context, tx *gorm.DB, userID int64, amount int64, transactionType, remark string) (int64, error) {
	if amount <= 0 {
		return 0, errors.New("credit amount must be positive")
	}

	newBalance, err := s.accounts.Credit(ctx, tx, userID, amount, model.IsEarnedType(transactionType))
	if err != nil {
		return 0, err
	}

	trans := &model.StarTransaction{
		TransactionNo: idgen.GenerateTransactionNo(),
		UserID:        userID,
		Amount:        amount,
		Type:          transactionType,
		BalanceBefore: newBalance - amount,
		BalanceAfter:  newBalance,
		Remark:        remark,
	}
	if err := s.transactions.Create(ctx, tx, trans); err != nil {
		return 0, err
	}

	return newBalance, nil
}

// Recharge is the standalone top-up credit, wrapped in its own
// transaction. Creates the account on first contact.
func (s *LedgerService) Recharge(ctx context.Context, userID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, errors.New("recharge amount must be positive")
	}

	if _, err := s.accounts.GetOrCreate(ctx, userID); err != nil {
		return 0, err
	}

	var balance int64
	err := s.runner.Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = s.Credit(ctx, tx, userID, amount, model.TransactionTypeRecharge, "recharge")
		return err
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}
