package repository

import (
	"context"
	"errors"

	"starwheel/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountInactive   = errors.New("account is deactivated")
	ErrInsufficientFunds = errors.New("insufficient star balance")
	ErrNoFriendSpins     = errors.New("no friend spins available")
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *AccountRepository) GetByUserID(ctx context.Context, userID int64) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetOrCreate returns the account for userID, creating an empty one on
// first contact. The insert no-ops on conflict so two concurrent first
// contacts both end up with the same row.
func (r *AccountRepository) GetOrCreate(ctx context.Context, userID int64) (*model.Account, error) {
	account, err := r.GetByUserID(ctx, userID)
	if err == nil {
		return account, nil
	}

	if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	newAccount := &model.Account{
		UserID: userID,
		Active: true,
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(newAccount).Error

	if err != nil {
		return nil, err
	}

	return r.GetByUserID(ctx, userID)
}

// Debit subtracts amount from the balance as one conditional UPDATE: the
// "balance >= amount" check and the subtraction are a single statement at
// the storage layer, so two concurrent debits can never both pass on a
// stale balance. Returns the post-debit balance.
func (r *AccountRepository) Debit(ctx context.Context, tx *gorm.DB, userID int64, amount int64) (int64, error) {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.Account{}).
		Where("user_id = ? AND active = ? AND balance >= ?", userID, true, amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))

	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected == 0 {
		// zero rows: work out which precondition failed
		account, err := r.getForUpdate(ctx, tx, userID)
		if err != nil {
			return 0, err
		}
		if !account.Active {
			return 0, ErrAccountInactive
		}
		return 0, ErrInsufficientFunds
	}

	return r.balanceOf(ctx, tx, userID)
}

// Credit adds amount to the balance unconditionally. Earned credits also
// bump lifetime_earned; spending never reduces it. Returns the post-credit
// balance.
func (r *AccountRepository) Credit(ctx context.Context, tx *gorm.DB, userID int64, amount int64, earned bool) (int64, error) {
	if tx == nil {
		tx = r.db
	}

	updates := map[string]interface{}{
		"balance": gorm.Expr("balance + ?", amount),
	}
	if earned {
		updates["lifetime_earned"] = gorm.Expr("lifetime_earned + ?", amount)
	}

	result := tx.WithContext(ctx).
		Model(&model.Account{}).
		Where("user_id = ?", userID).
		UpdateColumns(updates)

	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected == 0 {
		return 0, ErrAccountNotFound
	}

	return r.balanceOf(ctx, tx, userID)
}

// ConsumeFriendSpin spends one friend-spin entitlement, same conditional
// UPDATE discipline as Debit.
func (r *AccountRepository) ConsumeFriendSpin(ctx context.Context, tx *gorm.DB, userID int64) error {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.Account{}).
		Where("user_id = ? AND active = ? AND friend_spins >= 1", userID, true).
		UpdateColumn("friend_spins", gorm.Expr("friend_spins - 1"))

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		account, err := r.getForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !account.Active {
			return ErrAccountInactive
		}
		return ErrNoFriendSpins
	}

	return nil
}

func (r *AccountRepository) AddFriendSpins(ctx context.Context, tx *gorm.DB, userID int64, n int64) error {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.Account{}).
		Where("user_id = ?", userID).
		UpdateColumn("friend_spins", gorm.Expr("friend_spins + ?", n))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// SetReferralCount overwrites the denormalized counter with a freshly
// counted value. The caller recomputes from referral_edge rather than
// incrementing, so manual data fixes stay consistent.
func (r *AccountRepository) SetReferralCount(ctx context.Context, tx *gorm.DB, userID int64, count int64) error {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.Account{}).
		Where("user_id = ?", userID).
		UpdateColumn("referral_count", count)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Deactivate soft-disables the account. Rows are never deleted.
func (r *AccountRepository) Deactivate(ctx context.Context, userID int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("user_id = ?", userID).
		UpdateColumn("active", false)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// List pages through all accounts, for the ledger audit job.
func (r *AccountRepository) List(ctx context.Context, offset, limit int) ([]*model.Account, error) {
	var accounts []*model.Account
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&accounts).Error
	return accounts, err
}

func (r *AccountRepository) getForUpdate(ctx context.Context, tx *gorm.DB, userID int64) (*model.Account, error) {
	var account model.Account
	err := tx.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) balanceOf(ctx context.Context, tx *gorm.DB, userID int64) (int64, error) {
	account, err := r.getForUpdate(ctx, tx, userID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}
