package model

import (
	"time"
)

// ============================================================================
// Transaction types
// ============================================================================

const (
	TransactionTypeRecharge       = "RECHARGE"        // admin/top-up credit
	TransactionTypeSpinCost       = "SPIN_COST"       // debit for a paid spin
	TransactionTypeSpinPrize      = "SPIN_PRIZE"      // credit for a winning spin
	TransactionTypeReferralReward = "REFERRAL_REWARD" // credit for a successful referral
)

// IsEarnedType reports whether a transaction type counts toward the
// account's lifetime_earned counter. Spending never reduces it.
func IsEarnedType(transactionType string) bool {
	switch transactionType {
	case TransactionTypeSpinPrize, TransactionTypeReferralReward:
		return true
	}
	return false
}

// ============================================================================
// Ledger entry
// ============================================================================

// StarTransaction is the append-only star ledger.
//
// Design rules:
// 1. Append only. Rows are never updated or deleted, so the table is the
//    audit trail of record.
// 2. Every row carries the balance before and after the mutation, so an
//    external reconciler can verify the chain without re-deriving state.
type StarTransaction struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"`
	UserID        int64     `gorm:"index;not null" json:"user_id"`
	Amount        int64     `gorm:"not null" json:"amount"` // positive for credit, negative for debit
	Type          string    `gorm:"type:varchar(32);not null" json:"type"`
	BalanceBefore int64     `gorm:"not null" json:"balance_before"`
	BalanceAfter  int64     `gorm:"not null" json:"balance_after"`
	Remark        string    `gorm:"type:varchar(256)" json:"remark"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (StarTransaction) TableName() string {
	return "star_transaction"
}
