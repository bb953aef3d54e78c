package model

import (
	"time"
)

// Account holds a user's star balance. It is the core row of the whole
// rewards system: every spin cost and every prize or referral payout
// lands here.
//
// Invariant: balance >= 0, enforced by the conditional UPDATE in the
// account repository, never by application-level read-then-write.
// Accounts are created on first contact and soft-deactivated, never deleted.
type Account struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance        int64     `gorm:"not null;default:0" json:"balance"`
	LifetimeEarned int64     `gorm:"not null;default:0" json:"lifetime_earned"` // monotonically non-decreasing
	ReferralCount  int64     `gorm:"not null;default:0" json:"referral_count"`  // recomputed from referral_edge, never incremented in place
	FriendSpins    int64     `gorm:"not null;default:0" json:"friend_spins"`    // free-spin entitlements earned from referrals
	Active         bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "account"
}
