package model

import (
	"time"
)

const (
	SpinCategoryNormal = "NORMAL" // paid from the star balance
	SpinCategoryFriend = "FRIEND" // paid with a friend-spin entitlement, zero star cost
)

// SpinRecord is the append-only spin history. One row per committed spin
// attempt; an aborted spin (insufficient funds, storage failure) writes
// nothing.
type SpinRecord struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SpinNo         string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"spin_no"`
	UserID         int64     `gorm:"index;not null" json:"user_id"`
	Category       string    `gorm:"type:varchar(20);not null" json:"category"`
	Cost           int64     `gorm:"not null" json:"cost"`
	Outcome        string    `gorm:"type:varchar(20);not null" json:"outcome"` // real outcome kind
	Payout         int64     `gorm:"not null" json:"payout"`
	DisplayVariant string    `gorm:"type:varchar(32)" json:"display_variant"` // cosmetic only, carries no payout meaning
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (SpinRecord) TableName() string {
	return "spin_record"
}
