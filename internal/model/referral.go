package model

import (
	"time"
)

// ReferralEdge records that referred_id was brought in by referrer_id.
//
// The unique index on referred_id is the final arbiter of the
// one-referrer-per-lifetime rule: the edge is inserted with
// ON CONFLICT DO NOTHING, so even if the in-process activation lock is
// bypassed (crash, restart, a second instance) the database rejects a
// second edge for the same referred user. Rows are immutable once written.
type ReferralEdge struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ReferrerID int64     `gorm:"index;not null" json:"referrer_id"`
	ReferredID int64     `gorm:"uniqueIndex;not null" json:"referred_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ReferralEdge) TableName() string {
	return "referral_edge"
}
