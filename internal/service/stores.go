package service

import (
	"context"
	"database/sql"
	"errors"

	"starwheel/internal/model"

	"gorm.io/gorm"
)

// Errors produced by the activation flow. Storage-level sentinels
// (insufficient funds, account not found) come from the repository package.
var (
	ErrSelfReferral         = errors.New("self-referral is not allowed")
	ErrDuplicateReferral    = errors.New("user was already referred")
	ErrActivationInProgress = errors.New("activation already in progress for this pair")
)

// TxRunner runs a function as one commit-or-rollback unit. *gorm.DB
// satisfies it directly; tests substitute a serializing in-memory runner.
type TxRunner interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// The store interfaces below are what the services need from the
// repository layer. The gorm repositories implement them one to one; the
// tests implement them with snapshot-rollback fakes.

type AccountStore interface {
	GetOrCreate(ctx context.Context, userID int64) (*model.Account, error)
	GetByUserID(ctx context.Context, userID int64) (*model.Account, error)
	Debit(ctx context.Context, tx *gorm.DB, userID int64, amount int64) (int64, error)
	Credit(ctx context.Context, tx *gorm.DB, userID int64, amount int64, earned bool) (int64, error)
	ConsumeFriendSpin(ctx context.Context, tx *gorm.DB, userID int64) error
	AddFriendSpins(ctx context.Context, tx *gorm.DB, userID int64, n int64) error
	SetReferralCount(ctx context.Context, tx *gorm.DB, userID int64, count int64) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx *gorm.DB, trans *model.StarTransaction) error
}

type SpinStore interface {
	Create(ctx context.Context, tx *gorm.DB, record *model.SpinRecord) error
}

type ReferralStore interface {
	InsertEdge(ctx context.Context, tx *gorm.DB, edge *model.ReferralEdge) (bool, error)
	HasEdgeForReferred(ctx context.Context, referredID int64) (bool, error)
	CountByReferrer(ctx context.Context, tx *gorm.DB, referrerID int64) (int64, error)
}

type OutboxStore interface {
	Create(ctx context.Context, tx *gorm.DB, msg *model.OutboxMessage) error
}
