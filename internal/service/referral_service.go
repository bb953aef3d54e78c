package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"starwheel/internal/config"
	"starwheel/internal/infrastructure/lock"
	"starwheel/internal/model"
	"starwheel/internal/repository"
	"starwheel/pkg/idgen"

	"gorm.io/gorm"
)

// ReferralService owns the referral-edge invariant: a referred user gets
// exactly one referrer for their lifetime, and the referrer is rewarded
// exactly once.
//
// Two layers enforce that. The keyed lock rejects concurrent attempts for
// the same pair fast and cheaply, but it is only an optimization: across a
// crash, a restart, or a second server instance the final arbiter is the
// unique index on referral_edge.referred_id together with the
// insert-on-conflict-do-nothing. If the insert affects zero rows the
// attempt fails with ErrDuplicateReferral and credits nothing.
type ReferralService struct {
	runner    TxRunner
	cfg       *config.Config
	locks     lock.Service
	ledger    *LedgerService
	accounts  AccountStore
	referrals ReferralStore
	outbox    OutboxStore
}

func NewReferralService(db *gorm.DB, cfg *config.Config, locks lock.Service) *ReferralService {
	return &ReferralService{
		runner:    db,
		cfg:       cfg,
		locks:     locks,
		ledger:    NewLedgerService(db),
		accounts:  repository.NewAccountRepository(db),
		referrals: repository.NewReferralRepository(db),
		outbox:    repository.NewOutboxRepository(db),
	}
}

// newReferralService wires explicit dependencies, for tests.
func newReferralService(runner TxRunner, cfg *config.Config, locks lock.Service, ledger *LedgerService, accounts AccountStore, referrals ReferralStore, outbox OutboxStore) *ReferralService {
	return &ReferralService{
		runner:    runner,
		cfg:       cfg,
		locks:     locks,
		ledger:    ledger,
		accounts:  accounts,
		referrals: referrals,
		outbox:    outbox,
	}
}

type ActivationResult struct {
	ReferrerID      int64 `json:"referrer_id"`
	ReferredID      int64 `json:"referred_id"`
	RewardStars     int64 `json:"reward_stars"`
	FriendSpins     int64 `json:"friend_spins"`
	ReferrerBalance int64 `json:"referrer_balance"`
	ReferralCount   int64 `json:"referral_count"`
}

// Activate records that referredID was brought in by referrerID and pays
// the referrer's fixed reward.
//
// A held lock for the same pair fails immediately with
// ErrActivationInProgress: callers are idempotent retriers, not queuers,
// which keeps tail latency bounded under double-taps.
func (s *ReferralService) Activate(ctx context.Context, referrerID, referredID int64) (*ActivationResult, error) {
	if referrerID == referredID {
		return nil, ErrSelfReferral
	}

	key := fmt.Sprintf("referral:lock:%d:%d", referrerID, referredID)
	owner := idgen.GenerateLockToken()
	ttl := time.Duration(s.cfg.Business.ActivationLockSeconds) * time.Second

	acquired, err := s.locks.TryAcquire(ctx, key, owner, ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire activation lock: %w", err)
	}
	if !acquired {
		return nil, ErrActivationInProgress
	}
	defer func() {
		if err := s.locks.Release(ctx, key, owner); err != nil && !errors.Is(err, lock.ErrNotHeld) {
			log.Printf("[Referral] release lock %s: %v", key, err)
		}
	}()

	if _, err := s.accounts.GetByUserID(ctx, referrerID); err != nil {
		return nil, err
	}
	if _, err := s.accounts.GetByUserID(ctx, referredID); err != nil {
		return nil, err
	}

	// fast pre-check; the insert below still decides under concurrency
	already, err := s.referrals.HasEdgeForReferred(ctx, referredID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, ErrDuplicateReferral
	}

	rewardStars := s.cfg.Business.ReferralRewardStars
	friendSpins := s.cfg.Business.ReferralFriendSpins
	var result ActivationResult

	err = s.runner.Transaction(func(tx *gorm.DB) error {
		inserted, err := s.referrals.InsertEdge(ctx, tx, &model.ReferralEdge{
			ReferrerID: referrerID,
			ReferredID: referredID,
		})
		if err != nil {
			return err
		}
		if !inserted {
			// lost the race against another instance or a replay
			return ErrDuplicateReferral
		}

		balance, err := s.ledger.Credit(ctx, tx, referrerID, rewardStars,
			model.TransactionTypeReferralReward, fmt.Sprintf("referral of user %d", referredID))
		if err != nil {
			return err
		}

		if friendSpins > 0 {
			if err := s.accounts.AddFriendSpins(ctx, tx, referrerID, friendSpins); err != nil {
				return err
			}
		}

		// recompute from source rows, never increment in place, so the
		// counter survives manual data fixes
		count, err := s.referrals.CountByReferrer(ctx, tx, referrerID)
		if err != nil {
			return err
		}
		if err := s.accounts.SetReferralCount(ctx, tx, referrerID, count); err != nil {
			return err
		}

		result = ActivationResult{
			ReferrerID:      referrerID,
			ReferredID:      referredID,
			RewardStars:     rewardStars,
			FriendSpins:     friendSpins,
			ReferrerBalance: balance,
			ReferralCount:   count,
		}

		return s.enqueueActivationNotification(ctx, tx, &result)
	})

	if err != nil {
		return nil, err
	}

	log.Printf("[Referral] activated: referrer=%d referred=%d reward=%d count=%d",
		referrerID, referredID, rewardStars, result.ReferralCount)

	return &result, nil
}

// enqueueActivationNotification buffers the "referral activated" message
// for both parties. Delivery happens asynchronously via the outbox sender;
// a delivery failure is retried there and never rolls back the activation.
func (s *ReferralService) enqueueActivationNotification(ctx context.Context, tx *gorm.DB, result *ActivationResult) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"referrer_id":    result.ReferrerID,
		"referred_id":    result.ReferredID,
		"reward_stars":   result.RewardStars,
		"friend_spins":   result.FriendSpins,
		"referral_count": result.ReferralCount,
		"activated_at":   time.Now().Format(time.RFC3339),
	})

	return s.outbox.Create(ctx, tx, &model.OutboxMessage{
		MessageKey: fmt.Sprintf("%d:%d", result.ReferrerID, result.ReferredID),
		Topic:      s.cfg.Kafka.Topic.ReferralActivated,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	})
}
