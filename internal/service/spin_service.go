package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"starwheel/internal/config"
	"starwheel/internal/model"
	"starwheel/internal/prize"
	"starwheel/internal/repository"
	"starwheel/pkg/idgen"

	"gorm.io/gorm"
)

// SpinService runs one spin as a single atomic unit:
//
//	debit cost -> draw prize -> credit payout -> append spin record -> commit
//
// Any step failing rolls back the whole unit, including an already-applied
// debit, so the caller observes either the full spin or nothing. The prize
// is drawn only after the cost is reserved, which ties every drawn prize
// to a committed cost.
type SpinService struct {
	runner   TxRunner
	cfg      *config.Config
	ledger   *LedgerService
	accounts AccountStore
	spins    SpinStore
	outbox   OutboxStore
	selector *prize.Selector
}

func NewSpinService(db *gorm.DB, cfg *config.Config, selector *prize.Selector) *SpinService {
	return &SpinService{
		runner:   db,
		cfg:      cfg,
		ledger:   NewLedgerService(db),
		accounts: repository.NewAccountRepository(db),
		spins:    repository.NewSpinRepository(db),
		outbox:   repository.NewOutboxRepository(db),
		selector: selector,
	}
}

// newSpinService wires explicit dependencies, for tests.
func newSpinService(runner TxRunner, cfg *config.Config, ledger *LedgerService, accounts AccountStore, spins SpinStore, outbox OutboxStore, selector *prize.Selector) *SpinService {
	return &SpinService{
		runner:   runner,
		cfg:      cfg,
		ledger:   ledger,
		accounts: accounts,
		spins:    spins,
		outbox:   outbox,
		selector: selector,
	}
}

type SpinResult struct {
	SpinNo  string        `json:"spin_no"`
	Balance int64         `json:"balance"`
	Prize   prize.Outcome `json:"prize"`
}

// Spin executes one spin for userID. Friend-category spins cost no stars
// and consume one friend-spin entitlement instead.
func (s *SpinService) Spin(ctx context.Context, userID int64, category string, cost int64) (*SpinResult, error) {
	switch category {
	case model.SpinCategoryNormal:
	case model.SpinCategoryFriend:
		cost = 0
	default:
		return nil, fmt.Errorf("unknown spin category %q", category)
	}

	account, err := s.accounts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, repository.ErrAccountInactive
	}

	spinNo := idgen.GenerateSpinNo()
	var result SpinResult

	err = s.runner.Transaction(func(tx *gorm.DB) error {
		balance := account.Balance

		// reserve the cost first; an insufficient balance aborts before
		// any prize is drawn, so no phantom spin can exist
		if category == model.SpinCategoryFriend {
			if err := s.accounts.ConsumeFriendSpin(ctx, tx, userID); err != nil {
				return err
			}
		}
		if cost > 0 {
			var err error
			balance, err = s.ledger.Debit(ctx, tx, userID, cost, model.TransactionTypeSpinCost, "spin "+spinNo)
			if err != nil {
				return err
			}
		}

		outcome := s.selector.Draw()

		if payout := outcome.StarPayout(); payout > 0 {
			var err error
			balance, err = s.ledger.Credit(ctx, tx, userID, payout, model.TransactionTypeSpinPrize, "spin "+spinNo)
			if err != nil {
				return err
			}
		}

		record := &model.SpinRecord{
			SpinNo:         spinNo,
			UserID:         userID,
			Category:       category,
			Cost:           cost,
			Outcome:        string(outcome.Kind),
			Payout:         outcome.Payout,
			DisplayVariant: outcome.DisplayVariant,
		}
		if err := s.spins.Create(ctx, tx, record); err != nil {
			return err
		}

		if err := s.enqueueSpinNotification(ctx, tx, userID, spinNo, balance, outcome); err != nil {
			return err
		}

		result = SpinResult{
			SpinNo:  spinNo,
			Balance: balance,
			Prize:   outcome,
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Printf("[Spin] committed: spinNo=%s userID=%d category=%s outcome=%s payout=%d balance=%d",
		spinNo, userID, category, result.Prize.Kind, result.Prize.Payout, result.Balance)

	return &result, nil
}

func (s *SpinService) enqueueSpinNotification(ctx context.Context, tx *gorm.DB, userID int64, spinNo string, balance int64, outcome prize.Outcome) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"spin_no":         spinNo,
		"user_id":         userID,
		"outcome":         outcome.Kind,
		"payout":          outcome.Payout,
		"display_variant": outcome.DisplayVariant,
		"balance":         balance,
		"spun_at":         time.Now().Format(time.RFC3339),
	})

	return s.outbox.Create(ctx, tx, &model.OutboxMessage{
		MessageKey: spinNo,
		Topic:      s.cfg.Kafka.Topic.SpinResult,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	})
}
