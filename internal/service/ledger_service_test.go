package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"starwheel/internal/model"
	"starwheel/internal/repository"

	"gorm.io/gorm"
)

func TestLedger_DebitInsufficientFunds(t *testing.T) {
	m := newMemStore()
	ledger := newTestLedger(m)
	ctx := context.Background()

	m.seedAccount(1, 10)

	err := m.Transaction(func(tx *gorm.DB) error {
		_, err := ledger.Debit(ctx, tx, 1, 11, model.TransactionTypeSpinCost, "test")
		return err
	})
	if !errors.Is(err, repository.ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}

	if got := m.account(1).Balance; got != 10 {
		t.Fatalf("balance = %d, want 10 (failed debit must not move it)", got)
	}
	if got := len(m.transactionsFor(1)); got != 0 {
		t.Fatalf("%d ledger rows written for a failed debit, want 0", got)
	}
}

func TestLedger_TransactionChain(t *testing.T) {
	m := newMemStore()
	ledger := newTestLedger(m)
	ctx := context.Background()

	if _, err := ledger.Recharge(ctx, 1, 100); err != nil {
		t.Fatal(err)
	}
	err := m.Transaction(func(tx *gorm.DB) error {
		_, err := ledger.Debit(ctx, tx, 1, 30, model.TransactionTypeSpinCost, "spin")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	err = m.Transaction(func(tx *gorm.DB) error {
		_, err := ledger.Credit(ctx, tx, 1, 15, model.TransactionTypeSpinPrize, "prize")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	rows := m.transactionsFor(1)
	if len(rows) != 3 {
		t.Fatalf("%d ledger rows, want 3", len(rows))
	}

	// every row carries its post-mutation balance and the chain is
	// contiguous, so external reconciliation needs no state re-derivation
	wantAmounts := []int64{100, -30, 15}
	prevAfter := int64(0)
	for i, row := range rows {
		if row.Amount != wantAmounts[i] {
			t.Errorf("row %d amount = %d, want %d", i, row.Amount, wantAmounts[i])
		}
		if row.BalanceBefore != prevAfter {
			t.Errorf("row %d balance_before = %d, want %d", i, row.BalanceBefore, prevAfter)
		}
		if row.BalanceAfter != row.BalanceBefore+row.Amount {
			t.Errorf("row %d balance_after inconsistent", i)
		}
		if row.TransactionNo == "" {
			t.Errorf("row %d missing transaction number", i)
		}
		prevAfter = row.BalanceAfter
	}

	if got := m.account(1).Balance; got != 85 {
		t.Fatalf("balance = %d, want 85", got)
	}
}

func TestLedger_LifetimeEarnedOnlyForEarnedTypes(t *testing.T) {
	m := newMemStore()
	ledger := newTestLedger(m)
	ctx := context.Background()

	// a recharge is a top-up, not winnings
	if _, err := ledger.Recharge(ctx, 1, 50); err != nil {
		t.Fatal(err)
	}
	if got := m.account(1).LifetimeEarned; got != 0 {
		t.Fatalf("lifetime_earned after recharge = %d, want 0", got)
	}

	err := m.Transaction(func(tx *gorm.DB) error {
		_, err := ledger.Credit(ctx, tx, 1, 15, model.TransactionTypeSpinPrize, "prize")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := m.account(1).LifetimeEarned; got != 15 {
		t.Fatalf("lifetime_earned after prize = %d, want 15", got)
	}

	// spending reduces the balance but never lifetime_earned
	err = m.Transaction(func(tx *gorm.DB) error {
		_, err := ledger.Debit(ctx, tx, 1, 40, model.TransactionTypeSpinCost, "spin")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := m.account(1).LifetimeEarned; got != 15 {
		t.Fatalf("lifetime_earned after debit = %d, want 15", got)
	}
}

func TestLedger_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	m := newMemStore()
	ledger := newTestLedger(m)
	ctx := context.Background()

	const initial = 100
	const debit = 30
	const attempts = 10

	m.seedAccount(1, initial)

	var successes int64
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.Transaction(func(tx *gorm.DB) error {
				_, err := ledger.Debit(ctx, tx, 1, debit, model.TransactionTypeSpinCost, "race")
				return err
			})
			if err == nil {
				atomic.AddInt64(&successes, 1)
			} else if !errors.Is(err, repository.ErrInsufficientFunds) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	// 100 / 30: exactly 3 debits fit
	if successes != 3 {
		t.Fatalf("%d debits succeeded, want 3", successes)
	}

	final := m.account(1).Balance
	if final != initial-successes*debit {
		t.Fatalf("final balance %d, want %d", final, initial-successes*debit)
	}
	if final < 0 {
		t.Fatalf("balance went negative: %d", final)
	}
	if got := int64(len(m.transactionsFor(1))); got != successes {
		t.Fatalf("%d ledger rows, want %d (one per successful debit)", got, successes)
	}
}

func TestLedger_RejectsNonPositiveAmounts(t *testing.T) {
	m := newMemStore()
	ledger := newTestLedger(m)
	ctx := context.Background()

	m.seedAccount(1, 10)

	err := m.Transaction(func(tx *gorm.DB) error {
		_, err := ledger.Debit(ctx, tx, 1, 0, model.TransactionTypeSpinCost, "zero")
		return err
	})
	if err == nil {
		t.Fatal("zero debit should be rejected")
	}

	err = m.Transaction(func(tx *gorm.DB) error {
		_, err := ledger.Credit(ctx, tx, 1, -5, model.TransactionTypeSpinPrize, "negative")
		return err
	})
	if err == nil {
		t.Fatal("negative credit should be rejected")
	}

	if _, err := ledger.Recharge(ctx, 1, 0); err == nil {
		t.Fatal("zero recharge should be rejected")
	}
}
