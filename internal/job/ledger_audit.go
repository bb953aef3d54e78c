package job

import (
	"context"
	"log"
	"time"

	"starwheel/internal/repository"

	"gorm.io/gorm"
)

// LedgerAuditJob reconciles the star ledger against account balances.
//
// Every ledger row carries its post-mutation balance, so the chain for one
// user must be contiguous (each row's balance_before equals the previous
// row's balance_after) and the newest row must match the account balance
// unless newer activity raced the read. Anomalies are logged for operator
// follow-up; the job never mutates anything.
type LedgerAuditJob struct {
	db              *gorm.DB
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
	stopCh          chan struct{}
	interval        time.Duration
	batchSize       int
	chainDepth      int
}

func NewLedgerAuditJob(db *gorm.DB) *LedgerAuditJob {
	return &LedgerAuditJob{
		db:              db,
		accountRepo:     repository.NewAccountRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		stopCh:          make(chan struct{}),
		interval:        5 * time.Minute,
		batchSize:       200,
		chainDepth:      50,
	}
}

func (j *LedgerAuditJob) Start(ctx context.Context) {
	log.Println("[LedgerAudit] started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[LedgerAudit] context cancelled, exiting")
			return
		case <-j.stopCh:
			log.Println("[LedgerAudit] stopped")
			return
		case <-ticker.C:
			j.auditAll(ctx)
		}
	}
}

func (j *LedgerAuditJob) Stop() {
	close(j.stopCh)
}

func (j *LedgerAuditJob) auditAll(ctx context.Context) {
	offset := 0
	checked, anomalies := 0, 0

	for {
		accounts, err := j.accountRepo.List(ctx, offset, j.batchSize)
		if err != nil {
			log.Printf("[LedgerAudit] failed to list accounts: %v", err)
			return
		}
		if len(accounts) == 0 {
			break
		}

		for _, account := range accounts {
			ok, err := j.auditAccount(ctx, account.UserID, account.Balance)
			if err != nil {
				log.Printf("[LedgerAudit] audit failed: userID=%d, err=%v", account.UserID, err)
				continue
			}
			checked++
			if !ok {
				anomalies++
			}
		}

		offset += j.batchSize
	}

	if anomalies > 0 {
		log.Printf("[LedgerAudit] pass complete: %d accounts checked, %d anomalies", checked, anomalies)
	}
}

func (j *LedgerAuditJob) auditAccount(ctx context.Context, userID, balance int64) (bool, error) {
	chain, err := j.transactionRepo.ListRecentAscending(ctx, userID, j.chainDepth)
	if err != nil {
		return false, err
	}
	if len(chain) == 0 {
		return true, nil
	}

	ok := true
	for i := 1; i < len(chain); i++ {
		if chain[i].BalanceBefore != chain[i-1].BalanceAfter {
			log.Printf("[LedgerAudit] broken chain: userID=%d, txn=%s before=%d, prev after=%d",
				userID, chain[i].TransactionNo, chain[i].BalanceBefore, chain[i-1].BalanceAfter)
			ok = false
		}
		if chain[i].BalanceAfter != chain[i].BalanceBefore+chain[i].Amount {
			log.Printf("[LedgerAudit] inconsistent row: userID=%d, txn=%s", userID, chain[i].TransactionNo)
			ok = false
		}
	}

	last := chain[len(chain)-1]
	if last.BalanceAfter != balance {
		// a mismatch here can be a race with in-flight activity, so it is
		// reported but counted separately from chain breaks
		log.Printf("[LedgerAudit] tail mismatch (possible in-flight activity): userID=%d, ledger=%d, account=%d",
			userID, last.BalanceAfter, balance)
	}

	return ok, nil
}
