package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"starwheel/internal/config"
	"starwheel/internal/model"
	"starwheel/internal/repository"

	"gorm.io/gorm"
)

var errForcedStorage = errors.New("forced storage failure")

// memStore is the in-memory storage fake behind the service tests. It
// implements every store interface plus TxRunner. Transaction serializes
// units with one mutex and restores a snapshot on error, mirroring the
// commit-or-rollback and debit-serialization semantics the real database
// provides.
type memStore struct {
	txMu sync.Mutex // serializes whole transactions
	mu   sync.Mutex // guards state within a step

	accounts     map[int64]*model.Account
	transactions []*model.StarTransaction
	spins        []*model.SpinRecord
	edges        map[int64]int64 // referredID -> referrerID
	outbox       []*model.OutboxMessage

	// fault injection
	failSpinCreate   bool
	failEarnedCredit bool
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[int64]*model.Account),
		edges:    make(map[int64]int64),
	}
}

type snapshot struct {
	accounts     map[int64]*model.Account
	transactions []*model.StarTransaction
	spins        []*model.SpinRecord
	edges        map[int64]int64
	outbox       []*model.OutboxMessage
}

func (m *memStore) snapshot() snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := snapshot{
		accounts:     make(map[int64]*model.Account, len(m.accounts)),
		transactions: append([]*model.StarTransaction(nil), m.transactions...),
		spins:        append([]*model.SpinRecord(nil), m.spins...),
		edges:        make(map[int64]int64, len(m.edges)),
		outbox:       append([]*model.OutboxMessage(nil), m.outbox...),
	}
	for id, a := range m.accounts {
		cp := *a
		s.accounts[id] = &cp
	}
	for k, v := range m.edges {
		s.edges[k] = v
	}
	return s
}

func (m *memStore) restore(s snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accounts = s.accounts
	m.transactions = s.transactions
	m.spins = s.spins
	m.edges = s.edges
	m.outbox = s.outbox
}

// Transaction implements TxRunner.
func (m *memStore) Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fc(nil); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// ---- AccountStore ----

func (m *memStore) seedAccount(userID, balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[userID] = &model.Account{UserID: userID, Balance: balance, Active: true}
}

func (m *memStore) account(userID int64) model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.accounts[userID]
}

func (m *memStore) GetOrCreate(_ context.Context, userID int64) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.accounts[userID]; ok {
		cp := *a
		return &cp, nil
	}
	a := &model.Account{UserID: userID, Active: true}
	m.accounts[userID] = a
	cp := *a
	return &cp, nil
}

func (m *memStore) GetByUserID(_ context.Context, userID int64) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[userID]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) Debit(_ context.Context, _ *gorm.DB, userID int64, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[userID]
	if !ok {
		return 0, repository.ErrAccountNotFound
	}
	if !a.Active {
		return 0, repository.ErrAccountInactive
	}
	if a.Balance < amount {
		return 0, repository.ErrInsufficientFunds
	}
	a.Balance -= amount
	return a.Balance, nil
}

func (m *memStore) Credit(_ context.Context, _ *gorm.DB, userID int64, amount int64, earned bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failEarnedCredit && earned {
		return 0, errForcedStorage
	}
	a, ok := m.accounts[userID]
	if !ok {
		return 0, repository.ErrAccountNotFound
	}
	a.Balance += amount
	if earned {
		a.LifetimeEarned += amount
	}
	return a.Balance, nil
}

func (m *memStore) ConsumeFriendSpin(_ context.Context, _ *gorm.DB, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[userID]
	if !ok {
		return repository.ErrAccountNotFound
	}
	if !a.Active {
		return repository.ErrAccountInactive
	}
	if a.FriendSpins < 1 {
		return repository.ErrNoFriendSpins
	}
	a.FriendSpins--
	return nil
}

func (m *memStore) AddFriendSpins(_ context.Context, _ *gorm.DB, userID int64, n int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[userID]
	if !ok {
		return repository.ErrAccountNotFound
	}
	a.FriendSpins += n
	return nil
}

func (m *memStore) SetReferralCount(_ context.Context, _ *gorm.DB, userID int64, count int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[userID]
	if !ok {
		return repository.ErrAccountNotFound
	}
	a.ReferralCount = count
	return nil
}

// ---- TransactionStore ----

func (m *memStore) Create(_ context.Context, _ *gorm.DB, trans *model.StarTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *trans
	m.transactions = append(m.transactions, &cp)
	return nil
}

// transactionsFor returns the ledger rows of one user in append order.
func (m *memStore) transactionsFor(userID int64) []*model.StarTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.StarTransaction
	for _, t := range m.transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// ---- SpinStore ----

// spinStore wraps memStore so the Create methods of the two interfaces do
// not collide on the method set.
type spinStore struct{ m *memStore }

func (s spinStore) Create(_ context.Context, _ *gorm.DB, record *model.SpinRecord) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if s.m.failSpinCreate {
		return errForcedStorage
	}
	cp := *record
	s.m.spins = append(s.m.spins, &cp)
	return nil
}

func (m *memStore) spinCount(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, r := range m.spins {
		if r.UserID == userID {
			n++
		}
	}
	return n
}

// ---- ReferralStore ----

func (m *memStore) InsertEdge(_ context.Context, _ *gorm.DB, edge *model.ReferralEdge) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.edges[edge.ReferredID]; exists {
		return false, nil
	}
	m.edges[edge.ReferredID] = edge.ReferrerID
	return true, nil
}

func (m *memStore) HasEdgeForReferred(_ context.Context, referredID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists := m.edges[referredID]
	return exists, nil
}

func (m *memStore) CountByReferrer(_ context.Context, _ *gorm.DB, referrerID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, referrer := range m.edges {
		if referrer == referrerID {
			count++
		}
	}
	return count, nil
}

// ---- OutboxStore ----

type outboxStore struct{ m *memStore }

func (o outboxStore) Create(_ context.Context, _ *gorm.DB, msg *model.OutboxMessage) error {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()

	cp := *msg
	o.m.outbox = append(o.m.outbox, &cp)
	return nil
}

func (m *memStore) outboxCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.outbox)
}

// ---- wiring helpers ----

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Business.SpinCost = 20
	cfg.Business.ReferralRewardStars = 10
	cfg.Business.ReferralFriendSpins = 1
	cfg.Business.ActivationLockSeconds = 30
	cfg.Kafka.Topic.SpinResult = "test.spin.result"
	cfg.Kafka.Topic.ReferralActivated = "test.referral.activated"
	return cfg
}

func newTestLedger(m *memStore) *LedgerService {
	return newLedgerService(m, m, m)
}
