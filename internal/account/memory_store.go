package account

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewMemoryStore creates a concurrency-safe in-memory store for tests and dev
// mode. A single lock serializes every mutation, so ApplyAtomic calls touching
// overlapping accounts never interleave.
func NewMemoryStore() Store {
	return &memoryStore{accounts: make(map[string]Account)}
}

func (s *memoryStore) Create(_ context.Context, a Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[a.ID]; exists {
		return ErrExists
	}
	s.accounts[a.ID] = a
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (s *memoryStore) GetByOwner(_ context.Context, ownerID string, t Type) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.OwnerID == ownerID && a.Type == t {
			return a, nil
		}
	}
	return Account{}, ErrNotFound
}

func (s *memoryStore) ListByOwner(_ context.Context, ownerID string, t Type) ([]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Account
	for _, a := range s.accounts {
		if a.OwnerID == ownerID && a.Type == t {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

func (s *memoryStore) ApplyAtomic(_ context.Context, deltas []Delta) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Stage every change on copies; nothing is committed until all legs pass
	// their invariant checks.
	staged := make(map[string]Account, len(deltas))
	for _, d := range deltas {
		a, ok := staged[d.AccountID]
		if !ok {
			a, ok = s.accounts[d.AccountID]
			if !ok {
				return nil, ErrNotFound
			}
		}
		next, err := applyDelta(a, d)
		if err != nil {
			return nil, err
		}
		staged[d.AccountID] = next
	}

	for id, a := range staged {
		s.accounts[id] = a
	}

	out := make([]Account, len(deltas))
	for i, d := range deltas {
		out[i] = staged[d.AccountID]
	}
	return out, nil
}

func (s *memoryStore) UpdateLimits(_ context.Context, id string, perTransaction, cashWithdrawal int64) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	if perTransaction > 0 {
		a.LimitPerTransaction = perTransaction
	}
	if cashWithdrawal > 0 {
		a.CashWithdrawalLimit = cashWithdrawal
	}
	s.accounts[id] = a
	return a, nil
}

func (s *memoryStore) UpdateCardHolder(_ context.Context, id, holder string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	a.CardHolder = holder
	s.accounts[id] = a
	return a, nil
}

func (s *memoryStore) ResetRollingCash(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reset := 0
	for id, a := range s.accounts {
		if a.Type == TypeWallet && a.RollingCashUsed != 0 {
			a.RollingCashUsed = 0
			s.accounts[id] = a
			reset++
		}
	}
	return reset, nil
}

func (s *memoryStore) RemoveExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, a := range s.accounts {
		switch {
		case a.Expired(now):
			delete(s.accounts, id)
			removed++
		case a.Type == TypeWallet && a.MarkedForClosure && a.Balance == 0:
			delete(s.accounts, id)
			removed++
		}
	}
	return removed, nil
}

func (s *memoryStore) FlagForReconciliation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.NeedsReconciliation = true
	s.accounts[id] = a
	return nil
}

// applyDelta computes the post-application state of a single account and
// enforces the balance and rolling limit invariants.
func applyDelta(a Account, d Delta) (Account, error) {
	a.Balance += d.Amount
	if a.Balance < 0 {
		return Account{}, ErrInsufficientFunds
	}
	if a.Type == TypeWallet {
		a.RollingCashUsed += d.RollingCash
		if a.RollingCashUsed > a.CashWithdrawalLimit {
			return Account{}, ErrWithdrawalLimit
		}
		if d.AccrueCashback && d.Amount > 0 {
			a.CashbackAccrued += Cashback(a.Balance)
		}
		a.CashbackAccrued += d.CashbackAdjust
		if a.CashbackAccrued < 0 {
			a.CashbackAccrued = 0
		}
		if d.MarkClosure && a.Balance == 0 {
			a.MarkedForClosure = true
		}
		if a.Balance > 0 {
			a.MarkedForClosure = false
		}
	}
	return a, nil
}
