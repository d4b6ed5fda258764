package account

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates no account exists for the given reference.
	ErrNotFound = errors.New("account not found")

	// ErrExists indicates an account with the same id is already stored.
	ErrExists = errors.New("account exists")

	// ErrInsufficientFunds occurs when a debit would drive a balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrWithdrawalLimit occurs when a wallet mutation would push the rolling
	// cash counter past its cap.
	ErrWithdrawalLimit = errors.New("cash withdrawal limit exceeded")

	// ErrConflict indicates a concurrent mutation could not be serialized and
	// the caller may retry.
	ErrConflict = errors.New("concurrent account mutation")
)

// Delta describes one leg of an atomic balance application.
type Delta struct {
	AccountID string
	// Amount is the signed balance change.
	Amount int64
	// RollingCash is added to the wallet's rolling cash counter.
	RollingCash int64
	// AccrueCashback adds the cashback earned on the post-credit balance.
	AccrueCashback bool
	// CashbackAdjust is a signed correction applied to the accrued cashback,
	// used when a recorded accrual has to be compensated.
	CashbackAdjust int64
	// MarkClosure flags a wallet for deferred removal when the application
	// leaves its balance at zero.
	MarkClosure bool
}

// Store is the sole arbiter of balance mutations. ApplyAtomic is
// all-or-nothing: either every listed balance changes by its delta with all
// invariants holding afterwards, or none change. Mutations touching the same
// account never interleave.
type Store interface {
	Create(ctx context.Context, a Account) error
	Get(ctx context.Context, id string) (Account, error)
	GetByOwner(ctx context.Context, ownerID string, t Type) (Account, error)
	ListByOwner(ctx context.Context, ownerID string, t Type) ([]Account, error)
	Remove(ctx context.Context, id string) error

	// ApplyAtomic applies every delta or none, returning the committed
	// snapshots in delta order.
	ApplyAtomic(ctx context.Context, deltas []Delta) ([]Account, error)

	// UpdateLimits adjusts a wallet's transfer ceilings.
	UpdateLimits(ctx context.Context, id string, perTransaction, cashWithdrawal int64) (Account, error)

	// UpdateCardHolder renames the printed holder on a card account.
	UpdateCardHolder(ctx context.Context, id, holder string) (Account, error)

	// ResetRollingCash zeroes every wallet's rolling cash counter. Used only
	// by the limit resetter.
	ResetRollingCash(ctx context.Context) (int, error)

	// RemoveExpired deletes smart cards past their expiry and sweeps wallets
	// marked for closure. Used only by the expiry reaper.
	RemoveExpired(ctx context.Context, now time.Time) (int, error)

	// FlagForReconciliation marks an account whose compensation failed so it
	// is never silently left inconsistent.
	FlagForReconciliation(ctx context.Context, id string) error
}
