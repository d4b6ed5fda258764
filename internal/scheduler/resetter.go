package scheduler

import (
	"context"
	"log/slog"

	"github.com/kinpay/kinpay/internal/account"
)

// LimitResetter zeroes every wallet's rolling cash counter once per period.
// It goes through the account store's serialized mutation path, so it cannot
// race a concurrent transfer's read of the counter.
type LimitResetter struct {
	store  account.Store
	logger *slog.Logger
}

// NewLimitResetter builds the monthly limit reset job.
func NewLimitResetter(store account.Store, logger *slog.Logger) *LimitResetter {
	return &LimitResetter{store: store, logger: logger}
}

// Name identifies the job in logs.
func (r *LimitResetter) Name() string { return "limit-resetter" }

// Run resets the rolling cash counter on every wallet.
func (r *LimitResetter) Run(ctx context.Context) error {
	reset, err := r.store.ResetRollingCash(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("rolling cash limits reset", "wallets", reset)
	return nil
}
