package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/kinpay/kinpay/internal/account"
)

// ExpiryReaper removes smart cards past their expiry time and sweeps wallets
// marked for closure. Removal shares the store's serialization, so a card is
// never deleted while a transfer touching it is being applied.
type ExpiryReaper struct {
	store  account.Store
	now    func() time.Time
	logger *slog.Logger
}

// NewExpiryReaper builds the hourly expiry job. A nil clock uses time.Now.
func NewExpiryReaper(store account.Store, clock func() time.Time, logger *slog.Logger) *ExpiryReaper {
	if clock == nil {
		clock = time.Now
	}
	return &ExpiryReaper{store: store, now: clock, logger: logger}
}

// Name identifies the job in logs.
func (r *ExpiryReaper) Name() string { return "expiry-reaper" }

// Run removes every expired smart card and every swept wallet.
func (r *ExpiryReaper) Run(ctx context.Context) error {
	removed, err := r.store.RemoveExpired(ctx, r.now())
	if err != nil {
		return err
	}
	if removed > 0 {
		r.logger.Info("expired accounts removed", "count", removed)
	}
	return nil
}
