package transfer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinpay/kinpay/internal/account"
	"github.com/kinpay/kinpay/internal/logging"
	"github.com/kinpay/kinpay/internal/notification"
	"github.com/kinpay/kinpay/internal/policy"
	"github.com/kinpay/kinpay/internal/principal"
	"github.com/kinpay/kinpay/internal/txlog"
)

const testPIN = "4321"

// failingLog rejects every Record call to exercise the compensation path.
type failingLog struct {
	txlog.Log
	attempts int
}

func (l *failingLog) Record(context.Context, txlog.Transaction) error {
	l.attempts++
	return errors.New("log unavailable")
}

type fixture struct {
	store      account.Store
	log        txlog.Log
	principals principal.Repository
	inbox      *notification.Inbox
	svc        *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      account.NewMemoryStore(),
		log:        txlog.NewMemoryLog(),
		principals: principal.NewMemoryRepository(),
		inbox:      notification.NewInbox(nil),
	}
	f.svc = NewService(f.store, f.log, f.principals, f.inbox, logging.Discard())
	return f
}

func (f *fixture) addPrincipal(t *testing.T, id, nationalID string, role principal.Role, walletBalance int64, services ...string) (principal.Principal, account.Account) {
	t.Helper()
	hash, err := principal.HashPIN(testPIN)
	require.NoError(t, err)

	p := principal.Principal{ID: id, NationalID: nationalID, Role: role, PINHash: hash, AllowedServices: services}
	require.NoError(t, f.principals.Create(context.Background(), p))

	w := account.NewWallet(id)
	w.Balance = walletBalance
	require.NoError(t, f.store.Create(context.Background(), w))
	return p, w
}

func TestTransfer_CounterpartySuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, aliceWallet := f.addPrincipal(t, "alice", "N-A", principal.RoleParent, 2_000)
	_, bobWallet := f.addPrincipal(t, "bob", "N-B", principal.RoleParent, 0)

	tx, err := f.svc.Transfer(ctx, alice, Input{
		CounterpartyNationalID: "N-B",
		Value:                  500,
		PIN:                    testPIN,
		Direction:              txlog.DirectionOut,
	})
	require.NoError(t, err)

	src, _ := f.store.Get(ctx, aliceWallet.ID)
	dst, _ := f.store.Get(ctx, bobWallet.ID)
	assert.Equal(t, int64(1_500), src.Balance)
	assert.Equal(t, int64(500), dst.Balance)
	assert.Equal(t, int64(500), src.RollingCashUsed)

	recorded, err := f.log.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "N-A", recorded.Source.NationalID)
	assert.Equal(t, "N-B", recorded.Destination.NationalID)
	assert.Equal(t, int64(500), recorded.Value)

	require.Len(t, f.inbox.ListForRecipient("bob"), 1)
}

func TestTransfer_PinMismatchHasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, aliceWallet := f.addPrincipal(t, "alice", "N-A", principal.RoleParent, 2_000)
	f.addPrincipal(t, "bob", "N-B", principal.RoleParent, 0)

	_, err := f.svc.Transfer(ctx, alice, Input{
		CounterpartyNationalID: "N-B",
		Value:                  500,
		PIN:                    "0000",
		Direction:              txlog.DirectionOut,
	})
	var v policy.Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, policy.KindPinMismatch, v.Kind)

	src, _ := f.store.Get(ctx, aliceWallet.ID)
	assert.Equal(t, int64(2_000), src.Balance)
	assert.Zero(t, src.RollingCashUsed)

	history, err := f.log.QueryByParticipant(ctx, "N-A", txlog.Query{})
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestTransfer_ServiceOutboundDebitsAndCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, aliceWallet := f.addPrincipal(t, "alice", "N-A", principal.RoleParent, 2_000)

	tx, err := f.svc.Transfer(ctx, alice, Input{
		ServiceTag: "electricity",
		Value:      800,
		PIN:        testPIN,
		Direction:  txlog.DirectionOut,
	})
	require.NoError(t, err)
	assert.Equal(t, txlog.PartyExternal, tx.Destination.Kind)
	assert.Equal(t, "electricity", tx.ServiceTag)

	src, _ := f.store.Get(ctx, aliceWallet.ID)
	assert.Equal(t, int64(1_200), src.Balance)
	assert.Equal(t, int64(800), src.RollingCashUsed)
}

func TestTransfer_ServiceInboundAccruesCashback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, aliceWallet := f.addPrincipal(t, "alice", "N-A", principal.RoleParent, 800)

	// Inbound credits need no policy evaluation; no PIN is supplied.
	_, err := f.svc.Transfer(ctx, alice, Input{
		ServiceTag: "salary",
		Value:      700,
		Direction:  txlog.DirectionIn,
	})
	require.NoError(t, err)

	w, _ := f.store.Get(ctx, aliceWallet.ID)
	assert.Equal(t, int64(1_500), w.Balance)
	assert.Equal(t, int64(150), w.CashbackAccrued)
}

func TestTransfer_ChildBlockedService(t *testing.T) {
	f := newFixture(t)
	child, _ := f.addPrincipal(t, "kid", "N-K", principal.RoleChild, 2_000, "school-canteen")

	_, err := f.svc.Transfer(context.Background(), child, Input{
		ServiceTag: "game-store",
		Value:      100,
		PIN:        testPIN,
		Direction:  txlog.DirectionOut,
	})
	var v policy.Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, policy.KindServiceNotPermitted, v.Kind)
}

func TestTransfer_InvalidInput(t *testing.T) {
	f := newFixture(t)
	alice, _ := f.addPrincipal(t, "alice", "N-A", principal.RoleParent, 2_000)
	ctx := context.Background()

	_, err := f.svc.Transfer(ctx, alice, Input{Value: 0, Direction: txlog.DirectionOut, ServiceTag: "x"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.Transfer(ctx, alice, Input{Value: 100, Direction: "sideways", ServiceTag: "x"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.Transfer(ctx, alice, Input{Value: 100, Direction: txlog.DirectionOut})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.Transfer(ctx, alice, Input{Value: 100, Direction: txlog.DirectionOut, ServiceTag: "x", CounterpartyNationalID: "N-B"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestTransfer_RecordFailureCompensates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, aliceWallet := f.addPrincipal(t, "alice", "N-A", principal.RoleParent, 2_000)
	_, bobWallet := f.addPrincipal(t, "bob", "N-B", principal.RoleParent, 0)

	flog := &failingLog{}
	f.svc = NewService(f.store, flog, f.principals, f.inbox, logging.Discard())

	_, err := f.svc.Transfer(ctx, alice, Input{
		CounterpartyNationalID: "N-B",
		Value:                  500,
		PIN:                    testPIN,
		Direction:              txlog.DirectionOut,
	})
	require.Error(t, err)
	assert.Equal(t, 3, flog.attempts)

	// Balances, rolling cash and cashback are all back where they started.
	src, _ := f.store.Get(ctx, aliceWallet.ID)
	dst, _ := f.store.Get(ctx, bobWallet.ID)
	assert.Equal(t, int64(2_000), src.Balance)
	assert.Zero(t, src.RollingCashUsed)
	assert.Zero(t, dst.Balance)
	assert.Zero(t, dst.CashbackAccrued)
	assert.False(t, src.NeedsReconciliation)
}

func TestCardTopUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, aliceWallet := f.addPrincipal(t, "alice", "N-A", principal.RoleParent, 800)

	card := account.NewCreditCard("alice", "", "", "", "Alice")
	card.Balance = 1_000
	require.NoError(t, f.store.Create(ctx, card))

	tx, err := f.svc.CardTopUp(ctx, alice, card.ID, 700, testPIN)
	require.NoError(t, err)
	assert.Equal(t, txlog.DirectionIn, tx.Direction)
	assert.Equal(t, txlog.PartyCreditCard, tx.Source.Kind)

	w, _ := f.store.Get(ctx, aliceWallet.ID)
	c, _ := f.store.Get(ctx, card.ID)
	assert.Equal(t, int64(1_500), w.Balance)
	assert.Equal(t, int64(150), w.CashbackAccrued)
	assert.Equal(t, int64(300), c.Balance)
}

func TestCardTopUp_InsufficientCardFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, _ := f.addPrincipal(t, "alice", "N-A", principal.RoleParent, 0)

	card := account.NewCreditCard("alice", "", "", "", "Alice")
	card.Balance = 200
	require.NoError(t, f.store.Create(ctx, card))

	_, err := f.svc.CardTopUp(ctx, alice, card.ID, 300, testPIN)
	var v policy.Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, policy.KindInsufficientFunds, v.Kind)
}

func TestCardTopUp_NotOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, _ := f.addPrincipal(t, "alice", "N-A", principal.RoleParent, 0)
	f.addPrincipal(t, "bob", "N-B", principal.RoleParent, 0)

	card := account.NewCreditCard("bob", "", "", "", "Bob")
	card.Balance = 1_000
	require.NoError(t, f.store.Create(ctx, card))

	_, err := f.svc.CardTopUp(ctx, alice, card.ID, 100, testPIN)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestWalletWithdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, aliceWallet := f.addPrincipal(t, "alice", "N-A", principal.RoleParent, 2_000)

	card := account.NewCreditCard("alice", "", "", "", "Alice")
	require.NoError(t, f.store.Create(ctx, card))

	tx, err := f.svc.WalletWithdraw(ctx, alice, card.ID, 600, testPIN)
	require.NoError(t, err)
	assert.Equal(t, txlog.DirectionOut, tx.Direction)

	w, _ := f.store.Get(ctx, aliceWallet.ID)
	c, _ := f.store.Get(ctx, card.ID)
	assert.Equal(t, int64(1_400), w.Balance)
	assert.Equal(t, int64(600), w.RollingCashUsed)
	assert.Equal(t, int64(600), c.Balance)
}

func TestWalletWithdraw_CountsTowardRollingLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, _ := f.addPrincipal(t, "alice", "N-A", principal.RoleParent, 20_000)
	_, err := f.store.UpdateLimits(ctx, mustWallet(t, f, "alice").ID, 10_000, account.DefaultCashWithdrawalLimit)
	require.NoError(t, err)

	card := account.NewCreditCard("alice", "", "", "", "Alice")
	require.NoError(t, f.store.Create(ctx, card))

	_, err = f.svc.WalletWithdraw(ctx, alice, card.ID, 4_000, testPIN)
	require.NoError(t, err)

	_, err = f.svc.WalletWithdraw(ctx, alice, card.ID, 2_000, testPIN)
	var v policy.Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, policy.KindWithdrawalLimitExceeded, v.Kind)
}

func mustWallet(t *testing.T, f *fixture, ownerID string) account.Account {
	t.Helper()
	w, err := f.store.GetByOwner(context.Background(), ownerID, account.TypeWallet)
	require.NoError(t, err)
	return w
}
