package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kinpay/kinpay/internal/account"
	"github.com/kinpay/kinpay/internal/notification"
	"github.com/kinpay/kinpay/internal/policy"
	"github.com/kinpay/kinpay/internal/principal"
	"github.com/kinpay/kinpay/internal/txlog"
)

var (
	// ErrInvalidRequest indicates a malformed transfer request.
	ErrInvalidRequest = errors.New("invalid transfer request")

	// ErrNotOwner indicates the caller does not own the referenced account.
	ErrNotOwner = errors.New("not owner of account")

	// ErrUnrecorded indicates a committed balance change could not be
	// recorded and compensation also failed, so the touched accounts were
	// flagged for reconciliation.
	ErrUnrecorded = errors.New("transfer applied but not recorded")
)

// state names the orchestrator's per-transfer progression. A transfer fails
// before Applied with zero side effects; a failure after Applied triggers a
// compensating reversal before it is surfaced.
type state string

const (
	stateReceived  state = "received"
	stateValidated state = "validated"
	stateApplied   state = "applied"
	stateRecorded  state = "recorded"
)

const recordAttempts = 3

// Service coordinates the account store and the policy engine to execute a
// transfer as an atomic unit and durably record the outcome.
type Service struct {
	store      account.Store
	log        txlog.Log
	principals principal.Repository
	notifier   notification.Notifier
	logger     *slog.Logger
}

// NewService constructs the transfer orchestrator.
func NewService(store account.Store, log txlog.Log, principals principal.Repository, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{store: store, log: log, principals: principals, notifier: notifier, logger: logger}
}

// Input captures a proposed movement of value initiated by a principal.
// Exactly one of ServiceTag or CounterpartyNationalID designates the far side.
type Input struct {
	CounterpartyNationalID string
	ServiceTag             string
	Value                  int64
	PIN                    string
	Direction              txlog.Direction
}

// Transfer validates, applies and records a wallet transfer. Service-tagged
// transfers have a single managed leg (the caller's wallet); counterparty
// transfers debit the caller's wallet and credit the counterparty's.
func (s *Service) Transfer(ctx context.Context, p principal.Principal, in Input) (txlog.Transaction, error) {
	if in.Value <= 0 {
		return txlog.Transaction{}, fmt.Errorf("%w: value must be positive", ErrInvalidRequest)
	}
	if !in.Direction.Valid() {
		return txlog.Transaction{}, fmt.Errorf("%w: direction must be in or out", ErrInvalidRequest)
	}
	if in.ServiceTag == "" && in.CounterpartyNationalID == "" {
		return txlog.Transaction{}, fmt.Errorf("%w: service tag or counterparty required", ErrInvalidRequest)
	}
	if in.ServiceTag != "" && in.CounterpartyNationalID != "" {
		return txlog.Transaction{}, fmt.Errorf("%w: service tag and counterparty are exclusive", ErrInvalidRequest)
	}

	wallet, err := s.store.GetByOwner(ctx, p.ID, account.TypeWallet)
	if err != nil {
		return txlog.Transaction{}, err
	}

	var (
		deltas      []account.Delta
		source      txlog.PartyRef
		destination txlog.PartyRef
		recipient   string
	)

	walletRef := txlog.PartyRef{Kind: txlog.PartyWallet, AccountID: wallet.ID, NationalID: p.NationalID}

	switch {
	case in.ServiceTag != "" && in.Direction == txlog.DirectionOut:
		// Outbound payment to an unmanaged service: single debit leg.
		if err := policy.Evaluate(wallet, p, policy.Request{Value: in.Value, PIN: in.PIN, ServiceTag: in.ServiceTag}); err != nil {
			return txlog.Transaction{}, err
		}
		deltas = []account.Delta{{AccountID: wallet.ID, Amount: -in.Value, RollingCash: in.Value, MarkClosure: true}}
		source = walletRef
		destination = txlog.PartyRef{Kind: txlog.PartyExternal}
		recipient = p.ID

	case in.ServiceTag != "" && in.Direction == txlog.DirectionIn:
		// Inbound top-up from an unmanaged service: single credit leg.
		deltas = []account.Delta{{AccountID: wallet.ID, Amount: in.Value, AccrueCashback: true}}
		source = txlog.PartyRef{Kind: txlog.PartyExternal}
		destination = walletRef
		recipient = p.ID

	case in.Direction == txlog.DirectionOut:
		counterparty, err := s.principals.FindByNationalID(ctx, in.CounterpartyNationalID)
		if err != nil {
			return txlog.Transaction{}, err
		}
		counterWallet, err := s.store.GetByOwner(ctx, counterparty.ID, account.TypeWallet)
		if err != nil {
			return txlog.Transaction{}, err
		}
		if err := policy.Evaluate(wallet, p, policy.Request{Value: in.Value, PIN: in.PIN, ServiceTag: in.ServiceTag}); err != nil {
			return txlog.Transaction{}, err
		}
		deltas = []account.Delta{
			{AccountID: wallet.ID, Amount: -in.Value, RollingCash: in.Value, MarkClosure: true},
			{AccountID: counterWallet.ID, Amount: in.Value, AccrueCashback: true},
		}
		source = walletRef
		destination = txlog.PartyRef{Kind: txlog.PartyWallet, AccountID: counterWallet.ID, NationalID: counterparty.NationalID}
		recipient = counterparty.ID

	default:
		return txlog.Transaction{}, fmt.Errorf("%w: inbound counterparty transfers are initiated by the sender", ErrInvalidRequest)
	}

	tx := txlog.Transaction{
		ID:          uuid.NewString(),
		Source:      source,
		Destination: destination,
		Value:       in.Value,
		Direction:   in.Direction,
		ServiceTag:  in.ServiceTag,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.apply(ctx, tx, deltas); err != nil {
		return txlog.Transaction{}, err
	}

	s.notify(ctx, notification.Message{
		Kind:      notification.KindTransferCompleted,
		Recipient: recipient,
		Sender:    p.ID,
		Body:      fmt.Sprintf("Transfer of %d completed", in.Value),
	})

	return tx, nil
}

// CardTopUp moves value from one of the principal's credit cards into their
// wallet.
func (s *Service) CardTopUp(ctx context.Context, p principal.Principal, cardID string, value int64, pin string) (txlog.Transaction, error) {
	if value <= 0 {
		return txlog.Transaction{}, fmt.Errorf("%w: value must be positive", ErrInvalidRequest)
	}
	wallet, card, err := s.walletAndCard(ctx, p, cardID)
	if err != nil {
		return txlog.Transaction{}, err
	}

	if err := policy.Evaluate(card, p, policy.Request{Value: value, PIN: pin}); err != nil {
		return txlog.Transaction{}, err
	}

	tx := txlog.Transaction{
		ID:          uuid.NewString(),
		Source:      txlog.PartyRef{Kind: txlog.PartyCreditCard, AccountID: card.ID, NationalID: p.NationalID},
		Destination: txlog.PartyRef{Kind: txlog.PartyWallet, AccountID: wallet.ID, NationalID: p.NationalID},
		Value:       value,
		Direction:   txlog.DirectionIn,
		CreatedAt:   time.Now().UTC(),
	}
	deltas := []account.Delta{
		{AccountID: card.ID, Amount: -value},
		{AccountID: wallet.ID, Amount: value, AccrueCashback: true},
	}

	if err := s.apply(ctx, tx, deltas); err != nil {
		return txlog.Transaction{}, err
	}
	return tx, nil
}

// WalletWithdraw moves value from the principal's wallet onto one of their
// credit cards. The withdrawal counts toward the wallet's rolling cash limit.
func (s *Service) WalletWithdraw(ctx context.Context, p principal.Principal, cardID string, value int64, pin string) (txlog.Transaction, error) {
	if value <= 0 {
		return txlog.Transaction{}, fmt.Errorf("%w: value must be positive", ErrInvalidRequest)
	}
	wallet, card, err := s.walletAndCard(ctx, p, cardID)
	if err != nil {
		return txlog.Transaction{}, err
	}

	if err := policy.Evaluate(wallet, p, policy.Request{Value: value, PIN: pin}); err != nil {
		return txlog.Transaction{}, err
	}

	tx := txlog.Transaction{
		ID:          uuid.NewString(),
		Source:      txlog.PartyRef{Kind: txlog.PartyWallet, AccountID: wallet.ID, NationalID: p.NationalID},
		Destination: txlog.PartyRef{Kind: txlog.PartyCreditCard, AccountID: card.ID, NationalID: p.NationalID},
		Value:       value,
		Direction:   txlog.DirectionOut,
		CreatedAt:   time.Now().UTC(),
	}
	deltas := []account.Delta{
		{AccountID: wallet.ID, Amount: -value, RollingCash: value, MarkClosure: true},
		{AccountID: card.ID, Amount: value},
	}

	if err := s.apply(ctx, tx, deltas); err != nil {
		return txlog.Transaction{}, err
	}
	return tx, nil
}

func (s *Service) walletAndCard(ctx context.Context, p principal.Principal, cardID string) (account.Account, account.Account, error) {
	wallet, err := s.store.GetByOwner(ctx, p.ID, account.TypeWallet)
	if err != nil {
		return account.Account{}, account.Account{}, err
	}
	card, err := s.store.Get(ctx, cardID)
	if err != nil {
		return account.Account{}, account.Account{}, err
	}
	if card.Type != account.TypeCreditCard {
		return account.Account{}, account.Account{}, account.ErrNotFound
	}
	if card.OwnerID != p.ID {
		return account.Account{}, account.Account{}, ErrNotOwner
	}
	return wallet, card, nil
}

// apply commits the deltas and records the transaction. A cancelled context
// before the commit fails with zero side effects. A record failure after the
// commit is retried; if every attempt fails the deltas are reversed, and if
// the reversal itself fails the accounts are flagged for reconciliation.
func (s *Service) apply(ctx context.Context, tx txlog.Transaction, deltas []account.Delta) error {
	current := stateReceived

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	current = stateValidated

	committed, err := s.store.ApplyAtomic(ctx, deltas)
	if err != nil {
		return err
	}
	current = stateApplied

	var recordErr error
	for attempt := 0; attempt < recordAttempts; attempt++ {
		// The log is idempotent keyed by the transaction id, so a retry after
		// an ambiguous failure cannot duplicate the record.
		if recordErr = s.log.Record(context.WithoutCancel(ctx), tx); recordErr == nil {
			current = stateRecorded
			break
		}
	}
	if current != stateRecorded {
		return s.compensate(ctx, tx, deltas, committed, recordErr)
	}

	return nil
}

// compensate reverses the committed deltas after a failed record so that no
// balance change exists without a transaction. The reversal subtracts any
// cashback the forward pass accrued.
func (s *Service) compensate(ctx context.Context, tx txlog.Transaction, deltas []account.Delta, committed []account.Account, cause error) error {
	reversal := make([]account.Delta, len(deltas))
	for i, d := range deltas {
		reversal[i] = account.Delta{
			AccountID:   d.AccountID,
			Amount:      -d.Amount,
			RollingCash: -d.RollingCash,
		}
		if d.AccrueCashback && d.Amount > 0 && i < len(committed) {
			reversal[i].CashbackAdjust = -account.Cashback(committed[i].Balance)
		}
	}

	if _, err := s.store.ApplyAtomic(context.WithoutCancel(ctx), reversal); err != nil {
		for _, d := range deltas {
			if flagErr := s.store.FlagForReconciliation(context.WithoutCancel(ctx), d.AccountID); flagErr != nil {
				s.logger.Error("flag account for reconciliation", "account_id", d.AccountID, "error", flagErr)
			}
		}
		s.logger.Error("transfer compensation failed", "transaction_id", tx.ID, "record_error", cause, "reversal_error", err)
		return fmt.Errorf("%w: %v", ErrUnrecorded, cause)
	}

	s.logger.Warn("transfer aborted after record failure", "transaction_id", tx.ID, "error", cause)
	return fmt.Errorf("record transfer: %w", cause)
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("notification delivery failed", "recipient", msg.Recipient, "error", err)
	}
}
