// Package cards provisions and manages credit card and smart card accounts.
// Balances on these accounts are only ever moved by the transfer orchestrator.
package cards

import (
	"context"
	"time"

	"github.com/kinpay/kinpay/internal/account"
)

// Service exposes card lifecycle operations backed by the account store.
type Service struct {
	store account.Store
	now   func() time.Time
}

// NewService builds a card service. A nil clock uses time.Now.
func NewService(store account.Store, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, now: clock}
}

// CreditCardInput captures caller-provided card data; empty fields are generated.
type CreditCardInput struct {
	CardNumber string
	ExpiryDate string
	CVV        string
	CardHolder string
}

// CreateCreditCard provisions a credit card for the owner.
func (s *Service) CreateCreditCard(ctx context.Context, ownerID string, in CreditCardInput) (account.Account, error) {
	card := account.NewCreditCard(ownerID, in.CardNumber, in.ExpiryDate, in.CVV, in.CardHolder)
	if err := s.store.Create(ctx, card); err != nil {
		return account.Account{}, err
	}
	return card, nil
}

// CreateSmartCard provisions a smart card valid for 24 hours.
func (s *Service) CreateSmartCard(ctx context.Context, ownerID string, balance int64, confirmed bool) (account.Account, error) {
	card := account.NewSmartCard(ownerID, balance, confirmed, s.now())
	if err := s.store.Create(ctx, card); err != nil {
		return account.Account{}, err
	}
	return card, nil
}

// List returns the owner's cards of the given type.
func (s *Service) List(ctx context.Context, ownerID string, t account.Type) ([]account.Account, error) {
	return s.store.ListByOwner(ctx, ownerID, t)
}

// Get fetches one of the owner's cards.
func (s *Service) Get(ctx context.Context, ownerID, id string, t account.Type) (account.Account, error) {
	card, err := s.store.Get(ctx, id)
	if err != nil {
		return account.Account{}, err
	}
	if card.Type != t || card.OwnerID != ownerID {
		return account.Account{}, account.ErrNotFound
	}
	return card, nil
}

// RenameHolder updates the printed holder name on a credit card.
func (s *Service) RenameHolder(ctx context.Context, ownerID, id, holder string) (account.Account, error) {
	if _, err := s.Get(ctx, ownerID, id, account.TypeCreditCard); err != nil {
		return account.Account{}, err
	}
	return s.store.UpdateCardHolder(ctx, id, holder)
}

// Delete removes a credit card.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id, account.TypeCreditCard); err != nil {
		return err
	}
	return s.store.Remove(ctx, id)
}
