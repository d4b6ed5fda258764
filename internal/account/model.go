package account

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type discriminates the balance-holding account variants.
type Type string

const (
	// TypeWallet is the primary spendable balance with limits and cashback.
	TypeWallet Type = "wallet"
	// TypeCreditCard is an externally funded card balance.
	TypeCreditCard Type = "creditCard"
	// TypeSmartCard is a time-boxed balance that expires 24h after issuance.
	TypeSmartCard Type = "smartCard"
)

const (
	// DefaultLimitPerTransaction caps the value of a single wallet transfer.
	DefaultLimitPerTransaction int64 = 1000
	// DefaultCashWithdrawalLimit caps cumulative outbound value per period.
	DefaultCashWithdrawalLimit int64 = 5000

	smartCardLifetime = 24 * time.Hour
)

// Account holds a balance on behalf of an owner. Wallet and smart card fields
// are only meaningful for their respective types.
type Account struct {
	ID        string
	OwnerID   string
	Type      Type
	Balance   int64
	CreatedAt time.Time

	// Wallet only.
	LimitPerTransaction int64
	CashWithdrawalLimit int64
	RollingCashUsed     int64
	CashbackAccrued     int64
	MarkedForClosure    bool
	NeedsReconciliation bool

	// Credit and smart cards.
	CardNumber string
	CVV        string
	ExpiryDate string
	CardHolder string

	// Smart card only.
	IssuedAt  time.Time
	ExpiresAt time.Time
	Confirmed bool
}

// NewWallet provisions a wallet with the default limits.
func NewWallet(ownerID string) Account {
	return Account{
		ID:                  uuid.NewString(),
		OwnerID:             ownerID,
		Type:                TypeWallet,
		LimitPerTransaction: DefaultLimitPerTransaction,
		CashWithdrawalLimit: DefaultCashWithdrawalLimit,
		CreatedAt:           time.Now().UTC(),
	}
}

// NewCreditCard provisions a credit card account. Card fields left empty by
// the caller are generated.
func NewCreditCard(ownerID, cardNumber, expiryDate, cvv, cardHolder string) Account {
	card := Account{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Type:       TypeCreditCard,
		CardNumber: cardNumber,
		ExpiryDate: expiryDate,
		CVV:        cvv,
		CardHolder: cardHolder,
		CreatedAt:  time.Now().UTC(),
	}
	fillCardFields(&card, card.CreatedAt)
	return card
}

// NewSmartCard provisions a smart card valid for 24 hours from now.
func NewSmartCard(ownerID string, balance int64, confirmed bool, now time.Time) Account {
	card := Account{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Type:      TypeSmartCard,
		Balance:   balance,
		Confirmed: confirmed,
		IssuedAt:  now.UTC(),
		ExpiresAt: now.UTC().Add(smartCardLifetime),
		CreatedAt: now.UTC(),
	}
	fillCardFields(&card, now)
	return card
}

func fillCardFields(a *Account, now time.Time) {
	if a.CardNumber == "" {
		a.CardNumber = GenerateCardNumber()
	}
	if a.CVV == "" {
		a.CVV = GenerateCVV()
	}
	if a.ExpiryDate == "" {
		a.ExpiryDate = FormatExpiry(now)
	}
}

// Expired reports whether a smart card is past its expiry time.
func (a Account) Expired(now time.Time) bool {
	return a.Type == TypeSmartCard && now.After(a.ExpiresAt)
}

// Cashback returns the bonus accrued when a wallet credit leaves the balance
// at the given value: 15% of each whole thousand.
func Cashback(balance int64) int64 {
	return balance / 1000 * 1000 * 15 / 100
}

// GenerateCardNumber produces a 16 digit card number grouped by dashes.
func GenerateCardNumber() string {
	var b strings.Builder
	for i := 0; i < 16; i++ {
		if i%4 == 0 && i > 0 {
			b.WriteByte('-')
		}
		b.WriteByte(byte('0' + rand.Intn(10)))
	}
	return b.String()
}

// GenerateCVV produces a random 4 digit CVV.
func GenerateCVV() string {
	return fmt.Sprintf("%d", 1000+rand.Intn(9000))
}

// FormatExpiry renders the printed expiry as MM/DD of the following day.
func FormatExpiry(now time.Time) string {
	next := now.AddDate(0, 0, 1)
	return fmt.Sprintf("%02d/%02d", int(next.Month()), next.Day())
}
