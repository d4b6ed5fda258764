package account

import (
	"strings"
	"testing"
	"time"
)

func TestCashback(t *testing.T) {
	cases := []struct {
		balance int64
		want    int64
	}{
		{0, 0},
		{999, 0},
		{1000, 150},
		{1500, 150},
		{2500, 300},
		{10_000, 1_500},
	}
	for _, tc := range cases {
		if got := Cashback(tc.balance); got != tc.want {
			t.Fatalf("Cashback(%d) = %d, want %d", tc.balance, got, tc.want)
		}
	}
}

func TestNewWalletDefaults(t *testing.T) {
	w := NewWallet("owner-1")
	if w.Type != TypeWallet {
		t.Fatalf("unexpected type %q", w.Type)
	}
	if w.LimitPerTransaction != DefaultLimitPerTransaction {
		t.Fatalf("expected default per-transaction limit, got %d", w.LimitPerTransaction)
	}
	if w.CashWithdrawalLimit != DefaultCashWithdrawalLimit {
		t.Fatalf("expected default withdrawal limit, got %d", w.CashWithdrawalLimit)
	}
	if w.Balance != 0 {
		t.Fatalf("new wallet should start empty, got %d", w.Balance)
	}
}

func TestGenerateCardNumber(t *testing.T) {
	n := GenerateCardNumber()
	groups := strings.Split(n, "-")
	if len(groups) != 4 {
		t.Fatalf("expected 4 groups, got %q", n)
	}
	for _, g := range groups {
		if len(g) != 4 {
			t.Fatalf("expected 4 digit groups, got %q", n)
		}
		for _, r := range g {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit in card number %q", n)
			}
		}
	}
}

func TestGenerateCVV(t *testing.T) {
	cvv := GenerateCVV()
	if len(cvv) != 4 {
		t.Fatalf("expected 4 digit cvv, got %q", cvv)
	}
}

func TestFormatExpiry(t *testing.T) {
	now := time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC)
	if got := FormatExpiry(now); got != "04/01" {
		t.Fatalf("expected 04/01, got %q", got)
	}
}

func TestSmartCardExpiry(t *testing.T) {
	issued := time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC)
	card := NewSmartCard("owner-1", 500, true, issued)

	if card.ExpiresAt != issued.Add(24*time.Hour) {
		t.Fatalf("unexpected expiry %v", card.ExpiresAt)
	}
	if card.Expired(issued.Add(23 * time.Hour)) {
		t.Fatal("card should still be valid before 24h")
	}
	if !card.Expired(issued.Add(25 * time.Hour)) {
		t.Fatal("card should be expired after 24h")
	}

	wallet := NewWallet("owner-1")
	if wallet.Expired(issued.Add(1000 * time.Hour)) {
		t.Fatal("wallets never expire")
	}
}
