package txlog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func seedHistory(t *testing.T, l Log, n int) []Transaction {
	t.Helper()
	base := time.Date(2026, time.February, 1, 10, 0, 0, 0, time.UTC)
	out := make([]Transaction, 0, n)
	for i := 0; i < n; i++ {
		tx := Transaction{
			ID:          fmt.Sprintf("tx-%d", i),
			Source:      PartyRef{Kind: PartyWallet, NationalID: "N-A"},
			Destination: PartyRef{Kind: PartyWallet, NationalID: "N-B"},
			Value:       int64(100 * (i + 1)),
			Direction:   DirectionOut,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := l.Record(context.Background(), tx); err != nil {
			t.Fatalf("record: %v", err)
		}
		out = append(out, tx)
	}
	return out
}

func TestRecordIsIdempotent(t *testing.T) {
	l := NewMemoryLog()
	ctx := context.Background()

	tx := Transaction{ID: "tx-1", Value: 500, Direction: DirectionOut, Source: PartyRef{NationalID: "N-A"}}
	if err := l.Record(ctx, tx); err != nil {
		t.Fatalf("record: %v", err)
	}
	// Replaying the same id must not duplicate the entry.
	if err := l.Record(ctx, tx); err != nil {
		t.Fatalf("replayed record: %v", err)
	}

	history, err := l.QueryByParticipant(ctx, "N-A", Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(history))
	}
}

func TestGetNotFound(t *testing.T) {
	l := NewMemoryLog()
	if _, err := l.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestQueryByParticipant_ScopedToParticipant(t *testing.T) {
	l := NewMemoryLog()
	ctx := context.Background()
	seedHistory(t, l, 3)

	if err := l.Record(ctx, Transaction{
		ID:          "other",
		Source:      PartyRef{Kind: PartyWallet, NationalID: "N-C"},
		Destination: PartyRef{Kind: PartyExternal},
		Value:       42,
		Direction:   DirectionOut,
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	history, err := l.QueryByParticipant(ctx, "N-B", Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 entries for N-B, got %d", len(history))
	}
}

func TestQueryByParticipant_Filters(t *testing.T) {
	l := NewMemoryLog()
	ctx := context.Background()
	seedHistory(t, l, 5)

	history, err := l.QueryByParticipant(ctx, "N-A", Query{Filters: map[string]string{"value": "300"}})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(history) != 1 || history[0].Value != 300 {
		t.Fatalf("unexpected filtered result: %+v", history)
	}

	// Unknown filter fields match nothing.
	history, err = l.QueryByParticipant(ctx, "N-A", Query{Filters: map[string]string{"color": "red"}})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("unknown filter should match nothing, got %d", len(history))
	}
}

func TestQueryByParticipant_SortAndPaginate(t *testing.T) {
	l := NewMemoryLog()
	ctx := context.Background()
	seedHistory(t, l, 5)

	// Default ordering is newest first.
	history, err := l.QueryByParticipant(ctx, "N-A", Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if history[0].ID != "tx-4" {
		t.Fatalf("expected newest first, got %s", history[0].ID)
	}

	// Ascending by value, two per page.
	page2, err := l.QueryByParticipant(ctx, "N-A", Query{Sort: []string{"value"}, Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(page2) != 2 || page2[0].Value != 300 || page2[1].Value != 400 {
		t.Fatalf("unexpected page: %+v", page2)
	}

	// A page past the end is empty, not an error.
	page9, err := l.QueryByParticipant(ctx, "N-A", Query{Page: 9, Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(page9) != 0 {
		t.Fatalf("expected empty page, got %d", len(page9))
	}
}
