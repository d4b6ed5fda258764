package txlog

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
)

type memoryLog struct {
	mu      sync.RWMutex
	byID    map[string]Transaction
	ordered []Transaction
}

// NewMemoryLog creates a concurrency-safe in-memory log for tests and dev mode.
func NewMemoryLog() Log {
	return &memoryLog{byID: make(map[string]Transaction)}
}

func (l *memoryLog) Record(_ context.Context, tx Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.byID[tx.ID]; exists {
		return nil
	}
	l.byID[tx.ID] = tx
	l.ordered = append(l.ordered, tx)
	return nil
}

func (l *memoryLog) Get(_ context.Context, id string) (Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tx, ok := l.byID[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return tx, nil
}

func (l *memoryLog) QueryByParticipant(_ context.Context, nationalID string, q Query) ([]Transaction, error) {
	l.mu.RLock()
	matched := make([]Transaction, 0)
	for _, tx := range l.ordered {
		if tx.Source.NationalID != nationalID && tx.Destination.NationalID != nationalID {
			continue
		}
		if matchesFilters(tx, q.Filters) {
			matched = append(matched, tx)
		}
	}
	l.mu.RUnlock()

	sortTransactions(matched, q.Sort)

	offset := (q.page() - 1) * q.limit()
	if offset >= len(matched) {
		return []Transaction{}, nil
	}
	end := offset + q.limit()
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func matchesFilters(tx Transaction, filters map[string]string) bool {
	for field, want := range filters {
		switch field {
		case "value":
			v, err := strconv.ParseInt(want, 10, 64)
			if err != nil || tx.Value != v {
				return false
			}
		case "direction":
			if string(tx.Direction) != want {
				return false
			}
		case "service":
			if tx.ServiceTag != want {
				return false
			}
		case "source_kind":
			if string(tx.Source.Kind) != want {
				return false
			}
		case "destination_kind":
			if string(tx.Destination.Kind) != want {
				return false
			}
		default:
			// Unknown filter fields match nothing rather than silently passing.
			return false
		}
	}
	return true
}

func sortTransactions(txs []Transaction, keys []string) {
	if len(keys) == 0 {
		keys = []string{"-created_at"}
	}
	sort.SliceStable(txs, func(i, j int) bool {
		for _, key := range keys {
			desc := strings.HasPrefix(key, "-")
			field := strings.TrimPrefix(key, "-")
			cmp := compareField(txs[i], txs[j], field)
			if cmp == 0 {
				continue
			}
			if desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareField(a, b Transaction, field string) int {
	switch field {
	case "value":
		switch {
		case a.Value < b.Value:
			return -1
		case a.Value > b.Value:
			return 1
		}
		return 0
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
		return 0
	case "direction":
		return strings.Compare(string(a.Direction), string(b.Direction))
	case "service":
		return strings.Compare(a.ServiceTag, b.ServiceTag)
	default:
		return 0
	}
}
