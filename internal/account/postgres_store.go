package account

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists accounts in PostgreSQL. Atomicity is provided by a
// transaction that locks every touched row with FOR UPDATE in ascending id
// order, so concurrent applications touching the same accounts serialize
// without deadlock.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed account store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const accountColumns = `id, owner_id, type, balance, limit_per_transaction, cash_withdrawal_limit,
        rolling_cash_used, cashback_accrued, marked_for_closure, needs_reconciliation,
        card_number, cvv, expiry_date, card_holder, issued_at, expires_at, confirmed, created_at`

// Create inserts an account record.
func (s *PostgresStore) Create(ctx context.Context, a Account) error {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return err
	}
	ownerID, err := uuid.Parse(a.OwnerID)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO accounts (`+accountColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		id, ownerID, string(a.Type), a.Balance, a.LimitPerTransaction, a.CashWithdrawalLimit,
		a.RollingCashUsed, a.CashbackAccrued, a.MarkedForClosure, a.NeedsReconciliation,
		a.CardNumber, a.CVV, a.ExpiryDate, a.CardHolder, nullableTime(a.IssuedAt), nullableTime(a.ExpiresAt),
		a.Confirmed, a.CreatedAt.UTC())
	return err
}

// Get fetches an account by identifier.
func (s *PostgresStore) Get(ctx context.Context, id string) (Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID)
	return scanAccount(row)
}

// GetByOwner fetches the owner's account of the given type.
func (s *PostgresStore) GetByOwner(ctx context.Context, ownerID string, t Type) (Account, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return Account{}, ErrNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts
        WHERE owner_id = $1 AND type = $2 ORDER BY created_at LIMIT 1`, owner, string(t))
	return scanAccount(row)
}

// ListByOwner returns all of the owner's accounts of the given type.
func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID string, t Type) ([]Account, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := s.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts
        WHERE owner_id = $1 AND type = $2 ORDER BY created_at`, owner, string(t))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Remove deletes an account.
func (s *PostgresStore) Remove(ctx context.Context, id string) error {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := s.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, accountID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyAtomic applies every delta inside one transaction or none at all.
func (s *PostgresStore) ApplyAtomic(ctx context.Context, deltas []Delta) ([]Account, error) {
	ids := make([]uuid.UUID, 0, len(deltas))
	seen := make(map[string]bool, len(deltas))
	for _, d := range deltas {
		if seen[d.AccountID] {
			continue
		}
		id, err := uuid.Parse(d.AccountID)
		if err != nil {
			return nil, ErrNotFound
		}
		ids = append(ids, id)
		seen[d.AccountID] = true
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	rows, err := tx.Query(ctx, `SELECT `+accountColumns+` FROM accounts
        WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	locked := make(map[string]Account, len(ids))
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		locked[a.ID] = a
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(locked) != len(ids) {
		return nil, ErrNotFound
	}

	for _, d := range deltas {
		next, err := applyDelta(locked[d.AccountID], d)
		if err != nil {
			return nil, err
		}
		locked[d.AccountID] = next
	}

	for _, a := range locked {
		if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = $2, rolling_cash_used = $3,
            cashback_accrued = $4, marked_for_closure = $5 WHERE id = $1`,
			uuid.MustParse(a.ID), a.Balance, a.RollingCashUsed, a.CashbackAccrued, a.MarkedForClosure); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConflict, err)
	}

	out := make([]Account, len(deltas))
	for i, d := range deltas {
		out[i] = locked[d.AccountID]
	}
	return out, nil
}

// UpdateLimits adjusts wallet ceilings; zero values leave the limit unchanged.
func (s *PostgresStore) UpdateLimits(ctx context.Context, id string, perTransaction, cashWithdrawal int64) (Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}
	row := s.db.QueryRow(ctx, `UPDATE accounts SET
        limit_per_transaction = CASE WHEN $2 > 0 THEN $2 ELSE limit_per_transaction END,
        cash_withdrawal_limit = CASE WHEN $3 > 0 THEN $3 ELSE cash_withdrawal_limit END
        WHERE id = $1 RETURNING `+accountColumns, accountID, perTransaction, cashWithdrawal)
	return scanAccount(row)
}

// UpdateCardHolder renames the printed holder on a card account.
func (s *PostgresStore) UpdateCardHolder(ctx context.Context, id, holder string) (Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}
	row := s.db.QueryRow(ctx, `UPDATE accounts SET card_holder = $2
        WHERE id = $1 RETURNING `+accountColumns, accountID, holder)
	return scanAccount(row)
}

// ResetRollingCash zeroes every wallet's rolling cash counter.
func (s *PostgresStore) ResetRollingCash(ctx context.Context) (int, error) {
	cmd, err := s.db.Exec(ctx, `UPDATE accounts SET rolling_cash_used = 0
        WHERE type = $1 AND rolling_cash_used <> 0`, string(TypeWallet))
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

// RemoveExpired deletes expired smart cards and sweeps closed wallets.
func (s *PostgresStore) RemoveExpired(ctx context.Context, now time.Time) (int, error) {
	cmd, err := s.db.Exec(ctx, `DELETE FROM accounts
        WHERE (type = $1 AND expires_at < $2)
           OR (type = $3 AND marked_for_closure AND balance = 0)`,
		string(TypeSmartCard), now.UTC(), string(TypeWallet))
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

// FlagForReconciliation marks an account for manual review.
func (s *PostgresStore) FlagForReconciliation(ctx context.Context, id string) error {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := s.db.Exec(ctx, `UPDATE accounts SET needs_reconciliation = TRUE WHERE id = $1`, accountID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		id        uuid.UUID
		ownerID   uuid.UUID
		typ       string
		issuedAt  *time.Time
		expiresAt *time.Time
		createdAt time.Time
		a         Account
	)
	err := row.Scan(&id, &ownerID, &typ, &a.Balance, &a.LimitPerTransaction, &a.CashWithdrawalLimit,
		&a.RollingCashUsed, &a.CashbackAccrued, &a.MarkedForClosure, &a.NeedsReconciliation,
		&a.CardNumber, &a.CVV, &a.ExpiryDate, &a.CardHolder, &issuedAt, &expiresAt, &a.Confirmed, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	a.ID = id.String()
	a.OwnerID = ownerID.String()
	a.Type = Type(typ)
	if issuedAt != nil {
		a.IssuedAt = issuedAt.UTC()
	}
	if expiresAt != nil {
		a.ExpiresAt = expiresAt.UTC()
	}
	a.CreatedAt = createdAt.UTC()
	return a, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	utc := t.UTC()
	return &utc
}
