package txlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLog persists transactions in PostgreSQL.
type PostgresLog struct {
	db *pgxpool.Pool
}

// NewPostgresLog constructs a Postgres-backed transaction log.
func NewPostgresLog(db *pgxpool.Pool) *PostgresLog {
	return &PostgresLog{db: db}
}

const txColumns = `id, source_kind, source_account_id, source_national_id,
        destination_kind, destination_account_id, destination_national_id,
        value, direction, service_tag, created_at`

// filterColumns whitelists the fields a caller may filter or sort by.
var filterColumns = map[string]string{
	"value":            "value",
	"direction":        "direction",
	"service":          "service_tag",
	"source_kind":      "source_kind",
	"destination_kind": "destination_kind",
	"created_at":       "created_at",
}

// Record appends the transaction. A replayed id is a no-op, so a retried
// append after a partial failure never duplicates the record.
func (l *PostgresLog) Record(ctx context.Context, tx Transaction) error {
	id, err := uuid.Parse(tx.ID)
	if err != nil {
		return err
	}
	_, err = l.db.Exec(ctx, `INSERT INTO transactions (`+txColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (id) DO NOTHING`,
		id, string(tx.Source.Kind), tx.Source.AccountID, tx.Source.NationalID,
		string(tx.Destination.Kind), tx.Destination.AccountID, tx.Destination.NationalID,
		tx.Value, string(tx.Direction), tx.ServiceTag, tx.CreatedAt.UTC())
	return err
}

// Get fetches a transaction by identifier.
func (l *PostgresLog) Get(ctx context.Context, id string) (Transaction, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return Transaction{}, ErrNotFound
	}
	row := l.db.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = $1`, txID)
	return scanTransaction(row)
}

// QueryByParticipant lists transactions where the national id appears on
// either side, narrowed by whitelisted filters and ordered by sort keys.
func (l *PostgresLog) QueryByParticipant(ctx context.Context, nationalID string, q Query) ([]Transaction, error) {
	where := []string{"(source_national_id = $1 OR destination_national_id = $1)"}
	args := []any{nationalID}

	for field, want := range q.Filters {
		col, ok := filterColumns[field]
		if !ok {
			return []Transaction{}, nil
		}
		args = append(args, want)
		where = append(where, fmt.Sprintf("%s::text = $%d", col, len(args)))
	}

	orderBy := make([]string, 0, len(q.Sort))
	for _, key := range q.Sort {
		dir := "ASC"
		field := key
		if strings.HasPrefix(key, "-") {
			dir = "DESC"
			field = key[1:]
		}
		col, ok := filterColumns[field]
		if !ok {
			continue
		}
		orderBy = append(orderBy, col+" "+dir)
	}
	if len(orderBy) == 0 {
		orderBy = append(orderBy, "created_at DESC")
	}

	limit := q.limit()
	offset := (q.page() - 1) * limit
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		txColumns, strings.Join(where, " AND "), strings.Join(orderBy, ", "), len(args)-1, len(args))

	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		id        uuid.UUID
		srcKind   string
		dstKind   string
		direction string
		createdAt time.Time
		tx        Transaction
	)
	err := row.Scan(&id, &srcKind, &tx.Source.AccountID, &tx.Source.NationalID,
		&dstKind, &tx.Destination.AccountID, &tx.Destination.NationalID,
		&tx.Value, &direction, &tx.ServiceTag, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	tx.ID = id.String()
	tx.Source.Kind = PartyKind(srcKind)
	tx.Destination.Kind = PartyKind(dstKind)
	tx.Direction = Direction(direction)
	tx.CreatedAt = createdAt.UTC()
	return tx, nil
}
