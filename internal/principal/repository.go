package principal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no principal exists for the given identifier.
var ErrNotFound = errors.New("principal not found")

// Repository loads principals provisioned by the identity system.
type Repository interface {
	Create(ctx context.Context, p Principal) error
	FindByID(ctx context.Context, id string) (Principal, error)
	FindByNationalID(ctx context.Context, nationalID string) (Principal, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed principal repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a principal record.
func (r *PostgresRepository) Create(ctx context.Context, p Principal) error {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO principals (id, national_id, full_name, role, pin_hash, allowed_services, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, p.NationalID, p.FullName, string(p.Role), p.PINHash, p.AllowedServices, p.CreatedAt.UTC())
	return err
}

// FindByID fetches a principal by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Principal, error) {
	principalID, err := uuid.Parse(id)
	if err != nil {
		return Principal{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, national_id, full_name, role, pin_hash, allowed_services, created_at
        FROM principals WHERE id = $1`, principalID)
	return scanPrincipal(row)
}

// FindByNationalID fetches a principal by national identifier.
func (r *PostgresRepository) FindByNationalID(ctx context.Context, nationalID string) (Principal, error) {
	row := r.db.QueryRow(ctx, `SELECT id, national_id, full_name, role, pin_hash, allowed_services, created_at
        FROM principals WHERE national_id = $1`, nationalID)
	return scanPrincipal(row)
}

func scanPrincipal(row pgx.Row) (Principal, error) {
	var (
		id        uuid.UUID
		role      string
		createdAt time.Time
		p         Principal
	)
	if err := row.Scan(&id, &p.NationalID, &p.FullName, &role, &p.PINHash, &p.AllowedServices, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Principal{}, ErrNotFound
		}
		return Principal{}, err
	}
	p.ID = id.String()
	p.Role = Role(role)
	p.CreatedAt = createdAt.UTC()
	return p, nil
}
