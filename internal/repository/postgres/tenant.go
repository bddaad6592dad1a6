package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lalith-99/tunevault/internal/models"
)

type TenantStore struct {
	pool PgxPool
}

func NewTenantStore(pool PgxPool) *TenantStore {
	return &TenantStore{pool: pool}
}

func (s *TenantStore) Create(ctx context.Context, name string) (*models.Tenant, error) {
	query := `
		INSERT INTO tenants (name, created_at)
		VALUES ($1, now())
		RETURNING id, name, created_at`

	var t models.Tenant
	err := s.pool.QueryRow(ctx, query, name).Scan(
		&t.ID,
		&t.Name,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert tenant: %w", err)
	}
	return &t, nil
}

func (s *TenantStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `
		SELECT id, name, created_at
		FROM tenants
		WHERE id = $1`

	var t models.Tenant
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return &t, nil
}
