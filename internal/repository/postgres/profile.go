package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lalith-99/tunevault/internal/models"
)

type ProfileStore struct {
	pool PgxPool
}

func NewProfileStore(pool PgxPool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

func (s *ProfileStore) Get(ctx context.Context, tenantID uuid.UUID, username string) (*models.ListenerProfile, error) {
	query := `
		SELECT tenant_id, username, full_name, address, updated_at
		FROM listener_profiles
		WHERE tenant_id = $1 AND username = $2`

	var p models.ListenerProfile
	err := s.pool.QueryRow(ctx, query, tenantID, username).Scan(
		&p.TenantID,
		&p.Username,
		&p.FullName,
		&p.Address,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (s *ProfileStore) Upsert(ctx context.Context, tenantID uuid.UUID, username, fullName, address string) (*models.ListenerProfile, error) {
	// ON CONFLICT makes the whole-record overwrite a single atomic
	// statement: two concurrent updates serialize in Postgres and the loser
	// overwrites both fields together, never one of each.
	query := `
		INSERT INTO listener_profiles (tenant_id, username, full_name, address, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (tenant_id, username)
		DO UPDATE SET full_name = EXCLUDED.full_name, address = EXCLUDED.address, updated_at = now()
		RETURNING tenant_id, username, full_name, address, updated_at`

	var p models.ListenerProfile
	err := s.pool.QueryRow(ctx, query, tenantID, username, fullName, address).Scan(
		&p.TenantID,
		&p.Username,
		&p.FullName,
		&p.Address,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return &p, nil
}
