package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lalith-99/tunevault/internal/errs"
	"github.com/lalith-99/tunevault/internal/identity"
	"github.com/lalith-99/tunevault/internal/models"
)

type AccountStore struct {
	pool PgxPool
}

func NewAccountStore(pool PgxPool) *AccountStore {
	return &AccountStore{pool: pool}
}

const accountColumns = "id, tenant_id, username, password_hash, role, tier, created_at"

func (s *AccountStore) Create(ctx context.Context, tenantID uuid.UUID, username, passwordHash, role, tier string) (*models.Account, error) {
	query := `
		INSERT INTO accounts (tenant_id, username, password_hash, role, tier, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING ` + accountColumns

	var a models.Account
	err := s.pool.QueryRow(ctx, query, tenantID, username, passwordHash, role, tier).Scan(
		&a.ID,
		&a.TenantID,
		&a.Username,
		&a.PasswordHash,
		&a.Role,
		&a.Tier,
		&a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errs.ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return &a, nil
}

func (s *AccountStore) GetByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE tenant_id = $1 AND username = $2`

	var a models.Account
	err := s.pool.QueryRow(ctx, query, tenantID, username).Scan(
		&a.ID,
		&a.TenantID,
		&a.Username,
		&a.PasswordHash,
		&a.Role,
		&a.Tier,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

// UpgradeTier flips a free listener to premium. The WHERE clause carries the
// precondition, so a concurrent duplicate upgrade updates zero rows instead
// of double-applying; the follow-up read distinguishes "already premium"
// from "no such listener".
func (s *AccountStore) UpgradeTier(ctx context.Context, tenantID uuid.UUID, username string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts
		SET tier = $1
		WHERE tenant_id = $2 AND username = $3 AND role = $4 AND tier = $5`,
		string(identity.TierPremium), tenantID, username,
		string(identity.RoleListener), string(identity.TierFree),
	)
	if err != nil {
		return fmt.Errorf("upgrade tier: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	acc, err := s.GetByUsername(ctx, tenantID, username)
	if err != nil {
		return err
	}
	if acc == nil || acc.Role != string(identity.RoleListener) {
		return errs.ErrNotFound
	}
	return errs.ErrAlreadyPremium
}
