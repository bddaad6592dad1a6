// Package profile is the listener self-service surface: profile reads and
// writes, and the free→premium subscription upgrade.
package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/lalith-99/tunevault/internal/errs"
	"github.com/lalith-99/tunevault/internal/identity"
	"github.com/lalith-99/tunevault/internal/models"
	"github.com/lalith-99/tunevault/internal/policy"
	"github.com/lalith-99/tunevault/internal/repository"
)

type Service struct {
	profiles repository.ProfileRepository
	accounts repository.AccountRepository
	engine   *policy.Engine
}

func NewService(profiles repository.ProfileRepository, accounts repository.AccountRepository, engine *policy.Engine) *Service {
	return &Service{profiles: profiles, accounts: accounts, engine: engine}
}

func deny(reason error) error {
	return fmt.Errorf("%w: %w", errs.ErrDenied, reason)
}

// Get returns the caller's own profile, or nil when none exists yet.
// Absence is a valid empty state, not an error.
func (s *Service) Get(ctx context.Context, id identity.Identity) (*models.ListenerProfile, error) {
	if _, err := s.engine.Authorize(id, policy.OpViewProfile); err != nil {
		return nil, deny(err)
	}
	return s.profiles.Get(ctx, id.TenantID, id.Username)
}

// Update creates or overwrites the caller's own profile. Both fields are
// required after trimming; the write replaces the record as a whole.
// There is no way to address another username's profile — the target is
// always taken from the identity.
func (s *Service) Update(ctx context.Context, id identity.Identity, fullName, address string) (*models.ListenerProfile, error) {
	if _, err := s.engine.Authorize(id, policy.OpUpdateProfile); err != nil {
		return nil, deny(err)
	}

	fullName = strings.TrimSpace(fullName)
	address = strings.TrimSpace(address)
	if fullName == "" || address == "" {
		return nil, fmt.Errorf("%w: full name and address are required", errs.ErrMissingField)
	}
	return s.profiles.Upsert(ctx, id.TenantID, id.Username, fullName, address)
}

// Upgrade moves a free listener to the premium tier and returns the updated
// identity for the remainder of the session. Retrying as a premium listener
// fails with errs.ErrAlreadyPremium and changes nothing.
func (s *Service) Upgrade(ctx context.Context, id identity.Identity) (identity.Identity, error) {
	if _, err := s.engine.Authorize(id, policy.OpUpgrade); err != nil {
		return id, deny(err)
	}

	if err := s.accounts.UpgradeTier(ctx, id.TenantID, id.Username); err != nil {
		return id, err
	}

	id.Tier = identity.TierPremium
	return id, nil
}
