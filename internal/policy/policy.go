// Package policy is the single source of truth for allow/deny and row
// visibility. Every catalog and profile operation asks this package for a
// decision before touching storage.
//
// The predecessor system expressed visibility as database session state: the
// client called set_config('app.user_role', ...) and row-level-security
// policies filtered rows invisibly. That made the policy impossible to unit
// test and easy to bypass by forgetting the session setup. Here the filter is
// reified as a RowFilter value produced once per request: it can be asserted
// on directly in tests, and the repositories refuse to run a catalog query
// without one.
package policy

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lalith-99/tunevault/internal/errs"
	"github.com/lalith-99/tunevault/internal/identity"
	"github.com/lalith-99/tunevault/internal/models"
)

// Operation enumerates everything a caller can ask the core to do.
type Operation string

const (
	OpList        Operation = "list"
	OpSearch      Operation = "search"
	OpInsert      Operation = "insert"
	OpAggregate   Operation = "view-aggregate"
	OpGenreCounts Operation = "genre-counts"
	OpRecommend   Operation = "recommend"

	OpViewProfile   Operation = "view-profile"
	OpUpdateProfile Operation = "update-profile"
	OpUpgrade       Operation = "upgrade-subscription"
)

// RowFilter is the visibility predicate for one request. The zero value
// matches nothing useful; filters are only produced by Authorize and are
// never shared across identities.
//
// It evaluates two ways from the same fields: Matches for in-memory rows
// (tests, fakes) and SQL for the WHERE clause the Postgres repositories
// append. Keeping both on one value is what guarantees aggregates are
// computed over exactly the rows the role could list.
type RowFilter struct {
	TenantID uuid.UUID

	// OwnerOnly, when non-empty, restricts rows to this uploader.
	// Set for distributors, who see their own uploads only.
	OwnerOnly string

	// ExcludePremium hides premium rows. Set for free-tier listeners.
	ExcludePremium bool
}

// Matches reports whether the song is visible under this filter.
func (f RowFilter) Matches(s models.Song) bool {
	if s.TenantID != f.TenantID {
		return false
	}
	if f.OwnerOnly != "" && s.AddedBy != f.OwnerOnly {
		return false
	}
	if f.ExcludePremium && s.IsPremium {
		return false
	}
	return true
}

// SQL renders the filter as a WHERE fragment with numbered placeholders
// starting at argIdx. The caller appends its own conditions after these.
func (f RowFilter) SQL(argIdx int) (string, []any) {
	clause := fmt.Sprintf("tenant_id = $%d", argIdx)
	args := []any{f.TenantID}
	argIdx++

	if f.OwnerOnly != "" {
		clause += fmt.Sprintf(" AND added_by = $%d", argIdx)
		args = append(args, f.OwnerOnly)
		argIdx++
	}
	if f.ExcludePremium {
		clause += " AND is_premium = false"
	}
	return clause, args
}

// CacheKey is a stable fingerprint of the filter, used to key cached
// aggregates. Two identities with the same visible row set share a key.
func (f RowFilter) CacheKey() string {
	return fmt.Sprintf("t=%s|o=%s|xp=%t", f.TenantID, f.OwnerOnly, f.ExcludePremium)
}

// Engine decides operations. It is a pure function of its inputs and holds
// no state; one instance serves all requests.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Authorize returns the row filter the identity may read (or write) under
// for the given operation, or a deny reason from the errs package.
//
// Role × operation table:
//
//	insert          admin, distributor            (errs.ErrInsufficientRole)
//	list, search    all roles
//	view-aggregate  admin, distributor            (errs.ErrRoleNotPermitted)
//	genre-counts    listener                      (errs.ErrRoleNotPermitted)
//	recommend       premium listener              (errs.ErrRoleNotPermitted)
//	profile ops     listener                      (errs.ErrRoleNotPermitted)
//	upgrade         free listener                 (errs.ErrAlreadyPremium for premium)
//
// Every operation is tenant-scoped; an identity without a tenant is denied
// with errs.ErrTenantRequired before any role check.
func (e *Engine) Authorize(id identity.Identity, op Operation) (RowFilter, error) {
	if id.TenantID == uuid.Nil {
		return RowFilter{}, errs.ErrTenantRequired
	}

	switch op {
	case OpInsert:
		if !id.IsUploader() {
			return RowFilter{}, errs.ErrInsufficientRole
		}
		// Writes are stamped, not filtered, but the filter documents the
		// scope the new row lands in.
		return e.visibility(id), nil

	case OpList, OpSearch:
		return e.visibility(id), nil

	case OpAggregate:
		if !id.IsUploader() {
			return RowFilter{}, errs.ErrRoleNotPermitted
		}
		// Same filter as list: the dashboard must never aggregate rows the
		// role could not enumerate.
		return e.visibility(id), nil

	case OpGenreCounts:
		if !id.IsListener() {
			return RowFilter{}, errs.ErrRoleNotPermitted
		}
		return e.visibility(id), nil

	case OpRecommend:
		if !id.IsPremium() {
			return RowFilter{}, errs.ErrRoleNotPermitted
		}
		return e.visibility(id), nil

	case OpViewProfile, OpUpdateProfile:
		if !id.IsListener() {
			return RowFilter{}, errs.ErrRoleNotPermitted
		}
		return e.visibility(id), nil

	case OpUpgrade:
		if !id.IsListener() {
			return RowFilter{}, errs.ErrRoleNotPermitted
		}
		if id.Tier == identity.TierPremium {
			return RowFilter{}, errs.ErrAlreadyPremium
		}
		return e.visibility(id), nil
	}

	return RowFilter{}, fmt.Errorf("unknown operation %q: %w", op, errs.ErrRoleNotPermitted)
}

// visibility derives the read scope for a role:
//
//	admin        whole tenant
//	distributor  own uploads within the tenant
//	listener     whole tenant, minus premium rows on the free tier
func (e *Engine) visibility(id identity.Identity) RowFilter {
	f := RowFilter{TenantID: id.TenantID}

	switch id.Role {
	case identity.RoleDistributor:
		f.OwnerOnly = id.Username
	case identity.RoleListener:
		if id.Tier != identity.TierPremium {
			f.ExcludePremium = true
		}
	}
	return f
}
