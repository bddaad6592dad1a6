package policy

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/lalith-99/tunevault/internal/errs"
	"github.com/lalith-99/tunevault/internal/identity"
	"github.com/lalith-99/tunevault/internal/models"
)

var tenant = uuid.MustParse("244f866c-7a71-460e-a493-2c4a9daf4e7e")

func admin() identity.Identity {
	return identity.Identity{TenantID: tenant, Username: "root", Role: identity.RoleAdmin}
}

func distributor(name string) identity.Identity {
	return identity.Identity{TenantID: tenant, Username: name, Role: identity.RoleDistributor}
}

func listener(tier identity.Tier) identity.Identity {
	return identity.Identity{TenantID: tenant, Username: "lis", Role: identity.RoleListener, Tier: tier}
}

func TestAuthorize_RoleOperationTable(t *testing.T) {
	t.Parallel()
	e := NewEngine()

	cases := []struct {
		name    string
		id      identity.Identity
		op      Operation
		wantErr error
	}{
		{"admin insert", admin(), OpInsert, nil},
		{"distributor insert", distributor("d1"), OpInsert, nil},
		{"listener insert", listener(identity.TierFree), OpInsert, errs.ErrInsufficientRole},

		{"admin list", admin(), OpList, nil},
		{"distributor search", distributor("d1"), OpSearch, nil},
		{"free listener list", listener(identity.TierFree), OpList, nil},
		{"premium listener search", listener(identity.TierPremium), OpSearch, nil},

		{"admin aggregate", admin(), OpAggregate, nil},
		{"distributor aggregate", distributor("d1"), OpAggregate, nil},
		{"listener aggregate", listener(identity.TierPremium), OpAggregate, errs.ErrRoleNotPermitted},

		{"listener genre counts", listener(identity.TierFree), OpGenreCounts, nil},
		{"admin genre counts", admin(), OpGenreCounts, errs.ErrRoleNotPermitted},

		{"premium recommend", listener(identity.TierPremium), OpRecommend, nil},
		{"free recommend", listener(identity.TierFree), OpRecommend, errs.ErrRoleNotPermitted},
		{"admin recommend", admin(), OpRecommend, errs.ErrRoleNotPermitted},

		{"listener view profile", listener(identity.TierFree), OpViewProfile, nil},
		{"distributor view profile", distributor("d1"), OpViewProfile, errs.ErrRoleNotPermitted},
		{"listener update profile", listener(identity.TierPremium), OpUpdateProfile, nil},

		{"free upgrade", listener(identity.TierFree), OpUpgrade, nil},
		{"premium upgrade", listener(identity.TierPremium), OpUpgrade, errs.ErrAlreadyPremium},
		{"admin upgrade", admin(), OpUpgrade, errs.ErrRoleNotPermitted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Authorize(tc.id, tc.op)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("want allow, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestAuthorize_TenantRequired(t *testing.T) {
	t.Parallel()
	e := NewEngine()

	id := admin()
	id.TenantID = uuid.Nil

	for _, op := range []Operation{OpList, OpSearch, OpInsert, OpAggregate} {
		if _, err := e.Authorize(id, op); !errors.Is(err, errs.ErrTenantRequired) {
			t.Fatalf("op %s: want ErrTenantRequired, got %v", op, err)
		}
	}
}

func TestVisibility_PerRole(t *testing.T) {
	t.Parallel()
	e := NewEngine()

	own := models.Song{TenantID: tenant, AddedBy: "d1", IsPremium: false}
	other := models.Song{TenantID: tenant, AddedBy: "d2", IsPremium: false}
	premium := models.Song{TenantID: tenant, AddedBy: "d2", IsPremium: true}
	foreign := models.Song{TenantID: uuid.New(), AddedBy: "d1"}

	adminFilter, err := e.Authorize(admin(), OpList)
	if err != nil {
		t.Fatal(err)
	}
	if !adminFilter.Matches(own) || !adminFilter.Matches(other) || !adminFilter.Matches(premium) {
		t.Fatalf("admin must see every tenant row")
	}
	if adminFilter.Matches(foreign) {
		t.Fatalf("admin must not see other tenants")
	}

	distFilter, err := e.Authorize(distributor("d1"), OpList)
	if err != nil {
		t.Fatal(err)
	}
	if !distFilter.Matches(own) {
		t.Fatalf("distributor must see own uploads")
	}
	if distFilter.Matches(other) || distFilter.Matches(premium) {
		t.Fatalf("distributor must not see other uploaders' rows")
	}

	freeFilter, err := e.Authorize(listener(identity.TierFree), OpList)
	if err != nil {
		t.Fatal(err)
	}
	if !freeFilter.Matches(own) || !freeFilter.Matches(other) {
		t.Fatalf("free listener must see free tenant rows")
	}
	if freeFilter.Matches(premium) {
		t.Fatalf("free listener must not see premium rows")
	}

	premFilter, err := e.Authorize(listener(identity.TierPremium), OpList)
	if err != nil {
		t.Fatal(err)
	}
	if !premFilter.Matches(premium) {
		t.Fatalf("premium listener must see premium rows")
	}
}

func TestRowFilter_SQL(t *testing.T) {
	t.Parallel()

	f := RowFilter{TenantID: tenant}
	clause, args := f.SQL(1)
	if clause != "tenant_id = $1" || len(args) != 1 {
		t.Fatalf("tenant-only filter: %q %v", clause, args)
	}

	f = RowFilter{TenantID: tenant, OwnerOnly: "d1"}
	clause, args = f.SQL(1)
	if clause != "tenant_id = $1 AND added_by = $2" || len(args) != 2 {
		t.Fatalf("owner filter: %q %v", clause, args)
	}

	f = RowFilter{TenantID: tenant, ExcludePremium: true}
	clause, args = f.SQL(3)
	if clause != "tenant_id = $3 AND is_premium = false" || len(args) != 1 {
		t.Fatalf("premium filter with offset: %q %v", clause, args)
	}
}

func TestRowFilter_CacheKey_DistinguishesScopes(t *testing.T) {
	t.Parallel()
	e := NewEngine()

	a, _ := e.Authorize(admin(), OpAggregate)
	d1, _ := e.Authorize(distributor("d1"), OpAggregate)
	d2, _ := e.Authorize(distributor("d2"), OpAggregate)

	if a.CacheKey() == d1.CacheKey() || d1.CacheKey() == d2.CacheKey() {
		t.Fatalf("cache keys must differ per visible row set")
	}
}
