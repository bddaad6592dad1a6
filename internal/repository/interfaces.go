package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/lalith-99/tunevault/internal/models"
	"github.com/lalith-99/tunevault/internal/policy"
)

// Why every catalog read takes a policy.RowFilter?
//
//   - The repository never decides visibility itself. The policy engine
//     produces the filter per request and it is threaded explicitly into
//     every query — there is no way to run a catalog read unscoped.
//   - Even if a caller guesses a song ID from another tenant, the compiled
//     WHERE clause excludes it. Defense-in-depth at the data layer.
//
// Every method takes context.Context first: these all touch the network,
// and a cancelled HTTP request should cancel its DB query.

// SongRepository is the catalog store. Songs are insert-only.
type SongRepository interface {
	// Insert persists a new song and returns it with ID and CreatedAt
	// populated. Tenant and owner stamping happen before this call.
	Insert(ctx context.Context, s models.Song) (*models.Song, error)

	// List returns visible songs newest-first (id descending), at most limit.
	List(ctx context.Context, f policy.RowFilter, limit int) ([]models.Song, error)

	// Search returns visible songs whose title or artist contains term
	// case-insensitively, ordered by title ascending, at most limit.
	Search(ctx context.Context, f policy.RowFilter, term string, limit int) ([]models.Song, error)

	// GenreCounts returns the count of visible songs per genre,
	// ordered by genre.
	GenreCounts(ctx context.Context, f policy.RowFilter) ([]models.GenreCount, error)

	// AvgRatingPerGenre returns the mean rating of visible songs per genre,
	// ordered by genre. Genres with no visible rows do not appear.
	AvgRatingPerGenre(ctx context.Context, f policy.RowFilter) ([]models.GenreRating, error)

	// Recommend returns up to n visible premium songs, best-rated first,
	// oldest upload first on ties.
	Recommend(ctx context.Context, f policy.RowFilter, n int) ([]models.Song, error)
}

// ProfileRepository stores listener self-service profiles.
type ProfileRepository interface {
	// Get returns the profile for (tenant, username). Returns nil, nil when
	// absent — a valid empty state, not an error.
	Get(ctx context.Context, tenantID uuid.UUID, username string) (*models.ListenerProfile, error)

	// Upsert creates or overwrites the profile as one atomic write and
	// returns the stored row.
	Upsert(ctx context.Context, tenantID uuid.UUID, username, fullName, address string) (*models.ListenerProfile, error)
}

// AccountRepository stores credentialed principals.
type AccountRepository interface {
	// Create inserts a new account. Returns errs.ErrAlreadyExists when the
	// username is taken within the tenant.
	Create(ctx context.Context, tenantID uuid.UUID, username, passwordHash, role, tier string) (*models.Account, error)

	// GetByUsername returns the account for (tenant, username).
	// Returns nil, nil if not found.
	GetByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*models.Account, error)

	// UpgradeTier moves a free listener account to premium. Returns
	// errs.ErrAlreadyPremium if the account is already premium and
	// errs.ErrNotFound if no such listener exists.
	UpgradeTier(ctx context.Context, tenantID uuid.UUID, username string) error
}

// TenantRepository manages isolation boundaries.
type TenantRepository interface {
	// Create inserts a new tenant and returns it with ID populated.
	Create(ctx context.Context, name string) (*models.Tenant, error)

	// GetByID returns a tenant. Returns nil, nil if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}
