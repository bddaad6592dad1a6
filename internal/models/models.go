package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is the top-level isolation boundary (like a record label's
// workspace). Every account, song, and listener profile belongs to exactly
// one tenant, and every catalog query is scoped to one.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Account is a credentialed principal within a tenant: an admin, a
// distributor (uploader), or a listener.
//
// Role and Tier are separate axes. Role decides which operations exist for
// you; Tier only matters when Role is listener, where it gates premium
// content. They are stored as text columns and validated by the identity
// package, never trusted raw from the client.
type Account struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Tier         string    `json:"tier"`
	CreatedAt    time.Time `json:"created_at"`
}

// Song is a single catalog row.
//
// Why int64 for ID (not UUID)?
//   - Songs are the highest-volume table, and "newest first" listings sort
//     by insertion order. bigserial is naturally ordered: higher ID = newer
//     upload, which also gives recommendations their deterministic
//     tie-break (oldest upload wins on equal rating).
//
// AddedBy is the uploader's username, stamped by the mutation service from
// the acting identity. Ownership never changes after insert, and neither
// does TenantID — there is no update or delete path for songs.
//
// Genre is stored lower-cased. Normalizing once at write time means every
// GROUP BY and filter compares equal bytes; "Pop" and "pop" are one bucket.
type Song struct {
	ID        int64     `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Genre     string    `json:"genre"`
	Rating    float64   `json:"rating"`
	IsPremium bool      `json:"is_premium"`
	AddedBy   string    `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

// ListenerProfile is the self-service profile a listener maintains.
// At most one row exists per (tenant, username); it is created on first
// update and overwritten whole on subsequent ones.
type ListenerProfile struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Address   string    `json:"address"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GenreCount is one row of the listener genre dashboard.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int64  `json:"count"`
}

// GenreRating is one row of the admin/distributor ratings dashboard.
type GenreRating struct {
	Genre     string  `json:"genre"`
	AvgRating float64 `json:"avg_rating"`
}
