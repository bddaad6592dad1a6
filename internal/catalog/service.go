// Package catalog is the read and write surface of the song catalog. Every
// operation authorizes through the policy engine first and only ever queries
// through the row filter the engine returned — a denied caller learns
// nothing about row existence or counts.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/lalith-99/tunevault/internal/errs"
	"github.com/lalith-99/tunevault/internal/identity"
	"github.com/lalith-99/tunevault/internal/models"
	"github.com/lalith-99/tunevault/internal/policy"
	"github.com/lalith-99/tunevault/internal/repository"
)

// AggregateCache caches dashboard aggregates per visible row set.
// Implemented by cache.RedisAggregates; a nil cache disables caching.
type AggregateCache interface {
	GetRatings(ctx context.Context, tenantID uuid.UUID, filterKey string) ([]models.GenreRating, bool)
	SetRatings(ctx context.Context, tenantID uuid.UUID, filterKey string, rows []models.GenreRating)
	Invalidate(ctx context.Context, tenantID uuid.UUID)
}

const (
	// RatingMin and RatingMax bound song ratings, inclusive.
	RatingMin = 0.0
	RatingMax = 5.0
)

// Service implements catalog reads, aggregations, and song insertion.
type Service struct {
	songs       repository.SongRepository
	engine      *policy.Engine
	cache       AggregateCache
	resultLimit int
}

// NewService builds the catalog service. resultLimit caps search results;
// non-positive values fall back to 10, matching the interactive clients.
// cache may be nil.
func NewService(songs repository.SongRepository, engine *policy.Engine, cache AggregateCache, resultLimit int) *Service {
	if resultLimit <= 0 {
		resultLimit = 10
	}
	return &Service{songs: songs, engine: engine, cache: cache, resultLimit: resultLimit}
}

// deny wraps a policy reason so callers can match errs.ErrDenied or the
// specific reason with errors.Is.
func deny(reason error) error {
	return fmt.Errorf("%w: %w", errs.ErrDenied, reason)
}

// List returns the identity's visible songs, newest first, at most limit.
func (s *Service) List(ctx context.Context, id identity.Identity, limit int) ([]models.Song, error) {
	filter, err := s.engine.Authorize(id, policy.OpList)
	if err != nil {
		return nil, deny(err)
	}
	if limit <= 0 {
		limit = s.resultLimit
	}
	return s.songs.List(ctx, filter, limit)
}

// Search returns visible songs matching term in title or artist,
// case-insensitively, ordered by title.
func (s *Service) Search(ctx context.Context, id identity.Identity, term string) ([]models.Song, error) {
	filter, err := s.engine.Authorize(id, policy.OpSearch)
	if err != nil {
		return nil, deny(err)
	}
	if strings.TrimSpace(term) == "" {
		return nil, errs.ErrEmptySearchTerm
	}
	return s.songs.Search(ctx, filter, term, s.resultLimit)
}

// GenreCounts returns the listener's per-genre song counts. A free listener's
// counts exclude premium songs because the filter does.
func (s *Service) GenreCounts(ctx context.Context, id identity.Identity) ([]models.GenreCount, error) {
	filter, err := s.engine.Authorize(id, policy.OpGenreCounts)
	if err != nil {
		return nil, deny(err)
	}
	return s.songs.GenreCounts(ctx, filter)
}

// AvgRatingPerGenre returns the uploader dashboard: mean rating per genre
// over the rows the identity could list. Admin sees the whole tenant,
// a distributor only their own uploads.
func (s *Service) AvgRatingPerGenre(ctx context.Context, id identity.Identity) ([]models.GenreRating, error) {
	filter, err := s.engine.Authorize(id, policy.OpAggregate)
	if err != nil {
		return nil, deny(err)
	}

	if s.cache != nil {
		if rows, ok := s.cache.GetRatings(ctx, id.TenantID, filter.CacheKey()); ok {
			return rows, nil
		}
	}

	rows, err := s.songs.AvgRatingPerGenre(ctx, filter)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetRatings(ctx, id.TenantID, filter.CacheKey(), rows)
	}
	return rows, nil
}

// Recommend returns the top n premium songs visible to a premium listener,
// rated best-first with insertion order breaking ties.
func (s *Service) Recommend(ctx context.Context, id identity.Identity, n int) ([]models.Song, error) {
	filter, err := s.engine.Authorize(id, policy.OpRecommend)
	if err != nil {
		return nil, deny(err)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: recommendation count must be positive", errs.ErrMissingField)
	}
	return s.songs.Recommend(ctx, filter, n)
}

// InsertSong validates and commits a new song on behalf of an
// uploader-capable identity. Tenant and owner are stamped from the identity,
// never taken from the caller; genre is lower-cased before storage.
func (s *Service) InsertSong(ctx context.Context, id identity.Identity, title, artist, genre string, rating float64, isPremium bool) (*models.Song, error) {
	if _, err := s.engine.Authorize(id, policy.OpInsert); err != nil {
		return nil, deny(err)
	}

	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)
	if title == "" || artist == "" {
		return nil, fmt.Errorf("%w: title and artist are required", errs.ErrMissingField)
	}
	if rating < RatingMin || rating > RatingMax {
		return nil, fmt.Errorf("%w: %.1f not in [%.1f, %.1f]", errs.ErrRatingOutOfRange, rating, RatingMin, RatingMax)
	}

	song, err := s.songs.Insert(ctx, models.Song{
		TenantID:  id.TenantID,
		Title:     title,
		Artist:    artist,
		Genre:     strings.ToLower(strings.TrimSpace(genre)),
		Rating:    rating,
		IsPremium: isPremium,
		AddedBy:   id.Username,
	})
	if err != nil {
		return nil, err
	}

	// New rows change the dashboard aggregates for this tenant.
	if s.cache != nil {
		s.cache.Invalidate(ctx, id.TenantID)
	}
	return song, nil
}
