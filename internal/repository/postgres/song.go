package postgres

import (
	"context"
	"fmt"

	"github.com/lalith-99/tunevault/internal/models"
	"github.com/lalith-99/tunevault/internal/policy"
)

type SongStore struct {
	pool PgxPool
}

func NewSongStore(pool PgxPool) *SongStore {
	return &SongStore{pool: pool}
}

// songColumns is every SELECT's column list, in scan order.
const songColumns = "id, tenant_id, title, artist, genre, rating, is_premium, added_by, created_at"

func (s *SongStore) Insert(ctx context.Context, song models.Song) (*models.Song, error) {
	// Songs use bigserial, so we don't pass an ID — Postgres generates it
	// and RETURNING gives it back. The single INSERT is the whole write:
	// either the full row commits or nothing does.
	query := `
		INSERT INTO songs (tenant_id, title, artist, genre, rating, is_premium, added_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING ` + songColumns

	var out models.Song
	err := s.pool.QueryRow(ctx, query,
		song.TenantID, song.Title, song.Artist, song.Genre,
		song.Rating, song.IsPremium, song.AddedBy,
	).Scan(
		&out.ID,
		&out.TenantID,
		&out.Title,
		&out.Artist,
		&out.Genre,
		&out.Rating,
		&out.IsPremium,
		&out.AddedBy,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert song: %w", err)
	}
	return &out, nil
}

func (s *SongStore) List(ctx context.Context, f policy.RowFilter, limit int) ([]models.Song, error) {
	where, args := f.SQL(1)
	query := fmt.Sprintf(`
		SELECT %s
		FROM songs
		WHERE %s
		ORDER BY id DESC
		LIMIT $%d`, songColumns, where, len(args)+1)
	args = append(args, limit)

	return s.querySongs(ctx, "list songs", query, args)
}

func (s *SongStore) Search(ctx context.Context, f policy.RowFilter, term string, limit int) ([]models.Song, error) {
	where, args := f.SQL(1)
	n := len(args)
	query := fmt.Sprintf(`
		SELECT %s
		FROM songs
		WHERE %s AND (title ILIKE $%d OR artist ILIKE $%d)
		ORDER BY title ASC
		LIMIT $%d`, songColumns, where, n+1, n+1, n+2)
	args = append(args, "%"+term+"%", limit)

	return s.querySongs(ctx, "search songs", query, args)
}

func (s *SongStore) GenreCounts(ctx context.Context, f policy.RowFilter) ([]models.GenreCount, error) {
	where, args := f.SQL(1)
	query := fmt.Sprintf(`
		SELECT genre, COUNT(*)
		FROM songs
		WHERE %s
		GROUP BY genre
		ORDER BY genre ASC`, where)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("genre counts: %w", err)
	}
	defer rows.Close()

	counts := make([]models.GenreCount, 0)
	for rows.Next() {
		var gc models.GenreCount
		if err := rows.Scan(&gc.Genre, &gc.Count); err != nil {
			return nil, fmt.Errorf("scan genre count: %w", err)
		}
		counts = append(counts, gc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genre counts: %w", err)
	}
	return counts, nil
}

func (s *SongStore) AvgRatingPerGenre(ctx context.Context, f policy.RowFilter) ([]models.GenreRating, error) {
	// Grouping over the filtered rows means a genre whose only songs belong
	// to another uploader (or tenant) simply doesn't appear — it is omitted,
	// never reported as zero.
	where, args := f.SQL(1)
	query := fmt.Sprintf(`
		SELECT genre, AVG(rating)
		FROM songs
		WHERE %s
		GROUP BY genre
		ORDER BY genre ASC`, where)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("avg rating per genre: %w", err)
	}
	defer rows.Close()

	ratings := make([]models.GenreRating, 0)
	for rows.Next() {
		var gr models.GenreRating
		if err := rows.Scan(&gr.Genre, &gr.AvgRating); err != nil {
			return nil, fmt.Errorf("scan genre rating: %w", err)
		}
		ratings = append(ratings, gr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genre ratings: %w", err)
	}
	return ratings, nil
}

func (s *SongStore) Recommend(ctx context.Context, f policy.RowFilter, n int) ([]models.Song, error) {
	// Best rating first; on ties the lower (older) id wins, so the ordering
	// is stable across calls.
	where, args := f.SQL(1)
	query := fmt.Sprintf(`
		SELECT %s
		FROM songs
		WHERE %s AND is_premium = true
		ORDER BY rating DESC, id ASC
		LIMIT $%d`, songColumns, where, len(args)+1)
	args = append(args, n)

	return s.querySongs(ctx, "recommend songs", query, args)
}

func (s *SongStore) querySongs(ctx context.Context, op, query string, args []any) ([]models.Song, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	songs := make([]models.Song, 0)
	for rows.Next() {
		var song models.Song
		if err := rows.Scan(
			&song.ID,
			&song.TenantID,
			&song.Title,
			&song.Artist,
			&song.Genre,
			&song.Rating,
			&song.IsPremium,
			&song.AddedBy,
			&song.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}
	return songs, nil
}
