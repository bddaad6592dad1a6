package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/lalith-99/tunevault/internal/errs"
	"github.com/lalith-99/tunevault/internal/identity"
	"github.com/lalith-99/tunevault/internal/models"
	"github.com/lalith-99/tunevault/internal/policy"
	"github.com/lalith-99/tunevault/internal/repository"
)

var tenant = uuid.MustParse("244f866c-7a71-460e-a493-2c4a9daf4e7e")

// fakeSongRepo keeps songs in memory and applies the row filter the same way
// the Postgres store's compiled WHERE clause would.
type fakeSongRepo struct {
	songs  []models.Song
	nextID int64
	err    error
}

var _ repository.SongRepository = (*fakeSongRepo)(nil)

func (f *fakeSongRepo) Insert(_ context.Context, s models.Song) (*models.Song, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	s.ID = f.nextID
	f.songs = append(f.songs, s)
	return &s, nil
}

func (f *fakeSongRepo) visible(flt policy.RowFilter) []models.Song {
	out := make([]models.Song, 0)
	for _, s := range f.songs {
		if flt.Matches(s) {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeSongRepo) List(_ context.Context, flt policy.RowFilter, limit int) ([]models.Song, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := f.visible(flt)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSongRepo) Search(_ context.Context, flt policy.RowFilter, term string, limit int) ([]models.Song, error) {
	if f.err != nil {
		return nil, f.err
	}
	term = strings.ToLower(term)
	out := make([]models.Song, 0)
	for _, s := range f.visible(flt) {
		if strings.Contains(strings.ToLower(s.Title), term) || strings.Contains(strings.ToLower(s.Artist), term) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSongRepo) GenreCounts(_ context.Context, flt policy.RowFilter) ([]models.GenreCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	byGenre := map[string]int64{}
	for _, s := range f.visible(flt) {
		byGenre[s.Genre]++
	}
	out := make([]models.GenreCount, 0, len(byGenre))
	for g, n := range byGenre {
		out = append(out, models.GenreCount{Genre: g, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Genre < out[j].Genre })
	return out, nil
}

func (f *fakeSongRepo) AvgRatingPerGenre(_ context.Context, flt policy.RowFilter) ([]models.GenreRating, error) {
	if f.err != nil {
		return nil, f.err
	}
	sum := map[string]float64{}
	n := map[string]int{}
	for _, s := range f.visible(flt) {
		sum[s.Genre] += s.Rating
		n[s.Genre]++
	}
	out := make([]models.GenreRating, 0, len(sum))
	for g := range sum {
		out = append(out, models.GenreRating{Genre: g, AvgRating: sum[g] / float64(n[g])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Genre < out[j].Genre })
	return out, nil
}

func (f *fakeSongRepo) Recommend(_ context.Context, flt policy.RowFilter, n int) ([]models.Song, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Song, 0)
	for _, s := range f.visible(flt) {
		if s.IsPremium {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// fakeCache records cache traffic for the aggregate dashboard.
type fakeCache struct {
	entries     map[string][]models.GenreRating
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]models.GenreRating{}}
}

func (f *fakeCache) GetRatings(_ context.Context, _ uuid.UUID, key string) ([]models.GenreRating, bool) {
	rows, ok := f.entries[key]
	return rows, ok
}

func (f *fakeCache) SetRatings(_ context.Context, _ uuid.UUID, key string, rows []models.GenreRating) {
	f.entries[key] = rows
}

func (f *fakeCache) Invalidate(_ context.Context, _ uuid.UUID) {
	f.invalidated++
	f.entries = map[string][]models.GenreRating{}
}

func adminID() identity.Identity {
	return identity.Identity{TenantID: tenant, Username: "root", Role: identity.RoleAdmin}
}

func distID(name string) identity.Identity {
	return identity.Identity{TenantID: tenant, Username: name, Role: identity.RoleDistributor}
}

func listenerID(tier identity.Tier) identity.Identity {
	return identity.Identity{TenantID: tenant, Username: "lis", Role: identity.RoleListener, Tier: tier}
}

// seeded returns a service over a catalog with two uploaders and a mix of
// free and premium songs.
func seeded(t *testing.T, cache AggregateCache) (*Service, *fakeSongRepo) {
	t.Helper()
	repo := &fakeSongRepo{}
	svc := NewService(repo, policy.NewEngine(), cache, 10)
	ctx := context.Background()

	inserts := []struct {
		id      identity.Identity
		title   string
		artist  string
		genre   string
		rating  float64
		premium bool
	}{
		{distID("d1"), "Love Runs Out", "OneRepublic", "Pop", 4.5, false},
		{distID("d1"), "Counting Stars", "OneRepublic", "pop", 4.8, true},
		{distID("d2"), "Midnight Drive", "Nova", "synthwave", 4.8, true},
		{distID("d2"), "Quiet Love", "Nova", "synthwave", 3.9, false},
		{adminID(), "Cloud Nine", "Skyline", "jazz", 4.2, true},
	}
	for _, in := range inserts {
		if _, err := svc.InsertSong(ctx, in.id, in.title, in.artist, in.genre, in.rating, in.premium); err != nil {
			t.Fatalf("seed insert %q: %v", in.title, err)
		}
	}
	return svc, repo
}

func TestInsertSong_StampsTenantOwnerAndNormalizesGenre(t *testing.T) {
	t.Parallel()
	repo := &fakeSongRepo{}
	svc := NewService(repo, policy.NewEngine(), nil, 10)

	song, err := svc.InsertSong(context.Background(), distID("d1"), "  Title  ", " Artist ", "  Pop ", 4.0, false)
	if err != nil {
		t.Fatal(err)
	}
	if song.TenantID != tenant || song.AddedBy != "d1" {
		t.Fatalf("tenant/owner not stamped from identity: %+v", song)
	}
	if song.Genre != "pop" {
		t.Fatalf("genre not normalized: %q", song.Genre)
	}
	if song.Title != "Title" || song.Artist != "Artist" {
		t.Fatalf("fields not trimmed: %+v", song)
	}
}

func TestInsertSong_Validation(t *testing.T) {
	t.Parallel()
	repo := &fakeSongRepo{}
	svc := NewService(repo, policy.NewEngine(), nil, 10)
	ctx := context.Background()

	if _, err := svc.InsertSong(ctx, listenerID(identity.TierPremium), "T", "A", "pop", 4.0, false); !errors.Is(err, errs.ErrInsufficientRole) {
		t.Fatalf("listener insert: want ErrInsufficientRole, got %v", err)
	} else if !errors.Is(err, errs.ErrDenied) {
		t.Fatalf("denial must also match ErrDenied")
	}
	if len(repo.songs) != 0 {
		t.Fatalf("denied insert must not reach the store")
	}

	if _, err := svc.InsertSong(ctx, distID("d1"), "  ", "A", "pop", 4.0, false); !errors.Is(err, errs.ErrMissingField) {
		t.Fatalf("blank title: want ErrMissingField, got %v", err)
	}
	if _, err := svc.InsertSong(ctx, distID("d1"), "T", "A", "pop", 5.1, false); !errors.Is(err, errs.ErrRatingOutOfRange) {
		t.Fatalf("rating 5.1: want ErrRatingOutOfRange, got %v", err)
	}
	if _, err := svc.InsertSong(ctx, distID("d1"), "T", "A", "pop", -0.1, false); !errors.Is(err, errs.ErrRatingOutOfRange) {
		t.Fatalf("rating -0.1: want ErrRatingOutOfRange, got %v", err)
	}

	// Boundaries are inclusive.
	if _, err := svc.InsertSong(ctx, distID("d1"), "T", "A", "pop", 0.0, false); err != nil {
		t.Fatalf("rating 0.0 must succeed: %v", err)
	}
	if _, err := svc.InsertSong(ctx, distID("d1"), "T", "A", "pop", 5.0, false); err != nil {
		t.Fatalf("rating 5.0 must succeed: %v", err)
	}
}

func TestList_VisibilityPerRole(t *testing.T) {
	t.Parallel()
	svc, _ := seeded(t, nil)
	ctx := context.Background()

	// Free listener never sees premium rows.
	songs, err := svc.List(ctx, listenerID(identity.TierFree), 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(songs) != 2 {
		t.Fatalf("free listener: want 2 free songs, got %d", len(songs))
	}
	for _, s := range songs {
		if s.IsPremium {
			t.Fatalf("free listener saw premium song %q", s.Title)
		}
	}

	// Premium listener sees the whole tenant.
	songs, err = svc.List(ctx, listenerID(identity.TierPremium), 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(songs) != 5 {
		t.Fatalf("premium listener: want all 5 songs, got %d", len(songs))
	}

	// Distributor sees own uploads only.
	songs, err = svc.List(ctx, distID("d1"), 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(songs) != 2 {
		t.Fatalf("distributor: want 2 own songs, got %d", len(songs))
	}
	for _, s := range songs {
		if s.AddedBy != "d1" {
			t.Fatalf("distributor saw %q owned by %q", s.Title, s.AddedBy)
		}
	}

	// Admin sees every owner's rows, newest first.
	songs, err = svc.List(ctx, adminID(), 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(songs) != 5 {
		t.Fatalf("admin: want all 5 songs, got %d", len(songs))
	}
	for i := 1; i < len(songs); i++ {
		if songs[i-1].ID < songs[i].ID {
			t.Fatalf("list not newest-first: %d before %d", songs[i-1].ID, songs[i].ID)
		}
	}
}

func TestSearch_CaseInsensitiveAndValidated(t *testing.T) {
	t.Parallel()
	svc, _ := seeded(t, nil)
	ctx := context.Background()
	id := listenerID(identity.TierPremium)

	upper, err := svc.Search(ctx, id, "LOVE")
	if err != nil {
		t.Fatal(err)
	}
	lower, err := svc.Search(ctx, id, "love")
	if err != nil {
		t.Fatal(err)
	}
	if len(upper) != 2 || len(lower) != len(upper) {
		t.Fatalf("case-insensitive search: upper=%d lower=%d", len(upper), len(lower))
	}
	for i := range upper {
		if upper[i].ID != lower[i].ID {
			t.Fatalf("LOVE and love must return the same rows in the same order")
		}
	}

	if _, err := svc.Search(ctx, id, "   "); !errors.Is(err, errs.ErrEmptySearchTerm) {
		t.Fatalf("blank term: want ErrEmptySearchTerm, got %v", err)
	}

	// Free listener search also excludes premium matches.
	free, err := svc.Search(ctx, listenerID(identity.TierFree), "love")
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range free {
		if s.IsPremium {
			t.Fatalf("free listener search surfaced premium song %q", s.Title)
		}
	}
}

func TestGenreCounts_ListenerOnlyAndTierScoped(t *testing.T) {
	t.Parallel()
	svc, _ := seeded(t, nil)
	ctx := context.Background()

	counts, err := svc.GenreCounts(ctx, listenerID(identity.TierFree))
	if err != nil {
		t.Fatal(err)
	}
	// Free rows: pop ×1, synthwave ×1. Premium pop/synthwave/jazz hidden.
	want := map[string]int64{"pop": 1, "synthwave": 1}
	if len(counts) != len(want) {
		t.Fatalf("free counts: %+v", counts)
	}
	for _, gc := range counts {
		if want[gc.Genre] != gc.Count {
			t.Fatalf("genre %q: want %d, got %d", gc.Genre, want[gc.Genre], gc.Count)
		}
	}

	// "Pop" and "pop" inserts landed in one bucket for the premium view.
	counts, err = svc.GenreCounts(ctx, listenerID(identity.TierPremium))
	if err != nil {
		t.Fatal(err)
	}
	for _, gc := range counts {
		if gc.Genre == "pop" && gc.Count != 2 {
			t.Fatalf("genre normalization: want pop=2, got %d", gc.Count)
		}
	}

	if _, err := svc.GenreCounts(ctx, adminID()); !errors.Is(err, errs.ErrRoleNotPermitted) {
		t.Fatalf("admin genre counts: want ErrRoleNotPermitted, got %v", err)
	}
}

func TestAvgRatingPerGenre_ScopedToOwnUploads(t *testing.T) {
	t.Parallel()
	svc, _ := seeded(t, nil)
	ctx := context.Background()

	// d1 uploaded only pop; jazz and synthwave belong to others and must be
	// omitted, not reported as zero.
	rows, err := svc.AvgRatingPerGenre(ctx, distID("d1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Genre != "pop" {
		t.Fatalf("distributor dashboard: %+v", rows)
	}

	rows, err = svc.AvgRatingPerGenre(ctx, adminID())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("admin dashboard: want 3 genres, got %+v", rows)
	}

	if _, err := svc.AvgRatingPerGenre(ctx, listenerID(identity.TierPremium)); !errors.Is(err, errs.ErrRoleNotPermitted) {
		t.Fatalf("listener dashboard: want ErrRoleNotPermitted, got %v", err)
	}
}

func TestAvgRatingPerGenre_CacheRoundTrip(t *testing.T) {
	t.Parallel()
	fc := newFakeCache()
	svc, repo := seeded(t, fc)
	ctx := context.Background()

	// Seeding already invalidated once per insert.
	invalidatedAfterSeed := fc.invalidated
	if invalidatedAfterSeed != len(repo.songs) {
		t.Fatalf("each insert must invalidate: %d inserts, %d invalidations", len(repo.songs), invalidatedAfterSeed)
	}

	first, err := svc.AvgRatingPerGenre(ctx, adminID())
	if err != nil {
		t.Fatal(err)
	}

	// Second call is served from the cache even if the store errors.
	repo.err = errors.New("store down")
	second, err := svc.AvgRatingPerGenre(ctx, adminID())
	if err != nil {
		t.Fatalf("cached read must not hit the store: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("cache returned different rows")
	}
	repo.err = nil

	// A distributor must not be served the admin's cached tenant-wide rows.
	distRows, err := svc.AvgRatingPerGenre(ctx, distID("d1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(distRows) == len(first) {
		t.Fatalf("cache leaked admin scope to distributor")
	}
}

func TestRecommend_PremiumListenersOnly(t *testing.T) {
	t.Parallel()
	svc, _ := seeded(t, nil)
	ctx := context.Background()

	songs, err := svc.Recommend(ctx, listenerID(identity.TierPremium), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(songs) != 2 {
		t.Fatalf("want 2 recommendations, got %d", len(songs))
	}
	for _, s := range songs {
		if !s.IsPremium {
			t.Fatalf("recommendation %q is not premium", s.Title)
		}
	}
	// Counting Stars (id 2) and Midnight Drive (id 3) tie at 4.8; the older
	// upload wins the tie.
	if songs[0].Title != "Counting Stars" || songs[1].Title != "Midnight Drive" {
		t.Fatalf("ordering: got %q then %q", songs[0].Title, songs[1].Title)
	}

	// Denied — not empty — for everyone else.
	if _, err := svc.Recommend(ctx, listenerID(identity.TierFree), 2); !errors.Is(err, errs.ErrDenied) {
		t.Fatalf("free listener: want denial, got %v", err)
	}
	if _, err := svc.Recommend(ctx, adminID(), 2); !errors.Is(err, errs.ErrDenied) {
		t.Fatalf("admin: want denial, got %v", err)
	}

	if _, err := svc.Recommend(ctx, listenerID(identity.TierPremium), 0); err == nil {
		t.Fatalf("n=0 must be rejected")
	}
}

func TestOperations_TenantRequired(t *testing.T) {
	t.Parallel()
	svc, _ := seeded(t, nil)
	ctx := context.Background()

	id := adminID()
	id.TenantID = uuid.Nil

	if _, err := svc.List(ctx, id, 10); !errors.Is(err, errs.ErrTenantRequired) {
		t.Fatalf("want ErrTenantRequired, got %v", err)
	}
}
