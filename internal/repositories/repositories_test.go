package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"cineflix/proj/internal/domain/fields"
	"cineflix/proj/internal/domain/models"
	"cineflix/proj/internal/lib/logger"
	"cineflix/proj/internal/storage"
	"cineflix/proj/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestRepositories(t *testing.T, store storage.Store) *Repositories {
	t.Helper()
	repos := New(logger.Discard(), store, Options{
		WriteRetries: 3,
		Now:          func() time.Time { return fixedNow },
	})
	require.NoError(t, repos.Seed(context.Background(), logger.Discard()))
	return repos
}

func ptr[T any](v T) *T { return &v }

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repos := newTestRepositories(t, store)

	movies, err := repos.Movies.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 6)
	assert.Equal(t, "Vingadores: Ultimato", movies[0].Title)

	require.NoError(t, repos.Movies.DeleteByID(ctx, 1))
	require.NoError(t, repos.Seed(ctx, logger.Discard()))
	movies, err = repos.Movies.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, movies, 5)

	plans, err := repos.Plans.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, 3)
	users, err := repos.Users.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestInsertAssignsUniqueIncreasingIDs(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, memory.New())

	first, err := repos.Movies.Insert(ctx, models.Movie{Title: "A", Genre: fields.GenreDrama})
	require.NoError(t, err)
	second, err := repos.Movies.Insert(ctx, models.Movie{Title: "B", Genre: fields.GenreDrama})
	require.NoError(t, err)

	assert.Equal(t, fixedNow.UnixMilli(), first.ID)
	assert.Greater(t, second.ID, first.ID)

	movies, err := repos.Movies.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", movies[6].Title)
	assert.Equal(t, "B", movies[7].Title)
}

func TestInsertRejectsTakenID(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, memory.New())
	_, err := repos.Movies.Insert(ctx, models.Movie{ID: 3, Title: "dup"})
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestIDGeneratorNeverReusesAfterDelete(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, memory.New())

	m, err := repos.Movies.Insert(ctx, models.Movie{Title: "gone"})
	require.NoError(t, err)
	require.NoError(t, repos.Movies.DeleteByID(ctx, m.ID))

	again, err := repos.Movies.Insert(ctx, models.Movie{Title: "new"})
	require.NoError(t, err)
	assert.NotEqual(t, m.ID, again.ID)
}

func TestIDGeneratorPassesStoredIDs(t *testing.T) {
	g := NewIDGenerator(func() time.Time { return time.UnixMilli(100) })
	assert.Equal(t, int64(100), g.Next(0))
	assert.Equal(t, int64(101), g.Next(0))
	assert.Equal(t, int64(501), g.Next(500))
	assert.Equal(t, int64(502), g.Next(0))
}

func TestUpdateMergesPatch(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, memory.New())

	updated, err := repos.Movies.Update(ctx, 2, MoviePatch{Rating: ptr(fields.Rating("9.9"))})
	require.NoError(t, err)
	assert.Equal(t, fields.Rating("9.9"), updated.Rating)
	assert.Equal(t, "Parasita", updated.Title)

	stored, err := repos.Movies.FindByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)

	_, err = repos.Movies.Update(ctx, 999, MoviePatch{Title: ptr("x")})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteMissingLeavesCollection(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repos := newTestRepositories(t, store)
	before, err := store.Get(ctx, storage.KeyMovies)
	require.NoError(t, err)

	assert.ErrorIs(t, repos.Movies.DeleteByID(ctx, 999), storage.ErrNotFound)

	after, err := store.Get(ctx, storage.KeyMovies)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDeleteMany(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, memory.New())
	n, err := repos.Movies.DeleteMany(ctx, []int64{1, 3, 42})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repos.Movies.DeleteMany(ctx, []int64{42})
	require.NoError(t, err)
	assert.Zero(t, n)

	movies, err := repos.Movies.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, movies, 4)
}

func TestMalformedCollectionLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_, err := store.Set(ctx, storage.KeyMovies, []byte(`{not json`), 0)
	require.NoError(t, err)
	repos := New(logger.Discard(), store, Options{WriteRetries: 1})

	movies, err := repos.Movies.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, movies)

	_, err = repos.Movies.Insert(ctx, models.Movie{Title: "fresh"})
	require.NoError(t, err)
	movies, err = repos.Movies.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, movies, 1)
}

func TestNonConformingRecordsAreDropped(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_, err := store.Set(ctx, storage.KeyMovies,
		[]byte(`[{"id":1,"titulo":"ok","rating":"7"},{"id":"two"},{"titulo":"no id"},{"id":4,"titulo":"num","rating":8.5}]`), 0)
	require.NoError(t, err)
	repos := New(logger.Discard(), store, Options{})

	movies, err := repos.Movies.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, fields.Rating("8.5"), movies[1].Rating)
}

func TestUserEmailUniqueAndPlanReference(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, memory.New())

	ana, err := repos.Users.Insert(ctx, models.User{Name: "Ana", Email: "ana@mail.com", Password: "123456"})
	require.NoError(t, err)

	_, err = repos.Users.Insert(ctx, models.User{Name: "Other", Email: "ana@mail.com"})
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	// uniqueness is case-sensitive
	_, err = repos.Users.Insert(ctx, models.User{Name: "Caps", Email: "ANA@mail.com"})
	assert.NoError(t, err)

	_, err = repos.Users.Update(ctx, ana.ID, UserPatch{PlanID: ptr(int64(77))})
	assert.ErrorIs(t, err, storage.ErrInvalidReference)

	updated, err := repos.Users.Update(ctx, ana.ID, UserPatch{PlanID: ptr(int64(2)), Name: ptr("Ana Maria")})
	require.NoError(t, err)
	require.NotNil(t, updated.PlanID)
	assert.Equal(t, int64(2), *updated.PlanID)
	assert.Equal(t, "ana@mail.com", updated.Email)

	cleared, err := repos.Users.Update(ctx, ana.ID, UserPatch{ClearPlan: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.PlanID)

	found, err := repos.Users.FindByEmail(ctx, "ana@mail.com")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, found.ID)
}

func TestPlanFindByName(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, memory.New())
	plan, err := repos.Plans.FindByName(ctx, "padrao")
	require.NoError(t, err)
	assert.Equal(t, int64(2), plan.ID)

	_, err = repos.Plans.FindByName(ctx, "gold")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestConcurrentWritersAcrossInstances(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	a := New(logger.Discard(), store, Options{WriteRetries: 100})
	b := New(logger.Discard(), store, Options{WriteRetries: 100})

	const perInstance = 20
	var wg sync.WaitGroup
	for _, repos := range []*Repositories{a, b} {
		for i := 0; i < perInstance; i++ {
			wg.Add(1)
			go func(repos *Repositories) {
				defer wg.Done()
				_, err := repos.Subscriptions.Insert(ctx, models.Subscription{UserID: 1, PlanID: 1})
				assert.NoError(t, err)
			}(repos)
		}
	}
	wg.Wait()

	subs, err := a.Subscriptions.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 2*perInstance)
	seen := map[int64]bool{}
	for _, s := range subs {
		assert.False(t, seen[s.ID], "duplicate id %d", s.ID)
		seen[s.ID] = true
	}
}

func TestProgressRepository(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repos := newTestRepositories(t, store)

	_, ok, err := repos.Progress.Get(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repos.Progress.Put(ctx, "1", models.Progress{CurrentTime: 45, Duration: 100, Timestamp: 1}))
	require.NoError(t, repos.Progress.Put(ctx, "1", models.Progress{CurrentTime: 50, Duration: 100, Timestamp: 2}))
	p, ok, err := repos.Progress.Get(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 50.0, p.CurrentTime)

	item, err := store.Get(ctx, storage.KeyWatchProgress)
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":{"currentTime":50,"duration":100,"timestamp":2}}`, string(item.Value))

	require.NoError(t, repos.Progress.Remove(ctx, "1", "9"))
	all, err := repos.Progress.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repos := newTestRepositories(t, store)

	_, ok, err := repos.Session.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repos.Session.Save(ctx, models.User{ID: 5, Name: "Ana"}))
	u, ok, err := repos.Session.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Ana", u.Name)

	require.NoError(t, repos.Session.Clear(ctx))
	_, ok, err = repos.Session.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Set(ctx, storage.KeyCurrentUser, []byte(`[1,2]`), storage.AnyVersion)
	require.NoError(t, err)
	_, ok, err = repos.Session.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReplaceAllKeepsCollectionRules(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t, memory.New())
	ana, err := repos.Users.Insert(ctx, models.User{Name: "Ana", Email: "ana@mail.com"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		replace func() error
		want    error
	}{
		{
			name: "duplicate movie ids",
			replace: func() error {
				return repos.Movies.ReplaceAll(ctx, []models.Movie{{ID: 5, Title: "a"}, {ID: 5, Title: "b"}})
			},
			want: storage.ErrDuplicate,
		},
		{
			name: "duplicate emails",
			replace: func() error {
				return repos.Users.ReplaceAll(ctx, []models.User{
					{ID: 10, Email: "dup@mail.com"},
					{ID: 11, Email: "dup@mail.com"},
				})
			},
			want: storage.ErrDuplicate,
		},
		{
			name: "unknown plan",
			replace: func() error {
				return repos.Users.ReplaceAll(ctx, []models.User{{ID: 10, Email: "x@mail.com", PlanID: ptr(int64(999))}})
			},
			want: storage.ErrInvalidReference,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.replace(), tt.want)
		})
	}

	movies, err := repos.Movies.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, movies, 6)
	users, err := repos.Users.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, ana.ID, users[0].ID)

	require.NoError(t, repos.Users.ReplaceAll(ctx, []models.User{
		{ID: 10, Email: "a@mail.com", PlanID: ptr(int64(1))},
		{Email: "b@mail.com"},
	}))
	users, err = repos.Users.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Greater(t, users[1].ID, int64(10))
}
