package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/pdfsummary/internal/cache"
)

type fakeRepo struct {
	mu        sync.Mutex
	users     map[string]UserRecord
	summaries map[string]SummaryRecord

	existsCalls atomic.Int32
	insertUser  atomic.Int32
	existsDelay time.Duration
	existsGate  chan struct{}
	summaryErr  error
	rows        int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[string]UserRecord{}, summaries: map[string]SummaryRecord{}, rows: 1}
}

func (f *fakeRepo) Name() string               { return "fake" }
func (f *fakeRepo) Ping(context.Context) error { return nil }
func (f *fakeRepo) Close() error               { return nil }

func (f *fakeRepo) Migrate(context.Context) (*MigrationResult, error) {
	return &MigrationResult{}, nil
}

func (f *fakeRepo) UserExists(ctx context.Context, id string) (bool, error) {
	f.existsCalls.Add(1)
	time.Sleep(f.existsDelay)
	if f.existsGate != nil {
		select {
		case <-f.existsGate:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeRepo) InsertUserIfAbsent(_ context.Context, u UserRecord) (bool, error) {
	f.insertUser.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; ok {
		return false, nil
	}
	f.users[u.ID] = u
	return true, nil
}

func (f *fakeRepo) InsertSummary(_ context.Context, id string, s SummaryRecord) (int64, error) {
	if f.summaryErr != nil {
		return 0, f.summaryErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[s.InternalUserID]; !ok {
		return 0, errors.New("foreign key violation")
	}
	if f.rows > 0 {
		f.summaries[id] = s
	}
	return f.rows, nil
}

func (f *fakeRepo) ListSummariesByUser(context.Context, string, int) ([]SummaryView, error) {
	return nil, nil
}

func rec() SummaryRecord {
	return SummaryRecord{
		InternalUserID: "11111111-2222-3333-4444-555555555555",
		ExternalUserID: "user_abc",
		FileURL:        "https://x/doc.pdf",
		SummaryText:    "# Doc",
		Title:          "Doc",
		FileName:       "doc.pdf",
	}
}

func TestAdapter_SaveEnsuresUserFirst(t *testing.T) {
	repo := newFakeRepo()
	a := NewAdapter(repo, WithIDGenerator(func() string { return "sum-1" }))

	ok, err := a.Save(context.Background(), rec())
	require.NoError(t, err)
	require.True(t, ok)

	u := repo.users[rec().InternalUserID]
	require.Equal(t, "user_abc@users.pdfsummary.local", u.Email)
	require.Equal(t, "User user_abc", u.FullName)
	require.Contains(t, repo.summaries, "sum-1")
}

func TestAdapter_EnsureUserIdempotent(t *testing.T) {
	repo := newFakeRepo()
	a := NewAdapter(repo)
	ctx := context.Background()

	created, err := a.EnsureUser(ctx, "id-1", "ext")
	require.NoError(t, err)
	require.True(t, created)

	created, err = a.EnsureUser(ctx, "id-1", "ext")
	require.NoError(t, err)
	require.False(t, created)

	require.Len(t, repo.users, 1)
	require.EqualValues(t, 1, repo.insertUser.Load())
}

func TestAdapter_KnownUserCacheSkipsLookup(t *testing.T) {
	repo := newFakeRepo()
	a := NewAdapter(repo, WithKnownUserCache(cache.NewMemory("t"), time.Minute))
	ctx := context.Background()

	_, err := a.Save(ctx, rec())
	require.NoError(t, err)
	_, err = a.Save(ctx, rec())
	require.NoError(t, err)

	require.EqualValues(t, 1, repo.existsCalls.Load())
	require.Len(t, repo.summaries, 2)
}

func TestAdapter_ConcurrentEnsureCollapses(t *testing.T) {
	repo := newFakeRepo()
	repo.existsDelay = 20 * time.Millisecond
	a := NewAdapter(repo)

	var wg sync.WaitGroup
	var createdCount atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := a.EnsureUser(context.Background(), "id-x", "ext")
			assert.NoError(t, err)
			if c {
				createdCount.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Len(t, repo.users, 1)
	require.LessOrEqual(t, createdCount.Load(), int32(1))
}

func TestAdapter_CanceledCallerDoesNotFailWaiters(t *testing.T) {
	repo := newFakeRepo()
	repo.existsGate = make(chan struct{})
	a := NewAdapter(repo)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := a.Save(ctxA, rec())
		errA <- err
	}()
	require.Eventually(t, func() bool { return repo.existsCalls.Load() == 1 }, time.Second, time.Millisecond)

	type out struct {
		ok  bool
		err error
	}
	resB := make(chan out, 1)
	go func() {
		ok, err := a.Save(context.Background(), rec())
		resB <- out{ok, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("canceled caller did not return")
	}

	close(repo.existsGate)
	select {
	case r := <-resB:
		require.NoError(t, r.err)
		require.True(t, r.ok)
	case <-time.After(time.Second):
		t.Fatal("waiting caller did not return")
	}
	require.EqualValues(t, 1, repo.existsCalls.Load())
	require.Len(t, repo.users, 1)
}

func TestAdapter_WrapsErrors(t *testing.T) {
	boom := errors.New("connection refused")
	repo := newFakeRepo()
	repo.summaryErr = boom
	a := NewAdapter(repo)

	ok, err := a.Save(context.Background(), rec())
	require.False(t, ok)
	require.ErrorIs(t, err, boom)
	require.Equal(t, "Failed to save PDF summary: connection refused", err.Error())
}

func TestAdapter_ZeroRows(t *testing.T) {
	repo := newFakeRepo()
	repo.rows = 0
	a := NewAdapter(repo)

	ok, err := a.Save(context.Background(), rec())
	require.False(t, ok)
	require.ErrorIs(t, err, ErrNoRows)
	require.Contains(t, err.Error(), "Failed to save PDF summary: ")
}

func TestAdapter_InvalidRecord(t *testing.T) {
	repo := newFakeRepo()
	a := NewAdapter(repo)
	r := rec()
	r.FileURL = ""

	_, err := a.Save(context.Background(), r)
	require.ErrorIs(t, err, ErrInvalidRecord)
	require.Empty(t, repo.users)
}

func TestAdapter_RejectsNonCanonicalUserID(t *testing.T) {
	repo := newFakeRepo()
	a := NewAdapter(repo)

	for _, id := range []string{"user_abc", "11111111-2222-3333-4444-55555555555Z", "11111111222233334444555555555555"} {
		r := rec()
		r.InternalUserID = id
		_, err := a.Save(context.Background(), r)
		require.ErrorIs(t, err, ErrInvalidRecord, id)
	}
	require.Empty(t, repo.users)
	require.Zero(t, repo.existsCalls.Load())
}
