package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/pdfsummary/internal/identity"
	"github.com/dropDatabas3/pdfsummary/internal/store"
)

func newRepo(t *testing.T) *Repo {
	t.Helper()
	ctx := context.Background()
	r, err := New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	res, err := r.Migrate(ctx)
	require.NoError(t, err)
	require.Equal(t, []int{1}, res.Applied)
	return r
}

func countRows(t *testing.T, r *Repo, table string) int {
	t.Helper()
	var n int
	require.NoError(t, r.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestMigrate_Idempotent(t *testing.T) {
	r := newRepo(t)
	res, err := r.Migrate(context.Background())
	require.NoError(t, err)
	require.Empty(t, res.Applied)
	require.Equal(t, []int{1}, res.Skipped)
}

func TestEnsureUser_SecondCallIsNoop(t *testing.T) {
	r := newRepo(t)
	a := store.NewAdapter(r)
	ctx := context.Background()
	id := identity.Map("user_2abc")

	created, err := a.EnsureUser(ctx, id, "user_2abc")
	require.NoError(t, err)
	require.True(t, created)

	var email, name string
	require.NoError(t, r.db.QueryRow("SELECT email, full_name FROM users WHERE id = ?", id).Scan(&email, &name))

	created, err = a.EnsureUser(ctx, id, "user_2abc")
	require.NoError(t, err)
	require.False(t, created)

	var email2, name2 string
	require.NoError(t, r.db.QueryRow("SELECT email, full_name FROM users WHERE id = ?", id).Scan(&email2, &name2))
	require.Equal(t, 1, countRows(t, r, "users"))
	require.Equal(t, email, email2)
	require.Equal(t, name, name2)
	require.Equal(t, "user_2abc@users.pdfsummary.local", email)
}

func TestInsertUserIfAbsent_IgnoresConflict(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := store.PlaceholderUser("abc", "ext")

	ok, err := r.InsertUserIfAbsent(ctx, u)
	require.NoError(t, err)
	require.True(t, ok)

	u.Email = "other@x"
	ok, err = r.InsertUserIfAbsent(ctx, u)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 1, countRows(t, r, "users"))
}

func TestInsertSummary_RequiresUser(t *testing.T) {
	r := newRepo(t)
	_, err := r.InsertSummary(context.Background(), "s1", store.SummaryRecord{
		InternalUserID: "missing",
		FileURL:        "https://x/doc.pdf",
		SummaryText:    "# Doc",
	})
	require.Error(t, err)
	require.Zero(t, countRows(t, r, "pdf_summaries"))
}

func TestAdapterSave_AndList(t *testing.T) {
	r := newRepo(t)
	a := store.NewAdapter(r)
	ctx := context.Background()
	id := identity.Map("user_list")

	for i := 0; i < 3; i++ {
		ok, err := a.Save(ctx, store.SummaryRecord{
			InternalUserID: id,
			ExternalUserID: "user_list",
			FileURL:        fmt.Sprintf("https://x/%d.pdf", i),
			SummaryText:    fmt.Sprintf("# Doc %d", i),
			Title:          fmt.Sprintf("Doc %d", i),
			FileName:       fmt.Sprintf("%d.pdf", i),
		})
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.Equal(t, 1, countRows(t, r, "users"))

	list, err := a.List(ctx, id, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Doc 2", list[0].Title)
	require.Equal(t, "Doc 1", list[1].Title)
	require.Equal(t, store.StatusCompleted, list[0].Status)
	require.False(t, list[0].CreatedAt.IsZero())

	other, err := a.List(ctx, identity.Map("someone_else"), 10)
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestOpenViaRegistry(t *testing.T) {
	repo, err := store.Open(context.Background(), store.Config{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	defer repo.Close()
	require.Equal(t, "sqlite", repo.Name())
	require.NoError(t, repo.Ping(context.Background()))
}
