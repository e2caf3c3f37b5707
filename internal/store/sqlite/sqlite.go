// Package sqlite implementa store.Repository sobre modernc.org/sqlite (sin cgo).
// Pensado para desarrollo local y tests; en producción va pg.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dropDatabas3/pdfsummary/internal/store"
	migrations "github.com/dropDatabas3/pdfsummary/migrations/sqlite"
)

func init() {
	store.Register(driver{})
}

type driver struct{}

func (driver) Name() string { return "sqlite" }

func (driver) Open(ctx context.Context, cfg store.Config) (store.Repository, error) {
	r, err := New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return r, nil
}

type Repo struct{ db *sql.DB }

// New abre la base. Las FK se activan por conexión vía _pragma en el DSN.
// ":memory:" queda limitada a una conexión para que todas las queries vean el
// mismo esquema.
func New(ctx context.Context, dsn string) (*Repo, error) {
	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &Repo{db: db}, nil
}

func withPragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (r *Repo) Name() string { return "sqlite" }

func (r *Repo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) Migrate(ctx context.Context) (*store.MigrationResult, error) {
	return store.NewMigrator(migrations.FS, migrations.Dir, "sqlite").Run(ctx, executor{r.db})
}

func (r *Repo) UserExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}

func (r *Repo) InsertUserIfAbsent(ctx context.Context, u store.UserRecord) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, full_name)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		u.ID, u.Email, u.FullName)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *Repo) InsertSummary(ctx context.Context, id string, s store.SummaryRecord) (int64, error) {
	now := time.Now().UTC().Format(timeLayout)
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO pdf_summaries (id, user_id, original_file_url, summary_text, title, file_name, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.InternalUserID, s.FileURL, s.SummaryText, s.Title, s.FileName, store.StatusCompleted, now, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repo) ListSummariesByUser(ctx context.Context, userID string, limit int) ([]store.SummaryView, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, original_file_url, summary_text, title, file_name, status, CAST(created_at AS TEXT)
		FROM pdf_summaries
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.SummaryView
	for rows.Next() {
		var v store.SummaryView
		var created string
		if err := rows.Scan(&v.ID, &v.FileURL, &v.SummaryText, &v.Title, &v.FileName, &v.Status, &created); err != nil {
			return nil, err
		}
		v.CreatedAt = parseTime(created)
		out = append(out, v)
	}
	return out, rows.Err()
}

// Fracción fija para que el orden lexicográfico coincida con el temporal.
const timeLayout = "2006-01-02 15:04:05.000000"

func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, "2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

type executor struct{ db *sql.DB }

func (e executor) Exec(ctx context.Context, q string, args ...any) error {
	_, err := e.db.ExecContext(ctx, q, args...)
	return err
}

func (e executor) QueryInts(ctx context.Context, q string) ([]int, error) {
	rows, err := e.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
