// Package pg implementa store.Repository sobre PostgreSQL con pgxpool.
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/pdfsummary/internal/store"
	migrations "github.com/dropDatabas3/pdfsummary/migrations/postgres"
)

func init() {
	store.Register(driver{})
}

type driver struct{}

func (driver) Name() string { return "postgres" }

func (driver) Open(ctx context.Context, cfg store.Config) (store.Repository, error) {
	r, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Repo implementa store.Repository.
type Repo struct{ pool *pgxpool.Pool }

// New crea el pool y verifica la conexión.
func New(ctx context.Context, cfg store.Config) (*Repo, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxOpenConns)
	} else {
		pcfg.MaxConns = 10
	}
	// MaxIdleConns → MinConns (pgxpool)
	if cfg.MaxIdleConns > 0 {
		pcfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.ConnMaxLifetime
		pcfg.MaxConnIdleTime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}
	return &Repo{pool: pool}, nil
}

func (r *Repo) Name() string { return "postgres" }

func (r *Repo) Ping(ctx context.Context) error { return r.pool.Ping(ctx) }

// Close cierra el pool (idempotente).
func (r *Repo) Close() error {
	if r != nil && r.pool != nil {
		r.pool.Close()
	}
	return nil
}

// PoolStats snapshot del pool para métricas.
func (r *Repo) PoolStats() *pgxpool.Stat { return r.pool.Stat() }

func (r *Repo) Migrate(ctx context.Context) (*store.MigrationResult, error) {
	return store.NewMigrator(migrations.FS, migrations.Dir, "postgres").Run(ctx, executor{r.pool})
}

func (r *Repo) UserExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *Repo) InsertUserIfAbsent(ctx context.Context, u store.UserRecord) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, full_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`,
		u.ID, u.Email, u.FullName)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repo) InsertSummary(ctx context.Context, id string, s store.SummaryRecord) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO pdf_summaries (id, user_id, original_file_url, summary_text, title, file_name, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, s.InternalUserID, s.FileURL, s.SummaryText, s.Title, s.FileName, store.StatusCompleted)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repo) ListSummariesByUser(ctx context.Context, userID string, limit int) ([]store.SummaryView, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, original_file_url, summary_text, title, file_name, status, created_at
		FROM pdf_summaries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.SummaryView, error) {
		var v store.SummaryView
		err := row.Scan(&v.ID, &v.FileURL, &v.SummaryText, &v.Title, &v.FileName, &v.Status, &v.CreatedAt)
		return v, err
	})
}

// executor adapta pgxpool al store.Executor del Migrator.
type executor struct{ pool *pgxpool.Pool }

func (e executor) Exec(ctx context.Context, q string, args ...any) error {
	_, err := e.pool.Exec(ctx, q, args...)
	return err
}

func (e executor) QueryInts(ctx context.Context, q string) ([]int, error) {
	rows, err := e.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}
