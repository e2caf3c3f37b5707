package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/pdfsummary/internal/cache"
	"github.com/dropDatabas3/pdfsummary/internal/identity"
	"github.com/dropDatabas3/pdfsummary/internal/observability/logger"
)

const knownUserKeyPrefix = "user:known:"

// ensureTimeout acota la llamada compartida de EnsureUser, que corre
// desacoplada de la cancelación de los callers.
const ensureTimeout = 10 * time.Second

// Adapter asegura el usuario y luego inserta el resumen. Es seguro para uso
// concurrente.
type Adapter struct {
	repo  Repository
	known cache.Client // opcional
	ttl   time.Duration
	sf    singleflight.Group
	newID func() string
}

type AdapterOption func(*Adapter)

// WithKnownUserCache memoiza los ids ya asegurados para saltear el SELECT.
func WithKnownUserCache(c cache.Client, ttl time.Duration) AdapterOption {
	return func(a *Adapter) {
		a.known = c
		a.ttl = ttl
	}
}

// WithIDGenerator reemplaza uuid.NewString para los ids de resumen.
func WithIDGenerator(f func() string) AdapterOption {
	return func(a *Adapter) { a.newID = f }
}

func NewAdapter(repo Repository, opts ...AdapterOption) *Adapter {
	a := &Adapter{repo: repo, newID: uuid.NewString}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Repository expone el backend (health, listados).
func (a *Adapter) Repository() Repository { return a.repo }

// Save asegura el usuario e inserta el resumen. true solo si se insertó una fila.
// Cualquier falla sale envuelta como "Failed to save PDF summary: <detalle>".
func (a *Adapter) Save(ctx context.Context, rec SummaryRecord) (bool, error) {
	if err := validateRecord(rec); err != nil {
		return false, saveErr(err)
	}
	if _, err := a.EnsureUser(ctx, rec.InternalUserID, rec.ExternalUserID); err != nil {
		return false, saveErr(err)
	}

	id := a.newID()
	n, err := a.repo.InsertSummary(ctx, id, rec)
	if err != nil {
		return false, saveErr(err)
	}
	if n != 1 {
		return false, saveErr(fmt.Errorf("%w (%d)", ErrNoRows, n))
	}

	logger.From(ctx).Debug("summary inserted",
		logger.Layer("store"), logger.String("summary_id", id), logger.UserID(rec.InternalUserID))
	return true, nil
}

// EnsureUser crea el usuario placeholder si no existe. Idempotente.
// Llamadas concurrentes con el mismo id se colapsan en una sola; entre
// procesos el INSERT ignora el conflicto. created=false si el usuario ya
// existía o si el resultado se compartió con otra llamada en vuelo.
func (a *Adapter) EnsureUser(ctx context.Context, internalID, externalID string) (created bool, err error) {
	if a.isKnown(ctx, internalID) {
		return false, nil
	}

	// La función compartida corre sobre un ctx propio: si el primer caller
	// cancela, los demás que esperan la misma clave no heredan su error.
	ch := a.sf.DoChan(internalID, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ensureTimeout)
		defer cancel()

		exists, err := a.repo.UserExists(sctx, internalID)
		if err != nil {
			return false, fmt.Errorf("check user: %w", err)
		}
		if exists {
			a.markKnown(sctx, internalID)
			return false, nil
		}
		ok, err := a.repo.InsertUserIfAbsent(sctx, PlaceholderUser(internalID, externalID))
		if err != nil {
			return false, fmt.Errorf("insert user: %w", err)
		}
		a.markKnown(sctx, internalID)
		return ok, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	if res.Err != nil {
		return false, res.Err
	}
	created = res.Val.(bool) && !res.Shared
	if created {
		logger.From(ctx).Info("placeholder user created", logger.Layer("store"), logger.UserID(internalID))
	}
	return created, nil
}

// List devuelve los resúmenes del usuario, más nuevos primero.
func (a *Adapter) List(ctx context.Context, internalID string, limit int) ([]SummaryView, error) {
	out, err := a.repo.ListSummariesByUser(ctx, internalID, limit)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	return out, nil
}

func (a *Adapter) isKnown(ctx context.Context, id string) bool {
	if a.known == nil {
		return false
	}
	ok, err := a.known.Exists(ctx, knownUserKeyPrefix+id)
	if err != nil {
		// cache caído: vamos a la DB
		logger.From(ctx).Warn("known-user cache lookup failed", logger.Err(err))
		return false
	}
	return ok
}

func (a *Adapter) markKnown(ctx context.Context, id string) {
	if a.known == nil {
		return
	}
	if err := a.known.Set(ctx, knownUserKeyPrefix+id, "1", a.ttl); err != nil {
		logger.From(ctx).Warn("known-user cache write failed", logger.Err(err))
	}
}

func validateRecord(rec SummaryRecord) error {
	switch {
	case strings.TrimSpace(rec.InternalUserID) == "":
		return fmt.Errorf("%w: missing user id", ErrInvalidRecord)
	case !identity.Valid(rec.InternalUserID):
		return fmt.Errorf("%w: user id is not a canonical uuid", ErrInvalidRecord)
	case strings.TrimSpace(rec.FileURL) == "":
		return fmt.Errorf("%w: missing file url", ErrInvalidRecord)
	case strings.TrimSpace(rec.SummaryText) == "":
		return fmt.Errorf("%w: empty summary", ErrInvalidRecord)
	}
	return nil
}

func saveErr(err error) error {
	return fmt.Errorf("Failed to save PDF summary: %w", err)
}
