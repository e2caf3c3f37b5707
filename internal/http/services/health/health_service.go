// Package health contiene el service para health checks.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/pdfsummary/internal/cache"
	dto "github.com/dropDatabas3/pdfsummary/internal/http/dto/health"
	"github.com/dropDatabas3/pdfsummary/internal/observability/logger"
)

const (
	StatusReady       = "ready"
	StatusDegraded    = "degraded"
	StatusUnavailable = "unavailable"
)

// Service define las operaciones de health check.
type Service interface {
	Check(ctx context.Context) dto.Response
}

// Deps contiene los checks inyectables. La DB es crítica; el cache no.
type Deps struct {
	DBCheck      func(ctx context.Context) error
	CacheCheck   func(ctx context.Context) error
	CacheStats   func(ctx context.Context) (cache.Stats, error) // opcional
	CacheKind    string
	Version      string
	CheckTimeout time.Duration
}

type service struct {
	deps Deps
}

func NewService(deps Deps) Service {
	if deps.CheckTimeout <= 0 {
		deps.CheckTimeout = 2 * time.Second
	}
	return &service{deps: deps}
}

func (s *service) Check(ctx context.Context) dto.Response {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("health"), logger.Op("Check"))

	resp := dto.Response{
		Components: make(map[string]dto.ComponentStatus),
		Version:    s.deps.Version,
		Timestamp:  time.Now().UTC(),
	}

	critical, degraded := false, false

	// 1) DB (crítico)
	if s.deps.DBCheck == nil {
		resp.Components["db"] = dto.ComponentStatus{Status: "error", Message: "store not initialized"}
		critical = true
	} else if err := s.probe(ctx, s.deps.DBCheck); err != nil {
		resp.Components["db"] = dto.ComponentStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
		critical = true
		log.Error("db unavailable", logger.Err(err))
	} else {
		resp.Components["db"] = dto.ComponentStatus{Status: "ok"}
	}

	// 2) Cache (no crítico)
	name := "cache"
	if s.deps.CacheKind != "" {
		name = "cache_" + s.deps.CacheKind
	}
	if s.deps.CacheCheck == nil {
		resp.Components[name] = dto.ComponentStatus{Status: "disabled"}
	} else if err := s.probe(ctx, s.deps.CacheCheck); err != nil {
		resp.Components[name] = dto.ComponentStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
		degraded = true
		log.Warn("cache unavailable", logger.Err(err))
	} else {
		resp.Components[name] = dto.ComponentStatus{Status: "ok", Details: s.cacheDetails(ctx)}
	}

	switch {
	case critical:
		resp.Status = StatusUnavailable
	case degraded:
		resp.Status = StatusDegraded
	default:
		resp.Status = StatusReady
	}
	return resp
}

// cacheDetails no afecta el estado: si Stats falla el componente sigue "ok".
func (s *service) cacheDetails(ctx context.Context) map[string]any {
	if s.deps.CacheStats == nil {
		return nil
	}
	cctx, cancel := context.WithTimeout(ctx, s.deps.CheckTimeout)
	defer cancel()
	st, err := s.deps.CacheStats(cctx)
	if err != nil {
		logger.From(ctx).Debug("cache stats unavailable", logger.Err(err))
		return nil
	}
	d := map[string]any{"keys": st.Keys, "hits": st.Hits, "misses": st.Misses}
	if st.UsedMemory != "" {
		d["used_memory"] = st.UsedMemory
	}
	return d
}

func (s *service) probe(ctx context.Context, check func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, s.deps.CheckTimeout)
	defer cancel()
	return check(cctx)
}
