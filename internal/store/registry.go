package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Driver abre un Repository para un backend concreto.
type Driver interface {
	// Name retorna el nombre del driver (ej: "postgres", "sqlite").
	Name() string
	Open(ctx context.Context, cfg Config) (Repository, error)
}

// Config de conexión común a todos los drivers.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// Register registra un driver. Lo llaman los backends en init().
func Register(d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, dup := drivers[d.Name()]; dup {
		panic("store: driver registered twice: " + d.Name())
	}
	drivers[d.Name()] = d
}

// Drivers lista los drivers registrados.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	out := make([]string, 0, len(drivers))
	for n := range drivers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Open abre el Repository del driver configurado.
func Open(ctx context.Context, cfg Config) (Repository, error) {
	driversMu.RLock()
	d, ok := drivers[cfg.Driver]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownDriver, cfg.Driver, Drivers())
	}
	return d.Open(ctx, cfg)
}
