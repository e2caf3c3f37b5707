// Package store es la capa de persistencia de resúmenes: tipos, contrato de
// repositorio por backend, registry de drivers, migraciones y el Adapter que
// asegura el usuario antes de insertar el resumen.
package store

import (
	"context"
	"errors"
	"time"
)

// Estado con el que se guarda un resumen generado.
const StatusCompleted = "completed"

// PlaceholderEmailDomain arma el email sintético del usuario placeholder.
const PlaceholderEmailDomain = "users.pdfsummary.local"

var (
	// ErrNoRows indica que un INSERT no produjo filas.
	ErrNoRows = errors.New("store: insert affected no rows")

	// ErrUnknownDriver indica un driver no registrado.
	ErrUnknownDriver = errors.New("store: unknown driver")

	ErrInvalidRecord = errors.New("store: invalid record")
)

// UserRecord es la fila placeholder en users.
type UserRecord struct {
	ID       string
	Email    string
	FullName string
}

// SummaryRecord es lo que se persiste en pdf_summaries.
type SummaryRecord struct {
	InternalUserID string
	// ExternalUserID se usa solo para derivar el placeholder del usuario.
	ExternalUserID string
	FileURL        string
	SummaryText    string
	Title          string
	FileName       string
}

// SummaryView es una fila leída para el dashboard.
type SummaryView struct {
	ID          string
	FileURL     string
	SummaryText string
	Title       string
	FileName    string
	Status      string
	CreatedAt   time.Time
}

// Repository es el contrato que implementa cada backend (pg, sqlite).
type Repository interface {
	Name() string
	Ping(ctx context.Context) error
	Close() error

	// Migrate aplica las migraciones embebidas del backend.
	Migrate(ctx context.Context) (*MigrationResult, error)

	UserExists(ctx context.Context, id string) (bool, error)
	// InsertUserIfAbsent inserta ignorando conflicto por id; created=false si ya existía.
	InsertUserIfAbsent(ctx context.Context, u UserRecord) (created bool, err error)
	// InsertSummary devuelve las filas afectadas.
	InsertSummary(ctx context.Context, id string, s SummaryRecord) (int64, error)
	// ListSummariesByUser ordena por created_at descendente.
	ListSummariesByUser(ctx context.Context, userID string, limit int) ([]SummaryView, error)
}

// PlaceholderUser arma el usuario sintético para un id externo.
func PlaceholderUser(internalID, externalID string) UserRecord {
	return UserRecord{
		ID:       internalID,
		Email:    externalID + "@" + PlaceholderEmailDomain,
		FullName: "User " + externalID,
	}
}
