// Package health contiene DTOs para el endpoint de health check.
package health

import "time"

// ComponentStatus representa el estado de un componente.
type ComponentStatus struct {
	Status  string         `json:"status"` // "ok" | "error" | "disabled"
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"` // solo cache: keys/hits/misses
}

// Response es la respuesta de /readyz.
type Response struct {
	Status     string                     `json:"status"` // "ready" | "degraded" | "unavailable"
	Components map[string]ComponentStatus `json:"components"`
	Version    string                     `json:"version,omitempty"`
	Timestamp  time.Time                  `json:"timestamp"`
}
