// Package identity deriva el id interno (forma UUID) a partir del id externo
// del proveedor de auth. Es una función pura: el mismo id externo produce
// siempre el mismo id interno, así no hace falta tabla de mapeo.
//
// No es un mecanismo de seguridad; solo da forma de UUID a una clave opaca
// para que entre en columnas uuid.
package identity

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Namespace se antepone al id externo antes del hash.
const Namespace = "pdfsummary:user:"

var canonical = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Map devuelve sha256(Namespace+externalID)[:16] en forma 8-4-4-4-12.
// Los bytes van tal cual, sin tocar los bits de versión/variante.
func Map(externalID string) string {
	sum := sha256.Sum256([]byte(Namespace + externalID))
	id, err := uuid.FromBytes(sum[:16])
	if err != nil {
		// FromBytes solo falla con len != 16
		panic(fmt.Sprintf("identity: %v", err))
	}
	return id.String()
}

// Valid indica si s tiene la forma canónica en minúsculas que produce Map.
func Valid(s string) bool {
	return canonical.MatchString(strings.TrimSpace(s))
}
