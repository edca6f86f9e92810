package access

import "geckohub/internal/ports/auth"

// CanList es el predicado de listados: solo dueño o admin; anónimo nunca.
// Registros sin dueño (legacy) solo los ve un admin.
func CanList(c auth.Claims, ownerUserID *int64) bool {
	if !c.Authenticated() {
		return false
	}
	if c.IsAdmin {
		return true
	}
	return ownerUserID != nil && *ownerUserID == c.UserID
}

// CanMutate: dueño o admin. Mismo criterio que CanList, pero separado a
// propósito: los listados y las mutaciones pueden divergir sin tocarse.
//
// No existe predicado de detalle: las lecturas por id no filtran por dueño
// (el linaje apunta a animales de otras colecciones).
func CanMutate(c auth.Claims, ownerUserID *int64) bool {
	if !c.Authenticated() {
		return false
	}
	if c.IsAdmin {
		return true
	}
	return ownerUserID != nil && *ownerUserID == c.UserID
}

// RequireMutate devuelve el error adecuado para el caller.
func RequireMutate(c auth.Claims, ownerUserID *int64) error {
	if !c.Authenticated() {
		return ErrUnauthorized
	}
	if !CanMutate(c, ownerUserID) {
		return ErrForbidden
	}
	return nil
}
