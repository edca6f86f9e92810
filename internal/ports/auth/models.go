package auth

import "time"

// Claims representa la identidad del caller ya resuelta.
// El valor cero es el principal anónimo.
type Claims struct {
	UserID  int64
	Email   string
	IsAdmin bool
}

// Authenticated indica si hay un usuario detrás del request.
func (c Claims) Authenticated() bool {
	return c.UserID > 0
}

// Anonymous es el principal sin credenciales.
var Anonymous = Claims{}

// TokenPair es el par de credenciales opacas que recibe el front-end.
type TokenPair struct {
	Access           string
	Refresh          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
