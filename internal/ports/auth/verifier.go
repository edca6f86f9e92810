package auth

import "context"

// AuthVerifier verifica un token de acceso y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// TokenIssuer emite y renueva pares de tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, claims Claims) (TokenPair, error)
	// VerifyRefresh valida un refresh token y devuelve los claims que contenía.
	VerifyRefresh(ctx context.Context, token string) (Claims, error)
}
