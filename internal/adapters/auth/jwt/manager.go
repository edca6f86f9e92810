package jwt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"geckohub/internal/ports/auth"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenEmpty     = errors.New("token is empty")
	ErrWrongTokenType = errors.New("wrong token type")
	ErrNotConfigured  = errors.New("jwt manager not configured")
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

type tokenClaims struct {
	Email   string `json:"email,omitempty"`
	IsAdmin bool   `json:"adm,omitempty"`
	Type    string `json:"typ"`
	gojwt.RegisteredClaims
}

// Manager emite y verifica tokens HS256. Implementa auth.TokenIssuer y
// auth.AuthVerifier.
type Manager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type Options struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewManager(opts Options) (*Manager, error) {
	if strings.TrimSpace(opts.Secret) == "" {
		return nil, ErrNotConfigured
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = time.Hour
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Manager{
		secret:     []byte(opts.Secret),
		issuer:     opts.Issuer,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		now:        time.Now,
	}, nil
}

func (m *Manager) Issue(_ context.Context, c auth.Claims) (auth.TokenPair, error) {
	if m == nil {
		return auth.TokenPair{}, ErrNotConfigured
	}
	if !c.Authenticated() {
		return auth.TokenPair{}, errors.New("cannot issue tokens for anonymous claims")
	}

	now := m.now()
	access, accessExp, err := m.sign(c, typeAccess, now, m.accessTTL)
	if err != nil {
		return auth.TokenPair{}, err
	}
	refresh, refreshExp, err := m.sign(c, typeRefresh, now, m.refreshTTL)
	if err != nil {
		return auth.TokenPair{}, err
	}

	return auth.TokenPair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify solo acepta tokens de acceso.
func (m *Manager) Verify(_ context.Context, token string) (auth.Claims, error) {
	return m.parse(token, typeAccess)
}

func (m *Manager) VerifyRefresh(_ context.Context, token string) (auth.Claims, error) {
	return m.parse(token, typeRefresh)
}

func (m *Manager) sign(c auth.Claims, typ string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := tokenClaims{
		Email:   c.Email,
		IsAdmin: c.IsAdmin,
		Type:    typ,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   strconv.FormatInt(c.UserID, 10),
			Issuer:    m.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(exp),
		},
	}

	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, exp, nil
}

func (m *Manager) parse(token, wantType string) (auth.Claims, error) {
	if m == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithTimeFunc(m.now),
		gojwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(m.issuer))
	}

	var tc tokenClaims
	if _, err := gojwt.ParseWithClaims(token, &tc, func(*gojwt.Token) (any, error) {
		return m.secret, nil
	}, opts...); err != nil {
		return auth.Claims{}, fmt.Errorf("jwt verify failed: %w", err)
	}

	if tc.Type != wantType {
		return auth.Claims{}, ErrWrongTokenType
	}

	uid, err := strconv.ParseInt(tc.Subject, 10, 64)
	if err != nil || uid <= 0 {
		return auth.Claims{}, errors.New("jwt claims missing user id")
	}

	return auth.Claims{UserID: uid, Email: tc.Email, IsAdmin: tc.IsAdmin}, nil
}
