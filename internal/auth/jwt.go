package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failures collapse into two kinds the caller can act on:
// ErrExpired for a well-signed token past its expiry, ErrInvalid for
// everything else (bad signature, malformed, wrong kind).
var (
	ErrInvalid = errors.New("invalid token")
	ErrExpired = errors.New("token expired")
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

type Claims struct {
	Kind string `json:"typ"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 tokens. Tokens are self-describing:
// validity is a function of signature and embedded expiry alone, so Manager
// keeps no per-token state and is safe for concurrent use.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager takes the signing secret explicitly; the key lives in config,
// not in a package-level variable.
func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (m *Manager) AccessTTL() time.Duration {
	return m.accessTTL
}

func (m *Manager) GenerateAccessToken(subject string) (string, error) {
	return m.generate(subject, KindAccess, m.accessTTL)
}

func (m *Manager) GenerateRefreshToken(subject string) (string, error) {
	return m.generate(subject, KindRefresh, m.refreshTTL)
}

func (m *Manager) generate(subject string, kind Kind, ttl time.Duration) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		Kind: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(m.secret)
}

// Verify checks signature, then expiry, then that the embedded kind matches
// what the caller expects, and returns the subject. A refresh token presented
// where an access token is expected fails with ErrInvalid, it never silently
// proceeds.
func (m *Manager) Verify(raw string, kind Kind) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256

		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		// Signature trumps expiry: a tampered token is invalid even when
		// its exp also lies in the past.
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return "", ErrExpired
		}
		return "", ErrInvalid
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid {
		return "", ErrInvalid
	}

	if claims.Kind != string(kind) || claims.Subject == "" {
		return "", ErrInvalid
	}

	return claims.Subject, nil
}

func (m *Manager) VerifyAccessToken(raw string) (string, error) {
	return m.Verify(raw, KindAccess)
}

func (m *Manager) VerifyRefreshToken(raw string) (string, error) {
	return m.Verify(raw, KindRefresh)
}
