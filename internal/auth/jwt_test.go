package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nmakri/userhub/internal/auth"
)

const testSecret = "test-secret-key"

func newManager() *auth.Manager {
	return auth.NewManager(testSecret, 15*time.Minute, 7*24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newManager()

	raw, err := m.GenerateAccessToken("user-42")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	subject, err := m.VerifyAccessToken(raw)
	if err != nil {
		t.Fatalf("VerifyAccessToken failed: %v", err)
	}

	if subject != "user-42" {
		t.Fatalf("subject = %q, want user-42", subject)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := newManager()

	raw, err := m.GenerateRefreshToken("user-42")
	if err != nil {
		t.Fatalf("GenerateRefreshToken failed: %v", err)
	}

	subject, err := m.VerifyRefreshToken(raw)
	if err != nil {
		t.Fatalf("VerifyRefreshToken failed: %v", err)
	}

	if subject != "user-42" {
		t.Fatalf("subject = %q, want user-42", subject)
	}
}

func TestKindMismatchIsInvalid(t *testing.T) {
	m := newManager()

	access, _ := m.GenerateAccessToken("user-42")
	refresh, _ := m.GenerateRefreshToken("user-42")

	// access token where a refresh token is expected
	_, err := m.VerifyRefreshToken(access)
	if !errors.Is(err, auth.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}

	// and the other way around
	_, err = m.VerifyAccessToken(refresh)
	if !errors.Is(err, auth.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestExpiredToken(t *testing.T) {
	// negative TTL issues a token that is already past exp
	m := auth.NewManager(testSecret, -1*time.Minute, -1*time.Minute)

	raw, err := m.GenerateAccessToken("user-42")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	_, err = m.VerifyAccessToken(raw)
	if !errors.Is(err, auth.ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
}

func TestWrongSecretIsInvalid(t *testing.T) {
	m := newManager()
	other := auth.NewManager("a-different-secret", 15*time.Minute, 7*24*time.Hour)

	raw, _ := other.GenerateAccessToken("user-42")

	_, err := m.VerifyAccessToken(raw)
	if !errors.Is(err, auth.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestExpiredButTamperedIsInvalid(t *testing.T) {
	m := newManager()
	other := auth.NewManager("a-different-secret", -1*time.Minute, -1*time.Minute)

	// expired AND signed with the wrong key: signature wins
	raw, _ := other.GenerateAccessToken("user-42")

	_, err := m.VerifyAccessToken(raw)
	if !errors.Is(err, auth.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestMalformedToken(t *testing.T) {
	m := newManager()

	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := m.VerifyAccessToken(raw)
		if !errors.Is(err, auth.ErrInvalid) {
			t.Fatalf("VerifyAccessToken(%q) err = %v, want ErrInvalid", raw, err)
		}
	}
}

func TestRejectsUnexpectedSigningMethod(t *testing.T) {
	m := newManager()

	// alg=none token with otherwise plausible claims
	token := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{
		Kind: string(auth.KindAccess),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(time.Hour)),
		},
	})

	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing test token failed: %v", err)
	}

	_, err = m.VerifyAccessToken(raw)
	if !errors.Is(err, auth.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestMissingSubjectIsInvalid(t *testing.T) {
	m := newManager()

	raw, err := m.GenerateAccessToken("")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	_, err = m.VerifyAccessToken(raw)
	if !errors.Is(err, auth.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}
