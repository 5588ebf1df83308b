package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestVerifyUserToken(t *testing.T) {
	v := NewVerifier("s3cret", "admin@shop.test")
	id, err := v.Verify(sign(t, "s3cret", jwt.SigningMethodHS256, jwt.MapClaims{"id": "user-1"}))
	require.NoError(t, err)
	assert.Equal(t, Identity{CustomerID: "user-1"}, id)
}

func TestVerifyAdminToken(t *testing.T) {
	// The account service signs {admin: ADMIN_EMAIL + ADMIN_PASSWORD}.
	v := NewVerifier("s3cret", "admin@shop.testhunter2")
	id, err := v.Verify(sign(t, "s3cret", jwt.SigningMethodHS256, jwt.MapClaims{"admin": "admin@shop.testhunter2"}))
	require.NoError(t, err)
	assert.True(t, id.Admin)

	_, err = v.Verify(sign(t, "s3cret", jwt.SigningMethodHS256, jwt.MapClaims{"admin": "admin@shop.test"}))
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = v.Verify(sign(t, "s3cret", jwt.SigningMethodHS256, jwt.MapClaims{"admin": "someone@else"}))
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifyAdminDisabledWithoutClaim(t *testing.T) {
	v := NewVerifier("s3cret", "")
	_, err := v.Verify(sign(t, "s3cret", jwt.SigningMethodHS256, jwt.MapClaims{"admin": ""}))
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier("s3cret", "admin@shop.test")
	cases := map[string]string{
		"empty":       "",
		"garbage":     "not.a.token",
		"wrong key":   sign(t, "other", jwt.SigningMethodHS256, jwt.MapClaims{"id": "u"}),
		"wrong alg":   sign(t, "s3cret", jwt.SigningMethodHS512, jwt.MapClaims{"id": "u"}),
		"expired":     sign(t, "s3cret", jwt.SigningMethodHS256, jwt.MapClaims{"id": "u", "exp": time.Now().Add(-time.Hour).Unix()}),
		"no identity": sign(t, "s3cret", jwt.SigningMethodHS256, jwt.MapClaims{"foo": "bar"}),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(tok)
			require.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, TokenFromRequest(r))

	r.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", TokenFromRequest(r))

	r.AddCookie(&http.Cookie{Name: CookieName, Value: "fromcookie"})
	assert.Equal(t, "fromcookie", TokenFromRequest(r))
}
