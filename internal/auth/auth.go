// Package auth verifies the HS256 tokens issued by the storefront's account service.
package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"storefront/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the cookie carrying the session token.
const CookieName = "token"

// Identity is what a verified token says about the caller.
type Identity struct {
	CustomerID string
	Admin      bool
}

type Verifier struct {
	secret     []byte
	adminClaim []byte
}

// NewVerifier takes the HS256 secret and the exact "admin" claim value the
// account service signs into admin tokens. An empty adminClaim disables admin access.
func NewVerifier(secret, adminClaim string) *Verifier {
	return &Verifier{secret: []byte(secret), adminClaim: []byte(adminClaim)}
}

// Verify checks the signature and expiry. User tokens carry an "id" claim;
// admin tokens carry an "admin" claim equal to the configured admin claim.
func (v *Verifier) Verify(raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, fmt.Errorf("missing token: %w", domain.ErrUnauthorized)
	}
	if len(v.secret) == 0 {
		return Identity{}, fmt.Errorf("token verification disabled: %w", domain.ErrUnauthorized)
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, fmt.Errorf("%v: %w", err, domain.ErrUnauthorized)
	}

	var id Identity
	if sub, ok := claims["id"].(string); ok {
		id.CustomerID = strings.TrimSpace(sub)
	}
	if admin, ok := claims["admin"].(string); ok && len(v.adminClaim) > 0 &&
		subtle.ConstantTimeCompare([]byte(admin), v.adminClaim) == 1 {
		id.Admin = true
	}
	if id.CustomerID == "" && !id.Admin {
		return Identity{}, fmt.Errorf("token has no identity: %w", domain.ErrUnauthorized)
	}
	return id, nil
}

// TokenFromRequest reads the token cookie, falling back to a bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
