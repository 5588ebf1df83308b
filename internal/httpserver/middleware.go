package httpserver

import (
	"log"

	"storefront/internal/auth"
	"storefront/internal/domain"

	"github.com/gin-gonic/gin"
)

const identityKey = "storefront.identity"

// identify attaches the caller's identity when a valid token is present.
// Requests without a usable token continue as guests.
func identify(tokens tokenVerifier, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := auth.TokenFromRequest(c.Request)
		if raw == "" || tokens == nil {
			c.Next()
			return
		}
		id, err := tokens.Verify(raw)
		if err != nil {
			logger.Printf("auth: rejected token path=%s error=%v", c.Request.URL.Path, err)
			c.Next()
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func identityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

// customerIDFrom returns the authenticated customer id, or nil for guests.
func customerIDFrom(c *gin.Context) *string {
	id, ok := identityFrom(c)
	if !ok || id.CustomerID == "" {
		return nil
	}
	customerID := id.CustomerID
	return &customerID
}

func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if customerIDFrom(c) == nil {
			respondError(c, domain.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identityFrom(c)
		switch {
		case !ok:
			respondError(c, domain.ErrUnauthorized)
			c.Abort()
		case !id.Admin:
			respondError(c, domain.ErrForbidden)
			c.Abort()
		default:
			c.Next()
		}
	}
}
