// Package httpkit provides HTTP utilities including identity extraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated user's identity. Handlers use this
// abstraction instead of reading gin context keys directly.
type Identity interface {
	// UserID returns the authenticated user's ID.
	UserID() uuid.UUID
	// Role returns the user's role name.
	Role() string
	// Sector returns the user's sector.
	Sector() string
	// IsAuthenticated reports whether the request carries a valid identity.
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	role          string
	sector        string
	authenticated bool
}

func (i *identity) UserID() uuid.UUID    { return i.userID }
func (i *identity) Role() string         { return i.role }
func (i *identity) Sector() string       { return i.sector }
func (i *identity) IsAuthenticated() bool { return i.authenticated }

// GetIdentity extracts the Identity from a gin context. Returns an
// unauthenticated identity when no user info is present.
func GetIdentity(c *gin.Context) Identity {
	userID, ok := c.Get(ContextUserIDKey)
	if !ok {
		return &identity{}
	}

	uid, ok := userID.(uuid.UUID)
	if !ok {
		return &identity{}
	}

	out := &identity{userID: uid, authenticated: true}
	if role, ok := c.Get(ContextRoleKey); ok {
		out.role, _ = role.(string)
	}
	if sector, ok := c.Get(ContextSectorKey); ok {
		out.sector, _ = sector.(string)
	}
	return out
}

// MustGetIdentity extracts the Identity and aborts with 401 when the request
// is unauthenticated. Returns nil after aborting.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
