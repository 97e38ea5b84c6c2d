package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"carbon-tracker/internal/core/auth"
	"carbon-tracker/internal/domain"
	"carbon-tracker/internal/transport/http/ez"
)

const (
	KeyUserID = "userId"
	KeyRole   = "role"
)

// UserFinder loads the account behind a token.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// AuthJWT resolves the bearer token into an auth.Principal stored on the
// request context. When users is set the account is re-read on every request:
// a deleted account is rejected and the stored role wins over the token's.
// requireRole, when set, rejects any other role.
func AuthJWT(j *auth.JWTer, users UserFinder, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			ez.Fail(c, domain.ErrUnauthenticated)
			c.Abort()
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			ez.Fail(c, domain.ErrUnauthenticated)
			c.Abort()
			return
		}
		p := claims.Principal()
		if users != nil {
			u, err := users.FindByID(c.Request.Context(), p.UserID)
			if errors.Is(err, domain.ErrNotFound) {
				err = domain.ErrUnauthenticated
			}
			if err != nil {
				ez.Fail(c, err)
				c.Abort()
				return
			}
			p.Role = u.Role
		}
		if requireRole != "" && p.Role != requireRole {
			ez.Fail(c, domain.ErrForbidden)
			c.Abort()
			return
		}
		c.Set(KeyUserID, p.UserID)
		c.Set(KeyRole, p.Role)
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}
