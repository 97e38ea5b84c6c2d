package router

import (
	"github.com/gin-gonic/gin"

	"carbon-tracker/internal/domain"
	mdw "carbon-tracker/internal/transport/http/middleware"
)

// NewAdminEngine serves /admin/v1; every route requires an ADMIN token.
func NewAdminEngine(o Options) *gin.Engine {
	r := base(o, "admin")

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(o.JWT, o.Users, domain.RoleAdmin))

	o.Registry.MountAdmin(admin)
	return r
}
