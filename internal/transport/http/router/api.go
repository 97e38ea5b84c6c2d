package router

import (
	"github.com/gin-gonic/gin"

	mdw "carbon-tracker/internal/transport/http/middleware"
)

// NewAPIEngine serves /api/v1 for end users.
func NewAPIEngine(o Options) *gin.Engine {
	r := base(o, "api")

	api := r.Group("/api/v1")
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(o.JWT, o.Users, ""))

	o.Registry.MountAPI(api, authed)
	return r
}
