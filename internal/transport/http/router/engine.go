package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"carbon-tracker/internal/core/auth"
	"carbon-tracker/internal/core/server"
	mdw "carbon-tracker/internal/transport/http/middleware"
)

type Options struct {
	Log          *zap.Logger
	JWT          *auth.JWTer
	Users        mdw.UserFinder
	AllowOrigins []string
	Registry     *Registry
}

// base builds the shared middleware chain, /health and /metrics.
func base(o Options, name string) *gin.Engine {
	r := server.NewRouter(o.Log, o.AllowOrigins)
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.RateLimitPerIP(20, 40, 10*time.Minute),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
		mdw.Metrics(name),
		mdw.AccessLog(o.Log),
	)
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
