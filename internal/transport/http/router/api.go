package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-storefront/internal/core/auth"
	"go-storefront/internal/domain"
	"go-storefront/internal/transport/http/handler"
	mdw "go-storefront/internal/transport/http/middleware"
)

// NewEngine wires the full HTTP surface: public auth + catalog routes
// under /api/v1, JWT-gated /me, and the admin group under /admin/v1.
func NewEngine(
	l *zap.Logger,
	jwter *auth.JWTer,
	authH *handler.AuthHandler,
	productH *handler.ProductHandler,
	adminH *handler.AdminHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimitPerIP(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
		ginzap.RecoveryWithZap(l, true),
		mdw.Metrics(),
		mdw.AccessLog(l),
		cors.Default(),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		api.POST("/auth/register", authH.Register)
		api.POST("/auth/login", authH.Login)
		api.GET("/products", productH.List)
		api.GET("/products/:id", productH.Get)

		authed := api.Group("")
		authed.Use(mdw.AuthJWT(jwter, ""))
		authed.GET("/me", authH.Me)
	}

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(jwter, domain.RoleAdmin))
	admin.GET("/users", adminH.ListUsers)

	return r
}
