// Package api exposes the poll service over HTTP as JSON.
package api

import (
	"net/http"

	"github.com/computersciencehouse/borda/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type Options struct {
	Identity Identity
	// Limiter throttles the write endpoints. Nil disables throttling.
	Limiter *rate.Limiter
	// AllowOrigins lists CORS origins. Empty allows every origin.
	AllowOrigins []string
}

func NewRouter(polls *service.PollService, opts Options) *gin.Engine {
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	if len(opts.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.AllowOrigins
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", UserHeader)
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	identity := opts.Identity
	if identity == nil {
		identity = HeaderIdentity{}
	}
	if routes, ok := identity.(interface{ Routes(gin.IRoutes) }); ok {
		routes.Routes(r)
	}

	h := pollHandler{polls: polls}
	limit := rateLimit(opts.Limiter)

	g := r.Group("/api/polls")
	g.GET("", identity.Protect(h.list))
	g.POST("", limit, identity.Protect(h.create))
	g.GET("/:id", identity.Protect(h.get))
	g.POST("/:id/open", limit, identity.Protect(h.open))
	g.POST("/:id/close", limit, identity.Protect(h.close))
	g.POST("/:id/votes", limit, identity.Protect(h.vote))
	g.GET("/:id/voted", identity.Protect(h.voted))
	g.GET("/:id/results", identity.Protect(h.results))

	return r
}
