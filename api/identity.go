package api

import (
	csh_auth "github.com/computersciencehouse/csh-auth"
	"github.com/gin-gonic/gin"
)

const callerKey = "caller"

// Identity resolves who is calling. Protect wraps a handler so that, by the
// time it runs, the caller's id (possibly empty) is available via caller(c).
type Identity interface {
	Protect(h gin.HandlerFunc) gin.HandlerFunc
}

// CSHIdentity authenticates through CSH SSO. Unauthenticated requests are
// redirected to the login flow by csh-auth itself.
type CSHIdentity struct {
	Auth *csh_auth.CSHAuth
}

func (i CSHIdentity) Protect(h gin.HandlerFunc) gin.HandlerFunc {
	return i.Auth.AuthWrapper(func(c *gin.Context) {
		cl, _ := c.Get("cshauth")
		claims := cl.(csh_auth.CSHClaims)
		c.Set(callerKey, claims.UserInfo.Username)
		h(c)
	})
}

// Routes registers the login, callback and logout endpoints.
func (i CSHIdentity) Routes(r gin.IRoutes) {
	r.GET("/auth/login", i.Auth.AuthRequest)
	r.GET("/auth/callback", i.Auth.AuthCallback)
	r.GET("/auth/logout", i.Auth.AuthLogout)
}

// HeaderIdentity trusts the X-User-Id header. Development and tests only.
type HeaderIdentity struct{}

const UserHeader = "X-User-Id"

func (HeaderIdentity) Protect(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(callerKey, c.GetHeader(UserHeader))
		h(c)
	}
}

func caller(c *gin.Context) string {
	return c.GetString(callerKey)
}
