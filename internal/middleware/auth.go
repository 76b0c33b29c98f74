package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"docflow/internal/service"
	"docflow/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookie = "access_token"

	actorKey = "actor"
)

// Authenticator resolves a bearer token to the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (service.Actor, error)
}

// Guard authenticates requests and enforces the role policy.
type Guard struct {
	auth   Authenticator
	policy Policy
}

func NewGuard(auth Authenticator, policy Policy) *Guard {
	return &Guard{auth: auth, policy: policy}
}

// Check authenticates token and authorizes the caller for op.
func (g *Guard) Check(ctx context.Context, token, op string) (service.Actor, error) {
	actor, err := g.auth.Authenticate(ctx, token)
	if err != nil {
		return service.Actor{}, err
	}
	if err := Authorize(actor, g.roles(op)); err != nil {
		return service.Actor{}, err
	}
	return actor, nil
}

// Require returns middleware admitting only callers whose role the policy
// lists for op. It panics at route setup when op has no policy entry.
func (g *Guard) Require(op string) gin.HandlerFunc {
	g.roles(op)
	return func(c *gin.Context) {
		actor, err := g.Check(c.Request.Context(), TokenFromRequest(c), op)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(actorKey, actor)
		c.Set("userID", actor.ID.String())
		c.Set("userRole", actor.Role)
		c.Next()
	}
}

func (g *Guard) roles(op string) []string {
	roles, ok := g.policy[op]
	if !ok {
		panic("middleware: no role policy for operation " + op)
	}
	return roles
}

// Authorize fails with a forbidden error unless actor holds one of allowed.
func Authorize(actor service.Actor, allowed []string) error {
	if actor.HasRole(allowed...) {
		return nil
	}
	return &service.Error{Kind: service.ErrForbidden, Message: "access denied: insufficient permissions"}
}

// ActorFrom returns the caller stored by Require.
func ActorFrom(c *gin.Context) (service.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return service.Actor{}, false
	}
	actor, ok := v.(service.Actor)
	return actor, ok
}

// TokenFromRequest reads the access token cookie, falling back to the
// Authorization header.
func TokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// SetTokenCookie stores the access token as an HttpOnly cookie.
// secure selects the cross-site production settings.
func SetTokenCookie(c *gin.Context, token string, expiresAt time.Time, secure bool) {
	setCookie(c, token, int(time.Until(expiresAt).Seconds()), secure)
}

func ClearTokenCookie(c *gin.Context, secure bool) {
	setCookie(c, "", -1, secure)
}

func setCookie(c *gin.Context, value string, maxAge int, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(AccessTokenCookie, value, maxAge, "/", "", secure, true)
}

func abortWithError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		code = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		code = http.StatusForbidden
	}
	response.Abort(c, code, service.Message(err))
}
