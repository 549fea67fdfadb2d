package middleware

import (
	"net/http"

	"github.com/cortexhq/cortex-auth/internal/auth"
	"github.com/cortexhq/cortex-auth/internal/authz"
	"github.com/cortexhq/cortex-auth/internal/observability"
)

// DefaultCookieName is the cookie the platform stores access tokens in.
const DefaultCookieName = "cortex_access_token"

// Gate authenticates requests from the access token cookie and attaches
// the resulting principal to the request context. One Gate is built at
// startup and shared by every route.
type Gate struct {
	codec      *auth.Codec
	cookieName string
	enabled    bool
	logger     observability.Logger
}

// GateOption is a functional option for the gate.
type GateOption func(*Gate)

// WithGateLogger sets the logger for the gate.
func WithGateLogger(logger observability.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WithGateCookieName overrides the access token cookie name.
func WithGateCookieName(name string) GateOption {
	return func(g *Gate) {
		g.cookieName = name
	}
}

// WithGateDisabled turns authentication off globally. Every request is
// treated as the fixed placeholder identity. Test environments only.
func WithGateDisabled() GateOption {
	return func(g *Gate) {
		g.enabled = false
	}
}

// NewGate creates a gate that verifies tokens with the given codec.
func NewGate(codec *auth.Codec, opts ...GateOption) *Gate {
	g := &Gate{
		codec:      codec,
		cookieName: DefaultCookieName,
		enabled:    true,
		logger:     observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Enabled reports whether authentication is globally enabled.
func (g *Gate) Enabled() bool {
	return g.enabled
}

// Authenticate resolves the principal for a request. With authentication
// disabled it returns the placeholder principal without touching the
// request. Otherwise the token cookie must be present and verify.
func (g *Gate) Authenticate(r *http.Request) (*auth.Principal, error) {
	if !g.enabled {
		return auth.PlaceholderPrincipal(), nil
	}

	cookie, err := r.Cookie(g.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, auth.ErrTokenMissing
	}

	claims, err := g.codec.Decode(cookie.Value)
	if err != nil {
		return nil, err
	}

	return auth.NewPrincipal(claims)
}

// Require returns a middleware that rejects unauthenticated requests
// with the contract error response.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := g.Authenticate(r)
		if err != nil {
			g.deny(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), principal)))
	})
}

// Optional returns a middleware that attaches a principal when a valid
// token is present and lets the request through anonymously otherwise.
// Verification failures are logged but never block the request.
func (g *Gate) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := g.Authenticate(r)
		if err != nil {
			if g.logger != nil && !isMissing(err) {
				g.logger.Debug("optional authentication failed",
					observability.String("path", r.URL.Path),
					observability.Error(err),
				)
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), principal)))
	})
}

// RequireRoles returns a middleware that authenticates the request and
// then checks the role requirement.
func (g *Gate) RequireRoles(mode authz.Mode, roles ...string) func(http.Handler) http.Handler {
	return g.requireCheck(func(p *auth.Principal) error {
		return authz.RequireRoles(p, mode, roles...)
	})
}

// RequirePermissions returns a middleware that authenticates the request
// and then checks the permission requirement.
func (g *Gate) RequirePermissions(mode authz.Mode, permissions ...string) func(http.Handler) http.Handler {
	return g.requireCheck(func(p *auth.Principal) error {
		return authz.RequirePermissions(p, mode, permissions...)
	})
}

// RequireAdmin returns a middleware that only admits administrators.
func (g *Gate) RequireAdmin() func(http.Handler) http.Handler {
	return g.requireCheck(authz.AdminOnly)
}

// RequireManager returns a middleware that admits managers and
// administrators.
func (g *Gate) RequireManager() func(http.Handler) http.Handler {
	return g.requireCheck(authz.ManagerOrAdmin)
}

func (g *Gate) requireCheck(check func(*auth.Principal) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := g.Authenticate(r)
			if err != nil {
				g.deny(w, r, err)
				return
			}

			if err := check(principal); err != nil {
				g.deny(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// deny writes the contract error response. The path and code are logged;
// the token itself never is.
func (g *Gate) deny(w http.ResponseWriter, r *http.Request, err error) {
	e := auth.Classify(err)

	g.logger.Warn("request denied",
		observability.String("path", r.URL.Path),
		observability.String("method", r.Method),
		observability.String("code", e.Code),
		observability.Int("status", e.Status),
	)

	auth.WriteError(w, e)
}

func isMissing(err error) bool {
	return auth.Classify(err).Code == auth.CodeTokenMissing
}
