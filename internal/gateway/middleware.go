package gateway

import (
	"github.com/gin-gonic/gin"

	"github.com/cortexhq/cortex-auth/internal/auth"
	"github.com/cortexhq/cortex-auth/internal/middleware"
	"github.com/cortexhq/cortex-auth/internal/observability"
)

// CanaryAuth returns a gin middleware combining the canary decision with
// the authentication gate. Public paths pass untouched. With
// authentication globally disabled every other request carries the
// placeholder principal. Otherwise the canary decides per request
// whether the gate enforces.
func CanaryAuth(gate *middleware.Gate, canary *Canary, metrics *Metrics, logger observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := canary.Decide(c.Request.URL.Path)
		if decision == DecisionPublic {
			c.Next()
			return
		}

		if !gate.Enabled() {
			metrics.RecordCanary(false)
			attachPrincipal(c, auth.PlaceholderPrincipal())
			c.Next()
			return
		}

		if decision == DecisionSkip {
			metrics.RecordCanary(false)
			c.Next()
			return
		}

		principal, err := gate.Authenticate(c.Request)
		if err != nil {
			e := auth.Classify(err)

			logger.Warn("canary enforcement denied request",
				observability.String("path", c.Request.URL.Path),
				observability.String("method", c.Request.Method),
				observability.String("code", e.Code),
			)

			metrics.RecordCanary(true)
			c.AbortWithStatusJSON(e.Status, auth.ErrorBody{
				Detail: auth.ErrorDetail{Code: e.Code, Message: e.Message},
			})
			return
		}

		metrics.RecordCanary(true)
		metrics.AuthenticatedRequestStarted()
		defer metrics.AuthenticatedRequestFinished()

		attachPrincipal(c, principal)
		c.Next()
	}
}

// attachPrincipal stores the principal on the request context so that
// downstream handlers and the proxy see it through the standard
// accessor.
func attachPrincipal(c *gin.Context, p *auth.Principal) {
	c.Request = c.Request.WithContext(auth.ContextWithPrincipal(c.Request.Context(), p))
}
