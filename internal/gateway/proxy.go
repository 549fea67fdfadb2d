package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"

	"github.com/cortexhq/cortex-auth/internal/auth"
	"github.com/cortexhq/cortex-auth/internal/observability"
)

// Identity headers injected for downstream services. Downstream trusts
// the gateway; these headers are stripped from inbound requests before
// proxying so clients cannot forge them.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRoles = "X-User-Roles"
)

// Route maps a path prefix to a downstream service.
type Route struct {
	// Name identifies the service in logs and metrics.
	Name string
	// Prefix is the inbound path prefix that selects this route.
	Prefix string
	// Target is the downstream base URL.
	Target *url.URL
	// PreservePath forwards the full inbound path instead of stripping
	// the prefix. Used for services that mount the gateway prefix
	// themselves.
	PreservePath bool
}

// Proxy forwards requests to downstream services by longest matching
// path prefix.
type Proxy struct {
	routes  []Route
	proxies map[string]*httputil.ReverseProxy
	metrics *Metrics
	logger  observability.Logger
}

// NewProxy creates a proxy over the route table.
func NewProxy(routes []Route, metrics *Metrics, logger observability.Logger) (*Proxy, error) {
	for _, route := range routes {
		if route.Target == nil {
			return nil, fmt.Errorf("route %s has no target", route.Name)
		}
		if !strings.HasPrefix(route.Prefix, "/") {
			return nil, fmt.Errorf("route %s prefix %q must start with /", route.Name, route.Prefix)
		}
	}

	sorted := make([]Route, len(routes))
	copy(sorted, routes)
	sort.Slice(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})

	p := &Proxy{
		routes:  sorted,
		proxies: make(map[string]*httputil.ReverseProxy, len(sorted)),
		metrics: metrics,
		logger:  logger,
	}

	for _, route := range sorted {
		p.proxies[route.Name] = p.build(route)
	}

	return p, nil
}

// Routes returns the route table ordered by descending prefix length.
func (p *Proxy) Routes() []Route {
	return p.routes
}

// Match returns the route for a path, if any.
func (p *Proxy) Match(path string) (Route, bool) {
	for _, route := range p.routes {
		if strings.HasPrefix(path, route.Prefix) {
			return route, true
		}
	}
	return Route{}, false
}

// ServeHTTP forwards the request to the matching downstream service, or
// responds 404 when no route matches.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route, ok := p.Match(r.URL.Path)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprintf(w, `{"detail":{"code":"not_found","message":"No service handles %s"}}`, r.URL.Path)
		return
	}

	p.metrics.RecordProxy(route.Name)
	p.proxies[route.Name].ServeHTTP(w, r)
}

// build creates the reverse proxy for one route.
func (p *Proxy) build(route Route) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Director: func(r *http.Request) {
			r.URL.Scheme = route.Target.Scheme
			r.URL.Host = route.Target.Host
			r.Host = route.Target.Host

			if !route.PreservePath {
				rest := strings.TrimPrefix(r.URL.Path, route.Prefix)
				if !strings.HasPrefix(rest, "/") {
					rest = "/" + rest
				}
				r.URL.Path = rest
			}

			injectIdentity(r)
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			p.logger.Error("proxy to downstream failed",
				observability.String("service", route.Name),
				observability.String("path", r.URL.Path),
				observability.Error(err),
			)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = fmt.Fprintf(w, `{"detail":{"code":"bad_gateway","message":"Service %s is unavailable"}}`, route.Name)
		},
	}
}

// injectIdentity replaces the trusted identity headers with values from
// the authenticated principal, or removes them for anonymous requests.
func injectIdentity(r *http.Request) {
	r.Header.Del(HeaderUserID)
	r.Header.Del(HeaderUserEmail)
	r.Header.Del(HeaderUserRoles)

	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return
	}

	r.Header.Set(HeaderUserID, principal.UserID.String())
	r.Header.Set(HeaderUserEmail, principal.Email)
	r.Header.Set(HeaderUserRoles, strings.Join(principal.Roles, ","))
}
