package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORSPolicy is the single cross-origin policy of the API: an exact
// allow-list plus hostname suffix rules (e.g. ".vercel.app" for preview
// deployments). AllowAll admits every origin and is meant for development.
type CORSPolicy struct {
	allowed          map[string]struct{}
	suffixes         []string
	allowCredentials bool
	allowAll         bool
}

func NewCORSPolicy(origins, suffixes []string, allowCredentials, allowAll bool) *CORSPolicy {
	p := &CORSPolicy{
		allowed:          make(map[string]struct{}, len(origins)),
		allowCredentials: allowCredentials,
		allowAll:         allowAll,
	}
	for _, o := range origins {
		if o = normalizeOrigin(o); o != "" {
			p.allowed[o] = struct{}{}
		}
	}
	for _, s := range suffixes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if !strings.HasPrefix(s, ".") {
			s = "." + s
		}
		p.suffixes = append(p.suffixes, s)
	}
	return p
}

// Allows reports whether origin may call the API. An empty origin (same
// origin or non-browser client) is allowed.
func (p *CORSPolicy) Allows(origin string) bool {
	origin = normalizeOrigin(origin)
	if origin == "" || p.allowAll {
		return true
	}
	if _, ok := p.allowed[origin]; ok {
		return true
	}

	host := origin
	if i := strings.Index(host, "://"); i != -1 {
		host = host[i+3:]
	}
	if i := strings.LastIndex(host, ":"); i != -1 {
		host = host[:i]
	}
	for _, s := range p.suffixes {
		if strings.HasSuffix(host, s) && len(host) > len(s) {
			return true
		}
	}
	return false
}

// Handler returns the CORS middleware. Preflights are answered with 200 so
// they never surface as 403s in the browser.
func (p *CORSPolicy) Handler() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return p.Allows(origin)
		},
		AllowedMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:     []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials:   p.allowCredentials,
		MaxAge:             300,
		OptionsPassthrough: false,
	})
}

func normalizeOrigin(o string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(o)), "/")
}
