package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ufacm/checkin"
)

// Resolver answers whether a session token belongs to a live user.
// *checkin.Engine satisfies it.
type Resolver interface {
	GetUser(ctx context.Context, token string) (*checkin.User, error)
}

// Action is what the guard does with a request.
type Action uint8

const (
	Pass Action = iota
	RedirectToLanding
	RedirectToHome
)

func (a Action) String() string {
	switch a {
	case Pass:
		return "pass"
	case RedirectToLanding:
		return "redirect_landing"
	case RedirectToHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

// RouteConfig partitions paths into public and protected.
type RouteConfig struct {
	// LandingPath is public and is where unauthenticated requests are sent.
	LandingPath string
	// HomePath is where authenticated requests for LandingPath are sent.
	HomePath string
	// PublicPrefixes are path segments reachable without a session. "/auth"
	// admits "/auth" and "/auth/..." but not "/authz".
	PublicPrefixes []string
	// CookieName carries the session token. A bearer Authorization header
	// is accepted when the cookie is absent.
	CookieName string
}

const DefaultCookieName = "checkin-session"

func DefaultRouteConfig() RouteConfig {
	return RouteConfig{
		LandingPath:    "/",
		HomePath:       "/dashboard",
		PublicPrefixes: []string{"/auth"},
		CookieName:     DefaultCookieName,
	}
}

// WithDefaults fills empty fields from [DefaultRouteConfig].
func (c RouteConfig) WithDefaults() RouteConfig {
	def := DefaultRouteConfig()
	if c.LandingPath == "" {
		c.LandingPath = def.LandingPath
	}
	if c.HomePath == "" {
		c.HomePath = def.HomePath
	}
	if c.PublicPrefixes == nil {
		c.PublicPrefixes = def.PublicPrefixes
	}
	if c.CookieName == "" {
		c.CookieName = def.CookieName
	}
	return c
}

// IsPublic reports whether path is reachable without a session.
func (c RouteConfig) IsPublic(path string) bool {
	if path == c.LandingPath {
		return true
	}
	for _, prefix := range c.PublicPrefixes {
		prefix = strings.TrimSuffix(prefix, "/")
		if prefix == "" {
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// Decide is the guard's decision table.
//
//	session  path            action
//	no       public          pass
//	no       protected       redirect to landing
//	yes      landing         redirect to home
//	yes      anything else   pass
func Decide(cfg RouteConfig, authenticated bool, path string) Action {
	switch {
	case !authenticated && !cfg.IsPublic(path):
		return RedirectToLanding
	case authenticated && path == cfg.LandingPath:
		return RedirectToHome
	default:
		return Pass
	}
}

// Guard resolves the session once per request and enforces the public and
// protected partition before any downstream handler runs. A failed lookup
// counts as no session. The resolved user is available to handlers through
// [UserFromContext].
func Guard(resolver Resolver, cfg RouteConfig, logger zerolog.Logger) func(http.Handler) http.Handler {
	cfg = cfg.WithDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := resolveUser(r, resolver, cfg.CookieName, logger)

			switch Decide(cfg, user != nil, r.URL.Path) {
			case RedirectToLanding:
				redirect(w, r, cfg.LandingPath)
				return
			case RedirectToHome:
				redirect(w, r, cfg.HomePath)
				return
			}

			ctx := r.Context()
			if user != nil {
				ctx = WithUser(ctx, user)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveUser(r *http.Request, resolver Resolver, cookieName string, logger zerolog.Logger) *checkin.User {
	if resolver == nil {
		return nil
	}
	token, ok := SessionToken(r, cookieName)
	if !ok {
		return nil
	}

	user, err := resolver.GetUser(r.Context(), token)
	if err != nil {
		if _, ok := checkin.AsProviderError(err); ok {
			logger.Debug().Err(err).Str("path", r.URL.Path).Msg("guard: session rejected")
		} else {
			logger.Warn().Err(err).Str("path", r.URL.Path).Msg("guard: session lookup failed")
		}
		return nil
	}
	return user
}

// redirect keeps the query string of the original request.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	target := path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// SessionToken reads the session token from the named cookie, falling back
// to a bearer Authorization header.
func SessionToken(r *http.Request, cookieName string) (string, bool) {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
