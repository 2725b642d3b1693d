package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ufacm/checkin"
	"github.com/ufacm/checkin/middleware"
)

// Options configure [NewRouter].
type Options struct {
	Routes        middleware.RouteConfig
	Cookie        middleware.CookieOptions
	Organizations []Organization
	Logger        zerolog.Logger
}

// NewRouter registers the application routes. Every route sits behind
// [middleware.Guard]; the auth API lives under the public /auth prefix.
func NewRouter(engine *checkin.Engine, opts Options) http.Handler {
	routes := opts.Routes
	if routes.CookieName == "" {
		routes.CookieName = opts.Cookie.Name
	}
	routes = routes.WithDefaults()

	cookie := opts.Cookie
	cookie.Name = routes.CookieName

	h := &Handler{
		engine: engine,
		routes: routes,
		cookie: cookie,
		orgs:   opts.Organizations,
		domain: engine.Validator().Domain(),
		logger: opts.Logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware(opts.Logger))
	r.Use(loggingMiddleware(opts.Logger))
	r.Use(clientIPMiddleware)
	r.Use(middleware.Guard(engine, routes, opts.Logger))

	r.Get(routes.LandingPath, h.landing)
	r.Get(routes.HomePath, h.dashboard)
	r.Get("/organizations", h.organizations)

	r.Route("/auth/v1", func(r chi.Router) {
		r.Post("/signup", h.signup)
		r.Post("/verify", h.verify)
		r.Post("/resend", h.resend)
		r.Post("/token", h.token)
		r.Post("/logout", h.logout)
		r.With(middleware.RequireSession(engine, routes.CookieName, opts.Logger)).Get("/user", h.user)
	})

	return r
}
