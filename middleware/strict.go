package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ufacm/checkin"
)

// RequireSession is the API counterpart of [Guard]: requests without a live
// session get a 401 JSON body instead of a redirect. A principal already
// resolved by Guard is reused.
func RequireSession(resolver Resolver, cookieName string, logger zerolog.Logger) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}
			user := resolveUser(r, resolver, cookieName, logger)
			if user == nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": checkin.ErrSessionNotFound.Message,
					"code":  checkin.ErrSessionNotFound.Code,
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
