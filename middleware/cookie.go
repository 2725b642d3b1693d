package middleware

import (
	"net/http"
	"time"
)

// CookieOptions shape the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
}

// SetSessionCookie writes token as an HttpOnly cookie that expires with the
// session.
func SetSessionCookie(w http.ResponseWriter, opts CookieOptions, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName(opts),
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName(opts),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func cookieName(opts CookieOptions) string {
	if opts.Name == "" {
		return DefaultCookieName
	}
	return opts.Name
}
