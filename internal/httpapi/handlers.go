package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ufacm/checkin"
	"github.com/ufacm/checkin/middleware"
)

type signupRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
	Type  string `json:"type"`
}

type resendRequest struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	AccessToken string        `json:"access_token"`
	ExpiresAt   time.Time     `json:"expires_at"`
	User        *checkin.User `json:"user"`
}

// Handler serves the auth-flow API and the guarded pages.
type Handler struct {
	engine *checkin.Engine
	routes middleware.RouteConfig
	cookie middleware.CookieOptions
	orgs   []Organization
	domain string
	logger zerolog.Logger
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status, pe, ok := statusFor(err)
	if !ok {
		h.logger.Error().
			Err(err).
			Str("operation", operation).
			Str("request_id", requestIDFromContext(r.Context())).
			Msg("http: operation failed")
		writeError(w, status, "unexpected_failure", MessageUnexpected)
		return
	}
	writeError(w, status, pe.Code, pe.Message)
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, operation string, err error) {
	h.logger.Debug().
		Err(err).
		Str("operation", operation).
		Str("request_id", requestIDFromContext(r.Context())).
		Msg("http: malformed request body")
	writeError(w, http.StatusBadRequest, "bad_json", "Could not parse request body as JSON")
}

func otpType(name string) (checkin.OTPType, error) {
	if strings.TrimSpace(name) == "" {
		return checkin.OTPSignup, nil
	}
	return checkin.ParseOTPType(name)
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.badRequest(w, r, "signup", err)
		return
	}

	user, err := h.engine.SignUp(r.Context(), req.Email, req.Password, req.RedirectTo)
	if err != nil {
		h.fail(w, r, "signup", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.badRequest(w, r, "verify", err)
		return
	}
	kind, err := otpType(req.Type)
	if err != nil {
		h.fail(w, r, "verify", err)
		return
	}

	sess, err := h.engine.VerifyOTP(r.Context(), req.Email, req.Token, kind)
	if err != nil {
		h.fail(w, r, "verify", err)
		return
	}
	h.startSession(w, sess)
}

func (h *Handler) resend(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.badRequest(w, r, "resend", err)
		return
	}
	kind, err := otpType(req.Type)
	if err != nil {
		h.fail(w, r, "resend", err)
		return
	}

	if err := h.engine.ResendOTP(r.Context(), req.Email, kind); err != nil {
		h.fail(w, r, "resend", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (h *Handler) token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.badRequest(w, r, "token", err)
		return
	}

	sess, err := h.engine.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, "token", err)
		return
	}
	h.startSession(w, sess)
}

func (h *Handler) startSession(w http.ResponseWriter, sess *checkin.Session) {
	middleware.SetSessionCookie(w, h.cookie, sess.AccessToken, sess.ExpiresAt)
	writeJSON(w, http.StatusOK, sessionResponse{
		AccessToken: sess.AccessToken,
		ExpiresAt:   sess.ExpiresAt,
		User:        sess.User,
	})
}

// logout revokes the session if one is presented. The cookie is cleared and
// the caller sent to the landing page even when the token was already
// invalid.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := middleware.SessionToken(r, h.routes.CookieName); ok {
		err := h.engine.SignOut(r.Context(), token)
		if err != nil && !errors.Is(err, checkin.ErrInvalidToken) {
			h.fail(w, r, "logout", err)
			return
		}
	}

	middleware.ClearSessionCookie(w, h.cookie)
	http.Redirect(w, r, h.routes.LandingPath, http.StatusSeeOther)
}

func (h *Handler) user(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) landing(w http.ResponseWriter, _ *http.Request) {
	renderPage(w, "landing", pageData{Title: "UF ACM Check-In", Domain: h.domain})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, h.routes.LandingPath, http.StatusTemporaryRedirect)
		return
	}
	renderPage(w, "dashboard", pageData{Title: "Dashboard", User: user})
}

func (h *Handler) organizations(w http.ResponseWriter, _ *http.Request) {
	renderPage(w, "organizations", pageData{Title: "Organizations", Organizations: h.orgs})
}
