package provision

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ufacm/checkin"
)

// Path is where the provisioning endpoint is mounted.
const Path = "/validate-signup"

const (
	messageCreated    = "User created successfully. Please verify your email."
	messageUnexpected = "An unexpected error occurred."

	maxBodyBytes = 64 << 10
)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
}

type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	User    *Account `json:"user"`
}

// Router serves the provisioning endpoint with permissive CORS. Every fault
// that is neither a rejection nor a provider refusal is answered with a
// generic 500 body.
func (p *Provisioner) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors)
	r.Use(p.recoverer)

	r.Options("/*", preflight)
	r.Post("/", p.handle)
	r.Post(Path, p.handle)

	return r
}

func (p *Provisioner) handle(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		p.logger.Error().Err(err).Msg("provision: decode request")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: messageUnexpected})
		return
	}

	account, err := p.Provision(r.Context(), req)
	if err != nil {
		p.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Message: messageCreated,
		User:    account,
	})
}

func (p *Provisioner) writeError(w http.ResponseWriter, err error) {
	if rej, ok := err.(*Rejection); ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: rej.Message})
		return
	}
	if perr, ok := checkin.AsProviderError(err); ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: perr.Message})
		return
	}

	p.logger.Error().Err(err).Msg("provision: unexpected failure")
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: messageUnexpected})
}

func (p *Provisioner) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				p.logger.Error().Str("panic", fmt.Sprint(rec)).Str("path", r.URL.Path).Msg("provision: panic recovered")
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: messageUnexpected})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range corsHeaders {
			w.Header().Set(k, v)
		}
		next.ServeHTTP(w, r)
	})
}

func preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
