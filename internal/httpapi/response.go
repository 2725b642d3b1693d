package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ufacm/checkin"
)

// MessageUnexpected is the body of every fault that is not a provider error.
const MessageUnexpected = "An unexpected error occurred"

const maxBodyBytes = 64 << 10

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, apiError{Error: message, Code: code})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

// statusFor maps an engine error to a response status. ok is false for
// faults whose text must not reach the caller.
func statusFor(err error) (status int, pe *checkin.ProviderError, ok bool) {
	pe, ok = checkin.AsProviderError(err)
	if !ok {
		return http.StatusInternalServerError, nil, false
	}
	switch {
	case checkin.IsRateLimited(err):
		return http.StatusTooManyRequests, pe, true
	case errors.Is(err, checkin.ErrInvalidToken), errors.Is(err, checkin.ErrSessionNotFound):
		return http.StatusUnauthorized, pe, true
	default:
		return http.StatusBadRequest, pe, true
	}
}
