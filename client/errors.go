package client

import (
	"encoding/json"

	"github.com/ufacm/checkin"
)

var knownErrors = map[string]*checkin.ProviderError{}

func init() {
	for _, pe := range []*checkin.ProviderError{
		checkin.ErrUserAlreadyRegistered,
		checkin.ErrEmailAddressInvalid,
		checkin.ErrWeakPassword,
		checkin.ErrOTPInvalid,
		checkin.ErrOTPTypeUnsupported,
		checkin.ErrEmailNotConfirmed,
		checkin.ErrInvalidCredentials,
		checkin.ErrUserLocked,
		checkin.ErrUserNotFound,
		checkin.ErrInvalidToken,
		checkin.ErrSessionNotFound,
		checkin.ErrEmailSendFailed,
		checkin.ErrOverEmailSendRateLimit,
		checkin.ErrOverRequestRateLimit,
	} {
		knownErrors[pe.Code] = pe
	}
}

// decodeProviderError turns an error body into the matching sentinel so
// errors.Is works across the wire. Unknown codes keep the server message.
func decodeProviderError(body []byte) *checkin.ProviderError {
	var payload struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == "" {
		return nil
	}
	if known, ok := knownErrors[payload.Code]; ok && known.Message == payload.Error {
		return known
	}
	return &checkin.ProviderError{Code: payload.Code, Message: payload.Error}
}
