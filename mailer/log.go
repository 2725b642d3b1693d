package mailer

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ufacm/checkin"
)

// LogSender writes codes to the log instead of sending mail. It exists for
// local development only and must not be used where logs are shipped.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendCode(_ context.Context, email, code string, kind checkin.OTPType) error {
	s.logger.Info().
		Str("email", email).
		Str("kind", kind.String()).
		Str("code", code).
		Msg("mailer: verification code")
	return nil
}
