package checkin

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	internalaudit "github.com/ufacm/checkin/internal/audit"
)

// OTPType tags a one-time code with the flow it confirms.
type OTPType uint8

const (
	// OTPSignup confirms the address of a newly registered account.
	OTPSignup OTPType = 1
)

func (t OTPType) String() string {
	switch t {
	case OTPSignup:
		return "signup"
	default:
		return "unknown"
	}
}

// ParseOTPType maps the wire name of a verification type to an [OTPType].
func ParseOTPType(name string) (OTPType, error) {
	switch name {
	case "signup":
		return OTPSignup, nil
	default:
		return 0, ErrOTPTypeUnsupported
	}
}

// UserMetadata is the profile stored next to an identity.
type UserMetadata struct {
	FullName  string `json:"full_name,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// User is the principal resolved for a session. It carries only what the
// application reads: identifier, address, confirmation state and profile.
type User struct {
	ID             string       `json:"id"`
	Email          string       `json:"email"`
	EmailConfirmed bool         `json:"email_confirmed"`
	Metadata       UserMetadata `json:"user_metadata"`
	CreatedAt      time.Time    `json:"created_at"`
	ConfirmedAt    *time.Time   `json:"confirmed_at,omitempty"`
}

// Session is returned by operations that sign a user in. AccessToken is the
// value carried by the session cookie.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}

// CreateUserInput is the payload of [Engine.AdminCreateUser].
type CreateUserInput struct {
	Email          string
	Password       string
	EmailConfirmed bool
	Metadata       UserMetadata
}

// CodeSender delivers a one-time code to an address. Implementations must not
// log the code.
type CodeSender interface {
	SendCode(ctx context.Context, email, code string, kind OTPType) error
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per event to an [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// ZerologSink writes events as structured log lines.
type ZerologSink = internalaudit.ZerologSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

func NewZerologSink(logger zerolog.Logger) *ZerologSink {
	return internalaudit.NewZerologSink(logger)
}
