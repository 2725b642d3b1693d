package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"gopkg.in/gomail.v2"

	"github.com/ufacm/checkin"
)

// SMTPConfig holds the relay settings. They are read from CHECKIN_SMTP_*
// variables only so credentials never sit in a config file.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
	// AppName appears in the subject and body of every message.
	AppName string `env:"SMTP_APP_NAME" envDefault:"UF Check-In"`
}

// LoadSMTPConfig parses the SMTP settings from the environment.
func LoadSMTPConfig() (SMTPConfig, error) {
	cfg, err := env.ParseAsWithOptions[SMTPConfig](env.Options{Prefix: "CHECKIN_"})
	if err != nil {
		return SMTPConfig{}, fmt.Errorf("mailer: parse environment: %w", err)
	}
	return cfg, nil
}

func (c SMTPConfig) Validate() error {
	switch {
	case c.Host == "":
		return errors.New("mailer: missing SMTP host")
	case c.Port <= 0:
		return errors.New("mailer: missing SMTP port")
	case c.From == "":
		return errors.New("mailer: missing SMTP from address")
	}
	if (c.Username == "") != (c.Password == "") {
		return errors.New("mailer: SMTP username and password must be set together")
	}
	return nil
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers confirmation codes through an SMTP relay.
type SMTPSender struct {
	config SMTPConfig
	dialer dialer
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.AppName == "" {
		cfg.AppName = "UF Check-In"
	}
	return &SMTPSender{
		config: cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

// SendCode implements checkin.CodeSender. gomail has no context support, so
// ctx is only checked before dialing.
func (s *SMTPSender) SendCode(ctx context.Context, email, code string, kind checkin.OTPType) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := s.message(email, code, kind)
	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", email, err)
	}
	return nil
}

func (s *SMTPSender) message(email, code string, kind checkin.OTPType) *gomail.Message {
	body := renderCode(s.config.AppName, code, kind)

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.config.From)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", body.subject)
	msg.SetBody("text/plain", body.text)
	msg.AddAlternative("text/html", body.html)
	return msg
}
