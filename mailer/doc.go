// Package mailer delivers one-time confirmation codes. [SMTPSender] talks to
// a relay through gomail; [LogSender] prints codes for development.
package mailer
