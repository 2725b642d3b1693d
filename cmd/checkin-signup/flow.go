package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"

	"github.com/ufacm/checkin"
	"github.com/ufacm/checkin/verification"
)

type terminal struct {
	in    *bufio.Reader
	out   io.Writer
	fd    int
	isTTY bool
}

func (t *terminal) line(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	raw, err := t.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || raw == "") {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// secret reads without echo when stdin is a terminal.
func (t *terminal) secret(prompt string) (string, error) {
	if !t.isTTY {
		return t.line(prompt)
	}
	fmt.Fprint(t.out, prompt)
	raw, err := term.ReadPassword(t.fd)
	fmt.Fprintln(t.out)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// signup collects the form until the server accepts it, then reads codes
// line by line. A full eight-digit line is pasted into the session, which
// submits it; "resend" asks for a new code.
func signup(ctx context.Context, t *terminal, s *verification.Session, email string) (*checkin.Session, error) {
	for {
		var err error
		if email == "" {
			if email, err = t.line("UF email: "); err != nil {
				return nil, err
			}
		}
		password, err := t.secret("Password: ")
		if err != nil {
			return nil, err
		}
		confirm, err := t.secret("Confirm password: ")
		if err != nil {
			return nil, err
		}

		err = s.BeginSignup(ctx, verification.SignupForm{Email: email, Password: password, ConfirmPassword: confirm})
		if err == nil {
			break
		}
		fmt.Fprintln(t.out, s.Snapshot().Error)
		email = ""
	}

	fmt.Fprintf(t.out, "We sent an 8-digit code to %s.\n", s.Snapshot().Email)
	for {
		raw, err := t.line(`Code (or "resend"): `)
		if err != nil {
			return nil, err
		}

		if strings.EqualFold(raw, "resend") {
			_ = s.Resend(ctx)
			fmt.Fprintln(t.out, s.Snapshot().Notice)
			continue
		}

		ev, err := s.Paste(ctx, strings.ReplaceAll(raw, " ", ""))
		if sess, ok := s.Result(); ok {
			return sess, nil
		}
		switch {
		case err != nil:
			if msg := s.Snapshot().Error; msg != "" {
				fmt.Fprintln(t.out, msg)
			} else {
				fmt.Fprintln(t.out, verification.UserMessage(err))
			}
		case !ev.Submit:
			fmt.Fprintln(t.out, verification.MessageInvalidCode)
		}
	}
}
