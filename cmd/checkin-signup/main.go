// checkin-signup registers a UF address against a running checkin-server
// and walks through the emailed code confirmation in the terminal.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/ufacm/checkin/client"
	"github.com/ufacm/checkin/internal/logging"
	"github.com/ufacm/checkin/verification"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flagSet := pflag.NewFlagSet("checkin-signup", pflag.ContinueOnError)
	server := flagSet.String("server", "http://localhost:8080", "base URL of checkin-server")
	email := flagSet.String("email", "", "address to register (prompted when empty)")
	redirectTo := flagSet.String("redirect-to", "/dashboard", "page to open after confirmation")
	timeout := flagSet.Duration("timeout", verification.DefaultTimeout, "bound on each request to the server")
	printToken := flagSet.Bool("print-token", false, "print the session token after confirmation")
	verbose := flagSet.BoolP("verbose", "v", false, "log requests to stderr")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	logger := zerolog.Nop()
	if *verbose {
		var err error
		if logger, err = logging.NewWriter(os.Stderr, "debug", "console"); err != nil {
			return err
		}
	}

	provider, err := client.New(client.Config{BaseURL: *server, Logger: logger})
	if err != nil {
		return err
	}
	s, err := verification.New(verification.Options{
		Provider:   provider,
		RedirectTo: *redirectTo,
		Timeout:    *timeout,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	fd := int(os.Stdin.Fd())
	t := &terminal{
		in:    bufio.NewReader(os.Stdin),
		out:   os.Stdout,
		fd:    fd,
		isTTY: term.IsTerminal(fd),
	}

	sess, err := signup(context.Background(), t, s, *email)
	if err != nil {
		return err
	}

	fmt.Fprintf(t.out, "Confirmed %s. Session valid until %s.\n", sess.User.Email, sess.ExpiresAt.Local().Format(time.RFC1123))
	if *printToken {
		fmt.Fprintln(t.out, sess.AccessToken)
	}
	return nil
}
