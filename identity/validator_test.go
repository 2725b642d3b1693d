package identity

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	v := Default()

	cases := []struct {
		name  string
		email string
		want  error
	}{
		{name: "empty is not flagged", email: "", want: nil},
		{name: "institutional", email: "albert.gator@ufl.edu", want: nil},
		{name: "plus addressing", email: "a+checkin@ufl.edu", want: nil},
		{name: "other domain", email: "albert@gmail.com", want: ErrInvalidEmailDomain},
		{name: "subdomain", email: "albert@cise.ufl.edu", want: ErrInvalidEmailDomain},
		{name: "upper-case domain", email: "albert@UFL.EDU", want: ErrInvalidEmailDomain},
		{name: "suffix only", email: "@ufl.edu", want: ErrInvalidEmailDomain},
		{name: "whitespace in local part", email: "al bert@ufl.edu", want: ErrInvalidEmailDomain},
		{name: "double at", email: "a@b@ufl.edu", want: ErrInvalidEmailDomain},
		{name: "trailing text", email: "a@ufl.edu.evil.com", want: ErrInvalidEmailDomain},
		{name: "dot not wildcard", email: "a@uflxedu", want: ErrInvalidEmailDomain},
		{name: "trailing newline", email: "a@ufl.edu\n", want: ErrInvalidEmailDomain},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateEmail(tc.email)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected %q to be valid, got %v", tc.email, err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v for %q, got %v", tc.want, tc.email, err)
			}
		})
	}
}

func TestValidateEmailCustomDomain(t *testing.T) {
	v := NewValidator("@example.edu")
	if v.Domain() != "example.edu" {
		t.Fatalf("expected normalized domain, got %q", v.Domain())
	}
	if err := v.ValidateEmail("a@example.edu"); err != nil {
		t.Fatalf("expected custom domain to validate, got %v", err)
	}

	err := v.ValidateEmail("a@ufl.edu")
	if !errors.Is(err, ErrInvalidEmailDomain) {
		t.Fatalf("expected domain error, got %v", err)
	}
	if err.Error() != "Email must end with @example.edu" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestMatchEmailRejectsEmpty(t *testing.T) {
	if Default().MatchEmail("") {
		t.Fatal("empty email must not match")
	}
}

func TestRequireEmail(t *testing.T) {
	v := Default()
	if err := v.RequireEmail(""); !errors.Is(err, ErrInvalidEmailDomain) {
		t.Fatalf("expected domain error for empty email, got %v", err)
	}
	if err := v.RequireEmail("albert@ufl.edu"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestValidatePassword(t *testing.T) {
	v := Default()

	cases := []struct {
		name    string
		pass    string
		confirm string
		want    error
	}{
		{name: "too short matching", pass: "abc12", confirm: "abc12", want: ErrPasswordTooShort},
		{name: "too short mismatching", pass: "abc", confirm: "zzz", want: ErrPasswordTooShort},
		{name: "empty", pass: "", confirm: "", want: ErrPasswordTooShort},
		{name: "mismatch", pass: "abcdef", confirm: "abcdeg", want: ErrPasswordMismatch},
		{name: "ok at boundary", pass: "abcdef", confirm: "abcdef", want: nil},
		{name: "multibyte counted per character", pass: "ééééé", confirm: "ééééé", want: ErrPasswordTooShort},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidatePassword(tc.pass, tc.confirm)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected valid password, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestValidatePasswordShortAlwaysWins(t *testing.T) {
	v := Default()
	for n := 0; n < MinPasswordLength; n++ {
		pass := strings.Repeat("x", n)
		for _, confirm := range []string{pass, pass + "y", ""} {
			if err := v.ValidatePassword(pass, confirm); !errors.Is(err, ErrPasswordTooShort) {
				t.Fatalf("len %d confirm %q: expected too short, got %v", n, confirm, err)
			}
		}
	}
}

func TestValidateName(t *testing.T) {
	v := Default()

	cases := []struct {
		name  string
		input string
		want  error
	}{
		{name: "empty", input: "", want: ErrNameRequired},
		{name: "whitespace only", input: " \t ", want: ErrNameRequired},
		{name: "plain", input: "Albert", want: nil},
		{name: "apostrophe and hyphen", input: "O'Brien-Smith", want: nil},
		{name: "spaces", input: "Mary Ann", want: nil},
		{name: "digits", input: "R2D2", want: ErrNameFormatInvalid},
		{name: "punctuation", input: "Al.", want: ErrNameFormatInvalid},
		{name: "non-ascii letter", input: "José", want: ErrNameFormatInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateName(tc.input)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected valid name, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestValidationErrorIsMatchesReasonOnly(t *testing.T) {
	custom := &ValidationError{Reason: ReasonPasswordMismatch, Message: "different text"}
	if !errors.Is(custom, ErrPasswordMismatch) {
		t.Fatal("expected reason-based match")
	}
	if errors.Is(custom, ErrPasswordTooShort) {
		t.Fatal("expected no match across reasons")
	}
}

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"john":              "John",
		"o'brien-SMITH":     "O'brien-smith",
		"  mary   ANN  ":    "Mary Ann",
		"JEAN\tluc":         "Jean Luc",
		"":                  "",
		"x":                 "X",
		"de la CRUZ":        "De La Cruz",
		"'apostrophe first": "'apostrophe First",
	}

	for in, want := range cases {
		if got := NormalizeName(in); got != want {
			t.Fatalf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}
