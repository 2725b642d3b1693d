package internal

import "testing"

func TestNewOTPDigitsOnly(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := NewOTP(8)
		if err != nil {
			t.Fatalf("NewOTP: %v", err)
		}
		if len(code) != 8 {
			t.Fatalf("expected 8 digits, got %q", code)
		}
		for j := 0; j < len(code); j++ {
			if code[j] < '0' || code[j] > '9' {
				t.Fatalf("non-digit in %q", code)
			}
		}
	}
}

func TestNewOTPRejectsBadLength(t *testing.T) {
	for _, n := range []int{0, 5, 11} {
		if _, err := NewOTP(n); err == nil {
			t.Fatalf("expected error for %d digits", n)
		}
	}
}

func TestSessionIDRoundTrip(t *testing.T) {
	sid, err := NewSessionID()
	if err != nil {
		t.Fatalf("NewSessionID: %v", err)
	}
	parsed, err := ParseSessionID(sid.String())
	if err != nil {
		t.Fatalf("ParseSessionID: %v", err)
	}
	if parsed != sid {
		t.Fatal("session id changed across encode/parse")
	}
	if _, err := ParseSessionID("short"); err == nil {
		t.Fatal("expected error for malformed id")
	}
}

func TestHashCodeBindsEmail(t *testing.T) {
	a := HashCode("a@ufl.edu", "12345678")
	b := HashCode("b@ufl.edu", "12345678")
	if a == b {
		t.Fatal("hash must depend on the email")
	}
	if a != HashCode("a@ufl.edu", "12345678") {
		t.Fatal("hash must be deterministic")
	}
}
