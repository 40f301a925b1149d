package logger

import (
	"strings"
	"testing"
)

func TestScrubRedactsSecrets(t *testing.T) {
	got := scrub([]interface{}{"access_token", "abc", "password", "pw", "ticket", "A001"})
	if got[1] != redacted || got[3] != redacted {
		t.Fatalf("secrets not redacted: %v", got)
	}
	if got[5] != "A001" {
		t.Fatalf("plain value changed: %v", got[5])
	}
}

func TestScrubHashesIdentity(t *testing.T) {
	got := scrub([]interface{}{"user_id", "0b7c", "phone", "+255700000000"})
	for _, idx := range []int{1, 3} {
		s, ok := got[idx].(string)
		if !ok || !strings.HasPrefix(s, "hash:") {
			t.Fatalf("value %d not hashed: %v", idx, got[idx])
		}
	}
	again := scrub([]interface{}{"user_id", "0b7c"})
	if again[1] != got[1] {
		t.Fatalf("hash not stable: %v vs %v", again[1], got[1])
	}
}

func TestScrubOddKeyValues(t *testing.T) {
	got := scrub([]interface{}{"status", "serving", "dangling"})
	if len(got) != 3 || got[2] != "dangling" {
		t.Fatalf("unexpected: %v", got)
	}
}

func TestScrubJWTShapedValue(t *testing.T) {
	jwt := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig"
	got := scrub([]interface{}{"header", jwt})
	if got[1] != redacted {
		t.Fatalf("jwt-shaped value not redacted: %v", got[1])
	}
}
