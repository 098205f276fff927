package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

const testToken = "123456:TEST-TOKEN"

func fixedVerifier(now time.Time) *Verifier {
	v := NewVerifier(testToken, DefaultMaxAge)
	v.now = func() time.Time { return now }
	return v
}

func TestVerifyAcceptsSignedUser(t *testing.T) {
	now := time.Unix(1_800_000_000, 0)
	data := SignUser(testToken, 42, "Dana", now.Add(-time.Hour))

	ident, err := fixedVerifier(now).Verify(data)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ident.ID != "42" || ident.DisplayName() != "Dana" {
		t.Fatalf("unexpected identity: %+v", ident)
	}
}

func TestVerifyMatchesReferenceAlgorithm(t *testing.T) {
	now := time.Unix(1_800_000_000, 0)
	user := `{"id":7,"first_name":"Avi"}`
	fields := map[string]string{
		"auth_date": strconv.FormatInt(now.Unix(), 10),
		"query_id":  "AAH7",
		"user":      user,
	}
	// secret = HMAC-SHA256(key="WebAppData", msg=token); hash over sorted k=v lines.
	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(testToken))
	check := "auth_date=" + fields["auth_date"] + "\nquery_id=AAH7\nuser=" + user
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(check))

	q := url.Values{}
	for k, v := range fields {
		q.Set(k, v)
	}
	q.Set("hash", hex.EncodeToString(mac.Sum(nil)))

	ident, err := fixedVerifier(now).Verify(q.Encode())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ident.ID != "7" {
		t.Fatalf("expected user 7, got %q", ident.ID)
	}
}

func TestVerifyRejections(t *testing.T) {
	now := time.Unix(1_800_000_000, 0)
	valid := SignUser(testToken, 42, "Dana", now)

	tampered := strings.Replace(valid, "Dana", "Eve", 1)
	noUser := Sign(testToken, url.Values{"auth_date": {strconv.FormatInt(now.Unix(), 10)}})
	noDate := Sign(testToken, url.Values{"user": {`{"id":42}`}})

	tests := []struct {
		name     string
		data     string
		verifier *Verifier
		want     error
	}{
		{"empty", "   ", fixedVerifier(now), ErrMissing},
		{"no hash", "auth_date=1&user=%7B%7D", fixedVerifier(now), ErrMalformed},
		{"tampered", tampered, fixedVerifier(now), ErrSignature},
		{"other token", SignUser("other:token", 42, "Dana", now), fixedVerifier(now), ErrSignature},
		{"expired", SignUser(testToken, 42, "Dana", now.Add(-25*time.Hour)), fixedVerifier(now), ErrExpired},
		{"no user", noUser, fixedVerifier(now), ErrNoUser},
		{"no auth date", noDate, fixedVerifier(now), ErrMalformed},
		{"server without token", valid, NewVerifier("", 0), ErrSignature},
	}
	for _, tt := range tests {
		_, err := tt.verifier.Verify(tt.data)
		if !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestDisplayNameFallbacks(t *testing.T) {
	if got := (Identity{Username: "dana_k"}).DisplayName(); got != "dana_k" {
		t.Fatalf("expected username fallback, got %q", got)
	}
	if got := (Identity{}).DisplayName(); got != "Player" {
		t.Fatalf("expected generic fallback, got %q", got)
	}
}
