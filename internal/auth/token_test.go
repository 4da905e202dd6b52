package auth

import (
	"errors"
	"testing"
	"time"
)

func TestMintVerify_RoundTrip(t *testing.T) {
	tp := NewTokenProvider("test-secret", time.Hour)

	want := Principal{
		Subject:  "42",
		Username: "budi",
		Email:    "budi@example.com",
		Name:     "Budi Santoso",
		Role:     "driver",
	}
	raw, err := tp.Mint(want)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	got, err := tp.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != want {
		t.Fatalf("principal mismatch: got %+v want %+v", got, want)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	raw, err := NewTokenProvider("secret-a", time.Hour).Mint(Principal{Subject: "1"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := NewTokenProvider("secret-b", time.Hour).Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	tp := NewTokenProvider("test-secret", time.Minute)
	tp.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }

	raw, err := tp.Mint(Principal{Subject: "1"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	tp.now = time.Now
	if _, err := tp.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	tp := NewTokenProvider("test-secret", time.Hour)
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := tp.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%q: got %v", raw, err)
		}
	}
}
