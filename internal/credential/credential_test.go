package credential

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordIsSHA256Hex(t *testing.T) {
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := HashPassword("abc"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	h := Hasher{Cost: bcrypt.MinCost}
	store, err := h.New("Abcd12!", "a1@bc")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if store.passwordHash == "Abcd12!" || string(store.pinHash) == "a1@bc" {
		t.Fatal("credentials stored in plaintext")
	}
	if !store.Verify("Abcd12!", "a1@bc") {
		t.Fatal("expected exact credentials to verify")
	}

	for _, tc := range []struct{ password, pin string }{
		{"Abcd12?", "a1@bc"},
		{"abcd12!", "a1@bc"},
		{"Abcd12!", "a1@bd"},
		{"Abcd12!", "A1@bc"},
		{"", ""},
	} {
		if store.Verify(tc.password, tc.pin) {
			t.Fatalf("expected %q/%q to fail verification", tc.password, tc.pin)
		}
	}
}

func TestZeroStoreNeverVerifies(t *testing.T) {
	var s Store
	if s.Verify("", "") {
		t.Fatal("zero store must not verify")
	}
}

func TestNewRejectsBadCost(t *testing.T) {
	_, err := Hasher{Cost: bcrypt.MaxCost + 1}.New("Abcd12!", "a1@bc")
	if !errors.Is(err, ErrHashUnavailable) {
		t.Fatalf("expected ErrHashUnavailable, got %v", err)
	}
}
