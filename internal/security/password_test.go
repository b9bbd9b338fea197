package security_test

import (
	"testing"

	"github.com/nmakri/userhub/internal/security"
)

func TestHashAndVerify(t *testing.T) {
	h := security.NewHasher()

	hash, err := h.Hash("SecurePass123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if hash == "SecurePass123" {
		t.Fatalf("hash equals the plaintext")
	}

	if !h.Verify("SecurePass123", hash) {
		t.Fatalf("Verify rejected the original plaintext")
	}

	if h.Verify("WrongPass999", hash) {
		t.Fatalf("Verify accepted a different plaintext")
	}
}

func TestHashIsSalted(t *testing.T) {
	h := security.NewHasher()

	first, err := h.Hash("SecurePass123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	second, err := h.Hash("SecurePass123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if first == second {
		t.Fatalf("two hashes of the same plaintext are identical, want salted values")
	}

	// both must still verify
	if !h.Verify("SecurePass123", first) || !h.Verify("SecurePass123", second) {
		t.Fatalf("salted hashes must both verify")
	}
}
