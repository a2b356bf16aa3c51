package secret

import (
	"errors"
	"testing"

	"palisade/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptVerifier(t *testing.T) {
	hashed, err := Hash("correct horse", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	verifier := BcryptVerifier{}
	if err := verifier.Verify(hashed, "correct horse"); err != nil {
		t.Fatalf("matching secret rejected: %v", err)
	}
	if err := verifier.Verify(hashed, "wrong"); !errors.Is(err, domain.ErrBadCredential) {
		t.Fatalf("expected ErrBadCredential, got %v", err)
	}
	if err := verifier.Verify("not-a-hash", "anything"); !errors.Is(err, domain.ErrBadCredential) {
		t.Fatalf("garbage hash must read as bad credential, got %v", err)
	}
}
