package secret

import (
	"palisade/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// BcryptVerifier is the default usecase.SecretVerifier. Hash algorithm
// selection stays behind that interface; swapping it does not touch the
// login flow.
type BcryptVerifier struct{}

func (BcryptVerifier) Verify(secretHash, secret string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(secretHash), []byte(secret)); err != nil {
		return domain.ErrBadCredential
	}
	return nil
}

// Hash exists for provisioning scripts and tests.
func Hash(secret string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
