package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"palisade/internal/domain"
)

// SecretVerifier checks a presented secret against a stored hash.
type SecretVerifier interface {
	Verify(secretHash, secret string) error
}

// dummySecretHash is a throwaway bcrypt hash verified on the
// unknown-principal path so that a nonexistent identifier costs the
// same as a wrong secret. Without it, response latency leaks which
// identifiers exist.
const dummySecretHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// LoginService authenticates a principal and mints a bearer token
// carrying the principal's roles as of this login.
type LoginService struct {
	Store    domain.CredentialStore
	Codec    domain.TokenCodec
	Verifier SecretVerifier
	Timeout  time.Duration
	Now      func() time.Time
}

// Login returns a signed token, or ErrInvalidCredentials for both the
// unknown-identifier and wrong-secret cases (the internal cause stays
// wrapped for logging), or ErrStoreUnavailable when the store could not
// answer inside the timeout.
func (s *LoginService) Login(ctx context.Context, identifier, secret string) (string, error) {
	if identifier == "" || secret == "" {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, domain.ErrBadCredential)
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	cred, err := s.Store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownPrincipal) {
			// Burn the same verification work as the known path.
			_ = s.Verifier.Verify(dummySecretHash, secret)
			return "", fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, domain.ErrUnknownPrincipal)
		}
		return "", fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	if err := s.Verifier.Verify(cred.SecretHash, secret); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, domain.ErrBadCredential)
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	signed, err := s.Codec.Mint(cred.Identifier, cred.Roles, now)
	if err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}
	return signed, nil
}
