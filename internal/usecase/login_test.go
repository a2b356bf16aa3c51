package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"palisade/internal/domain"
	"palisade/internal/infra/token"
)

type memCredentialStore struct {
	creds map[string]domain.Credential
	err   error
	delay time.Duration
}

func (m *memCredentialStore) GetByIdentifier(ctx context.Context, identifier string) (*domain.Credential, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	cred, ok := m.creds[identifier]
	if !ok {
		return nil, domain.ErrUnknownPrincipal
	}
	return &cred, nil
}

// plainVerifier avoids bcrypt cost in tests; the login flow only sees
// the SecretVerifier interface.
type plainVerifier struct {
	calls int
}

func (v *plainVerifier) Verify(secretHash, secret string) error {
	v.calls++
	if secretHash != "hash:"+secret {
		return domain.ErrBadCredential
	}
	return nil
}

func newLoginService(t *testing.T, store domain.CredentialStore, verifier SecretVerifier) *LoginService {
	t.Helper()
	codec, err := token.NewCodec([]byte("0123456789abcdef0123456789abcdef"), 10*time.Hour, "palisade-test")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return &LoginService{
		Store:    store,
		Codec:    codec,
		Verifier: verifier,
		Timeout:  time.Second,
		Now:      func() time.Time { return time.Unix(1_700_000_000, 0) },
	}
}

func TestLoginSuccessMintsRoleSnapshot(t *testing.T) {
	store := &memCredentialStore{creds: map[string]domain.Credential{
		"alice": {Identifier: "alice", SecretHash: "hash:correct", Roles: []string{"USER"}},
	}}
	svc := newLoginService(t, store, &plainVerifier{})

	signed, err := svc.Login(context.Background(), "alice", "correct")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	principal, err := svc.Codec.Decode(signed, time.Unix(1_700_000_000, 0))
	if err != nil {
		t.Fatalf("decode minted token: %v", err)
	}
	if principal.Subject != "alice" {
		t.Fatalf("expected subject alice, got %q", principal.Subject)
	}
	if len(principal.Roles) != 1 || principal.Roles[0] != "USER" {
		t.Fatalf("expected role snapshot [USER], got %v", principal.Roles)
	}
}

func TestLoginUnknownAndWrongSecretAreIndistinguishable(t *testing.T) {
	store := &memCredentialStore{creds: map[string]domain.Credential{
		"alice": {Identifier: "alice", SecretHash: "hash:correct", Roles: []string{"USER"}},
	}}
	verifier := &plainVerifier{}
	svc := newLoginService(t, store, verifier)

	_, unknownErr := svc.Login(context.Background(), "nobody", "whatever")
	_, wrongErr := svc.Login(context.Background(), "alice", "wrong")

	if !errors.Is(unknownErr, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown identifier: expected ErrInvalidCredentials, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong secret: expected ErrInvalidCredentials, got %v", wrongErr)
	}
	// Both paths must do the same verification work.
	if verifier.calls != 2 {
		t.Fatalf("expected one verifier call per attempt, got %d", verifier.calls)
	}
	// Internal causes stay distinguishable for logging.
	if !errors.Is(unknownErr, domain.ErrUnknownPrincipal) {
		t.Fatalf("unknown cause lost: %v", unknownErr)
	}
	if !errors.Is(wrongErr, domain.ErrBadCredential) {
		t.Fatalf("bad-credential cause lost: %v", wrongErr)
	}
}

func TestLoginStoreTimeoutIsUnavailable(t *testing.T) {
	store := &memCredentialStore{delay: 200 * time.Millisecond}
	svc := newLoginService(t, store, &plainVerifier{})
	svc.Timeout = 20 * time.Millisecond

	_, err := svc.Login(context.Background(), "alice", "correct")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("a store failure must not read as a credential verdict: %v", err)
	}
}

func TestLoginStoreErrorIsUnavailable(t *testing.T) {
	store := &memCredentialStore{err: errors.New("connection refused")}
	svc := newLoginService(t, store, &plainVerifier{})

	_, err := svc.Login(context.Background(), "alice", "correct")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestLoginEmptyInputRejected(t *testing.T) {
	svc := newLoginService(t, &memCredentialStore{}, &plainVerifier{})
	for _, pair := range [][2]string{{"", "secret"}, {"alice", ""}} {
		if _, err := svc.Login(context.Background(), pair[0], pair[1]); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("empty input %q/%q: expected ErrInvalidCredentials, got %v", pair[0], pair[1], err)
		}
	}
}
