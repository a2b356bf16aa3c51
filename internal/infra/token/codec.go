package token

import (
	"errors"
	"fmt"
	"time"

	"palisade/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the wire shape of a minted token: registered claims plus a
// snapshot of the principal's roles at login time.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// Codec mints and decodes HS256 bearer tokens under one process-wide
// key. Both operations are pure: the caller supplies the clock.
type Codec struct {
	key    []byte
	ttl    time.Duration
	issuer string
}

func NewCodec(key []byte, ttl time.Duration, issuer string) (*Codec, error) {
	if len(key) == 0 {
		return nil, errors.New("signing key is required")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &Codec{key: key, ttl: ttl, issuer: issuer}, nil
}

func (c *Codec) Mint(subject string, roles []string, now time.Time) (string, error) {
	if subject == "" {
		return "", errors.New("subject is required")
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Roles: roles,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (c *Codec) Decode(tokenString string, now time.Time) (domain.Principal, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(t *jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return domain.Principal{}, domain.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return domain.Principal{}, domain.ErrBadSignature
		default:
			return domain.Principal{}, domain.ErrMalformedToken
		}
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return domain.Principal{}, domain.ErrMalformedToken
	}
	return domain.Principal{
		Subject: claims.Subject,
		Roles:   claims.Roles,
	}, nil
}
