package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Decode failures. Callers answer all three with the same 401; the distinction is for logs and metrics.
var (
	ErrMalformed        = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
)

// Claims is the decoded claim set of an access token.
type Claims struct {
	Subject   string
	RoleID    Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	RoleID int `json:"rol_id"`
	jwt.RegisteredClaims
}

// Codec signs and verifies access tokens with one secret and algorithm fixed at startup.
type Codec struct {
	secret    []byte
	algorithm string
	ttl       time.Duration
	now       func() time.Time
}

func NewCodec(secret []byte, algorithm string, ttl time.Duration) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is empty")
	}
	if _, err := hmacMethod(algorithm); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	s := make([]byte, len(secret))
	copy(s, secret)
	return &Codec{secret: s, algorithm: algorithm, ttl: ttl, now: time.Now}, nil
}

func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue creates a token for subject with role, stamped with the codec's ttl.
func (c *Codec) Issue(subject string, role Role) (string, Claims, error) {
	return encode(Claims{Subject: subject, RoleID: role}, c.secret, c.algorithm, c.ttl, c.now())
}

func (c *Codec) Decode(token string) (Claims, error) {
	return decode(token, c.secret, c.algorithm, c.now)
}

// Encode serializes claims with fresh iat/exp timestamps and signs them.
// The returned Claims carry the timestamps exactly as they were written into the token.
func Encode(claims Claims, secret []byte, algorithm string, ttl time.Duration) (string, Claims, error) {
	return encode(claims, secret, algorithm, ttl, time.Now())
}

// Decode verifies the signature first, then expiry, and returns the claim set.
func Decode(token string, secret []byte, algorithm string) (Claims, error) {
	return decode(token, secret, algorithm, time.Now)
}

func encode(claims Claims, secret []byte, algorithm string, ttl time.Duration, now time.Time) (string, Claims, error) {
	method, err := hmacMethod(algorithm)
	if err != nil {
		return "", Claims{}, err
	}
	if ttl <= 0 {
		return "", Claims{}, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	if claims.Subject == "" {
		return "", Claims{}, errors.New("token subject is empty")
	}
	if !claims.RoleID.Valid() {
		return "", Claims{}, fmt.Errorf("unknown role %d", claims.RoleID)
	}
	// NumericDate has second precision; truncate so the caller sees what the token holds.
	issued := now.UTC().Truncate(time.Second)
	claims.IssuedAt = issued
	claims.ExpiresAt = issued.Add(ttl)

	token := jwt.NewWithClaims(method, tokenClaims{
		RoleID: int(claims.RoleID),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, claims, nil
}

func decode(tokenString string, secret []byte, algorithm string, now func() time.Time) (Claims, error) {
	if _, err := hmacMethod(algorithm); err != nil {
		return Claims{}, err
	}
	var tc tokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &tc, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{algorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, fmt.Errorf("%w: %v", ErrExpired, err)
		default:
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	if tc.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing sub", ErrMalformed)
	}
	role := Role(tc.RoleID)
	if !role.Valid() {
		return Claims{}, fmt.Errorf("%w: unknown rol_id %d", ErrMalformed, tc.RoleID)
	}
	out := Claims{
		Subject:   tc.Subject,
		RoleID:    role,
		ExpiresAt: tc.ExpiresAt.Time.UTC(),
	}
	if tc.IssuedAt != nil {
		out.IssuedAt = tc.IssuedAt.Time.UTC()
	}
	return out, nil
}

func hmacMethod(algorithm string) (*jwt.SigningMethodHMAC, error) {
	m, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	return m, nil
}
