package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Identity is the caller as established by a verified token.
type Identity struct {
	Email     string
	Role      Role
	ExpiresAt time.Time
}

// Guard authenticates requests by bearer token. It holds no per-request state.
type Guard struct {
	codec *Codec
}

func NewGuard(codec *Codec) *Guard {
	return &Guard{codec: codec}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", ErrUnauthorized)
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: authorization scheme is not bearer", ErrUnauthorized)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: empty bearer token", ErrUnauthorized)
	}
	return token, nil
}

// Authenticate returns the caller identity or an error wrapping ErrUnauthorized.
// Decode failures also wrap the codec error so the reason can be logged.
func (g *Guard) Authenticate(r *http.Request) (Identity, error) {
	token, err := BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return Identity{}, err
	}
	claims, err := g.codec.Decode(token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return Identity{Email: claims.Subject, Role: claims.RoleID, ExpiresAt: claims.ExpiresAt}, nil
}

// Authorize fails with ErrForbidden unless id.Role is one of required.
func Authorize(id Identity, required ...Role) error {
	for _, r := range required {
		if id.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %s not permitted", ErrForbidden, id.Role)
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
