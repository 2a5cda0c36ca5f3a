package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		t.Run(alg, func(t *testing.T) {
			secret := []byte("round-trip-secret")
			tok, issued, err := Encode(Claims{Subject: "estu1@escuela.com", RoleID: RoleStudent}, secret, alg, 30*time.Minute)
			require.NoError(t, err)
			require.Len(t, strings.Split(tok, "."), 3)
			require.Equal(t, issued.IssuedAt.Add(30*time.Minute), issued.ExpiresAt)

			got, err := Decode(tok, secret, alg)
			require.NoError(t, err)
			require.Equal(t, issued, got)
		})
	}
}

func TestTokenWireClaims(t *testing.T) {
	tok, _, err := Encode(Claims{Subject: "admin@escuela.com", RoleID: RoleAdmin}, []byte("k"), "HS256", time.Minute)
	require.NoError(t, err)

	mc := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, mc)
	require.NoError(t, err)
	require.Equal(t, "admin@escuela.com", mc["sub"])
	require.EqualValues(t, 3, mc["rol_id"])
	require.Contains(t, mc, "exp")
	require.Contains(t, mc, "iat")
}

func TestDecodeWrongSecret(t *testing.T) {
	tok, _, err := Encode(Claims{Subject: "a@b.co", RoleID: RoleTeacher}, []byte("right-secret"), "HS256", time.Hour)
	require.NoError(t, err)

	_, err = Decode(tok, []byte("wrong-secret"), "HS256")
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecodeAlgorithmMismatch(t *testing.T) {
	tok, _, err := Encode(Claims{Subject: "a@b.co", RoleID: RoleTeacher}, []byte("k"), "HS512", time.Hour)
	require.NoError(t, err)

	_, err = Decode(tok, []byte("k"), "HS256")
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecodeExpired(t *testing.T) {
	secret := []byte("secret")
	past := time.Now().Add(-2 * time.Hour)
	tok, _, err := encode(Claims{Subject: "a@b.co", RoleID: RoleStudent}, secret, "HS256", time.Hour, past)
	require.NoError(t, err)

	_, err = Decode(tok, secret, "HS256")
	require.ErrorIs(t, err, ErrExpired)
	require.NotErrorIs(t, err, ErrInvalidSignature)
}

func TestDecodeExpiredWithWrongSecretReportsSignature(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	tok, _, err := encode(Claims{Subject: "a@b.co", RoleID: RoleStudent}, []byte("s1"), "HS256", time.Hour, past)
	require.NoError(t, err)

	_, err = Decode(tok, []byte("s2"), "HS256")
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecodeMalformed(t *testing.T) {
	for _, tok := range []string{"", "abc", "not.a.jwt", "a.b.c.d"} {
		_, err := Decode(tok, []byte("k"), "HS256")
		require.ErrorIs(t, err, ErrMalformed, "token %q", tok)
	}
}

func TestDecodeRejectsMissingExpiry(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "a@b.co", "rol_id": 1}).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = Decode(tok, []byte("k"), "HS256")
	require.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeRejectsUnknownRole(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    "a@b.co",
		"rol_id": 9,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = Decode(tok, []byte("k"), "HS256")
	require.ErrorIs(t, err, ErrMalformed)
}

func TestEncodeRejectsBadInput(t *testing.T) {
	_, _, err := Encode(Claims{Subject: "a@b.co", RoleID: RoleStudent}, []byte("k"), "HS256", 0)
	require.Error(t, err)
	_, _, err = Encode(Claims{Subject: "", RoleID: RoleStudent}, []byte("k"), "HS256", time.Minute)
	require.Error(t, err)
	_, _, err = Encode(Claims{Subject: "a@b.co", RoleID: Role(7)}, []byte("k"), "HS256", time.Minute)
	require.Error(t, err)
	_, _, err = Encode(Claims{Subject: "a@b.co", RoleID: RoleStudent}, []byte("k"), "RS256", time.Minute)
	require.Error(t, err)
}

func TestCodecUsesInjectedClock(t *testing.T) {
	c, err := NewCodec([]byte("codec-secret"), "HS256", time.Minute)
	require.NoError(t, err)

	tok, issued, err := c.Issue("profe1@escuela.com", RoleTeacher)
	require.NoError(t, err)

	got, err := c.Decode(tok)
	require.NoError(t, err)
	require.Equal(t, issued, got)

	c.now = func() time.Time { return issued.ExpiresAt.Add(time.Minute) }
	_, err = c.Decode(tok)
	require.ErrorIs(t, err, ErrExpired)
}

func TestNewCodecValidation(t *testing.T) {
	_, err := NewCodec(nil, "HS256", time.Minute)
	require.Error(t, err)
	_, err = NewCodec([]byte("k"), "none", time.Minute)
	require.Error(t, err)
	_, err = NewCodec([]byte("k"), "HS256", -time.Second)
	require.Error(t, err)
}
