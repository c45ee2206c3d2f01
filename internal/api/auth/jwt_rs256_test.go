package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return priv
}

func signClaims(t *testing.T, priv *rsa.PrivateKey, c Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, c).SignedString(priv)
	require.NoError(t, err)
	return tok
}

func TestSignAndParseRS256(t *testing.T) {
	priv := testKey(t)

	tok, err := SignRS256(priv, 42, "svc", time.Minute)
	require.NoError(t, err)

	claims, err := ParseAndValidateRS256(tok, &priv.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.TenantID)
	assert.Equal(t, "svc", claims.Subject)
	assert.Equal(t, Issuer, claims.Issuer)
	assert.Len(t, claims.ID, 36)
}

func TestSignRS256_Rejects(t *testing.T) {
	priv := testKey(t)

	_, err := SignRS256(nil, 1, "svc", time.Minute)
	assert.ErrorIs(t, err, ErrNilKey)
	_, err = SignRS256(priv, 0, "svc", time.Minute)
	assert.ErrorIs(t, err, ErrMissingTenant)
	_, err = SignRS256(priv, 1, "svc", 0)
	assert.ErrorIs(t, err, ErrBadTTL)
	_, err = SignRS256(priv, 1, "svc", MaxTTL+time.Second)
	assert.ErrorIs(t, err, ErrBadTTL)
}

func TestParseRS256_Rejects(t *testing.T) {
	priv := testKey(t)
	other := testKey(t)
	exp := jwt.NewNumericDate(time.Now().Add(time.Minute))

	cases := []struct {
		name string
		tok  string
		key  *rsa.PublicKey
		want error
	}{
		{
			name: "foreign issuer",
			tok:  signClaims(t, priv, Claims{TenantID: 1, RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else", ExpiresAt: exp}}),
			key:  &priv.PublicKey,
			want: jwt.ErrTokenInvalidIssuer,
		},
		{
			name: "no tenant",
			tok:  signClaims(t, priv, Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer, ExpiresAt: exp}}),
			key:  &priv.PublicKey,
			want: ErrMissingTenant,
		},
		{
			name: "no expiry",
			tok:  signClaims(t, priv, Claims{TenantID: 1, RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer}}),
			key:  &priv.PublicKey,
			want: jwt.ErrTokenRequiredClaimMissing,
		},
		{
			name: "expired beyond leeway",
			tok: signClaims(t, priv, Claims{TenantID: 1, RegisteredClaims: jwt.RegisteredClaims{
				Issuer: Issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			}}),
			key:  &priv.PublicKey,
			want: jwt.ErrTokenExpired,
		},
		{
			name: "wrong key",
			tok:  signClaims(t, priv, Claims{TenantID: 1, RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer, ExpiresAt: exp}}),
			key:  &other.PublicKey,
			want: jwt.ErrTokenSignatureInvalid,
		},
		{name: "nil key", tok: "x", want: ErrNilKey},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseAndValidateRS256(tc.tok, tc.key)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParseRS256_ToleratesSmallSkew(t *testing.T) {
	priv := testKey(t)
	tok := signClaims(t, priv, Claims{TenantID: 3, RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    Issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-10 * time.Second)),
	}})

	claims, err := ParseAndValidateRS256(tok, &priv.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), claims.TenantID)
}

func TestLoadKeysFromEnv(t *testing.T) {
	priv := testKey(t)

	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	// single line with escapes, quoted the way gen-keys -print-env writes it
	t.Setenv("TEST_JWT_PUB", `"`+strings.ReplaceAll(string(pubPEM), "\n", `\n`)+`"`)
	t.Setenv("TEST_JWT_PRIV", string(privPEM))
	t.Setenv("TEST_JWT_GARBAGE", "not a pem")

	pub, err := LoadRSAPublicKeyFromEnv("TEST_JWT_PUB")
	require.NoError(t, err)
	assert.True(t, pub.Equal(&priv.PublicKey))

	got, err := LoadRSAPrivateKeyFromEnv("TEST_JWT_PRIV")
	require.NoError(t, err)
	assert.True(t, got.Equal(priv))

	_, err = LoadRSAPublicKeyFromEnv("TEST_JWT_UNSET")
	assert.EqualError(t, err, "TEST_JWT_UNSET is not set")

	_, err = LoadRSAPrivateKeyFromEnv("TEST_JWT_GARBAGE")
	assert.ErrorContains(t, err, "parse private key from TEST_JWT_GARBAGE")
}
