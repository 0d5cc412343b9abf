package auth

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcnelson/pkg-groups/internal/domain"
)

const (
	testIssuer   = "https://accounts.example.com"
	testClientID = "pkg-groups"
)

type tokenSigner struct {
	t      *testing.T
	key    *rsa.PrivateKey
	signer jose.Signer
}

func newTokenSigner(t *testing.T) *tokenSigner {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(t, err)
	return &tokenSigner{t: t, key: key, signer: signer}
}

func (s *tokenSigner) keySet() oidc.KeySet {
	return &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&s.key.PublicKey}}
}

func (s *tokenSigner) sign(claims map[string]any) string {
	s.t.Helper()
	payload, err := json.Marshal(claims)
	require.NoError(s.t, err)
	jws, err := s.signer.Sign(payload)
	require.NoError(s.t, err)
	raw, err := jws.CompactSerialize()
	require.NoError(s.t, err)
	return raw
}

func baseClaims(email string) map[string]any {
	now := time.Now()
	return map[string]any{
		"iss":   testIssuer,
		"aud":   testClientID,
		"sub":   "user-1",
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}

func TestOIDCVerifierVerify(t *testing.T) {
	signer := newTokenSigner(t)
	v := NewOIDCVerifierWithKeys(testIssuer, testClientID, signer.keySet(), []string{"Example.com"})

	claims, err := v.Verify(context.Background(), signer.sign(baseClaims("fred@example.com")))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "fred@example.com", claims.Email)
}

func TestOIDCVerifierRejects(t *testing.T) {
	signer := newTokenSigner(t)
	other := newTokenSigner(t)
	v := NewOIDCVerifierWithKeys(testIssuer, testClientID, signer.keySet(), []string{"example.com"})

	expired := baseClaims("fred@example.com")
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	wrongAudience := baseClaims("fred@example.com")
	wrongAudience["aud"] = "someone-else"

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong key", other.sign(baseClaims("fred@example.com"))},
		{"expired", signer.sign(expired)},
		{"wrong audience", signer.sign(wrongAudience)},
		{"foreign domain", signer.sign(baseClaims("sally@elsewhere.org"))},
		{"no email", signer.sign(baseClaims(""))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrUnauthorized))
		})
	}
}

func TestValidateClaims(t *testing.T) {
	open := &OIDCVerifier{}
	assert.NoError(t, open.ValidateClaims(&Claims{Email: "anyone@anywhere.net"}))
	assert.Error(t, open.ValidateClaims(&Claims{}))

	restricted := &OIDCVerifier{allowedDomains: []string{"example.com"}}
	assert.NoError(t, restricted.ValidateClaims(&Claims{Email: "barney@EXAMPLE.com"}))
	assert.Error(t, restricted.ValidateClaims(&Claims{Email: "barney"}))
	assert.Error(t, restricted.ValidateClaims(&Claims{Email: "a@b@example.com"}))
	assert.Error(t, restricted.ValidateClaims(&Claims{Email: "barney@example.org"}))
}

func TestKeySet(t *testing.T) {
	ks := NewKeySet([]string{"alpha", "", "beta"})
	assert.Equal(t, 2, ks.Len())
	assert.True(t, ks.Check("alpha"))
	assert.True(t, ks.Check("beta"))
	assert.False(t, ks.Check("gamma"))
	assert.False(t, ks.Check(""))

	var empty *KeySet
	assert.False(t, empty.Check("alpha"))
}

func TestGenerateSecureString(t *testing.T) {
	a, err := GenerateSecureString(32)
	require.NoError(t, err)
	b, err := GenerateSecureString(32)
	require.NoError(t, err)
	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}
