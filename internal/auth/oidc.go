package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/bcnelson/pkg-groups/internal/domain"
)

// TokenVerifier verifies a raw bearer token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Claims, error)
}

// Claims represents the claims read from an ID token.
type Claims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// OIDCVerifier verifies ID tokens issued for the configured client.
type OIDCVerifier struct {
	verifier       *oidc.IDTokenVerifier
	allowedDomains []string
}

// NewOIDCVerifier discovers the issuer and builds a verifier for clientID.
func NewOIDCVerifier(ctx context.Context, issuerURL, clientID string, allowedDomains []string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	return &OIDCVerifier{
		verifier:       provider.Verifier(&oidc.Config{ClientID: clientID}),
		allowedDomains: allowedDomains,
	}, nil
}

// NewOIDCVerifierWithKeys builds a verifier that checks signatures against a
// fixed key set instead of the issuer's discovery document.
func NewOIDCVerifierWithKeys(issuerURL, clientID string, keys oidc.KeySet, allowedDomains []string) *OIDCVerifier {
	return &OIDCVerifier{
		verifier:       oidc.NewVerifier(issuerURL, keys, &oidc.Config{ClientID: clientID}),
		allowedDomains: allowedDomains,
	}
}

// Verify checks the token signature, issuer, audience and expiry, then the
// email domain restriction.
func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	var claims Claims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: failed to parse claims: %v", domain.ErrUnauthorized, err)
	}
	if err := v.ValidateClaims(&claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// ValidateClaims checks if the claims meet requirements (e.g., domain restriction).
func (v *OIDCVerifier) ValidateClaims(claims *Claims) error {
	if claims.Email == "" {
		return fmt.Errorf("%w: email claim is required", domain.ErrUnauthorized)
	}

	if len(v.allowedDomains) > 0 {
		local, host, ok := strings.Cut(claims.Email, "@")
		if !ok || local == "" || strings.Contains(host, "@") {
			return fmt.Errorf("%w: invalid email format", domain.ErrUnauthorized)
		}
		host = strings.ToLower(host)

		allowed := false
		for _, d := range v.allowedDomains {
			if strings.ToLower(d) == host {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: email domain %s is not allowed", domain.ErrUnauthorized, host)
		}
	}

	return nil
}
