package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// googleIssuers are the issuers Google stamps on ID tokens.
var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// GoogleIdentity is the verified subset of a Google ID token.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
}

// GoogleVerifier verifies Google ID tokens.
type GoogleVerifier interface {
	Verify(ctx context.Context, credential string) (*GoogleIdentity, error)
}

type googleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

type googleVerifier struct {
	keyfunc  jwt.Keyfunc
	audience string
}

// NewGoogleVerifier fetches Google's signing keys from jwksURL and keeps
// them refreshed in the background until ctx is cancelled.
func NewGoogleVerifier(ctx context.Context, jwksURL, clientID string) (GoogleVerifier, error) {
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to load google signing keys: %w", err)
	}
	return NewGoogleVerifierWithKeyfunc(jwks.Keyfunc, clientID), nil
}

// NewGoogleVerifierWithKeyfunc builds a verifier around an existing key
// lookup.
func NewGoogleVerifierWithKeyfunc(kf jwt.Keyfunc, clientID string) GoogleVerifier {
	return &googleVerifier{keyfunc: kf, audience: clientID}
}

// Verify checks signature, audience, issuer and expiry. Every failure is
// ErrInvalidCredentials.
func (v *googleVerifier) Verify(ctx context.Context, credential string) (*GoogleIdentity, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "google.verify")
	defer span.End()

	if v.audience == "" {
		span.SetStatus(codes.Error, "audience not configured")
		return nil, fmt.Errorf("%w: google sign-in is not configured", ErrInvalidCredentials)
	}

	var claims googleClaims
	token, err := jwt.ParseWithClaims(credential, &claims, v.keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		span.SetStatus(codes.Error, "invalid token")
		return nil, fmt.Errorf("%w: google token rejected", ErrInvalidCredentials)
	}
	if !googleIssuers[claims.Issuer] {
		span.SetStatus(codes.Error, "bad issuer")
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidCredentials, claims.Issuer)
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: google token has no email", ErrInvalidCredentials)
	}
	return &GoogleIdentity{Subject: claims.Subject, Email: email, Name: claims.Name}, nil
}
