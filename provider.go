package botauth

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenGrant is the result of a refresh exchange, normalized across
// providers. Zero-valued fields were omitted by the provider and must not
// overwrite stored values when the grant is applied.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds until expiry, 0 if the provider sent none
	Scope        string

	// Extra carries provider-specific payload fields to persist alongside
	// the token (e.g. a tenant/location id, or identity claims).
	Extra map[string]any
}

// Provider is the uniform contract every external platform implements.
// Everything provider-specific — wire format of the refresh exchange, how a
// client is authorized — stays behind this interface; no caller branches on
// provider names except where a named sub-service is requested.
type Provider interface {
	// Name returns the registry name, e.g. "google".
	Name() string

	// RefreshToken exchanges a refresh token for a new grant at the
	// provider's token endpoint. Failures are tagged with the provider's
	// refresh error code and never include token values.
	RefreshToken(ctx context.Context, refreshToken string) (*TokenGrant, error)

	// NewClient builds the provider's authorized client from a credential.
	// It does not re-check expiry; callers resolve a valid credential first.
	// Callers type-assert the result to the provider's concrete client type.
	NewClient(ctx context.Context, cred *Credential) (any, error)
}

// ServiceProvider is implemented by providers whose umbrella client can be
// narrowed to named sub-services ("calendar", "gmail", "contacts"). The token
// source is lazy: the provider must not force a token fetch at construction
// time, only on first use of the returned client.
type ServiceProvider interface {
	Provider

	// NewServiceClient returns the named sub-client facade, or an error
	// tagged ErrCodeServiceNotSupported naming the provider and service.
	NewServiceClient(ctx context.Context, src oauth2.TokenSource, service string) (any, error)
}
