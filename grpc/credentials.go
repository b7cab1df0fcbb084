// Package grpc adapts botauth tokens to gRPC call credentials, for domain
// services that talk to a provider's gRPC surface (or an internal gateway)
// and only need a valid bearer token per call.
package grpc

import (
	"context"

	"google.golang.org/grpc/credentials"

	"github.com/relaybot/botauth"
)

// TokenCredentials implements credentials.PerRPCCredentials over a botauth
// Service: every RPC asks the service for a currently valid token, so
// refreshes happen transparently between calls.
type TokenCredentials struct {
	service *botauth.Service
	ref     botauth.CredentialRef

	// AllowInsecure permits attaching tokens on connections without
	// transport security. Leave false outside of tests.
	AllowInsecure bool
}

// NewTokenCredentials creates per-RPC credentials for one resolution target.
func NewTokenCredentials(service *botauth.Service, ref botauth.CredentialRef) *TokenCredentials {
	return &TokenCredentials{service: service, ref: ref}
}

// GetRequestMetadata fetches a valid token and attaches it as a bearer
// authorization header.
func (c *TokenCredentials) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	token, err := c.service.GetToken(ctx, c.ref)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"authorization": "Bearer " + token,
	}, nil
}

// RequireTransportSecurity reports whether the connection must be secure
// before tokens are attached.
func (c *TokenCredentials) RequireTransportSecurity() bool {
	return !c.AllowInsecure
}

var _ credentials.PerRPCCredentials = (*TokenCredentials)(nil)
